package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"carepulse/internal/config"
)

// New builds the application logger. Development gets the console
// encoder on stderr; production gets JSON, optionally teed into a
// rotated log file.
func New(cfg config.LoggingConfig, environment string) (*zap.Logger, error) {
	if environment != "production" {
		devCfg := zap.NewDevelopmentConfig()
		if err := applyLevel(&devCfg, cfg.Level); err != nil {
			return nil, err
		}
		return devCfg.Build()
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, err
		}
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}

	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotated), level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func applyLevel(c *zap.Config, level string) error {
	if level == "" {
		return nil
	}
	var l zapcore.Level
	if err := l.Set(level); err != nil {
		return err
	}
	c.Level = zap.NewAtomicLevelAt(l)
	return nil
}
