package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	AI      AIConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
}

// StorageConfig holds local storage configuration
type StorageConfig struct {
	DataDir      string
	DatabasePath string
	ReportDir    string
	Passphrase   string
}

// AuthConfig holds session store timing configuration. The delays
// stand in for backend latency until a real identity provider is
// wired behind the Authenticator seam.
type AuthConfig struct {
	LoginDelay   time.Duration
	LogoutDelay  time.Duration
	ConnectDelay time.Duration
}

// AIConfig holds AI chat configuration. An empty APIKey selects the
// canned responder.
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string
	File       string // empty means stderr only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)

	v.SetDefault("storage.datadir", "data")
	v.SetDefault("storage.databasepath", "data/carepulse.db")
	v.SetDefault("storage.reportdir", "data/reports")
	v.SetDefault("storage.passphrase", "")

	v.SetDefault("auth.logindelay", 800*time.Millisecond)
	v.SetDefault("auth.logoutdelay", 300*time.Millisecond)
	v.SetDefault("auth.connectdelay", 1500*time.Millisecond)

	v.SetDefault("ai.model", "gpt-4o-mini")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.maxsizemb", 50)
	v.SetDefault("logging.maxbackups", 3)
	v.SetDefault("logging.maxagedays", 28)
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")
	v.BindEnv("server.shutdowntimeout", "SHUTDOWN_TIMEOUT")

	v.BindEnv("storage.datadir", "DATA_DIR")
	v.BindEnv("storage.databasepath", "DATABASE_PATH")
	v.BindEnv("storage.reportdir", "REPORT_DIR")
	v.BindEnv("storage.passphrase", "STORAGE_PASSPHRASE")

	v.BindEnv("auth.logindelay", "LOGIN_DELAY")
	v.BindEnv("auth.logoutdelay", "LOGOUT_DELAY")
	v.BindEnv("auth.connectdelay", "CONNECT_DELAY")

	v.BindEnv("ai.apikey", "OPENAI_API_KEY")
	v.BindEnv("ai.baseurl", "OPENAI_BASE_URL")
	v.BindEnv("ai.model", "OPENAI_MODEL")

	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.file", "LOG_FILE")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.datadir is required")
	}

	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.databasepath is required")
	}

	if c.Auth.LoginDelay < 0 || c.Auth.LogoutDelay < 0 || c.Auth.ConnectDelay < 0 {
		return fmt.Errorf("auth delays must not be negative")
	}

	return nil
}
