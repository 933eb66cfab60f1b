package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// OperationType represents the type of operation performed
type OperationType string

const (
	OperationCreate OperationType = "CREATE"
	OperationUpdate OperationType = "UPDATE"
	OperationDelete OperationType = "DELETE"
	OperationLogin  OperationType = "LOGIN"
	OperationLogout OperationType = "LOGOUT"
)

// ResourceType represents the type of resource being accessed
type ResourceType string

const (
	ResourceSession    ResourceType = "session"
	ResourceMedication ResourceType = "medication"
	ResourceAlarm      ResourceType = "alarm"
	ResourceConnection ResourceType = "health_connection"
	ResourceCheckIn    ResourceType = "check_in"
	ResourceReport     ResourceType = "report"
)

// Entry represents an audit log entry
type Entry struct {
	UserID         string
	OperationType  OperationType
	ResourceType   ResourceType
	ResourceID     string
	Timestamp      time.Time
	AdditionalData map[string]any
}

// Logger records who touched which health record when
type Logger struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLogger creates a new audit logger
func NewLogger(db *sql.DB, logger *zap.Logger) *Logger {
	return &Logger{
		db:     db,
		logger: logger,
	}
}

// Log creates an audit log entry
func (l *Logger) Log(ctx context.Context, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.logger.Info("audit log entry",
		zap.String("user_id", entry.UserID),
		zap.String("operation", string(entry.OperationType)),
		zap.String("resource_type", string(entry.ResourceType)),
		zap.String("resource_id", entry.ResourceID),
		zap.Time("timestamp", entry.Timestamp),
	)

	var additional []byte
	if entry.AdditionalData != nil {
		var err error
		additional, err = json.Marshal(entry.AdditionalData)
		if err != nil {
			l.logger.Warn("failed to serialize audit data", zap.Error(err))
			additional = nil
		}
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO audit_logs (user_id, operation_type, resource_type, resource_id, timestamp, additional_data)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		entry.UserID,
		entry.OperationType,
		entry.ResourceType,
		entry.ResourceID,
		entry.Timestamp,
		additional,
	)
	if err != nil {
		l.logger.Error("failed to write audit log",
			zap.Error(err),
			zap.String("user_id", entry.UserID),
			zap.String("operation", string(entry.OperationType)),
		)
		return err
	}

	return nil
}
