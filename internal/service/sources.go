package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"carepulse/internal/audit"
	"carepulse/internal/notify"
	"carepulse/pkg/model"
)

// ErrConnectionFailed is returned when a health data source cannot be
// connected, including attempts against unknown source ids.
var ErrConnectionFailed = errors.New("connection failed")

// HealthSourceService keeps the fixed registry of health data
// connections and the pointer to the active one. Connections are
// seeded at startup and never removed; connecting an external source
// simulates the provider handshake with a configured delay.
type HealthSourceService struct {
	toasts       *notify.Center
	audit        Auditor
	logger       *zap.Logger
	connectDelay time.Duration

	mu          sync.Mutex
	connections []model.HealthDataConnection
	activeID    string
}

// NewHealthSourceService creates the registry with its seeded
// connections. Manual entry starts connected and active.
func NewHealthSourceService(connectDelay time.Duration, toasts *notify.Center, auditLogger Auditor, logger *zap.Logger) *HealthSourceService {
	return &HealthSourceService{
		toasts:       toasts,
		audit:        auditLogger,
		logger:       logger,
		connectDelay: connectDelay,
		connections: []model.HealthDataConnection{
			{ID: "local", Name: "Manual Entry", Type: model.SourceLocal, Connected: true},
			{ID: "google-fit", Name: "Google Fit", Type: model.SourceGoogleFit, Connected: false},
			{ID: "apple-health", Name: "Apple Health", Type: model.SourceAppleHealth, Connected: false},
			{ID: "samsung", Name: "Samsung Health", Type: model.SourceSamsung, Connected: false},
			{ID: "fitbit", Name: "Fitbit", Type: model.SourceFitbit, Connected: false},
		},
		activeID: "local",
	}
}

// Connections returns a copy of the registry in seeded order
func (s *HealthSourceService) Connections() []model.HealthDataConnection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.HealthDataConnection{}, s.connections...)
}

// Active returns the currently selected connection
func (s *HealthSourceService) Active() model.HealthDataConnection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return *s.findLocked(s.activeID)
}

// ActiveSource returns the provider type of the selected connection
func (s *HealthSourceService) ActiveSource() model.SourceType {
	return s.Active().Type
}

// Connect makes sourceID the primary data source. An already
// connected source switches over immediately; a disconnected one goes
// through the simulated provider handshake first.
func (s *HealthSourceService) Connect(ctx context.Context, userID, sourceID string) (model.HealthDataConnection, error) {
	s.mu.Lock()
	conn := s.findLocked(sourceID)
	if conn == nil {
		s.mu.Unlock()
		s.logger.Warn("connect attempt for unknown source", zap.String("source_id", sourceID))
		return model.HealthDataConnection{}, fmt.Errorf("%w: unknown source %q", ErrConnectionFailed, sourceID)
	}

	if conn.Connected {
		s.activeID = sourceID
		out := *conn
		s.mu.Unlock()

		s.toasts.Success("Data source updated", fmt.Sprintf("Now using %s as your primary health data source.", out.Name))

		return out, nil
	}
	s.mu.Unlock()

	// Handshake runs outside the lock so other sources stay readable.
	s.logger.Info("connecting to health source", zap.String("source_id", sourceID))
	select {
	case <-ctx.Done():
		return model.HealthDataConnection{}, fmt.Errorf("%w: %v", ErrConnectionFailed, ctx.Err())
	case <-time.After(s.connectDelay):
	}

	s.mu.Lock()
	conn = s.findLocked(sourceID)
	now := time.Now()
	conn.Connected = true
	conn.LastSync = &now
	s.activeID = sourceID
	out := *conn
	s.mu.Unlock()

	s.toasts.Success("Data source updated", fmt.Sprintf("Now using %s as your primary health data source.", out.Name))
	s.auditLogConnection(ctx, userID, out.ID)

	return out, nil
}

// Select switches the active source without touching connection
// state. Selecting a disconnected source goes through Connect.
func (s *HealthSourceService) Select(sourceID string) (model.HealthDataConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn := s.findLocked(sourceID)
	if conn == nil {
		return model.HealthDataConnection{}, fmt.Errorf("%w: unknown source %q", ErrConnectionFailed, sourceID)
	}
	if !conn.Connected {
		return model.HealthDataConnection{}, fmt.Errorf("%w: source %q is not connected", ErrConnectionFailed, sourceID)
	}

	s.activeID = sourceID

	return *conn, nil
}

// findLocked returns a pointer into the registry; callers hold s.mu
func (s *HealthSourceService) findLocked(sourceID string) *model.HealthDataConnection {
	for i := range s.connections {
		if s.connections[i].ID == sourceID {
			return &s.connections[i]
		}
	}

	return nil
}

func (s *HealthSourceService) auditLogConnection(ctx context.Context, userID, sourceID string) {
	entry := audit.Entry{
		UserID:        userID,
		OperationType: audit.OperationUpdate,
		ResourceType:  audit.ResourceConnection,
		ResourceID:    sourceID,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit entry", zap.Error(err))
	}
}
