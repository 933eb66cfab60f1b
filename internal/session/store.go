package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carepulse/internal/audit"
	"carepulse/internal/kvstore"
	"carepulse/pkg/model"
)

// Auditor records session events in the audit trail
type Auditor interface {
	Log(ctx context.Context, entry audit.Entry) error
}

// userKey is the single durable storage key holding the serialized
// session record.
const userKey = "user"

// Store holds the current session: at most one user at a time,
// persisted to durable storage so a session survives a restart.
type Store struct {
	auth   Authenticator
	kv     *kvstore.Store
	audit  Auditor
	logger *zap.Logger

	mu    sync.Mutex
	user  *model.User
	token string
	ready bool

	inflight atomic.Int32
}

// NewStore creates a session store and hydrates it from durable
// storage before marking it ready. Until hydration completes the
// session must be treated as unknown, not logged out.
func NewStore(auth Authenticator, kv *kvstore.Store, auditLogger Auditor, logger *zap.Logger) *Store {
	s := &Store{
		auth:   auth,
		kv:     kv,
		audit:  auditLogger,
		logger: logger,
	}
	s.hydrate()
	return s
}

// hydrate restores the persisted user record, if any
func (s *Store) hydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.kv.Get(userKey)
	switch {
	case err == nil:
		var user model.User
		if err := json.Unmarshal(record, &user); err != nil {
			s.logger.Warn("discarding corrupt session record", zap.Error(err))
		} else {
			s.user = &user
			s.token = uuid.New().String()
			s.logger.Info("session restored from storage", zap.String("user_id", user.ID))
		}
	case errors.Is(err, kvstore.ErrNotFound):
		// no saved session
	default:
		s.logger.Error("failed to read session record", zap.Error(err))
	}

	s.ready = true
}

// Ready reports whether hydration has completed
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Loading reports whether any session operation is in flight
func (s *Store) Loading() bool {
	return s.inflight.Load() > 0
}

// Current returns the current user, if a session exists
func (s *Store) Current() (*model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil, false
	}
	u := *s.user
	return &u, true
}

// Authorized reports whether token matches the current session
func (s *Store) Authorized(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && token != "" && token == s.token
}

// Login authenticates the credentials and installs the resulting user
// as the current session. Returns the user and a bearer token.
func (s *Store) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	user, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		s.logger.Warn("login failed", zap.Error(err), zap.String("email", email))
		return nil, "", err
	}

	token, err := s.install(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("login succeeded", zap.String("user_id", user.ID))
	s.auditLog(ctx, user.ID, audit.OperationLogin, map[string]any{"method": "password"})
	return user, token, nil
}

// Signup registers the credentials and installs the resulting user as
// the current session
func (s *Store) Signup(ctx context.Context, email, password string) (*model.User, string, error) {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	user, err := s.auth.Register(ctx, email, password)
	if err != nil {
		s.logger.Warn("signup failed", zap.Error(err), zap.String("email", email))
		return nil, "", err
	}

	token, err := s.install(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("signup succeeded", zap.String("user_id", user.ID))
	s.auditLog(ctx, user.ID, audit.OperationLogin, map[string]any{"method": "signup"})
	return user, token, nil
}

// GoogleLogin signs in through the third-party path and installs the
// resulting user as the current session
func (s *Store) GoogleLogin(ctx context.Context) (*model.User, string, error) {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	user, err := s.auth.GoogleSignIn(ctx)
	if err != nil {
		s.logger.Warn("google login failed", zap.Error(err))
		return nil, "", err
	}

	token, err := s.install(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("google login succeeded", zap.String("user_id", user.ID))
	s.auditLog(ctx, user.ID, audit.OperationLogin, map[string]any{"method": "google"})
	return user, token, nil
}

// Logout clears the current session and removes the persisted record.
// Logging out with no session is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	if err := s.auth.SignOut(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	hadUser := s.user != nil
	userID := ""
	if hadUser {
		userID = s.user.ID
	}
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if err := s.kv.Delete(userKey); err != nil {
		return fmt.Errorf("failed to remove session record: %w", err)
	}

	if hadUser {
		s.logger.Info("logout succeeded", zap.String("user_id", userID))
		s.auditLog(ctx, userID, audit.OperationLogout, nil)
	}
	return nil
}

func (s *Store) auditLog(ctx context.Context, userID string, op audit.OperationType, data map[string]any) {
	entry := audit.Entry{
		UserID:         userID,
		OperationType:  op,
		ResourceType:   audit.ResourceSession,
		ResourceID:     userID,
		AdditionalData: data,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit entry", zap.Error(err))
	}
}

// install persists user and makes it the current session
func (s *Store) install(user *model.User) (string, error) {
	record, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session record: %w", err)
	}

	if err := s.kv.Set(userKey, record); err != nil {
		return "", fmt.Errorf("failed to persist session record: %w", err)
	}

	token := uuid.New().String()

	s.mu.Lock()
	u := *user
	s.user = &u
	s.token = token
	s.mu.Unlock()

	return token, nil
}
