package kvstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"carepulse/internal/security"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("key not found")

// Store is a durable key-value store backed by one file per key. The
// session record survives restarts through it, the same way the
// source app survived page reloads through browser storage. Values
// are encrypted at rest when an encryptor is supplied.
type Store struct {
	fs        afero.Fs
	dir       string
	encryptor *security.Encryptor
	logger    *zap.Logger

	mu sync.Mutex
}

// New creates a Store rooted at dir on the given filesystem.
// encryptor may be nil for plaintext storage.
func New(fs afero.Fs, dir string, encryptor *security.Encryptor, logger *zap.Logger) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Store{
		fs:        fs,
		dir:       dir,
		encryptor: encryptor,
		logger:    logger,
	}, nil
}

// Set writes the value for key, replacing any previous value.
func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := value
	if s.encryptor != nil {
		encrypted, err := s.encryptor.Encrypt(string(value))
		if err != nil {
			return fmt.Errorf("failed to encrypt value for %q: %w", key, err)
		}
		payload = []byte(encrypted)
	}

	if err := afero.WriteFile(s.fs, s.path(key), payload, 0o600); err != nil {
		s.logger.Error("failed to write key", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to write %q: %w", key, err)
	}

	return nil
}

// Get reads the value for key. Returns ErrNotFound when the key has
// never been written or has been deleted.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to read key", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}

	if s.encryptor != nil {
		plaintext, err := s.encryptor.Decrypt(string(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt %q: %w", key, err)
		}
		return []byte(plaintext), nil
	}

	return payload, nil
}

// Delete removes the value for key. Deleting an absent key is not an
// error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		s.logger.Error("failed to delete key", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}

	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
