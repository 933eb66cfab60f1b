package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"carepulse/pkg/model"
)

// ErrInvalidCredentials is returned when the provided credentials are invalid.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator is the seam between the session store and whatever
// backs identity. The stub below fabricates users after a fixed
// delay; a real identity provider slots in behind the same interface.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, email, password string) (*model.User, error)
	GoogleSignIn(ctx context.Context) (*model.User, error)
	SignOut(ctx context.Context) error
}

// StubAuthenticator fabricates users locally. The delays stand in for
// network latency so the UI's loading states stay observable.
type StubAuthenticator struct {
	LoginDelay  time.Duration
	LogoutDelay time.Duration
}

// NewStubAuthenticator creates a StubAuthenticator with the given delays
func NewStubAuthenticator(loginDelay, logoutDelay time.Duration) *StubAuthenticator {
	return &StubAuthenticator{
		LoginDelay:  loginDelay,
		LogoutDelay: logoutDelay,
	}
}

// Authenticate validates the credentials and fabricates a user whose
// name is the local part of the email
func (a *StubAuthenticator) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	if err := wait(ctx, a.LoginDelay); err != nil {
		return nil, err
	}

	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	return &model.User{
		ID:    "user-" + randomSuffix(9),
		Email: email,
		Name:  localPart(email),
	}, nil
}

// Register has the same validation and fabrication rules as Authenticate
func (a *StubAuthenticator) Register(ctx context.Context, email, password string) (*model.User, error) {
	if err := wait(ctx, a.LoginDelay); err != nil {
		return nil, err
	}

	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	return &model.User{
		ID:    "user-" + randomSuffix(9),
		Email: email,
		Name:  localPart(email),
	}, nil
}

// GoogleSignIn unconditionally succeeds with a fabricated Google user,
// modelling the third-party OAuth success path without implementing OAuth
func (a *StubAuthenticator) GoogleSignIn(ctx context.Context) (*model.User, error) {
	if err := wait(ctx, a.LoginDelay); err != nil {
		return nil, err
	}

	seed := randomSuffix(9)

	return &model.User{
		ID:     "google-" + seed,
		Email:  fmt.Sprintf("user%d@gmail.com", rand.IntN(1000)),
		Name:   "Google User",
		Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=" + seed,
	}, nil
}

// SignOut models the shorter logout round trip
func (a *StubAuthenticator) SignOut(ctx context.Context) error {
	return wait(ctx, a.LogoutDelay)
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" || len(password) < 6 {
		return ErrInvalidCredentials
	}
	return nil
}

// localPart returns the substring of email before '@'
func localPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}
	return string(b)
}

// wait sleeps for d unless the context is cancelled first
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
