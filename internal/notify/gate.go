package notify

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Permission is the platform notification permission state
type Permission string

const (
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionDefault     Permission = "default"
	PermissionUnsupported Permission = "unsupported"
)

// ErrUnsupported is returned when the platform has no notification capability.
var ErrUnsupported = errors.New("notifications not supported")

// Platform is the seam to the host notification capability. The stub
// below models a platform whose prompt outcome is configurable; a
// real push/desktop integration slots in behind the same interface.
type Platform interface {
	Supported() bool
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Deliver(title, body string) error
}

// Gate mediates notification permission and delivery. It never lets a
// platform failure escape past a toast.
type Gate struct {
	platform Platform
	toasts   *Center
	logger   *zap.Logger

	mu       sync.Mutex
	prompted bool
}

// NewGate creates a notification gate over the given platform
func NewGate(platform Platform, toasts *Center, logger *zap.Logger) *Gate {
	return &Gate{
		platform: platform,
		toasts:   toasts,
		logger:   logger,
	}
}

// Supported reports whether the platform can deliver notifications
func (g *Gate) Supported() bool {
	return g.platform.Supported()
}

// Permission returns the current permission state, mapping an
// unsupported platform to PermissionUnsupported
func (g *Gate) Permission() Permission {
	if !g.platform.Supported() {
		return PermissionUnsupported
	}
	return g.platform.Permission()
}

// RequestPermission prompts the user and reflects the outcome.
// Failures are reported through toasts, never returned to the caller
// beyond the resulting state.
func (g *Gate) RequestPermission(ctx context.Context) Permission {
	if !g.platform.Supported() {
		g.toasts.Failure("Notifications not supported", "Your device doesn't support notifications.")
		return PermissionUnsupported
	}

	result, err := g.platform.RequestPermission(ctx)
	if err != nil {
		g.logger.Error("permission request failed", zap.Error(err))
		g.toasts.Failure("Permission request failed", "There was a problem requesting notification permissions.")
		return g.platform.Permission()
	}

	if result == PermissionGranted {
		g.toasts.Success("Notifications enabled", "You will now receive medication reminders.")
	} else {
		g.toasts.Failure("Notifications disabled", "You won't receive medication reminders.")
	}

	return result
}

// ScheduleNotification delivers a notification if permission has been
// granted. Returns false, without error, in every other case.
func (g *Gate) ScheduleNotification(title, body string) bool {
	if g.Permission() != PermissionGranted {
		return false
	}

	if err := g.platform.Deliver(title, body); err != nil {
		g.logger.Warn("notification delivery failed", zap.Error(err), zap.String("title", title))
		return false
	}

	return true
}

// ShouldPrompt implements the one-shot permission nudge: true at most
// once per mount, and only while permission is still undecided and at
// least one alarm is configured.
func (g *Gate) ShouldPrompt(alarmCount int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.prompted {
		return false
	}
	if g.Permission() != PermissionDefault {
		return false
	}
	if alarmCount == 0 {
		return false
	}

	g.prompted = true
	return true
}

// ResetPrompt re-arms the one-shot nudge for a fresh mount
func (g *Gate) ResetPrompt() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompted = false
}

// StubPlatform is an in-process notification platform used until a
// real delivery channel exists
type StubPlatform struct {
	mu           sync.Mutex
	supported    bool
	permission   Permission
	promptResult Permission
}

// NewStubPlatform creates a supported platform in the undecided state
// whose prompt resolves to promptResult
func NewStubPlatform(promptResult Permission) *StubPlatform {
	return &StubPlatform{
		supported:    true,
		permission:   PermissionDefault,
		promptResult: promptResult,
	}
}

// NewUnsupportedPlatform creates a platform with no notification capability
func NewUnsupportedPlatform() *StubPlatform {
	return &StubPlatform{supported: false, permission: PermissionUnsupported}
}

// Supported reports the platform capability flag
func (p *StubPlatform) Supported() bool {
	return p.supported
}

// Permission returns the current permission state
func (p *StubPlatform) Permission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

// RequestPermission resolves the prompt with the configured outcome
func (p *StubPlatform) RequestPermission(ctx context.Context) (Permission, error) {
	if !p.supported {
		return PermissionUnsupported, ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return PermissionDefault, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.permission = p.promptResult
	return p.permission, nil
}

// Deliver accepts the notification; the stub has nowhere to show it
func (p *StubPlatform) Deliver(title, body string) error {
	if !p.supported {
		return ErrUnsupported
	}
	return nil
}
