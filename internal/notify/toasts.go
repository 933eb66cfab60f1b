package notify

import (
	"sync"
	"time"

	"carepulse/pkg/model"
)

// maxPending caps the undrained toast backlog; older entries drop off
// the front.
const maxPending = 32

// Center collects transient notifications until the client drains
// them. It is the Go-side stand-in for the source app's toast stack.
type Center struct {
	mu     sync.Mutex
	toasts []model.Toast
}

// NewCenter creates an empty toast center
func NewCenter() *Center {
	return &Center{}
}

// Success pushes a confirmation toast
func (c *Center) Success(title, description string) {
	c.push(model.Toast{
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	})
}

// Failure pushes a destructive-variant toast
func (c *Center) Failure(title, description string) {
	c.push(model.Toast{
		Title:       title,
		Description: description,
		Variant:     "destructive",
		CreatedAt:   time.Now(),
	})
}

func (c *Center) push(t model.Toast) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toasts = append(c.toasts, t)
	if len(c.toasts) > maxPending {
		c.toasts = c.toasts[len(c.toasts)-maxPending:]
	}
}

// Drain returns all pending toasts and clears the backlog
func (c *Center) Drain() []model.Toast {
	c.mu.Lock()
	defer c.mu.Unlock()

	drained := c.toasts
	c.toasts = nil
	if drained == nil {
		drained = []model.Toast{}
	}
	return drained
}

// Pending returns the number of undrained toasts
func (c *Center) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.toasts)
}
