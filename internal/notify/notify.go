// Package notify manages transient toast notifications.
package notify

import (
	"fmt"
	"strings"
	"time"
)

// Severity classifies a notification.
type Severity int

const (
	Info Severity = iota
	Success
	Warning
	Error
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// ParseSeverity parses "info", "success", "warning" or "error".
func ParseSeverity(value string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "info", "":
		return Info, nil
	case "success":
		return Success, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	default:
		return Info, fmt.Errorf("unknown severity %q", value)
	}
}

const (
	// DefaultDuration is how long a notification stays before auto-expiry.
	DefaultDuration = 5 * time.Second
	// EnterDelay is the entry animation length.
	EnterDelay = 10 * time.Millisecond
	// ExitDuration is the exit animation length before removal.
	ExitDuration = 300 * time.Millisecond
)

// Phase is the animation state of a notification.
type Phase int

const (
	Entering Phase = iota
	Visible
	Leaving
)

// Notification is one toast entry.
type Notification struct {
	ID        uint64
	Message   string
	Severity  Severity
	Duration  time.Duration
	CreatedAt time.Time
	Phase     Phase

	leavingAt time.Time
}

// Notifier is implemented by anything that can show a notification.
type Notifier interface {
	Notify(message string, severity Severity, duration time.Duration)
}

// Center is the notification container. It is created once and reused; the
// stack itself is allocated on first use. Not safe for concurrent use: it is
// owned by the UI event loop.
type Center struct {
	now    func() time.Time
	nextID uint64
	items  []*Notification
}

// NewCenter returns a container using now as its clock (time.Now when nil).
func NewCenter(now func() time.Time) *Center {
	if now == nil {
		now = time.Now
	}
	return &Center{now: now}
}

// Notify implements Notifier. The duration is honoured as given, including 0.
func (c *Center) Notify(message string, severity Severity, duration time.Duration) {
	c.Push(message, severity, duration)
}

// NotifyDefault shows a notification for DefaultDuration.
func (c *Center) NotifyDefault(message string, severity Severity) {
	c.Push(message, severity, DefaultDuration)
}

// Push appends a notification and returns its id.
func (c *Center) Push(message string, severity Severity, duration time.Duration) uint64 {
	if duration < 0 {
		duration = 0
	}
	if c.items == nil {
		c.items = make([]*Notification, 0, 4)
	}
	c.nextID++
	c.items = append(c.items, &Notification{
		ID:        c.nextID,
		Message:   message,
		Severity:  severity,
		Duration:  duration,
		CreatedAt: c.now(),
		Phase:     Entering,
	})
	return c.nextID
}

// Dismiss starts the exit sequence for id. It reports whether anything
// changed; dismissing a leaving or removed notification is a no-op.
func (c *Center) Dismiss(id uint64) bool {
	n := c.find(id)
	if n == nil || n.Phase == Leaving {
		return false
	}
	n.Phase = Leaving
	n.leavingAt = c.now()
	return true
}

// DismissLatest dismisses the newest notification that is not already leaving.
func (c *Center) DismissLatest() bool {
	for i := len(c.items) - 1; i >= 0; i-- {
		if c.items[i].Phase != Leaving {
			return c.Dismiss(c.items[i].ID)
		}
	}
	return false
}

// Advance moves notifications through their phases at the current time and
// removes finished ones. It reports whether the stack changed.
func (c *Center) Advance() bool {
	if len(c.items) == 0 {
		return false
	}
	now := c.now()
	changed := false
	kept := c.items[:0]
	for _, n := range c.items {
		if n.Phase == Entering && !now.Before(n.CreatedAt.Add(EnterDelay)) {
			n.Phase = Visible
			changed = true
		}
		if n.Phase != Leaving && !now.Before(n.CreatedAt.Add(n.Duration)) {
			n.Phase = Leaving
			n.leavingAt = now
			changed = true
		}
		if n.Phase == Leaving && !now.Before(n.leavingAt.Add(ExitDuration)) {
			changed = true
			continue
		}
		kept = append(kept, n)
	}
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = nil
	}
	c.items = kept
	return changed
}

// Active reports whether any notification is still on screen.
func (c *Center) Active() bool {
	return len(c.items) > 0
}

// Items returns copies of the current notifications in arrival order.
func (c *Center) Items() []Notification {
	out := make([]Notification, len(c.items))
	for i, n := range c.items {
		out[i] = *n
	}
	return out
}

func (c *Center) find(id uint64) *Notification {
	for _, n := range c.items {
		if n.ID == id {
			return n
		}
	}
	return nil
}
