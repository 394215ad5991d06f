package alerts

import (
	"time"

	"bossnotifier/internal/eventbus"
	logx "bossnotifier/pkg/logx"
)

// Center holds active alerts and the most-recent pointer.
type Center struct {
	clock    Clock
	duration time.Duration
	log      logx.Logger
	bus      eventbus.Bus

	active []*Notification
	last   *Notification
}

type Option func(*Center)

func WithClock(c Clock) Option {
	return func(ce *Center) {
		if c != nil {
			ce.clock = c
		}
	}
}

func WithLogger(log logx.Logger) Option { return func(c *Center) { c.log = log } }

func WithBus(b eventbus.Bus) Option { return func(c *Center) { c.bus = b } }

// New creates a Center. A non-positive duration falls back to DefaultDuration.
func New(duration time.Duration, opts ...Option) *Center {
	c := &Center{clock: SystemClock}
	for _, o := range opts {
		o(c)
	}
	if c.log.IsZero() {
		c.log = logx.Nop()
	}
	c.SetDuration(duration)
	return c
}

// Duration returns the configured display duration.
func (c *Center) Duration() time.Duration { return c.duration }

// SetDuration changes the display duration. Active alerts are judged against
// the new value from the next Prune.
func (c *Center) SetDuration(d time.Duration) {
	if d <= 0 {
		d = DefaultDuration
	}
	c.duration = d
}

// Raise appends a new visible alert and makes it the most recent one.
// Identical titles are not merged.
func (c *Center) Raise(title, detail string) {
	now := c.clock.Now()
	n := &Notification{
		Title:     title,
		Detail:    detail,
		CreatedAt: now,
		Visible:   true,
	}
	c.active = append(c.active, n)
	c.last = n

	c.log.Info("showing alert", logx.String("title", title), logx.String("detail", detail))
	eventbus.Publish(c.bus, eventbus.TypeAlertRaised, now, eventbus.AlertData{Title: title, Detail: detail})
}

// ReplayMostRecent restarts the timer of the most recently raised alert and
// re-inserts it if it was already pruned. It reports false if nothing has
// ever been raised.
func (c *Center) ReplayMostRecent() bool {
	if c.last == nil {
		return false
	}
	now := c.clock.Now()
	c.last.CreatedAt = now
	c.last.Visible = true
	if !c.contains(c.last) {
		c.active = append(c.active, c.last)
	}

	c.log.Info("re-showing last alert", logx.String("title", c.last.Title))
	eventbus.Publish(c.bus, eventbus.TypeAlertReplayed, now, eventbus.AlertData{Title: c.last.Title, Detail: c.last.Detail})
	return true
}

// Prune drops every alert whose age has reached the display duration and
// returns how many were removed.
func (c *Center) Prune(now time.Time) int {
	kept := c.active[:0]
	removed := 0
	for _, n := range c.active {
		if n.Age(now) >= c.duration {
			removed++
			c.log.Debug("alert expired", logx.String("title", n.Title))
			eventbus.Publish(c.bus, eventbus.TypeAlertExpired, now, eventbus.AlertData{Title: n.Title, Detail: n.Detail})
			continue
		}
		kept = append(kept, n)
	}
	// Clear the tail so pruned alerts aren't pinned by the backing array.
	for i := len(kept); i < len(c.active); i++ {
		c.active[i] = nil
	}
	c.active = kept
	return removed
}

// Frames returns the visible alerts newest first, with opacity at now.
func (c *Center) Frames(now time.Time) []Frame {
	out := make([]Frame, 0, len(c.active))
	for i := len(c.active) - 1; i >= 0; i-- {
		n := c.active[i]
		if !n.Visible {
			continue
		}
		out = append(out, Frame{
			Title:   n.Title,
			Detail:  n.Detail,
			Opacity: Opacity(n.Age(now), c.duration),
			Rank:    len(out),
		})
	}
	return out
}

// Active returns a copy of the active alerts in insertion order.
func (c *Center) Active() []Notification {
	out := make([]Notification, 0, len(c.active))
	for _, n := range c.active {
		out = append(out, *n)
	}
	return out
}

// Len returns the number of active alerts.
func (c *Center) Len() int { return len(c.active) }

// Last returns the most recently raised alert, if any.
func (c *Center) Last() (Notification, bool) {
	if c.last == nil {
		return Notification{}, false
	}
	return *c.last, true
}

func (c *Center) contains(n *Notification) bool {
	for _, a := range c.active {
		if a == n {
			return true
		}
	}
	return false
}
