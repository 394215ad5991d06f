package alerts

import "time"

// DefaultDuration is how long an alert stays on screen.
const DefaultDuration = 5 * time.Second

// FadeWindow is the tail of the display duration during which opacity ramps to zero.
const FadeWindow = time.Second

// Notification is a single alert.
type Notification struct {
	Title     string
	Detail    string
	CreatedAt time.Time
	Visible   bool
}

// Age returns how long the notification has been displayed at now.
func (n Notification) Age(now time.Time) time.Duration { return now.Sub(n.CreatedAt) }

// Frame is the read-only view a renderer draws.
//
// Rank 0 is nearest the anchor edge (newest); higher ranks stack further away.
type Frame struct {
	Title   string
	Detail  string
	Opacity float64
	Rank    int
}

// Clock supplies the current time. time.Now readings carry a monotonic
// component, so durations between them are safe from wall clock jumps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads time.Now.
var SystemClock Clock = ClockFunc(time.Now)
