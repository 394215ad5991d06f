package scanner

import (
	"errors"
	"time"

	"bossnotifier/internal/location"
)

// DefaultInterval is the minimum time between two scans.
const DefaultInterval = 2 * time.Second

// Title and detail of the once-per-raid notice raised when the first scan
// finds no boss.
const (
	EmptyTitle  = "No bosses detected"
	EmptyDetail = "This raid has no bosses"
)

var (
	// ErrNoSession means the host is not in a raid (or the raid just ended).
	ErrNoSession = errors.New("no active session")
	// ErrMalformedEntity wraps per-entity read failures.
	ErrMalformedEntity = errors.New("malformed entity")
)

// Host locates the live world of the current raid.
type Host interface {
	// World returns ErrNoSession when no raid is running.
	World() (World, error)
}

// World exposes the current entity population of one raid.
type World interface {
	// Population returns ErrNoSession once the raid is over.
	Population() ([]Entity, error)
}

// Entity is a read-only view of one live entity. Field reads may fail
// independently; such an entity is skipped.
type Entity interface {
	Identity() (string, error)
	// Category returns "" when the entity has no role.
	Category() (string, error)
	Position() (location.Vec3, error)
	IsObserver() bool
}

// Raiser receives first sightings. alerts.Center satisfies it.
type Raiser interface {
	Raise(title, detail string)
}

// Sighting describes one boss matched during a scan.
type Sighting struct {
	EntityID string
	Category string
	Name     string
	Location string
}

// SessionInfo is a snapshot of the current raid's detection state.
type SessionInfo struct {
	ID                 string
	StartedAt          time.Time
	Seen               int
	FirstScanCompleted bool
	EmptyNotified      bool
}
