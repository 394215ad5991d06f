// Package scanner polls the live raid population and reports each boss the
// first time it is seen.
//
// The scanner is driven by Tick from a single frame loop and keeps per-raid
// state (the set of already reported entities) that is discarded when the
// raid ends. It never returns errors to its caller: a missing world, a
// malformed entity or an unresolvable location are all handled locally.
package scanner

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"bossnotifier/internal/catalog"
	"bossnotifier/internal/eventbus"
	"bossnotifier/internal/location"
	logx "bossnotifier/pkg/logx"
)

// idleLogInterval throttles the "not in raid" message.
const idleLogInterval = 30 * time.Second

type session struct {
	id                 string
	startedAt          time.Time
	seen               map[string]struct{}
	firstScanCompleted bool
	emptyNotified      bool
}

// Scanner is not safe for concurrent use.
type Scanner struct {
	host   Host
	raiser Raiser
	table  *catalog.Table
	namer  location.Namer
	log    logx.Logger
	bus    eventbus.Bus

	interval  time.Duration
	lastCheck time.Time
	checked   bool

	world World
	sess  *session

	idleLog *rate.Sometimes
}

type Option func(*Scanner)

func WithTable(t *catalog.Table) Option {
	return func(s *Scanner) {
		if t != nil {
			s.table = t
		}
	}
}

func WithNamer(n location.Namer) Option { return func(s *Scanner) { s.namer = n } }

func WithInterval(d time.Duration) Option { return func(s *Scanner) { s.SetInterval(d) } }

func WithLogger(log logx.Logger) Option { return func(s *Scanner) { s.log = log } }

func WithBus(b eventbus.Bus) Option { return func(s *Scanner) { s.bus = b } }

// New creates a scanner reporting to raiser. Defaults: built-in boss table,
// 100-unit grid namer, 2s interval.
func New(host Host, raiser Raiser, opts ...Option) *Scanner {
	s := &Scanner{
		host:     host,
		raiser:   raiser,
		table:    catalog.Default(),
		namer:    location.Grid{CellSize: location.DefaultCellSize},
		interval: DefaultInterval,
		idleLog:  newIdleLog(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log.IsZero() {
		s.log = logx.Nop()
	}
	return s
}

func newIdleLog() *rate.Sometimes {
	return &rate.Sometimes{First: 1, Interval: idleLogInterval}
}

// SetInterval changes the scan cadence; it applies from the next Tick.
func (s *Scanner) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	s.interval = d
}

func (s *Scanner) Interval() time.Duration { return s.interval }

// Tick scans the population if at least one interval has passed since the
// last scan. The first Tick always scans.
func (s *Scanner) Tick(now time.Time) {
	if s.checked && now.Sub(s.lastCheck) < s.interval {
		return
	}
	s.checked = true
	s.lastCheck = now

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("boss detection panicked", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
		}
	}()

	if s.world == nil {
		w, err := s.host.World()
		if err != nil || w == nil {
			s.idleLog.Do(func() {
				s.log.Info("world not found (not in raid?)", logx.Err(err))
			})
			return
		}
		s.attach(w, now)
	}

	s.log.Trace("running boss detection")
	if _, err := s.ScanOnce(); err != nil {
		if errors.Is(err, ErrNoSession) {
			s.endSession(now, "raid ended")
			return
		}
		s.log.Warn("boss detection failed", logx.Err(err))
	}
}

// ScanOnce walks the current population once and raises every boss not yet
// seen this raid. It reports whether at least one boss was raised.
//
// The first completed scan of a raid that finds nothing raises the
// EmptyTitle notice; that notice is raised at most once per raid.
func (s *Scanner) ScanOnce() (bool, error) {
	if s.world == nil || s.sess == nil {
		return false, ErrNoSession
	}
	pop, err := s.world.Population()
	if err != nil {
		return false, fmt.Errorf("population: %w", err)
	}

	found := false
	for i, e := range pop {
		sight, ok, err := s.inspect(e)
		if err != nil {
			s.log.Debug("skipping entity", logx.Int("index", i), logx.Err(err))
			continue
		}
		if !ok {
			continue
		}
		found = true
		s.raiser.Raise(sight.Name, sight.Location)
		s.log.Info("boss detected",
			logx.String("boss", sight.Name),
			logx.String("location", sight.Location),
			logx.String("session", s.sess.id),
		)
		eventbus.Publish(s.bus, eventbus.TypeBossSighted, s.lastCheck, eventbus.SightingData{
			SessionID: s.sess.id,
			EntityID:  sight.EntityID,
			Category:  sight.Category,
			Name:      sight.Name,
			Location:  sight.Location,
		})
	}

	if !s.sess.firstScanCompleted {
		s.sess.firstScanCompleted = true
		if !found && !s.sess.emptyNotified {
			s.sess.emptyNotified = true
			s.raiser.Raise(EmptyTitle, EmptyDetail)
			s.log.Info("no bosses detected in this raid", logx.String("session", s.sess.id))
		}
	}
	return found, nil
}

// inspect classifies one entity. ok is true only for a boss not seen before,
// which is then recorded in the session ledger.
func (s *Scanner) inspect(e Entity) (sight Sighting, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			sight, ok = Sighting{}, false
			err = fmt.Errorf("%w: panic: %v", ErrMalformedEntity, r)
		}
	}()
	if e == nil {
		return Sighting{}, false, fmt.Errorf("%w: nil entity", ErrMalformedEntity)
	}
	if e.IsObserver() {
		return Sighting{}, false, nil
	}
	cat, err := e.Category()
	if err != nil {
		return Sighting{}, false, fmt.Errorf("%w: category: %w", ErrMalformedEntity, err)
	}
	if cat == "" || !s.table.Known(cat) {
		return Sighting{}, false, nil
	}
	id, err := e.Identity()
	if err != nil {
		return Sighting{}, false, fmt.Errorf("%w: identity: %w", ErrMalformedEntity, err)
	}
	if id == "" {
		return Sighting{}, false, fmt.Errorf("%w: empty identity", ErrMalformedEntity)
	}
	if _, dup := s.sess.seen[id]; dup {
		return Sighting{}, false, nil
	}
	pos, err := e.Position()
	if err != nil {
		return Sighting{}, false, fmt.Errorf("%w: position: %w", ErrMalformedEntity, err)
	}

	s.sess.seen[id] = struct{}{}
	label, lerr := location.Resolve(s.namer, pos)
	if lerr != nil {
		s.log.Debug("location fallback to coordinates", logx.Err(lerr))
	}
	return Sighting{
		EntityID: id,
		Category: cat,
		Name:     s.table.Name(cat),
		Location: label,
	}, true, nil
}

// Attach starts a session on w without going through the host. One-shot
// callers (the scan command) use it.
func (s *Scanner) Attach(w World) { s.attach(w, time.Now()) }

func (s *Scanner) attach(w World, now time.Time) {
	s.world = w
	s.sess = &session{
		id:        uuid.NewString(),
		startedAt: now,
		seen:      map[string]struct{}{},
	}
	s.idleLog = newIdleLog()
	s.log.Info("raid session started", logx.String("session", s.sess.id))
	eventbus.Publish(s.bus, eventbus.TypeSessionStarted, now, eventbus.SessionData{ID: s.sess.id})
}

// Reset ends the current session, if any. The next Tick re-acquires the world
// and starts from an empty ledger.
func (s *Scanner) Reset() { s.endSession(time.Now(), "reset") }

func (s *Scanner) endSession(now time.Time, reason string) {
	s.world = nil
	if s.sess == nil {
		return
	}
	sess := s.sess
	s.sess = nil
	s.log.Info("raid session ended",
		logx.String("session", sess.id),
		logx.String("reason", reason),
		logx.Int("bosses_seen", len(sess.seen)),
		logx.Duration("took", now.Sub(sess.startedAt)),
	)
	eventbus.Publish(s.bus, eventbus.TypeSessionEnded, now, eventbus.SessionData{ID: sess.id, Seen: len(sess.seen)})
}

// Session returns a snapshot of the current raid state.
func (s *Scanner) Session() (SessionInfo, bool) {
	if s.sess == nil {
		return SessionInfo{}, false
	}
	return SessionInfo{
		ID:                 s.sess.id,
		StartedAt:          s.sess.startedAt,
		Seen:               len(s.sess.seen),
		FirstScanCompleted: s.sess.firstScanCompleted,
		EmptyNotified:      s.sess.emptyNotified,
	}, true
}
