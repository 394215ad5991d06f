// Package eventbus carries small in-process signals (alert raised, raid
// started, ...) from the detection pipeline to observers such as the debug
// logger.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the pipeline.
const (
	TypeAlertRaised    = "alert.raised"
	TypeAlertReplayed  = "alert.replayed"
	TypeAlertExpired   = "alert.expired"
	TypeSessionStarted = "session.started"
	TypeSessionEnded   = "session.ended"
	TypeBossSighted    = "boss.sighted"
)

// Event is a lightweight signal.
//
// Contract:
//   - Publish never blocks.
//   - Subscribers get buffered channels; slow subscribers drop events.
type Event struct {
	Type string
	Time time.Time
	Data any
}

// AlertData accompanies alert.* events.
type AlertData struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// SessionData accompanies session.* events.
type SessionData struct {
	ID   string `json:"id"`
	Seen int    `json:"seen"`
}

// SightingData accompanies boss.sighted events.
type SightingData struct {
	SessionID string `json:"session_id"`
	EntityID  string `json:"entity_id"`
	Category  string `json:"category"`
	Name      string `json:"name"`
	Location  string `json:"location"`
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns an in-memory fanout bus. It owns no goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]chan Event{}}
}

// Publish is a nil-safe helper for optional buses.
func Publish(b Bus, typ string, at time.Time, data any) {
	if b == nil {
		return
	}
	b.Publish(Event{Type: typ, Time: at, Data: data})
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	seq  atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Send under the read lock: unsubscribe takes the write lock before closing,
	// so a channel is never closed mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, unsub
}
