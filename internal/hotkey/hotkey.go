// Package hotkey turns lines typed on a reader (normally stdin) into replay
// requests. A line equal to the configured key, ignoring case and a keypad
// prefix ("Keypad0", "numpad 0", "kp0"), triggers a request.
package hotkey

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	logx "bossnotifier/pkg/logx"
)

// DefaultKey matches the keypad zero of the in-game overlay.
const DefaultKey = "0"

var keypadPrefixes = []string{"numpad", "keypad", "kp"}

// Normalize reduces a key name to its comparable form.
func Normalize(key string) string {
	k := strings.ToLower(strings.Join(strings.Fields(key), ""))
	for _, p := range keypadPrefixes {
		if rest, ok := strings.CutPrefix(k, p); ok && rest != "" {
			return rest
		}
	}
	return k
}

// Match reports whether line presses key.
func Match(key, line string) bool {
	k := Normalize(key)
	return k != "" && Normalize(line) == k
}

// Listener reads lines and emits replay requests. Requests coalesce: while
// one is pending, further presses are dropped.
type Listener struct {
	log      logx.Logger
	requests chan struct{}

	mu  sync.RWMutex
	key string
}

func New(key string, log logx.Logger) *Listener {
	if log.IsZero() {
		log = logx.Nop()
	}
	l := &Listener{log: log, requests: make(chan struct{}, 1)}
	l.SetKey(key)
	return l
}

// SetKey swaps the replay key; safe to call while Run is active.
func (l *Listener) SetKey(key string) {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	l.mu.Lock()
	l.key = key
	l.mu.Unlock()
}

func (l *Listener) Key() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.key
}

// Requests delivers one value per accepted press.
func (l *Listener) Requests() <-chan struct{} { return l.requests }

// Run reads r until EOF, a read error, or ctx cancellation. EOF returns nil.
//
// The read itself cannot be interrupted; on cancellation the reading
// goroutine exits after its next line or when r is closed.
func (l *Listener) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			if err == io.EOF {
				return nil
			}
			return err
		case line := <-lines:
			l.handle(line)
		}
	}
}

func (l *Listener) handle(line string) {
	if !Match(l.Key(), line) {
		if strings.TrimSpace(line) != "" {
			l.log.Debug("ignoring input", logx.String("input", line))
		}
		return
	}
	select {
	case l.requests <- struct{}{}:
		l.log.Debug("replay requested")
	default:
	}
}
