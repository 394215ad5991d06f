// Package overlay draws alert frames. Renderers only read frames; they never
// touch alert state.
package overlay

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"bossnotifier/internal/alerts"
	logx "bossnotifier/pkg/logx"
)

// Renderer consumes the visible alerts once per frame.
type Renderer interface {
	Render(frames []alerts.Frame) error
}

// HintSetter is implemented by renderers that print the replay hint.
type HintSetter interface {
	SetReplayKey(key string)
}

// Modes accepted by New.
const (
	ModeAuto     = "auto"
	ModeTerminal = "terminal"
	ModeLog      = "log"
	ModeOff      = "off"
)

// New picks a renderer for mode. "auto" draws on the terminal when out is a
// TTY and falls back to logging otherwise.
func New(mode string, out *os.File, log logx.Logger, replayKey string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeAuto:
		if out != nil && IsTerminal(out.Fd()) {
			return NewTerminal(out, replayKey), nil
		}
		return NewLog(log), nil
	case ModeTerminal:
		if out == nil {
			return nil, fmt.Errorf("overlay: terminal mode needs an output")
		}
		return NewTerminal(out, replayKey), nil
	case ModeLog:
		return NewLog(log), nil
	case ModeOff, "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("overlay: unknown mode %q", mode)
	}
}

// ValidMode reports whether mode is accepted by New.
func ValidMode(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeAuto, ModeTerminal, ModeLog, ModeOff, "none":
		return true
	}
	return false
}

// IsTerminal reports whether fd is an interactive terminal.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Nop discards frames.
type Nop struct{}

func (Nop) Render([]alerts.Frame) error { return nil }

// Log reports alerts appearing and disappearing through the logger. It is the
// renderer for headless runs (service, pipes).
type Log struct {
	log  logx.Logger
	prev map[string]int
}

func NewLog(log logx.Logger) *Log {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Log{log: log, prev: map[string]int{}}
}

func (l *Log) Render(frames []alerts.Frame) error {
	cur := make(map[string]int, len(frames))
	for _, f := range frames {
		cur[frameKey(f)]++
	}
	for _, f := range frames {
		k := frameKey(f)
		if cur[k] > l.prev[k] {
			l.log.Info("alert on screen", logx.String("title", f.Title), logx.String("detail", f.Detail))
			// Log each new copy once.
			l.prev[k]++
		}
	}
	for k, n := range l.prev {
		if cur[k] < n {
			title, detail, _ := strings.Cut(k, "\x00")
			l.log.Debug("alert cleared", logx.String("title", title), logx.String("detail", detail))
		}
	}
	l.prev = cur
	return nil
}

func frameKey(f alerts.Frame) string { return f.Title + "\x00" + f.Detail }
