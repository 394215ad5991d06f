package overlay

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/term"

	"bossnotifier/internal/alerts"
)

const (
	boxWidth    = 40
	fallbackW   = 80
	fallbackH   = 24
	fadeSteps   = 10
	clearScreen = "\x1b[H\x1b[2J"
)

var (
	titleColor  = mustHex("#EF4444") // red
	detailColor = mustHex("#E8E6E3") // warm light gray
	hintColor   = mustHex("#6B7280") // muted gray
	borderColor = mustHex("#D97706") // amber
	background  = mustHex("#111111")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Terminal draws alerts as rounded boxes in the bottom-right corner of the
// terminal, newest at the bottom. It repaints only when what would be drawn
// changes.
type Terminal struct {
	out io.Writer
	fd  int

	mu        sync.Mutex
	replayKey string
	last      string
}

// NewTerminal draws on out. The replay key appears in each box's hint line.
func NewTerminal(out *os.File, replayKey string) *Terminal {
	return &Terminal{out: out, fd: int(out.Fd()), replayKey: replayKey}
}

// newTerminalWriter is used by tests; size falls back to 80x24.
func newTerminalWriter(w io.Writer, replayKey string) *Terminal {
	return &Terminal{out: w, fd: -1, replayKey: replayKey}
}

func (t *Terminal) SetReplayKey(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replayKey = key
	t.last = ""
}

func (t *Terminal) Render(frames []alerts.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sig := signature(frames)
	if sig == t.last {
		return nil
	}
	t.last = sig

	if len(frames) == 0 {
		_, err := io.WriteString(t.out, clearScreen)
		return err
	}
	w, h := t.size()
	screen := lipgloss.Place(w, h, lipgloss.Right, lipgloss.Bottom, View(frames, t.replayKey))
	_, err := io.WriteString(t.out, clearScreen+screen)
	return err
}

func (t *Terminal) size() (int, int) {
	if t.fd < 0 {
		return fallbackW, fallbackH
	}
	w, h, err := term.GetSize(t.fd)
	if err != nil || w <= 0 || h <= 0 {
		return fallbackW, fallbackH
	}
	return w, h
}

// View renders the stack of boxes without positioning it. frames are
// expected newest first, as alerts.Center.Frames returns them.
func View(frames []alerts.Frame, replayKey string) string {
	boxes := make([]string, 0, len(frames))
	for i := len(frames) - 1; i >= 0; i-- {
		boxes = append(boxes, box(frames[i], replayKey))
	}
	return lipgloss.JoinVertical(lipgloss.Right, boxes...)
}

func box(f alerts.Frame, replayKey string) string {
	op := f.Opacity
	title := lipgloss.NewStyle().Bold(true).Foreground(faded(titleColor, op)).Render("⚠ " + f.Title)
	lines := []string{title}
	if f.Detail != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(faded(detailColor, op)).Render("Location: "+f.Detail))
	}
	if replayKey != "" {
		lines = append(lines, lipgloss.NewStyle().Italic(true).Foreground(faded(hintColor, op*0.7)).
			Render(fmt.Sprintf("Press %s to show again", replayKey)))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(faded(borderColor, op)).
		Padding(0, 1).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))
}

// faded blends c toward the background; opacity 1 is the full color.
func faded(c colorful.Color, opacity float64) lipgloss.Color {
	opacity = math.Max(0, math.Min(1, opacity))
	return lipgloss.Color(background.BlendRgb(c, opacity).Clamped().Hex())
}

// signature changes whenever a repaint would look different. Opacity is
// quantized so a fade repaints a handful of times, not every frame.
func signature(frames []alerts.Frame) string {
	var b strings.Builder
	for _, f := range frames {
		step := int(math.Round(f.Opacity * fadeSteps))
		fmt.Fprintf(&b, "%s\x00%s\x00%d\n", f.Title, f.Detail, step)
	}
	return b.String()
}
