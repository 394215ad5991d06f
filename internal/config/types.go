package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Config is the on-disk configuration. Zero values mean "use the default";
// Resolve turns it into runtime Settings.
type Config struct {
	// Enabled is a pointer so an omitted key stays distinct from false.
	Enabled *bool `json:"enabled,omitempty"`

	CheckInterval        Duration `json:"check_interval,omitempty"`
	NotificationDuration Duration `json:"notification_duration,omitempty"`
	FrameInterval        Duration `json:"frame_interval,omitempty"`
	ReplayKey            string   `json:"replay_key,omitempty"`

	Grid       GridConfig       `json:"grid"`
	Feed       FeedConfig       `json:"feed"`
	Overlay    OverlayConfig    `json:"overlay"`
	Categories []CategoryConfig `json:"categories,omitempty"`

	// LockFile guards against two notifiers drawing over each other.
	// Empty disables locking.
	LockFile string `json:"lock_file,omitempty"`

	Logging LoggingConfig `json:"logging"`
}

type GridConfig struct {
	CellSize float64 `json:"cell_size,omitempty"`
}

// FeedConfig points at the raid snapshot file.
//
// Example:
//
//	"feed": { "path": "./raid.json" }
type FeedConfig struct {
	Path string `json:"path,omitempty"`
}

type OverlayConfig struct {
	// Mode is one of auto, terminal, log, off.
	Mode string `json:"mode,omitempty"`
}

// CategoryConfig adds or renames a boss category.
type CategoryConfig struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Duration is a raw duration setting: a Go duration string ("2s", "750ms")
// or a bare number of seconds (2, 0.5).
type Duration string

// UnmarshalJSON accepts both strings and numbers.
func (d *Duration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = Duration(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("duration must be a string or a number of seconds, got %s", b)
	}
	*d = Duration(b)
	return nil
}

func (d Duration) String() string { return strings.TrimSpace(string(d)) }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Bool returns a pointer to v, for building configs in code.
func Bool(v bool) *bool { return &v }
