package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"bossnotifier/internal/overlay"
)

// Defaults.
const (
	DefaultCheckInterval        = 2 * time.Second
	DefaultNotificationDuration = 5 * time.Second
	DefaultFrameInterval        = 100 * time.Millisecond
	DefaultReplayKey            = "0"
	DefaultCellSize             = 100.0
	DefaultFeedPath             = "./raid.json"
	DefaultOverlayMode          = "auto"
)

// Settings is a Config with defaults applied and durations parsed.
type Settings struct {
	Enabled              bool
	CheckInterval        time.Duration
	NotificationDuration time.Duration
	FrameInterval        time.Duration
	ReplayKey            string
	CellSize             float64
	FeedPath             string
	OverlayMode          string
	Categories           []CategoryConfig
	LockFile             string
	Logging              LoggingConfig
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{Logging: LoggingConfig{Level: "info", Console: true}}
}

// Resolve applies defaults and validates. Every problem is reported, not just
// the first.
func (c *Config) Resolve() (Settings, error) {
	if c == nil {
		c = Default()
	}
	var errs []error
	dur := func(key string, raw Duration, def time.Duration) time.Duration {
		d, err := ParseDurationOrDefault(key, raw.String(), def)
		if err != nil {
			errs = append(errs, err)
			return def
		}
		return d
	}

	s := Settings{
		Enabled:              boolOr(c.Enabled, true),
		CheckInterval:        dur("check_interval", c.CheckInterval, DefaultCheckInterval),
		NotificationDuration: dur("notification_duration", c.NotificationDuration, DefaultNotificationDuration),
		FrameInterval:        dur("frame_interval", c.FrameInterval, DefaultFrameInterval),
		ReplayKey:            strings.TrimSpace(c.ReplayKey),
		CellSize:             c.Grid.CellSize,
		FeedPath:             strings.TrimSpace(c.Feed.Path),
		OverlayMode:          strings.ToLower(strings.TrimSpace(c.Overlay.Mode)),
		LockFile:             strings.TrimSpace(c.LockFile),
		Logging:              c.Logging,
	}
	if s.ReplayKey == "" {
		s.ReplayKey = DefaultReplayKey
	}
	if s.FeedPath == "" {
		s.FeedPath = DefaultFeedPath
	}
	if s.OverlayMode == "" {
		s.OverlayMode = DefaultOverlayMode
	}
	switch {
	case s.CellSize == 0:
		s.CellSize = DefaultCellSize
	case s.CellSize < 0 || math.IsNaN(s.CellSize) || math.IsInf(s.CellSize, 0):
		errs = append(errs, fmt.Errorf("grid.cell_size: must be a positive number, got %v", s.CellSize))
		s.CellSize = DefaultCellSize
	}
	if !overlay.ValidMode(s.OverlayMode) {
		errs = append(errs, fmt.Errorf("overlay.mode: unknown mode %q", c.Overlay.Mode))
	}
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Key) == "" {
			errs = append(errs, fmt.Errorf("categories[%d]: key is required", i))
			continue
		}
		s.Categories = append(s.Categories, CategoryConfig{
			Key:  strings.TrimSpace(cat.Key),
			Name: strings.TrimSpace(cat.Name),
		})
	}
	return s, errors.Join(errs...)
}
