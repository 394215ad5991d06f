package config

import (
	"reflect"
	"strings"

	logx "bossnotifier/pkg/logx"
)

// SummarizeConfigChange returns (1) the changed sections, (2) structured
// attrs describing the new values for logging, and (3) the subset of changed
// sections that only take effect after a restart.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field, []string) {
	if oldCfg == nil {
		oldCfg = Default()
	}
	if newCfg == nil {
		newCfg = Default()
	}
	// Compare resolved values so "2" and "2s" are not reported as a change.
	o, _ := oldCfg.Resolve()
	n, _ := newCfg.Resolve()

	changed := make([]string, 0, 8)
	restart := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 16)

	if o.Enabled != n.Enabled {
		changed = append(changed, "enabled")
		restart = append(restart, "enabled")
		attrs = append(attrs, logx.Bool("enabled", n.Enabled))
	}
	if o.CheckInterval != n.CheckInterval {
		changed = append(changed, "check_interval")
		attrs = append(attrs, logx.Duration("check_interval", n.CheckInterval))
	}
	if o.NotificationDuration != n.NotificationDuration {
		changed = append(changed, "notification_duration")
		attrs = append(attrs, logx.Duration("notification_duration", n.NotificationDuration))
	}
	if o.FrameInterval != n.FrameInterval {
		changed = append(changed, "frame_interval")
		restart = append(restart, "frame_interval")
		attrs = append(attrs, logx.Duration("frame_interval", n.FrameInterval))
	}
	if o.ReplayKey != n.ReplayKey {
		changed = append(changed, "replay_key")
		attrs = append(attrs, logx.String("replay_key", n.ReplayKey))
	}
	if o.CellSize != n.CellSize {
		changed = append(changed, "grid")
		restart = append(restart, "grid")
		attrs = append(attrs, logx.Float64("grid.cell_size", n.CellSize))
	}
	if o.FeedPath != n.FeedPath {
		changed = append(changed, "feed")
		restart = append(restart, "feed")
		attrs = append(attrs, logx.String("feed.path", n.FeedPath))
	}
	if o.OverlayMode != n.OverlayMode {
		changed = append(changed, "overlay")
		restart = append(restart, "overlay")
		attrs = append(attrs, logx.String("overlay.mode", n.OverlayMode))
	}
	if !reflect.DeepEqual(o.Categories, n.Categories) {
		changed = append(changed, "categories")
		restart = append(restart, "categories")
		attrs = append(attrs, logx.Int("categories.count", len(n.Categories)))
	}
	if o.LockFile != n.LockFile {
		changed = append(changed, "lock_file")
		restart = append(restart, "lock_file")
	}
	if o.Logging.Level != n.Logging.Level ||
		o.Logging.Console != n.Logging.Console ||
		o.Logging.File.Enabled != n.Logging.File.Enabled ||
		strings.TrimSpace(o.Logging.File.Path) != strings.TrimSpace(n.Logging.File.Path) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", n.Logging.Level),
			logx.Bool("logging.console", n.Logging.Console),
			logx.Bool("logging.file_enabled", n.Logging.File.Enabled),
		)
	}
	return changed, attrs, restart
}
