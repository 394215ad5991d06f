package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "", want: 0},
		{raw: "2s", want: 2 * time.Second},
		{raw: " 750ms ", want: 750 * time.Millisecond},
		{raw: "2", want: 2 * time.Second},
		{raw: "0.5", want: 500 * time.Millisecond},
		{raw: "-1", wantErr: true},
		{raw: "-1s", wantErr: true},
		{raw: "soon", wantErr: true},
		{raw: "NaN", wantErr: true},
		{raw: "1e30", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseDurationField("check_interval", tc.raw)
		if tc.wantErr {
			assert.Errorf(t, err, "raw %q", tc.raw)
			continue
		}
		require.NoErrorf(t, err, "raw %q", tc.raw)
		assert.Equalf(t, tc.want, got, "raw %q", tc.raw)
	}

	d, err := ParseDurationOrDefault("x", "0", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
}

func TestResolveDefaults(t *testing.T) {
	t.Parallel()
	s, err := Default().Resolve()
	require.NoError(t, err)
	assert.True(t, s.Enabled)
	assert.Equal(t, DefaultCheckInterval, s.CheckInterval)
	assert.Equal(t, DefaultNotificationDuration, s.NotificationDuration)
	assert.Equal(t, DefaultFrameInterval, s.FrameInterval)
	assert.Equal(t, "0", s.ReplayKey)
	assert.Equal(t, 100.0, s.CellSize)
	assert.Equal(t, "./raid.json", s.FeedPath)
	assert.Equal(t, "auto", s.OverlayMode)
	assert.Empty(t, s.LockFile)

	var nilCfg *Config
	s, err = nilCfg.Resolve()
	require.NoError(t, err)
	assert.True(t, s.Enabled)
}

func TestResolveReportsEveryProblem(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		CheckInterval: "fast",
		Grid:          GridConfig{CellSize: -5},
		Overlay:       OverlayConfig{Mode: "hologram"},
		Categories:    []CategoryConfig{{Key: " ", Name: "Nobody"}, {Key: "bossPartisan", Name: "Partisan"}},
	}
	s, err := cfg.Resolve()
	require.Error(t, err)
	for _, want := range []string{"check_interval", "grid.cell_size", "overlay.mode", "categories[0]"} {
		assert.Contains(t, err.Error(), want)
	}
	// Invalid values still fall back to defaults.
	assert.Equal(t, DefaultCheckInterval, s.CheckInterval)
	assert.Equal(t, DefaultCellSize, s.CellSize)
	assert.Equal(t, []CategoryConfig{{Key: "bossPartisan", Name: "Partisan"}}, s.Categories)
}

func TestResolveAcceptsOverlayModes(t *testing.T) {
	t.Parallel()
	for _, mode := range []string{"auto", "Terminal", " log ", "off", "none"} {
		s, err := (&Config{Overlay: OverlayConfig{Mode: mode}}).Resolve()
		require.NoError(t, err, mode)
		assert.Equal(t, strings.ToLower(strings.TrimSpace(mode)), s.OverlayMode)
	}
}

func TestDecodeFormats(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"c.json": `{"enabled": false, "check_interval": 3, "notification_duration": "7s",
			"replay_key": "r", "grid": {"cell_size": 50}, "feed": {"path": "/tmp/raid.json"},
			"categories": [{"key": "bossPartisan", "name": "Partisan"}],
			"logging": {"level": "debug", "console": false}}`,
		"c.yaml": `enabled: false
check_interval: 3
notification_duration: 7s
replay_key: r
grid: {cell_size: 50}
feed: {path: /tmp/raid.json}
categories:
  - {key: bossPartisan, name: Partisan}
logging: {level: debug, console: false}
`,
		"c.toml": `enabled = false
check_interval = 3
notification_duration = "7s"
replay_key = "r"

[grid]
cell_size = 50

[feed]
path = "/tmp/raid.json"

[[categories]]
key = "bossPartisan"
name = "Partisan"

[logging]
level = "debug"
console = false
`,
	}
	for name, body := range cases {
		cfg, err := Decode(name, []byte(body))
		require.NoError(t, err, name)
		s, err := cfg.Resolve()
		require.NoError(t, err, name)

		assert.False(t, s.Enabled, name)
		assert.Equal(t, 3*time.Second, s.CheckInterval, name)
		assert.Equal(t, 7*time.Second, s.NotificationDuration, name)
		assert.Equal(t, "r", s.ReplayKey, name)
		assert.Equal(t, 50.0, s.CellSize, name)
		assert.Equal(t, "/tmp/raid.json", s.FeedPath, name)
		assert.Equal(t, []CategoryConfig{{Key: "bossPartisan", Name: "Partisan"}}, s.Categories, name)
		assert.Equal(t, "debug", s.Logging.Level, name)
		assert.False(t, s.Logging.Console, name)
	}
}

func TestDecodeIsStrict(t *testing.T) {
	t.Parallel()
	_, err := Decode("c.json", []byte(`{"check_intervall": "2s"}`))
	assert.Error(t, err)

	_, err = Decode("c.yaml", []byte("grid:\n  size: 10\n"))
	assert.Error(t, err)

	_, err = Decode("c.json", []byte(`{} {}`))
	assert.Error(t, err)

	_, err = Decode("c.json", []byte(`{"check_interval": true}`))
	assert.Error(t, err)

	cfg, err := Decode("c.yaml", []byte(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{CheckInterval: "2"}
	newCfg := &Config{
		CheckInterval:        "2s",
		NotificationDuration: "8s",
		Overlay:              OverlayConfig{Mode: "log"},
		Logging:              LoggingConfig{Level: "debug"},
	}
	changed, attrs, restart := SummarizeConfigChange(oldCfg, newCfg)
	assert.Equal(t, []string{"notification_duration", "overlay", "logging"}, changed)
	assert.Equal(t, []string{"overlay"}, restart)
	assert.NotEmpty(t, attrs)

	changed, _, restart = SummarizeConfigChange(newCfg, newCfg)
	assert.Empty(t, changed)
	assert.Empty(t, restart)
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestManagerLoadAndReload(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "notifier.json")
	writeConfig(t, p, `{"check_interval": "2s"}`)

	m := NewManager(p)
	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, Duration("2s"), cfg.CheckInterval)
	assert.Same(t, cfg, m.Get())

	sub := m.Subscribe(1)

	published, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, published, "unchanged content must not publish")

	writeConfig(t, p, `{"check_interval": "4s"}`)
	published, err = m.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, published)
	got := <-sub
	assert.Equal(t, Duration("4s"), got.CheckInterval)
	assert.Same(t, got, m.Get())

	m.SetValidator(func(_ context.Context, c *Config) error {
		_, err := c.Resolve()
		return err
	})
	writeConfig(t, p, `{"check_interval": "never"}`)
	_, err = m.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, Duration("4s"), m.Get().CheckInterval, "rejected config must not be committed")

	writeConfig(t, p, `{not json`)
	_, err = m.Reload(context.Background())
	assert.Error(t, err)

	m.Unsubscribe(sub)
	_, open := <-sub
	assert.False(t, open)
}

func TestManagerWithoutPath(t *testing.T) {
	t.Parallel()
	m := NewManager("")
	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, m.Watch(ctx))
}

func TestPublishKeepsLatest(t *testing.T) {
	t.Parallel()
	m := NewManager("")
	sub := m.Subscribe(1)
	a, b := &Config{ReplayKey: "a"}, &Config{ReplayKey: "b"}
	m.publish(a)
	m.publish(b)
	assert.Same(t, b, <-sub)
}

func TestWatchPublishesFileChanges(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "notifier.yaml")
	writeConfig(t, p, "replay_key: \"0\"\n")

	m := NewManager(p)
	_, err := m.Load()
	require.NoError(t, err)
	sub := m.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// The watcher needs a moment to register; keep rewriting until it sees one.
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(300 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case got := <-sub:
			assert.Equal(t, "r", got.ReplayKey)
			return
		case <-tick.C:
			writeConfig(t, p, "replay_key: r\n")
		case <-deadline:
			t.Fatal("no config published")
		}
	}
}
