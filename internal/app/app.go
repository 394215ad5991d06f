// Package app wires the notifier together: config, logging, the detection
// scanner, the alert center, the overlay and the replay key, all driven by
// one frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/gofrs/flock"
	"golang.org/x/time/rate"

	"bossnotifier/internal/alerts"
	"bossnotifier/internal/catalog"
	"bossnotifier/internal/config"
	"bossnotifier/internal/eventbus"
	"bossnotifier/internal/feed"
	"bossnotifier/internal/hotkey"
	"bossnotifier/internal/location"
	"bossnotifier/internal/overlay"
	"bossnotifier/internal/runtime/supervisor"
	"bossnotifier/internal/scanner"
	logx "bossnotifier/pkg/logx"
)

// ErrAlreadyRunning is returned by Start when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another bossnotifier instance is running")

// Options override the pieces that normally come from config or the process.
// Zero values mean "build it from config".
type Options struct {
	ConfigPath string

	// Input carries replay key presses (one per line). Nil disables the key.
	Input io.Reader
	// Output is where the terminal overlay draws.
	Output *os.File

	Host     scanner.Host
	Renderer overlay.Renderer
	Clock    alerts.Clock
}

type App struct {
	opts Options

	cfgm     *config.Manager
	applied  *config.Config
	settings config.Settings

	logs *logx.Service
	log  logx.Logger
	bus  eventbus.Bus

	clock    alerts.Clock
	center   *alerts.Center
	scanner  *scanner.Scanner
	renderer overlay.Renderer
	keys     *hotkey.Listener
	lock     *flock.Flock

	sup     *supervisor.Supervisor
	reloads chan *config.Config

	renderLog *rate.Sometimes

	// quietConsole keeps console logs off the terminal the overlay redraws.
	quietConsole bool
}

// New loads the config and builds every component. Nothing runs until Start.
func New(opts Options) (*App, error) {
	cfgm := config.NewManager(opts.ConfigPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	s, err := cfg.Resolve()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logs, log := logx.New(logConfig(s.Logging))
	log = log.With(logx.String("comp", "app"))
	bus := eventbus.New()

	clock := opts.Clock
	if clock == nil {
		clock = alerts.SystemClock
	}
	center := alerts.New(s.NotificationDuration,
		alerts.WithClock(clock),
		alerts.WithLogger(log.With(logx.String("comp", "alerts"))),
		alerts.WithBus(bus),
	)

	host := opts.Host
	if host == nil {
		host = feed.NewFile(s.FeedPath)
	}
	sc := scanner.New(host, center,
		scanner.WithTable(Table(s.Categories)),
		scanner.WithNamer(location.Grid{CellSize: s.CellSize}),
		scanner.WithInterval(s.CheckInterval),
		scanner.WithLogger(log.With(logx.String("comp", "scanner"))),
		scanner.WithBus(bus),
	)

	renderer := opts.Renderer
	if renderer == nil {
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		renderer, err = overlay.New(s.OverlayMode, out, log.With(logx.String("comp", "overlay")), s.ReplayKey)
		if err != nil {
			_ = logs.Close()
			return nil, err
		}
	}

	a := &App{
		opts:      opts,
		cfgm:      cfgm,
		applied:   cfg,
		settings:  s,
		logs:      logs,
		log:       log,
		bus:       bus,
		clock:     clock,
		center:    center,
		scanner:   sc,
		renderer:  renderer,
		keys:      hotkey.New(s.ReplayKey, log.With(logx.String("comp", "hotkey"))),
		renderLog: &rate.Sometimes{First: 1, Interval: time.Minute},
	}
	if s.LockFile != "" {
		a.lock = flock.New(s.LockFile)
	}
	if _, ok := renderer.(*overlay.Terminal); ok && s.Logging.Console {
		log.Info("console logging off while the overlay draws on the terminal",
			logx.Bool("file_log", s.Logging.File.Enabled))
		a.quietConsole = true
		logs.Apply(a.logSettings(s.Logging))
	}
	return a, nil
}

// Table is the built-in boss table extended with configured categories.
func Table(extra []config.CategoryConfig) *catalog.Table {
	entries := make([]catalog.Entry, 0, len(extra))
	for _, c := range extra {
		entries = append(entries, catalog.Entry{Key: c.Key, Name: c.Name})
	}
	return catalog.Default().Extend(entries...)
}

func logConfig(l config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   l.Level,
		Console: l.Console,
		File:    logx.FileConfig{Enabled: l.File.Enabled, Path: l.File.Path},
	}
}

func (a *App) logSettings(l config.LoggingConfig) logx.Config {
	c := logConfig(l)
	if a.quietConsole {
		c.Console = false
	}
	return c
}

func (a *App) Logger() logx.Logger        { return a.log }
func (a *App) Center() *alerts.Center     { return a.center }
func (a *App) Scanner() *scanner.Scanner  { return a.scanner }
func (a *App) Settings() config.Settings  { return a.settings }
func (a *App) Renderer() overlay.Renderer { return a.renderer }

// Done is closed when the supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error seen by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start takes the instance lock and launches the frame loop, config watcher,
// replay key reader and event logger.
func (a *App) Start(ctx context.Context) error {
	if a.lock != nil {
		ok, err := a.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, a.lock.Path())
		}
	}

	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		_, err := cfg.Resolve()
		return err
	})
	a.reloads = a.cfgm.Subscribe(4)
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.startEventLog()

	if !a.settings.Enabled {
		a.log.Info("boss detection disabled by config")
		// Logging changes still apply while idle.
		a.sup.Go0("config.apply", func(c context.Context) {
			for {
				select {
				case <-c.Done():
					return
				case cfg, ok := <-a.reloads:
					if !ok {
						return
					}
					a.ApplyConfig(cfg)
				}
			}
		})
	} else {
		a.sup.GoRestart("frames", a.runFrames,
			supervisor.WithRestartBackoff(100*time.Millisecond, 5*time.Second),
			supervisor.WithMaxRestarts(10),
		)
		if a.opts.Input != nil {
			// A broken input only disables replay; detection keeps running.
			a.sup.Go("hotkey", func(c context.Context) error {
				err := a.keys.Run(c, a.opts.Input)
				switch {
				case c.Err() != nil:
				case err != nil:
					a.log.Warn("replay key input failed, replay disabled", logx.Err(err))
				default:
					a.log.Debug("replay key input closed")
				}
				return nil
			})
		}
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Debug("systemd notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified ready")
	}

	a.log.Info("bossnotifier started",
		logx.Bool("enabled", a.settings.Enabled),
		logx.String("config", a.cfgm.Path()),
		logx.String("feed", a.settings.FeedPath),
		logx.Duration("check_interval", a.settings.CheckInterval),
		logx.Duration("notification_duration", a.settings.NotificationDuration),
		logx.String("replay_key", a.settings.ReplayKey),
	)
	return nil
}

func (a *App) startEventLog() {
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time), logx.Any("data", e.Data))
			}
		}
	})
}

// runFrames is the only goroutine that touches the scanner and the alert
// center. Replay presses and config reloads are handed to it over channels.
func (a *App) runFrames(ctx context.Context) error {
	t := time.NewTicker(a.settings.FrameInterval)
	defer t.Stop()
	reloads := a.reloads
	a.Frame(a.clock.Now())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.keys.Requests():
			a.Replay()
		case cfg, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			a.ApplyConfig(cfg)
		case <-t.C:
			a.Frame(a.clock.Now())
		}
	}
}

// Frame runs one pass: scan if due, drop expired alerts, draw the rest.
// A panic in any step is logged and the next frame runs normally.
func (a *App) Frame(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("frame panicked", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
		}
	}()
	a.scanner.Tick(now)
	a.center.Prune(now)
	if err := a.renderer.Render(a.center.Frames(now)); err != nil {
		a.renderLog.Do(func() { a.log.Warn("overlay render failed", logx.Err(err)) })
	}
}

// Replay re-shows the most recent alert.
func (a *App) Replay() {
	if !a.center.ReplayMostRecent() {
		a.log.Debug("replay requested but nothing to show")
	}
}

// ApplyConfig applies a reloaded config. Scan interval, display duration,
// replay key and logging change live; everything else waits for a restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	s, err := cfg.Resolve()
	if err != nil {
		a.log.Warn("ignoring invalid config", logx.Err(err))
		return
	}
	sections, attrs, restart := config.SummarizeConfigChange(a.applied, cfg)
	a.applied = cfg
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
	if len(restart) > 0 {
		a.log.Warn("restart required for config changes to take effect", logx.String("sections", strings.Join(restart, ",")))
	}

	a.logs.Apply(a.logSettings(s.Logging))
	a.scanner.SetInterval(s.CheckInterval)
	a.center.SetDuration(s.NotificationDuration)
	a.keys.SetKey(s.ReplayKey)
	if hs, ok := a.renderer.(overlay.HintSetter); ok {
		hs.SetReplayKey(s.ReplayKey)
	}

	// Keep restart-only settings as they were at startup.
	s.Enabled = a.settings.Enabled
	s.FrameInterval = a.settings.FrameInterval
	s.CellSize = a.settings.CellSize
	s.FeedPath = a.settings.FeedPath
	s.OverlayMode = a.settings.OverlayMode
	s.Categories = a.settings.Categories
	s.LockFile = a.settings.LockFile
	a.settings = s
}

// Stop cancels every goroutine and releases resources. Each step is bounded
// so one stuck component cannot stall the whole shutdown.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return a.logs.Close()
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.sup.Cancel()

	var errs []error
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		start := time.Now()
		if err := fn(stepCtx); err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err), logx.Duration("took", time.Since(start)))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	}

	step("supervisor", 3*time.Second, func(c context.Context) error {
		err := a.sup.Wait(c)
		for _, st := range a.sup.Snapshot() {
			a.log.Debug("goroutine summary",
				logx.String("name", st.Name),
				logx.Int("active", st.Active),
				logx.Int("restarts", st.Restarts),
				logx.Int("panics", st.Panics),
				logx.Duration("runtime", st.Runtime),
			)
		}
		// The first goroutine error already caused this stop; it is reported by Err.
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	})
	step("overlay", time.Second, func(context.Context) error {
		return a.renderer.Render(nil)
	})
	if a.lock != nil {
		step("lock", time.Second, func(context.Context) error { return a.lock.Unlock() })
	}
	a.cfgm.Unsubscribe(a.reloads)

	a.log.Info("stopped")
	errs = append(errs, a.logs.Close())
	return errors.Join(errs...)
}
