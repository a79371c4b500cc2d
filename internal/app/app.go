// Package app wires an editing session together: the scene, its undo
// history, the keymap and the configuration, all driven from one Loop.
package app

import (
	"context"
	"errors"

	"github.com/dshills/canvasforge/internal/config"
	"github.com/dshills/canvasforge/internal/config/watcher"
	"github.com/dshills/canvasforge/internal/engine/history"
	"github.com/dshills/canvasforge/internal/engine/scene"
	"github.com/dshills/canvasforge/internal/event"
	"github.com/dshills/canvasforge/internal/event/events"
	"github.com/dshills/canvasforge/internal/input/keymap"
)

// Source identifies the editor in event metadata.
const Source = "app"

// Options configures an Editor.
type Options struct {
	// Config is the initial configuration. Defaults to config.Default().
	Config *config.Config

	// ConfigPath is the file re-read by ReloadConfig and watched when Watch
	// is set. Defaults to Config.Path.
	ConfigPath string

	// Logger receives the editor's log output. Defaults to a stderr logger
	// at the configured level.
	Logger *Logger

	// Watch reloads the configuration when its file changes.
	Watch bool

	// LoadConfig reads the configuration on reload. Defaults to config.Load.
	LoadConfig func(path string) (*config.Config, error)
}

// Editor is one diagram editing session.
//
// Editor is not safe for concurrent use. Actions and the work queued on
// Loop must run on the same goroutine; file watch callbacks only queue work.
type Editor struct {
	cfg        *config.Config
	cfgPath    string
	loadConfig func(path string) (*config.Config, error)
	log        *Logger

	bus     event.Bus
	loop    *Loop
	canvas  *scene.Canvas
	history *history.Manager
	keys    *keymap.Keymap
	watcher *watcher.Watcher
	subs    []event.Subscription

	// extra is fixed at creation, like the history's own field list.
	extra []string

	circles int
	texts   int
	paths   int

	closed bool
}

// New creates an editor and records the baseline snapshot of its empty
// scene.
func New(opts Options) (*Editor, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	log := opts.Logger
	if log == nil {
		lc := DefaultLoggerConfig()
		lc.Level = ParseLogLevel(cfg.Logging.Level)
		log = NewLogger(lc)
	}

	e := &Editor{
		cfg:        cfg,
		cfgPath:    opts.ConfigPath,
		loadConfig: opts.LoadConfig,
		log:        log,
		bus:        event.NewBus(),
		loop:       NewLoop(),
	}
	if e.cfgPath == "" {
		e.cfgPath = cfg.Path
	}
	if e.loadConfig == nil {
		e.loadConfig = func(path string) (*config.Config, error) { return config.Load(path) }
	}

	keys := keymap.Default()
	if err := keys.Apply(cfg.Keys); err != nil {
		return nil, NewComponentError("keymap", "apply", err)
	}
	e.keys = keys

	e.canvas = scene.New(
		scene.WithBus(e.bus),
		scene.WithScheduler(e.loop),
		scene.WithSize(cfg.Canvas.Width, cfg.Canvas.Height),
		scene.WithBackground(cfg.Canvas.Background),
	)

	sub, err := e.bus.SubscribeFunc("scene.**", e.traceEvent)
	if err != nil {
		return nil, NewComponentError("event bus", "subscribe", err)
	}
	e.subs = append(e.subs, sub)

	e.extra = append([]string{history.IDField}, cfg.History.ExtraFields...)
	e.history = history.NewManager(e.canvas,
		history.WithLimit(cfg.History.Limit),
		history.WithExtraFields(cfg.History.ExtraFields...),
		history.WithLogger(log.WithComponent("history")),
	)
	if err := e.history.Subscribe(e.bus); err != nil {
		return nil, NewComponentError("history", "subscribe", err)
	}
	if err := e.history.RecordBaseline(); err != nil {
		return nil, NewComponentError("history", "baseline", err)
	}

	if opts.Watch && e.cfgPath != "" {
		if err := e.watch(); err != nil {
			e.history.Close()
			return nil, NewComponentError("watcher", "start", err)
		}
	}

	log.Debug("editor ready (canvas %dx%d, history limit %d)",
		cfg.Canvas.Width, cfg.Canvas.Height, cfg.History.Limit)
	return e, nil
}

func (e *Editor) watch() error {
	wlog := e.log.WithComponent("watcher")
	w, err := watcher.New(watcher.WithErrorHandler(func(err error) {
		wlog.Warn("watch error: %v", err)
	}))
	if err != nil {
		return err
	}
	w.OnChange(func(ev watcher.Event) {
		wlog.Debug("%s changed (%s)", ev.Path, ev.Op)
		if ev.Op.Has(watcher.OpRemove) || ev.Op.Has(watcher.OpRename) {
			return
		}
		e.loop.Defer(func() { _ = e.ReloadConfig() })
	})
	if err := w.Watch(e.cfgPath); err != nil {
		_ = w.Close()
		return err
	}
	e.watcher = w
	return nil
}

// traceEvent logs every scene notification at debug level.
func (e *Editor) traceEvent(_ context.Context, ev any) error {
	if tp, ok := ev.(event.TopicProvider); ok {
		e.log.WithComponent("scene").Debug("%s", tp.EventTopic())
	}
	return nil
}

// ReloadConfig re-reads the configuration file and applies the history
// limit, the log level and the key bindings. On error the current
// configuration stays in effect. Canvas size and extra snapshot fields
// only take effect in a new editor.
func (e *Editor) ReloadConfig() error {
	if e.closed {
		return ErrClosed
	}

	cfg, err := e.loadConfig(e.cfgPath)
	if err != nil {
		e.log.Error("reloading %s: %v", e.cfgPath, err)
		return NewComponentError("config", "reload", err)
	}

	keys := keymap.Default()
	if err := keys.Apply(cfg.Keys); err != nil {
		e.log.Error("reloading %s: %v", e.cfgPath, err)
		return NewComponentError("keymap", "apply", err)
	}

	e.keys = keys
	e.cfg = cfg
	e.history.SetLimit(cfg.History.Limit)
	e.log.SetLevel(ParseLogLevel(cfg.Logging.Level))
	e.log.Info("configuration reloaded from %s", e.cfgPath)

	return e.bus.Publish(context.Background(), event.NewEvent(events.TopicConfigReloaded,
		events.ConfigReloaded{Path: e.cfgPath}, Source))
}

// Close stops the file watcher and detaches the history manager.
// Close is idempotent.
func (e *Editor) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var errs ErrorList
	if e.watcher != nil {
		errs.Add(e.watcher.Close())
	}
	e.history.Close()
	for _, sub := range e.subs {
		if err := e.bus.Unsubscribe(sub); err != nil && !errors.Is(err, event.ErrSubscriptionNotFound) {
			errs.Add(err)
		}
	}
	e.subs = nil
	return errs.AsError()
}

// Drain runs the work queued on the loop, such as deferred scene reloads
// and configuration reloads.
func (e *Editor) Drain() int {
	return e.loop.Drain()
}

// Run processes queued work until ctx is done.
func (e *Editor) Run(ctx context.Context) error {
	err := e.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Snapshot serializes the current scene with the extra fields the editor
// was created with.
func (e *Editor) Snapshot() (history.Snapshot, error) {
	return e.canvas.Serialize(e.extra)
}

// Config returns the configuration in effect.
func (e *Editor) Config() *config.Config { return e.cfg }

// Logger returns the editor's logger.
func (e *Editor) Logger() *Logger { return e.log }

// Bus returns the event bus.
func (e *Editor) Bus() event.Bus { return e.bus }

// Loop returns the editor's loop.
func (e *Editor) Loop() *Loop { return e.loop }

// Canvas returns the scene.
func (e *Editor) Canvas() *scene.Canvas { return e.canvas }

// History returns the undo history.
func (e *Editor) History() *history.Manager { return e.history }

// Keymap returns the key bindings in effect.
func (e *Editor) Keymap() *keymap.Keymap { return e.keys }
