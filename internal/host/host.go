// Package host wires the runtime together and owns all of its state.
package host

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mattjoyce/islet/internal/bus"
	"github.com/mattjoyce/islet/internal/config"
	"github.com/mattjoyce/islet/internal/events"
	"github.com/mattjoyce/islet/internal/layout"
	"github.com/mattjoyce/islet/internal/loader"
	"github.com/mattjoyce/islet/internal/metrics"
	"github.com/mattjoyce/islet/internal/registry"
	"github.com/mattjoyce/islet/internal/reload"
	"github.com/mattjoyce/islet/internal/style"
	"github.com/mattjoyce/islet/internal/ui"
	"github.com/mattjoyce/islet/internal/watch"
	"github.com/mattjoyce/islet/pkg/abi"
)

// Options configures a Host. Paths and Toolkit are required.
type Options struct {
	Paths   config.Paths
	Toolkit ui.Toolkit

	// Opener defaults to loader.NativeOpener.
	Opener loader.Opener
	// Compiler defaults to style.NewSCSSLite.
	Compiler style.Compiler
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Events   *events.Hub

	// Debounce is the quiet window before a reload; defaults to
	// reload.DefaultWindow.
	Debounce time.Duration
	// DisableWatcher turns off the config directory watcher.
	DisableWatcher bool
	// OnReload, if set, observes every finished reload off the loop.
	OnReload func(reload.Report)
}

// Host owns the registry, config store, layout, stylesheet and both command
// pipelines. There is exactly one per process.
type Host struct {
	opts   Options
	logger *slog.Logger
	tk     ui.Toolkit

	store   *config.Store
	reg     *registry.Registry
	loader  *loader.Loader
	sheet   *style.Sheet
	metrics *metrics.Metrics
	events  *events.Hub

	uiCmds      *bus.Bridge[abi.UICommand]
	backendCmds *bus.Bridge[bus.BackendCommand]

	// Loop-owned after Start.
	layout layout.Manager
	orch   *reload.Orchestrator

	mu         sync.Mutex
	order      []string
	started    bool
	lastReload *reload.Report
}

// New validates opts and builds an idle Host.
func New(opts Options) (*Host, error) {
	if opts.Toolkit == nil {
		return nil, errors.New("host: toolkit is required")
	}
	if opts.Paths.ConfigFile == "" {
		return nil, errors.New("host: config file path is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Compiler == nil {
		opts.Compiler = style.NewSCSSLite()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewMetrics(nil)
	}
	if opts.Events == nil {
		opts.Events = events.NewHub(200)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = reload.DefaultWindow
	}

	h := &Host{
		opts:        opts,
		logger:      opts.Logger,
		tk:          opts.Toolkit,
		store:       config.NewStore(opts.Paths.ConfigFile),
		reg:         registry.New(opts.Logger.With("component", "registry")),
		metrics:     opts.Metrics,
		events:      opts.Events,
		uiCmds:      bus.NewBridge[abi.UICommand](256),
		backendCmds: bus.NewBridge[bus.BackendCommand](16),
	}
	h.sheet = style.NewSheet(opts.Compiler, opts.Paths.Stylesheet, opts.Toolkit)
	h.loader = loader.New(opts.Opener, opts.Logger.With("component", "loader"), loader.Hooks{
		LoadFailed: func(path string, err error) {
			h.metrics.ModuleLoadFailures.Inc()
			h.events.Publish(events.ModuleLoadFailed, map[string]string{"path": path, "error": err.Error()})
		},
		ConstructFailed: func(name string, err error) {
			h.metrics.ModuleConstructFailures.Inc()
			h.events.Publish(events.ModuleConstructFailed, map[string]string{"module": name, "error": err.Error()})
		},
	})
	return h, nil
}

// Run starts the host and blocks in the toolkit loop until the panel is
// closed or ctx is done.
func (h *Host) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := h.Start(ctx); err != nil {
		return err
	}
	return h.tk.Run(ctx)
}

// Start performs startup and launches the consumers and watcher. The loop
// work it schedules runs once the toolkit loop is running.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return errors.New("host: already started")
	}
	h.started = true
	h.mu.Unlock()

	cfg := h.loadInitialConfig()

	lm, err := layout.New(cfg.Layout)
	if err != nil {
		h.logger.Error("falling back to default layout", "error", err)
		lm = layout.NewSimple()
	}
	h.layout = lm

	order := h.loadModules(cfg)
	h.mu.Lock()
	h.order = order
	h.mu.Unlock()
	h.metrics.ModulesLoaded.Set(float64(len(order)))

	if err := reload.ApplyLayoutConfig(lm, cfg); err != nil {
		h.logger.Error("layout config rejected, using layout defaults", "layout", lm.Name(), "error", err)
	}

	push := config.PushToModules(cfg, h.reg, h.logger)
	for name := range push.Failed {
		h.metrics.ModuleConfigRejections.WithLabelValues(name).Inc()
	}
	h.reg.InitAll(order)

	h.orch = reload.New(reload.Deps{
		Store:    h.store,
		Modules:  h.reg,
		Layout:   lm,
		Style:    h.sheet,
		Recorder: h.metrics,
		Events:   h.events,
	})

	h.tk.Post(func() {
		h.tk.SetRoot(lm.PrimaryWidget())
		h.tk.InstallStyle(style.LayerFallback, style.Fallback())
		if err := h.sheet.Reload(); err != nil {
			h.metrics.StylesheetFailures.Inc()
			h.logger.Warn("stylesheet not applied", "path", h.sheet.Path(), "error", err)
		}
		err := h.reg.TryEach(func(_ string, m abi.Module) { m.RestartProducers() })
		if err != nil {
			h.logger.Warn("producers not started, retrying through a reload", "error", err)
			h.RequestReload("registry busy at startup")
		}
		h.logger.Info("islet started", "modules", len(order), "layout", lm.Name())
	})

	go h.consumeUI(ctx)
	go h.consumeBackend(ctx)
	if !h.opts.DisableWatcher {
		h.startWatcher(ctx)
	}
	return nil
}

func (h *Host) loadInitialConfig() *config.Config {
	cfg, err := h.store.Load()
	switch {
	case err == nil:
		h.logger.Info("configuration loaded", "path", h.store.Path(), "fingerprint", cfg.Fingerprint)
		return cfg
	case errors.Is(err, config.ErrNotFound):
		h.logger.Info("no configuration file, using defaults", "path", h.store.Path())
	default:
		h.logger.Error("configuration invalid, using defaults", "error", err)
	}
	return h.store.Current()
}

func (h *Host) loadModules(cfg *config.Config) []string {
	dir := h.opts.Paths.ModulesDir
	ctors, err := h.loader.Discover(dir)
	if err != nil {
		h.logger.Warn("no modules loaded", "dir", dir, "error", err)
		return nil
	}
	return h.loader.Instantiate(ctors, cfg.LoadedModules, bus.NewUISender(h.uiCmds), h.reg)
}

func (h *Host) startWatcher(ctx context.Context) {
	if err := watch.CheckLocal(h.opts.Paths.Root); err != nil {
		h.logger.Warn("live reload may miss changes", "error", err)
	}
	w, err := watch.New(h.opts.Paths.Root, h.backendCmds, h.logger.With("component", "watch"))
	if err != nil {
		h.logger.Warn("live reload disabled", "error", err)
		return
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			h.logger.Error("config watcher stopped", "error", err)
		}
	}()
}

// RequestReload queues a reload as if the config directory had changed.
func (h *Host) RequestReload(reason string) {
	h.backendCmds.Send(bus.ReloadConfig{Reason: reason})
}

// Registry exposes the module registry.
func (h *Host) Registry() *registry.Registry {
	return h.reg
}

// Store exposes the config store.
func (h *Host) Store() *config.Store {
	return h.store
}

// Events exposes the event hub.
func (h *Host) Events() *events.Hub {
	return h.events
}

// Metrics exposes the metrics collectors.
func (h *Host) Metrics() *metrics.Metrics {
	return h.metrics
}

// Order returns the module order fixed at startup.
func (h *Host) Order() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

// LastReload returns the most recent reload report, if any.
func (h *Host) LastReload() (reload.Report, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastReload == nil {
		return reload.Report{}, false
	}
	return *h.lastReload, true
}
