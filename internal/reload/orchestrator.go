// Package reload runs the reload sequence that brings the running panel in
// line with the config directory.
package reload

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mattjoyce/islet/internal/config"
	"github.com/mattjoyce/islet/internal/events"
	"github.com/mattjoyce/islet/internal/layout"
	"github.com/mattjoyce/islet/internal/log"
	"github.com/mattjoyce/islet/internal/metrics"
	"github.com/mattjoyce/islet/pkg/abi"
)

// Modules is the registry view the sequence needs. TryEach must not wait
// for the registry lock, since Run executes on the UI loop.
type Modules interface {
	TryEach(fn func(name string, m abi.Module)) error
}

type namedModule struct {
	name string
	mod  abi.Module
}

// moduleList is a copy of the registry taken at the start of a run.
type moduleList []namedModule

func (l moduleList) Each(fn func(name string, m abi.Module)) {
	for _, nm := range l {
		fn(nm.name, nm.mod)
	}
}

// StyleReloader recompiles and installs the stylesheet, keeping the
// previous style on error.
type StyleReloader interface {
	Reload() error
}

// Recorder receives the outcome of each run.
type Recorder interface {
	ObserveReload(outcome string, d time.Duration)
}

// Deps are the collaborators of an Orchestrator. Logger, Recorder and Events
// are optional; without a Logger each run logs through log.WithReload.
type Deps struct {
	Store    *config.Store
	Modules  Modules
	Layout   layout.Manager
	Style    StyleReloader
	Logger   *slog.Logger
	Recorder Recorder
	Events   events.Publisher
}

// Report describes one run of the sequence.
type Report struct {
	ID       string
	Reason   string
	Started  time.Time
	Duration time.Duration

	ConfigErr error
	// ModulesErr is set when the registry was busy and the module steps
	// were skipped.
	ModulesErr error
	Push       config.PushReport
	Styled     int
	LayoutErr  error
	StyleErr   error
	Restarted  []string
}

// Aborted reports whether the run stopped after a config load failure.
func (r Report) Aborted() bool {
	return r.ConfigErr != nil
}

// Outcome classifies the run for metrics.
func (r Report) Outcome() string {
	switch {
	case r.Aborted():
		return metrics.OutcomeAborted
	case r.ModulesErr != nil || r.LayoutErr != nil || r.StyleErr != nil || len(r.Push.Failed) > 0:
		return metrics.OutcomePartial
	default:
		return metrics.OutcomeApplied
	}
}

// Orchestrator runs the reload sequence. Run must be called on the UI loop.
type Orchestrator struct {
	deps Deps
}

// New creates an Orchestrator.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

func (o *Orchestrator) logger(id string) *slog.Logger {
	if o.deps.Logger != nil {
		return o.deps.Logger.With("reload_id", id)
	}
	return log.WithReload(id)
}

// Run executes, in order: config load, module config push, general style,
// layout config, stylesheet, producer restart. A config load failure stops
// the sequence and leaves everything as it was. When the registry is busy
// the module steps are skipped and the run is reported as partial.
func (o *Orchestrator) Run(reason string) (r Report) {
	r = Report{
		ID:      uuid.NewString(),
		Reason:  reason,
		Started: time.Now(),
	}
	logger := o.logger(r.ID)
	logger.Info("reload started", "reason", reason)

	defer func() {
		r.Duration = time.Since(r.Started)
		if o.deps.Recorder != nil {
			o.deps.Recorder.ObserveReload(r.Outcome(), r.Duration)
		}
		o.publish(r)
	}()

	cfg, err := o.deps.Store.Load()
	if err != nil {
		r.ConfigErr = err
		logger.Error("reload aborted, keeping previous configuration", "error", err)
		return r
	}
	logger.Debug("configuration loaded", "fingerprint", cfg.Fingerprint, "loaded_modules", cfg.LoadedModules.String())

	var mods moduleList
	r.ModulesErr = o.deps.Modules.TryEach(func(name string, m abi.Module) {
		mods = append(mods, namedModule{name: name, mod: m})
	})
	if r.ModulesErr != nil {
		logger.Warn("registry busy, module config and producers left as they were", "error", r.ModulesErr)
	} else {
		r.Push = config.PushToModules(cfg, mods, logger)
	}

	r.Styled = ApplyToLayout(o.deps.Layout, cfg.GeneralStyle)

	if cfg.Layout != o.deps.Layout.Name() {
		logger.Warn("layout change takes effect on restart", "configured", cfg.Layout, "active", o.deps.Layout.Name())
	}
	r.LayoutErr = ApplyLayoutConfig(o.deps.Layout, cfg)
	if r.LayoutErr != nil {
		logger.Error("layout config rejected, keeping previous", "layout", o.deps.Layout.Name(), "error", r.LayoutErr)
	}

	if err := o.deps.Style.Reload(); err != nil {
		r.StyleErr = err
		logger.Error("stylesheet failed to compile", "error", err)
	}

	mods.Each(func(name string, m abi.Module) {
		m.RestartProducers()
		r.Restarted = append(r.Restarted, name)
	})

	logger.Info("reload finished",
		"pushed", len(r.Push.Pushed),
		"failed", len(r.Push.Failed),
		"styled", r.Styled,
		"restarted", len(r.Restarted),
		"duration", time.Since(r.Started),
	)
	return r
}

// ApplyLayoutConfig hands the active layout its config sub-tree, if any.
func ApplyLayoutConfig(l layout.Manager, cfg *config.Config) error {
	blob, ok, err := cfg.LayoutBlob(l.Name())
	if err != nil || !ok {
		return err
	}
	return l.ParseConfig(blob)
}

func (o *Orchestrator) publish(r Report) {
	if o.deps.Events == nil {
		return
	}
	if r.Aborted() {
		o.deps.Events.Publish(events.ReloadAborted, map[string]any{
			"id":     r.ID,
			"reason": r.Reason,
			"error":  r.ConfigErr.Error(),
		})
		return
	}

	for name, err := range r.Push.Failed {
		o.deps.Events.Publish(events.ModuleConfigRejected, map[string]any{
			"reload_id": r.ID,
			"module":    name,
			"error":     err.Error(),
		})
	}
	if r.LayoutErr != nil {
		o.deps.Events.Publish(events.LayoutConfigRejected, map[string]any{
			"reload_id": r.ID,
			"error":     r.LayoutErr.Error(),
		})
	}
	if r.StyleErr != nil {
		o.deps.Events.Publish(events.StylesheetFailed, map[string]any{
			"reload_id": r.ID,
			"error":     r.StyleErr.Error(),
		})
	}
	if r.ModulesErr != nil {
		o.deps.Events.Publish(events.ModulesSkipped, map[string]any{
			"reload_id": r.ID,
			"error":     r.ModulesErr.Error(),
		})
	}
	o.deps.Events.Publish(events.ReloadCompleted, map[string]any{
		"id":          r.ID,
		"reason":      r.Reason,
		"outcome":     r.Outcome(),
		"pushed":      r.Push.Pushed,
		"restarted":   r.Restarted,
		"duration_ms": r.Duration.Milliseconds(),
	})
}
