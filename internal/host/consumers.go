package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattjoyce/islet/internal/bus"
	"github.com/mattjoyce/islet/internal/events"
	"github.com/mattjoyce/islet/internal/registry"
	"github.com/mattjoyce/islet/internal/reload"
	"github.com/mattjoyce/islet/pkg/abi"
)

// consumeUI moves UI commands onto the loop, one callback per command, in
// arrival order.
func (h *Host) consumeUI(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-h.uiCmds.Out():
			if !ok {
				return
			}
			h.tk.Post(func() { h.applyUI(cmd) })
		}
	}
}

// applyUI runs on the loop.
func (h *Host) applyUI(cmd abi.UICommand) {
	switch c := cmd.(type) {
	case abi.AddActivity:
		if c.Widget == nil {
			h.logger.Warn("activity without widget ignored", "activity", c.ID.String())
			return
		}
		h.layout.AddActivity(c.ID, c.Widget)
		reload.ApplyGeneralStyle(c.Widget, h.store.Current().GeneralStyle)
		h.metrics.UICommandsTotal.WithLabelValues("add_activity").Inc()
		h.events.Publish(events.ActivityAdded, map[string]string{"activity": c.ID.String()})
		h.logger.Debug("activity added", "activity", c.ID.String())

	case abi.RemoveActivity:
		if !h.layout.RemoveActivity(c.ID) {
			h.logger.Debug("remove for unknown activity", "activity", c.ID.String())
			return
		}
		h.metrics.UICommandsTotal.WithLabelValues("remove_activity").Inc()
		h.events.Publish(events.ActivityRemoved, map[string]string{"activity": c.ID.String()})
		h.logger.Debug("activity removed", "activity", c.ID.String())
	}
	h.metrics.ActivitiesActive.Set(float64(len(h.layout.ListActivities())))
}

// consumeBackend debounces reload requests and runs each reload on the
// loop, waiting for it to finish before taking the next one.
func (h *Host) consumeBackend(ctx context.Context) {
	for cmd := range reload.Settle(ctx, h.opts.Debounce, h.backendCmds.Out()) {
		switch c := cmd.(type) {
		case bus.ReloadConfig:
			done := make(chan reload.Report, 1)
			h.tk.Post(func() { done <- h.orch.Run(c.Reason) })

			select {
			case <-ctx.Done():
				return
			case r := <-done:
				h.afterReload(r)
			}
		default:
			h.logger.Warn("unknown backend command", "type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Host) afterReload(r reload.Report) {
	for name := range r.Push.Failed {
		h.metrics.ModuleConfigRejections.WithLabelValues(name).Inc()
	}
	if r.StyleErr != nil {
		h.metrics.StylesheetFailures.Inc()
	}

	h.mu.Lock()
	h.lastReload = &r
	h.mu.Unlock()

	if h.opts.OnReload != nil {
		h.opts.OnReload(r)
	}

	if errors.Is(r.ModulesErr, registry.ErrBusy) {
		h.RequestReload("registry busy")
	}
}
