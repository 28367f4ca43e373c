package host

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/mattjoyce/islet/internal/config"
	"github.com/mattjoyce/islet/internal/registry"
	"github.com/mattjoyce/islet/internal/ui"
)

// Snapshot is a consistent view of loop-owned state.
type Snapshot struct {
	Layout      string         `json:"layout"`
	Modules     []string       `json:"modules"`
	Activities  []string       `json:"activities"`
	Fingerprint string         `json:"config_fingerprint"`
	ConfigStale bool           `json:"config_stale"`
	Stylesheet  bool           `json:"stylesheet_installed"`
	LastReload  *ReloadSummary `json:"last_reload,omitempty"`
}

// ReloadSummary is the JSON form of the last reload report.
type ReloadSummary struct {
	ID       string    `json:"id"`
	Reason   string    `json:"reason"`
	Outcome  string    `json:"outcome"`
	Started  time.Time `json:"started"`
	Duration string    `json:"duration"`
}

// Snapshot reads loop-owned state by running on the loop. ConfigStale is
// set when the file on disk no longer matches the applied configuration.
func (h *Host) Snapshot(ctx context.Context) (Snapshot, error) {
	cur := h.store.Current()
	s := Snapshot{
		Fingerprint: cur.Fingerprint,
	}
	if _, err := os.Stat(h.store.Path()); err == nil {
		s.ConfigStale = !config.Unchanged(cur, h.store.Path())
	}
	_, s.Stylesheet = h.sheet.Installed()
	if r, ok := h.LastReload(); ok {
		s.LastReload = &ReloadSummary{
			ID:       r.ID,
			Reason:   r.Reason,
			Outcome:  r.Outcome(),
			Started:  r.Started,
			Duration: r.Duration.String(),
		}
	}

	err := ui.Call(ctx, h.tk, func() {
		names, err := h.reg.TryNames()
		if errors.Is(err, registry.ErrBusy) {
			names = h.Order()
		}
		s.Modules = names
		s.Layout = h.layout.Name()
		for _, id := range h.layout.ListActivities() {
			s.Activities = append(s.Activities, id.String())
		}
	})
	if err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
