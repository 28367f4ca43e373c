// Package tui is the terminal Toolkit: a bubbletea program that renders the
// layout's primary widget inside a styled frame.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattjoyce/islet/internal/bus"
	"github.com/mattjoyce/islet/internal/style"
	"github.com/mattjoyce/islet/internal/ui"
	"github.com/mattjoyce/islet/pkg/abi"
)

// Options configures a Toolkit.
type Options struct {
	// Refresh is how often the panel re-renders to pick up widget changes
	// made by producers. Defaults to 250ms.
	Refresh time.Duration
	// OnReload, when set, is bound to the reload key. It runs on the loop.
	OnReload func()
	// ProgramOptions are passed to tea.NewProgram, after the defaults.
	ProgramOptions []tea.ProgramOption
}

// Toolkit implements ui.Toolkit on bubbletea. The program's Update goroutine
// is the UI loop; posted callbacks reach it as messages.
type Toolkit struct {
	calls *bus.Bridge[func()]
	model *panel
	opts  Options
}

var _ ui.Toolkit = (*Toolkit)(nil)

// New creates a Toolkit. Nothing is drawn until Run.
func New(opts Options) *Toolkit {
	if opts.Refresh <= 0 {
		opts.Refresh = 250 * time.Millisecond
	}
	return &Toolkit{
		calls: bus.NewBridge[func()](64),
		model: newPanel(opts.Refresh, opts.OnReload),
		opts:  opts,
	}
}

// Run starts the program and blocks until the user closes the panel or ctx
// is done. Both are a normal exit.
func (t *Toolkit) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	popts := append([]tea.ProgramOption{tea.WithContext(runCtx), tea.WithAltScreen()}, t.opts.ProgramOptions...)
	program := tea.NewProgram(t.model, popts...)

	go t.pump(runCtx, program)

	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("panel: %w", err)
	}
	return nil
}

// pump forwards posted callbacks into the program in FIFO order. Send blocks
// until the program accepts the message, so it stays off the producers'
// goroutines.
func (t *Toolkit) pump(ctx context.Context, program *tea.Program) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-t.calls.Out():
			program.Send(callMsg(fn))
		}
	}
}

func (t *Toolkit) Post(fn func()) {
	t.calls.Send(fn)
}

func (t *Toolkit) SetRoot(w abi.Widget) {
	t.model.setRoot(w)
}

func (t *Toolkit) InstallStyle(layer style.Layer, text style.StyleText) {
	t.model.installStyle(layer, text)
}
