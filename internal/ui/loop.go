package ui

import (
	"context"

	"github.com/mattjoyce/islet/internal/bus"
	"github.com/mattjoyce/islet/internal/style"
	"github.com/mattjoyce/islet/pkg/abi"
)

// EventLoop is a Toolkit with no display. Callbacks run serially on the
// goroutine that called Run.
type EventLoop struct {
	calls *bus.Bridge[func()]

	// Loop-owned.
	root   abi.Widget
	styles map[style.Layer]style.StyleText
}

var _ Toolkit = (*EventLoop)(nil)

// NewEventLoop creates an idle loop. Callbacks posted before Run are queued.
func NewEventLoop() *EventLoop {
	return &EventLoop{
		calls:  bus.NewBridge[func()](64),
		styles: make(map[style.Layer]style.StyleText),
	}
}

// Run executes posted callbacks until ctx is done.
func (l *EventLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.calls.Out():
			fn()
		}
	}
}

func (l *EventLoop) Post(fn func()) {
	l.calls.Send(fn)
}

func (l *EventLoop) SetRoot(w abi.Widget) {
	l.root = w
}

func (l *EventLoop) InstallStyle(layer style.Layer, text style.StyleText) {
	l.styles[layer] = text
}

// Root returns the root widget. Loop only.
func (l *EventLoop) Root() abi.Widget {
	return l.root
}

// Style returns the text installed at layer. Loop only.
func (l *EventLoop) Style(layer style.Layer) (style.StyleText, bool) {
	t, ok := l.styles[layer]
	return t, ok
}

// Call posts fn and waits for it to run, or for ctx to end.
func Call(ctx context.Context, tk Toolkit, fn func()) error {
	done := make(chan struct{})
	tk.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
