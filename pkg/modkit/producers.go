// Package modkit holds helpers for module authors.
package modkit

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ProducerFunc is a module's background work. It must return once ctx is done.
type ProducerFunc func(ctx context.Context) error

// Producers supervises one generation of producer goroutines at a time.
// Restart cancels the running generation and waits for it to exit before the
// next one starts, so two generations never overlap.
type Producers struct {
	mu         sync.Mutex
	cancel     context.CancelFunc
	group      *errgroup.Group
	generation uint64
	logger     *slog.Logger
}

// NewProducers returns an idle supervisor. A nil logger uses slog.Default.
func NewProducers(logger *slog.Logger) *Producers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producers{logger: logger}
}

// Restart stops the current generation and starts fns under a fresh context
// derived from parent.
func (p *Producers) Restart(parent context.Context, fns ...ProducerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	ctx, cancel := context.WithCancel(parent)
	group, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		group.Go(func() error { return fn(gctx) })
	}
	p.cancel = cancel
	p.group = group
	p.generation++
}

// Stop cancels the current generation and waits for it to exit.
func (p *Producers) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Generation counts how many times Restart has been called.
func (p *Producers) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

func (p *Producers) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	if err := p.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warn("producer exited with error", "generation", p.generation, "error", err)
	}
	p.cancel = nil
	p.group = nil
}
