// Package bus moves commands from arbitrary goroutines to the goroutine that
// owns UI state.
//
// A Bridge has one input end and one output end. Producers call Send, which
// never waits on the consumer: a relay goroutine buffers without bound and
// feeds Out in FIFO order. Out is receive-only, so nothing but the relay can
// enqueue on the consumer side.
package bus

import (
	"errors"
	"sync"
)

// ErrBridgeClosed is the panic value raised when sending into a closed bridge.
var ErrBridgeClosed = errors.New("send on closed command bridge")

// Bridge is an unbounded, single-consumer FIFO relay.
type Bridge[T any] struct {
	mu     sync.RWMutex
	closed bool
	in     chan T
	out    chan T
}

// NewBridge starts the relay goroutine. inBuffer sizes the input channel and
// only affects how often producers contend with the relay.
func NewBridge[T any](inBuffer int) *Bridge[T] {
	if inBuffer <= 0 {
		inBuffer = 64
	}
	b := &Bridge[T]{
		in:  make(chan T, inBuffer),
		out: make(chan T),
	}
	go b.relay()
	return b
}

// Send enqueues v. Sending after Close is a wiring defect and panics.
func (b *Bridge[T]) Send(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		panic(ErrBridgeClosed)
	}
	b.in <- v
}

// Out is the consumer end. It is closed after Close once the backlog drains.
func (b *Bridge[T]) Out() <-chan T {
	return b.out
}

// Close stops accepting input. Already-queued values are still delivered.
func (b *Bridge[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.in)
}

func (b *Bridge[T]) relay() {
	defer close(b.out)

	var backlog []T
	in := b.in
	for in != nil || len(backlog) > 0 {
		var out chan T
		var next T
		if len(backlog) > 0 {
			out = b.out
			next = backlog[0]
		}

		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			backlog = append(backlog, v)
		case out <- next:
			var zero T
			backlog[0] = zero
			backlog = backlog[1:]
		}
	}
}
