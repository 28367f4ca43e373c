// Package registry owns the constructed module instances.
package registry

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/mattjoyce/islet/pkg/abi"
)

var (
	// ErrDuplicateModule is returned when a name is inserted twice.
	ErrDuplicateModule = errors.New("module already registered")
	// ErrBusy is returned by the Try* methods when the lock is held elsewhere.
	ErrBusy = errors.New("registry busy")
)

// Registry holds one instance per module name.
//
// Non-loop code uses the blocking methods. Code running on the UI loop must
// use the Try* methods so it never parks the loop behind a reload or loader.
type Registry struct {
	mu      sync.Mutex
	modules map[string]abi.Module
	order   []string
	inited  map[string]bool
	logger  *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		modules: make(map[string]abi.Module),
		inited:  make(map[string]bool),
		logger:  logger,
	}
}

// Insert registers m under name.
func (r *Registry) Insert(name string, m abi.Module) error {
	if m == nil {
		return fmt.Errorf("module %q: nil instance", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateModule, name)
	}
	r.modules[name] = m
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a module by name, waiting for the lock.
func (r *Registry) Get(name string) (abi.Module, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modules[name]
	return m, ok
}

// Each calls fn for every module in insertion order while holding the lock.
// fn must not call back into the registry.
func (r *Registry) Each(fn func(name string, m abi.Module)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.order {
		fn(name, r.modules[name])
	}
}

// TryEach is Each without waiting for the lock. It returns ErrBusy, without
// calling fn, when the registry is locked elsewhere.
func (r *Registry) TryEach(fn func(name string, m abi.Module)) error {
	if !r.mu.TryLock() {
		return ErrBusy
	}
	defer r.mu.Unlock()
	for _, name := range r.order {
		fn(name, r.modules[name])
	}
	return nil
}

// All iterates over a snapshot of the registry in insertion order. Unlike
// Each, the lock is not held while the loop body runs.
func (r *Registry) All() iter.Seq2[string, abi.Module] {
	r.mu.Lock()
	names := slices.Clone(r.order)
	mods := make([]abi.Module, len(names))
	for i, n := range names {
		mods[i] = r.modules[n]
	}
	r.mu.Unlock()

	return func(yield func(string, abi.Module) bool) {
		for i, n := range names {
			if !yield(n, mods[i]) {
				return
			}
		}
	}
}

// Names returns registered names in insertion order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// TryNames is Names without waiting for the lock.
func (r *Registry) TryNames() ([]string, error) {
	if !r.mu.TryLock() {
		return nil, ErrBusy
	}
	defer r.mu.Unlock()
	return slices.Clone(r.order), nil
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.modules)
}

// InitAll calls Init on each module named in order, at most once per module
// for the registry's lifetime. Names not in the registry are skipped.
func (r *Registry) InitAll(order []string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, name := range order {
		m, ok := r.modules[name]
		if !ok {
			r.logger.Warn("init skipped, module not registered", "module", name)
			continue
		}
		if r.inited[name] {
			continue
		}
		r.inited[name] = true
		m.Init()
		count++
	}
	return count
}
