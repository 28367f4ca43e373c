// Package modtest provides in-process stand-ins for module shared objects.
package modtest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mattjoyce/islet/internal/loader"
)

// Opener serves libraries from memory, keyed by file base name.
type Opener struct {
	mu     sync.Mutex
	libs   map[string]map[string]any
	errs   map[string]error
	opened []string
}

var _ loader.Opener = (*Opener)(nil)

// NewOpener returns an empty Opener.
func NewOpener() *Opener {
	return &Opener{
		libs: make(map[string]map[string]any),
		errs: make(map[string]error),
	}
}

// Export makes file export symbol with value sym.
func (o *Opener) Export(file, symbol string, sym any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.libs[file] == nil {
		o.libs[file] = make(map[string]any)
	}
	o.libs[file][symbol] = sym
}

// Fail makes opening file return err.
func (o *Opener) Fail(file string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs[file] = err
}

// Opened lists base names passed to Open, in call order.
func (o *Opener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

func (o *Opener) Open(path string) (loader.Library, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	base := filepath.Base(path)
	o.opened = append(o.opened, base)
	if err, ok := o.errs[base]; ok {
		return nil, err
	}
	syms, ok := o.libs[base]
	if !ok {
		return nil, fmt.Errorf("%s: not a shared object", path)
	}
	return library(syms), nil
}

type library map[string]any

func (l library) Lookup(symbol string) (any, error) {
	sym, ok := l[symbol]
	if !ok {
		return nil, fmt.Errorf("symbol %s not found", symbol)
	}
	return sym, nil
}

// Touch creates empty files named files in dir so Discover sees them.
func Touch(t testing.TB, dir string, files ...string) {
	t.Helper()
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
			t.Fatalf("touch %s: %v", f, err)
		}
	}
}
