// Package ui defines what the host needs from a UI toolkit and provides a
// headless implementation.
package ui

import (
	"context"

	"github.com/mattjoyce/islet/internal/style"
	"github.com/mattjoyce/islet/pkg/abi"
)

// Toolkit owns the single loop that may touch UI state.
//
// Post may be called from any goroutine and never blocks; callbacks run on
// the loop in the order posted. SetRoot and InstallStyle must only be called
// from the loop.
type Toolkit interface {
	Run(ctx context.Context) error
	Post(fn func())
	SetRoot(w abi.Widget)
	InstallStyle(layer style.Layer, text style.StyleText)
}

// ApplyProperties sets each named numeric property on w.
func ApplyProperties(w abi.Widget, props map[string]float64) {
	for name, v := range props {
		w.SetProperty(name, v)
	}
}
