package reload

import (
	"github.com/mattjoyce/islet/internal/config"
	"github.com/mattjoyce/islet/internal/layout"
	"github.com/mattjoyce/islet/internal/ui"
	"github.com/mattjoyce/islet/pkg/abi"
)

// GeneralStyleProperties maps the general style section onto widget
// property names.
func GeneralStyleProperties(gs config.GeneralStyle) map[string]float64 {
	return map[string]float64{
		abi.PropMinimalHeight: float64(gs.MinimalHeight),
		abi.PropBlurRadius:    gs.BlurRadius,
	}
}

// ApplyGeneralStyle sets the general style properties on w.
func ApplyGeneralStyle(w abi.Widget, gs config.GeneralStyle) {
	ui.ApplyProperties(w, GeneralStyleProperties(gs))
}

// ApplyToLayout styles every activity the layout holds and returns how many
// widgets were touched.
func ApplyToLayout(l layout.Manager, gs config.GeneralStyle) int {
	props := GeneralStyleProperties(gs)
	n := 0
	for _, id := range l.ListActivities() {
		w, ok := l.Activity(id)
		if !ok {
			continue
		}
		ui.ApplyProperties(w, props)
		n++
	}
	return n
}
