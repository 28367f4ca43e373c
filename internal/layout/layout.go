// Package layout arranges activity widgets into the panel.
//
// A Manager is owned by the UI loop; none of its methods are safe for
// concurrent use.
package layout

import (
	"fmt"
	"sort"

	"github.com/mattjoyce/islet/pkg/abi"
)

// Manager arranges activities.
type Manager interface {
	Name() string
	// AddActivity places w under id, replacing any widget already there.
	AddActivity(id abi.ActivityID, w abi.Widget)
	// RemoveActivity drops id and reports whether it was present.
	RemoveActivity(id abi.ActivityID) bool
	// PrimaryWidget is the root widget the toolkit displays.
	PrimaryWidget() abi.Widget
	// ParseConfig applies the layout's config sub-tree. On error the previous
	// configuration stays in effect.
	ParseConfig(blob string) error
	ListActivities() []abi.ActivityID
	Activity(id abi.ActivityID) (abi.Widget, bool)
}

// Factory builds a fresh Manager.
type Factory func() Manager

var layouts = map[string]Factory{
	SimpleName: func() Manager { return NewSimple() },
}

// New builds the layout registered under name.
func New(name string) (Manager, error) {
	f, ok := layouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q (available: %v)", name, Names())
	}
	return f(), nil
}

// Names lists the available layouts.
func Names() []string {
	names := make([]string, 0, len(layouts))
	for n := range layouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
