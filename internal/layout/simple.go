package layout

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/islet/pkg/abi"
	"github.com/mattjoyce/islet/pkg/modkit"
)

// SimpleName is the name of the default layout.
const SimpleName = "simple"

// SimpleConfig is the simple layout's config sub-tree.
type SimpleConfig struct {
	// Orientation is "horizontal" or "vertical".
	Orientation string `yaml:"orientation"`
	// Spacing is the number of blank cells between activities.
	Spacing int `yaml:"spacing"`
}

func defaultSimpleConfig() SimpleConfig {
	return SimpleConfig{Orientation: "horizontal", Spacing: 1}
}

func (c SimpleConfig) validate() error {
	switch c.Orientation {
	case "horizontal", "vertical":
	default:
		return fmt.Errorf("orientation must be horizontal or vertical, got %q", c.Orientation)
	}
	if c.Spacing < 0 || c.Spacing > 16 {
		return fmt.Errorf("spacing must be between 0 and 16, got %d", c.Spacing)
	}
	return nil
}

type slot struct {
	id     abi.ActivityID
	widget abi.Widget
}

// Simple lines activities up in insertion order.
type Simple struct {
	cfg   SimpleConfig
	slots []slot
	root  *container
}

var _ Manager = (*Simple)(nil)

// NewSimple returns an empty simple layout with default config.
func NewSimple() *Simple {
	s := &Simple{cfg: defaultSimpleConfig()}
	s.root = &container{layout: s, props: make(map[string]float64)}
	return s
}

func (s *Simple) Name() string { return SimpleName }

func (s *Simple) AddActivity(id abi.ActivityID, w abi.Widget) {
	if i := s.index(id); i >= 0 {
		s.slots[i].widget = w
		return
	}
	s.slots = append(s.slots, slot{id: id, widget: w})
}

func (s *Simple) RemoveActivity(id abi.ActivityID) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.slots = slices.Delete(s.slots, i, i+1)
	return true
}

func (s *Simple) PrimaryWidget() abi.Widget { return s.root }

func (s *Simple) ParseConfig(blob string) error {
	next := defaultSimpleConfig()
	if err := modkit.DecodeConfig(blob, &next); err != nil {
		return err
	}
	if err := next.validate(); err != nil {
		return fmt.Errorf("layout %s: %w", SimpleName, err)
	}
	s.cfg = next
	return nil
}

// Config returns the active configuration.
func (s *Simple) Config() SimpleConfig { return s.cfg }

func (s *Simple) ListActivities() []abi.ActivityID {
	ids := make([]abi.ActivityID, len(s.slots))
	for i, sl := range s.slots {
		ids[i] = sl.id
	}
	return ids
}

func (s *Simple) Activity(id abi.ActivityID) (abi.Widget, bool) {
	if i := s.index(id); i >= 0 {
		return s.slots[i].widget, true
	}
	return nil, false
}

func (s *Simple) index(id abi.ActivityID) int {
	return slices.IndexFunc(s.slots, func(sl slot) bool { return sl.id == id })
}

func (s *Simple) render() string {
	if len(s.slots) == 0 {
		return ""
	}
	views := make([]string, 0, 2*len(s.slots))
	for i, sl := range s.slots {
		if i > 0 && s.cfg.Spacing > 0 {
			views = append(views, s.gap())
		}
		views = append(views, sl.widget.View())
	}
	if s.cfg.Orientation == "vertical" {
		return lipgloss.JoinVertical(lipgloss.Left, views...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

func (s *Simple) gap() string {
	if s.cfg.Orientation == "vertical" {
		return strings.Repeat("\n", s.cfg.Spacing-1)
	}
	return strings.Repeat(" ", s.cfg.Spacing)
}

// container is the root widget of a Simple layout.
type container struct {
	layout *Simple
	props  map[string]float64
}

func (c *container) SetProperty(name string, value float64) { c.props[name] = value }

func (c *container) Property(name string) (float64, bool) {
	v, ok := c.props[name]
	return v, ok
}

func (c *container) View() string { return c.layout.render() }
