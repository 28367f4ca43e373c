// Package widget provides ready-made activity widgets for modules.
//
// Widgets render to terminal text with lipgloss. Content setters are safe to
// call from producer goroutines; style properties are applied by the host on
// the UI loop.
package widget

import (
	"math"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/islet/pkg/abi"
)

// cellHeightPx approximates the pixel height of one terminal row.
const cellHeightPx = 16

// Label is a titled box holding a single line (or block) of text.
type Label struct {
	mu    sync.RWMutex
	title string
	text  string
	props map[string]float64
}

var _ abi.Widget = (*Label)(nil)

// NewLabel returns an empty label with the given title.
func NewLabel(title string) *Label {
	return &Label{
		title: title,
		props: make(map[string]float64),
	}
}

// SetText replaces the label's body.
func (l *Label) SetText(text string) {
	l.mu.Lock()
	l.text = text
	l.mu.Unlock()
}

// Text returns the label's body.
func (l *Label) Text() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.text
}

// SetTitle replaces the label's title.
func (l *Label) SetTitle(title string) {
	l.mu.Lock()
	l.title = title
	l.mu.Unlock()
}

func (l *Label) SetProperty(name string, value float64) {
	l.mu.Lock()
	l.props[name] = value
	l.mu.Unlock()
}

func (l *Label) Property(name string) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.props[name]
	return v, ok
}

func (l *Label) View() string {
	l.mu.RLock()
	title, text := l.title, l.text
	height := rowsForHeight(l.props[abi.PropMinimalHeight])
	pad := paddingForBlur(l.props[abi.PropBlurRadius])
	l.mu.RUnlock()

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, pad)
	if height > 0 {
		box = box.Height(height)
	}

	body := text
	if title != "" {
		heading := lipgloss.NewStyle().Bold(true).Render(title)
		body = lipgloss.JoinVertical(lipgloss.Left, heading, text)
	}
	return box.Render(body)
}

// rowsForHeight converts a pixel height into terminal rows, rounding up.
func rowsForHeight(px float64) int {
	if px <= 0 {
		return 0
	}
	return int(math.Ceil(px / cellHeightPx))
}

// paddingForBlur maps the blur radius to horizontal padding, capped at 4 cells.
func paddingForBlur(radius float64) int {
	if radius <= 0 {
		return 0
	}
	return min(int(math.Round(radius/2)), 4)
}
