package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/islet/internal/style"
)

// Theme holds the lipgloss styles the panel frame uses.
type Theme struct {
	Frame  lipgloss.Style
	Status lipgloss.Style
	Help   lipgloss.Style
}

// NewDefaultTheme is used until a stylesheet is installed.
func NewDefaultTheme() Theme {
	return Theme{
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5f87af")),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// ThemeFromStyles builds a Theme from installed style layers, lowest first.
//
// Recognized selectors and properties:
//
//	panel  { border-color; color; background; padding }
//	status { color }
func ThemeFromStyles(layers ...style.StyleText) Theme {
	t := NewDefaultTheme()
	rules := style.Merge(layers...)

	if panel, ok := rules["panel"]; ok {
		if v := panel["border-color"]; v != "" {
			t.Frame = t.Frame.BorderForeground(lipgloss.Color(v))
		}
		if v := panel["color"]; v != "" {
			t.Frame = t.Frame.Foreground(lipgloss.Color(v))
		}
		if v := panel["background"]; v != "" {
			t.Frame = t.Frame.Background(lipgloss.Color(v))
		}
		if n, ok := cells(panel["padding"]); ok {
			t.Frame = t.Frame.Padding(0, n)
		}
	}
	if status, ok := rules["status"]; ok {
		if v := status["color"]; v != "" {
			t.Status = t.Status.Foreground(lipgloss.Color(v))
		}
	}
	return t
}

// cells parses "2" or "2px" as a cell count, clamped to [0, 8].
func cells(v string) (int, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return min(max(n, 0), 8), true
}
