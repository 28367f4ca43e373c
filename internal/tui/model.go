package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/islet/internal/style"
	"github.com/mattjoyce/islet/pkg/abi"
)

// callMsg carries a posted callback into Update.
type callMsg func()

type tickMsg time.Time

// panel is the bubbletea model. It is only touched from the program's
// Update/View goroutine, which is the UI loop.
type panel struct {
	root    abi.Widget
	layers  map[style.Layer]style.StyleText
	theme   Theme
	keys    keyMap
	refresh time.Duration

	width  int
	height int

	onReload func()
	status   string
}

func newPanel(refresh time.Duration, onReload func()) *panel {
	keys := defaultKeyMap()
	keys.Reload.SetEnabled(onReload != nil)
	return &panel{
		layers:   make(map[style.Layer]style.StyleText),
		theme:    NewDefaultTheme(),
		keys:     keys,
		refresh:  refresh,
		onReload: onReload,
	}
}

func (p *panel) tick() tea.Cmd {
	return tea.Tick(p.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (p *panel) Init() tea.Cmd {
	return p.tick()
}

func (p *panel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callMsg:
		msg()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Quit):
			return p, tea.Quit
		case key.Matches(msg, p.keys.Reload):
			p.status = "reload requested"
			p.onReload()
		}

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height

	case tickMsg:
		return p, p.tick()
	}
	return p, nil
}

func (p *panel) View() string {
	body := ""
	if p.root != nil {
		body = p.root.View()
	}
	if body == "" {
		body = p.theme.Status.Render("no activities")
	}

	frame := p.theme.Frame
	if p.width > 2 {
		frame = frame.Width(p.width - 2)
	}

	parts := []string{frame.Render(body)}
	if p.status != "" {
		parts = append(parts, p.theme.Status.Render(fmt.Sprintf(" %s", p.status)))
	}
	parts = append(parts, p.theme.Help.Render(" "+p.keys.helpLine()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (p *panel) setRoot(w abi.Widget) {
	p.root = w
}

func (p *panel) installStyle(layer style.Layer, text style.StyleText) {
	p.layers[layer] = text
	ordered := make([]style.StyleText, 0, len(p.layers))
	for _, l := range []style.Layer{style.LayerFallback, style.LayerUser} {
		if t, ok := p.layers[l]; ok {
			ordered = append(ordered, t)
		}
	}
	p.theme = ThemeFromStyles(ordered...)
}
