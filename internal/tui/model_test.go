package tui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattjoyce/islet/internal/style"
	"github.com/mattjoyce/islet/internal/ui"
	"github.com/mattjoyce/islet/pkg/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelRunsCallMsg(t *testing.T) {
	p := newPanel(time.Second, nil)
	ran := false
	_, cmd := p.Update(callMsg(func() { ran = true }))
	assert.True(t, ran)
	assert.Nil(t, cmd)
}

func TestPanelQuitKey(t *testing.T) {
	p := newPanel(time.Second, nil)
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestPanelReloadKey(t *testing.T) {
	reloads := 0
	p := newPanel(time.Second, func() { reloads++ })
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, reloads)
	assert.Contains(t, p.View(), "reload requested")
	assert.Contains(t, p.View(), "[r] reload")

	// Without a handler the binding is disabled.
	p = newPanel(time.Second, nil)
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.NotContains(t, p.View(), "[r] reload")
}

func TestPanelView(t *testing.T) {
	p := newPanel(time.Second, nil)
	assert.Contains(t, p.View(), "no activities")

	root := widget.NewLabel("clock")
	root.SetText("12:00")
	p.setRoot(root)
	p.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	view := p.View()
	assert.Contains(t, view, "12:00")
	assert.Contains(t, view, "[q] close")
}

func TestInstallStyleRebuildsTheme(t *testing.T) {
	p := newPanel(time.Second, nil)
	p.installStyle(style.LayerUser, "panel { padding: 3; }")
	p.installStyle(style.LayerFallback, style.Fallback())

	_, right, _, left := p.theme.Frame.GetPadding()
	assert.Equal(t, 3, left)
	assert.Equal(t, 3, right)
}

func TestCells(t *testing.T) {
	n, ok := cells("2px")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	n, _ = cells("99")
	assert.Equal(t, 8, n)
	_, ok = cells("wide")
	assert.False(t, ok)
}

func TestToolkitRunDeliversPosts(t *testing.T) {
	tk := New(Options{
		Refresh: 10 * time.Millisecond,
		ProgramOptions: []tea.ProgramOption{
			tea.WithInput(nil),
			tea.WithOutput(io.Discard),
			tea.WithoutRenderer(),
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- tk.Run(ctx) }()

	var order []string
	tk.Post(func() { order = append(order, "a") })
	tk.Post(func() { order = append(order, "b") })

	callCtx, callCancel := context.WithTimeout(ctx, 5*time.Second)
	defer callCancel()
	require.NoError(t, ui.Call(callCtx, tk, func() {
		tk.SetRoot(widget.NewLabel("x"))
	}))
	assert.Equal(t, "a,b", strings.Join(order, ","))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
