package widget

import (
	"strings"
	"sync"
	"testing"

	"github.com/mattjoyce/islet/pkg/abi"
	"github.com/stretchr/testify/assert"
)

func TestLabelProperties(t *testing.T) {
	l := NewLabel("clock")

	_, ok := l.Property(abi.PropMinimalHeight)
	assert.False(t, ok)

	l.SetProperty(abi.PropMinimalHeight, 40)
	v, ok := l.Property(abi.PropMinimalHeight)
	assert.True(t, ok)
	assert.Equal(t, 40.0, v)
}

func TestLabelViewContainsContent(t *testing.T) {
	l := NewLabel("clock")
	l.SetText("12:00:00")

	out := l.View()
	assert.Contains(t, out, "clock")
	assert.Contains(t, out, "12:00:00")
}

func TestLabelViewHonoursMinimalHeight(t *testing.T) {
	l := NewLabel("")
	l.SetText("x")
	short := strings.Count(l.View(), "\n")

	l.SetProperty(abi.PropMinimalHeight, 80)
	tall := strings.Count(l.View(), "\n")

	assert.Greater(t, tall, short)
}

func TestLabelConcurrentSetText(t *testing.T) {
	l := NewLabel("t")
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.SetText(strings.Repeat("x", i))
			_ = l.View()
		}()
	}
	wg.Wait()
}

func TestConversions(t *testing.T) {
	assert.Equal(t, 0, rowsForHeight(0))
	assert.Equal(t, 1, rowsForHeight(10))
	assert.Equal(t, 3, rowsForHeight(40))

	assert.Equal(t, 0, paddingForBlur(0))
	assert.Equal(t, 3, paddingForBlur(6))
	assert.Equal(t, 4, paddingForBlur(100))
}
