package modkit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestartNeverOverlaps(t *testing.T) {
	var active, maxActive atomic.Int32
	producer := func(ctx context.Context) error {
		n := active.Add(1)
		for {
			cur := maxActive.Load()
			if n <= cur || maxActive.CompareAndSwap(cur, n) {
				break
			}
		}
		<-ctx.Done()
		// Simulate slow teardown; the next generation must not start yet.
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		return ctx.Err()
	}

	p := NewProducers(nil)
	p.Restart(context.Background(), producer)
	p.Restart(context.Background(), producer)
	p.Restart(context.Background(), producer)

	require.Eventually(t, func() bool { return active.Load() == 1 }, time.Second, 5*time.Millisecond)
	p.Stop()

	assert.Equal(t, int32(0), active.Load())
	assert.Equal(t, int32(1), maxActive.Load())
	assert.Equal(t, uint64(3), p.Generation())
}

func TestStopIdle(t *testing.T) {
	p := NewProducers(nil)
	p.Stop()
	assert.Equal(t, uint64(0), p.Generation())
}

func TestRestartCancelsPreviousContext(t *testing.T) {
	p := NewProducers(nil)
	first := make(chan context.Context, 1)
	p.Restart(context.Background(), func(ctx context.Context) error {
		first <- ctx
		<-ctx.Done()
		return nil
	})
	ctx := <-first

	p.Restart(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	assert.Error(t, ctx.Err())
	p.Stop()
}

func TestDecodeConfig(t *testing.T) {
	type cfg struct {
		Format string `yaml:"format"`
		Count  int    `yaml:"count"`
	}

	var c cfg
	require.NoError(t, DecodeConfig("format: '15:04'\ncount: 3\n", &c))
	assert.Equal(t, cfg{Format: "15:04", Count: 3}, c)

	prev := c
	assert.NoError(t, DecodeConfig("", &c))
	assert.Equal(t, prev, c)

	assert.Error(t, DecodeConfig("colour: red\n", &c))
}
