package reload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func collect[T any](ch <-chan T, quiet time.Duration) []T {
	var out []T
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		case <-time.After(quiet):
			return out
		}
	}
}

func TestSettleCoalescesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int)
	out := Settle(ctx, 30*time.Millisecond, in)

	for i := range 20 {
		in <- i
		time.Sleep(time.Millisecond)
	}

	got := collect(out, 200*time.Millisecond)
	assert.Equal(t, []int{19}, got)
}

func TestSettleSeparatesQuietPeriods(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan string)
	out := Settle(ctx, 10*time.Millisecond, in)

	in <- "a"
	assert.Equal(t, "a", <-out)
	in <- "b"
	assert.Equal(t, "b", <-out)
}

func TestSettleFoldsInputWhileConsumerBusy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int)
	out := Settle(ctx, 5*time.Millisecond, in)

	in <- 1
	time.Sleep(30 * time.Millisecond) // value ready, nobody reading
	in <- 2
	in <- 3

	got := collect(out, 100*time.Millisecond)
	assert.Equal(t, []int{3}, got)
}

func TestSettleFlushesOnClose(t *testing.T) {
	in := make(chan int)
	out := Settle(context.Background(), time.Hour, in)
	go func() {
		in <- 7
		close(in)
	}()
	assert.Equal(t, 7, <-out)
	_, ok := <-out
	assert.False(t, ok)
}

func TestSettleStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := Settle(ctx, time.Millisecond, make(chan int))
	cancel()
	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output not closed after cancel")
	}
}
