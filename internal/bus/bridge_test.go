package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/mattjoyce/islet/pkg/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeFIFO(t *testing.T) {
	b := NewBridge[int](1)
	for i := range 1000 {
		b.Send(i)
	}
	b.Close()

	var got []int
	for v := range b.Out() {
		got = append(got, v)
	}
	require.Len(t, got, 1000)
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at %d: got %d", i, v)
		}
	}
}

func TestBridgeSendDoesNotWaitForConsumer(t *testing.T) {
	b := NewBridge[int](1)
	done := make(chan struct{})
	go func() {
		// Nobody reads Out while these are sent.
		for i := range 10000 {
			b.Send(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked without a consumer")
	}
	assert.Equal(t, 0, <-b.Out())
}

func TestBridgePerProducerOrder(t *testing.T) {
	type msg struct{ producer, seq int }
	b := NewBridge[msg](4)

	var wg sync.WaitGroup
	for p := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range 250 {
				b.Send(msg{p, s})
			}
		}()
	}
	go func() {
		wg.Wait()
		b.Close()
	}()

	last := map[int]int{0: -1, 1: -1, 2: -1, 3: -1}
	count := 0
	for m := range b.Out() {
		assert.Equal(t, last[m.producer]+1, m.seq, "producer %d", m.producer)
		last[m.producer] = m.seq
		count++
	}
	assert.Equal(t, 1000, count)
}

func TestBridgeSendAfterClosePanics(t *testing.T) {
	b := NewBridge[int](1)
	b.Close()
	b.Close()
	assert.PanicsWithValue(t, ErrBridgeClosed, func() { b.Send(1) })
}

func TestUISender(t *testing.T) {
	b := NewBridge[abi.UICommand](1)
	s := NewUISender(b)
	id := abi.ActivityID{Module: "m", Name: "a"}
	s.Send(abi.RemoveActivity{ID: id})

	cmd := <-b.Out()
	rm, ok := cmd.(abi.RemoveActivity)
	require.True(t, ok)
	assert.Equal(t, id, rm.ID)
}
