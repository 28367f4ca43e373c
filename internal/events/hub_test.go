package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRingKeepsNewest(t *testing.T) {
	h := NewHub(3)
	for i := range 5 {
		h.Publish(ReloadCompleted, map[string]int{"n": i})
	}

	all := h.Since(0)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{3, 4, 5}, []int64{all[0].ID, all[1].ID, all[2].ID})

	var payload map[string]int
	require.NoError(t, json.Unmarshal(all[2].Data, &payload))
	assert.Equal(t, 4, payload["n"])

	assert.Len(t, h.Since(4), 1)
	assert.Empty(t, h.Since(5))
}

func TestHubNilPayload(t *testing.T) {
	h := NewHub(0)
	h.Publish(ReloadAborted, nil)
	ev := h.Since(0)[0]
	assert.Equal(t, ReloadAborted, ev.Topic)
	assert.JSONEq(t, "{}", string(ev.Data))
}

func TestHubSubscribe(t *testing.T) {
	h := NewHub(10)
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Subscribe(ctx)

	h.Publish(ActivityAdded, map[string]string{"id": "clock/time"})
	select {
	case ev := <-ch:
		assert.Equal(t, ActivityAdded, ev.Topic)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 5*time.Millisecond)

	// Publishing after unsubscribe must not panic.
	h.Publish(ActivityRemoved, nil)
}
