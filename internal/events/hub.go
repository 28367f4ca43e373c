// Package events is the in-process feed of notable runtime happenings:
// reloads, module failures and activity changes.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Topics published by the runtime.
const (
	ReloadCompleted       = "reload.completed"
	ReloadAborted         = "reload.aborted"
	ModuleLoadFailed      = "module.load_failed"
	ModuleConstructFailed = "module.construct_failed"
	ModuleConfigRejected  = "module.config_rejected"
	ActivityAdded         = "activity.added"
	ActivityRemoved       = "activity.removed"
	StylesheetFailed      = "stylesheet.failed"
	LayoutConfigRejected  = "layout.config_rejected"
	ModulesSkipped        = "reload.modules_skipped"
)

// Event is one published item. Data is the JSON encoding of the payload.
type Event struct {
	ID    int64           `json:"id"`
	Topic string          `json:"topic"`
	At    time.Time       `json:"at"`
	Data  json.RawMessage `json:"data"`
}

// Publisher is what producers of events depend on.
type Publisher interface {
	Publish(topic string, data any)
}

// Hub is an in-memory pub/sub with a ring buffer for late readers.
type Hub struct {
	nextID atomic.Int64

	mu    sync.Mutex
	ring  []Event
	start int
	size  int

	subs      map[int]chan Event
	nextSubID int
}

var _ Publisher = (*Hub)(nil)

// NewHub keeps the last capacity events. Non-positive means 100.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		ring: make([]Event, capacity),
		subs: make(map[int]chan Event),
	}
}

// Publish records an event and fans it out. Slow subscribers miss events
// rather than block the publisher.
func (h *Hub) Publish(topic string, data any) {
	id := h.nextID.Add(1)

	payload := json.RawMessage("{}")
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			payload = b
		}
	}

	ev := Event{
		ID:    id,
		Topic: topic,
		At:    time.Now().UTC(),
		Data:  payload,
	}

	h.mu.Lock()
	h.pushLocked(ev)
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
}

// Subscribe delivers events published after the call until ctx is done, at
// which point the channel is closed.
func (h *Hub) Subscribe(ctx context.Context) <-chan Event {
	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, 64)
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

// Since returns buffered events with ID > lastID, oldest first.
func (h *Hub) Since(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, h.size)
	for i := 0; i < h.size; i++ {
		ev := h.ring[(h.start+i)%len(h.ring)]
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

func (h *Hub) pushLocked(ev Event) {
	capacity := len(h.ring)
	if h.size < capacity {
		h.ring[(h.start+h.size)%capacity] = ev
		h.size++
		return
	}
	h.ring[h.start] = ev
	h.start = (h.start + 1) % capacity
}
