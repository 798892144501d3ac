package api

import (
	"sync"

	"vocalsub/internal/pipeline"
)

const (
	defaultHubCapacity   = 64
	subscriberBufferSize = 32
)

// ProgressHub fans run progress out to websocket subscribers and keeps a
// bounded backlog of the latest run for late joiners. Slow subscribers drop
// events rather than block the run.
type ProgressHub struct {
	mu       sync.Mutex
	capacity int
	runID    string
	events   []pipeline.Progress
	subs     map[chan pipeline.Progress]struct{}
}

// NewProgressHub constructs a hub retaining up to capacity events.
func NewProgressHub(capacity int) *ProgressHub {
	if capacity <= 0 {
		capacity = defaultHubCapacity
	}
	return &ProgressHub{
		capacity: capacity,
		subs:     make(map[chan pipeline.Progress]struct{}),
	}
}

// Publish records an event and delivers it to subscribers. An event from a
// new run discards the previous run's backlog.
func (h *ProgressHub) Publish(ev pipeline.Progress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ev.RunID != "" && ev.RunID != h.runID {
		h.runID = ev.RunID
		h.events = h.events[:0]
	}
	h.events = append(h.events, ev)
	if over := len(h.events) - h.capacity; over > 0 {
		h.events = append(h.events[:0:0], h.events[over:]...)
	}
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Recent returns a copy of the retained events, oldest first.
func (h *ProgressHub) Recent() []pipeline.Progress {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]pipeline.Progress(nil), h.events...)
}

// Subscribe returns the backlog and a channel of new events. The returned
// cancel func must be called to release the subscription.
func (h *ProgressHub) Subscribe() ([]pipeline.Progress, <-chan pipeline.Progress, func()) {
	ch := make(chan pipeline.Progress, subscriberBufferSize)
	h.mu.Lock()
	backlog := append([]pipeline.Progress(nil), h.events...)
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return backlog, ch, cancel
}
