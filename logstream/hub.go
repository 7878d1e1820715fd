// Package logstream fans job log lines out to every GET /log-stream subscriber.
package logstream

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber backlog before lines are dropped.
const DefaultBuffer = 256

// Hub broadcasts log lines to subscribers. It is safe for concurrent use.
//
// Publish never blocks: a subscriber whose buffer is full misses the line.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan string]struct{}
	buffer int
	closed bool

	dropped atomic.Int64
	logger  *slog.Logger
}

// NewHub creates a Hub with the given per-subscriber buffer.
// A non-positive buffer uses DefaultBuffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[chan string]struct{}),
		buffer: buffer,
		logger: slog.Default(),
	}
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe() (<-chan string, func()) {
	ch := make(chan string, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
}

// crReplacer turns carriage returns into spaces. An SSE data field cannot
// carry a bare CR.
var crReplacer = strings.NewReplacer("\r\n", " ", "\r", " ")

// Publish sends line to every subscriber.
func (h *Hub) Publish(line string) {
	line = crReplacer.Replace(line)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- line:
		default:
			h.dropped.Add(1)
		}
	}
}

// Logf formats a line, mirrors it to slog, and publishes it.
func (h *Hub) Logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	h.logger.Info("job log", "line", line)
	h.Publish(line)
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many line deliveries were skipped on full buffers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close disconnects every subscriber. Later subscribers get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
