package notification

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// SSEChannel writes events as a text/event-stream: "data: <json>\n\n".
type SSEChannel struct {
	id       uuid.UUID
	identity string

	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	closed  bool

	done      chan struct{}
	closeOnce sync.Once
}

// PrepareSSE writes the stream headers. Call before the first event.
func PrepareSSE(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func NewSSEChannel(identity string, w io.Writer) *SSEChannel {
	f, _ := w.(http.Flusher)
	return &SSEChannel{
		id:       uuid.New(),
		identity: identity,
		w:        w,
		flusher:  f,
		done:     make(chan struct{}),
	}
}

func (c *SSEChannel) ID() uuid.UUID         { return c.id }
func (c *SSEChannel) Identity() string      { return c.identity }
func (c *SSEChannel) Done() <-chan struct{} { return c.done }

func (c *SSEChannel) Send(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChannelClosed
	}
	if _, err := fmt.Fprintf(c.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write %s event: %w", ev.Type, err)
	}
	if c.flusher != nil {
		c.flusher.Flush()
	}
	return nil
}

// Close stops further writes. After Close returns the underlying writer is
// never touched again.
func (c *SSEChannel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
}
