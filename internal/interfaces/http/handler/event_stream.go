package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BryServices/auradhom-v2/internal/domain/order"
)

const streamBuffer = 16

// EventStream fans lifecycle events out to connected dashboards over SSE.
// Slow clients miss events rather than block the engine.
type EventStream struct {
	mu        sync.Mutex
	clients   map[chan order.Event]struct{}
	keepAlive time.Duration

	closed    chan struct{}
	closeOnce sync.Once
}

func NewEventStream() *EventStream {
	return &EventStream{
		clients:   make(map[chan order.Event]struct{}),
		keepAlive: 25 * time.Second,
		closed:    make(chan struct{}),
	}
}

// Close ends every open stream. Register it on server shutdown, since
// streams never finish on their own.
func (s *EventStream) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *EventStream) HandleEvent(_ context.Context, evt order.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (s *EventStream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *EventStream) subscribe() chan order.Event {
	ch := make(chan order.Event, streamBuffer)
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *EventStream) unsubscribe(ch chan order.Event) {
	s.mu.Lock()
	delete(s.clients, ch)
	s.mu.Unlock()
}

// Serve streams events until the client disconnects.
func (s *EventStream) Serve(c *gin.Context) {
	ch := s.subscribe()
	defer s.unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case <-s.closed:
			return
		case evt := <-ch:
			c.SSEvent(string(evt.Type), evt)
			c.Writer.Flush()
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			c.Writer.Flush()
		}
	}
}
