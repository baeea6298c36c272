package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher receives tracked events. *kafka.Producer and *Aggregator both
// implement it.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// Collector decouples request handling from event delivery with a bounded
// buffer. Events are dropped, not blocked on, when the buffer is full.
type Collector struct {
	publisher Publisher
	eventCh   chan SearchEvent
	logger    *slog.Logger
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewCollector(publisher Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher: publisher,
		eventCh:   make(chan SearchEvent, bufferSize),
		logger:    slog.Default().With("component", "analytics-collector"),
		done:      make(chan struct{}),
	}
}

// Start delivers events in the background until Close.
func (c *Collector) Start() {
	go func() {
		defer close(c.done)
		for event := range c.eventCh {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.publisher.Publish(ctx, event.Key(), event); err != nil {
				c.logger.Error("failed to publish search event", "error", err)
			}
			cancel()
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

func (c *Collector) Track(event SearchEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("search event dropped, buffer full")
	}
}

// Close stops accepting events and waits until the buffered ones are
// delivered. Start must have been called.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.eventCh)
	c.mu.Unlock()
	<-c.done
}
