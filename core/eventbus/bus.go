package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is a message delivered to subscribers of its topic.
type Event interface {
	Topic() string
	EventID() string
}

// BaseEvent carries the identity fields shared by all events.
// Embed it in concrete event types.
type BaseEvent struct {
	ID         string
	OccurredAt time.Time
}

// NewBase creates a BaseEvent with a fresh id and timestamp.
func NewBase() BaseEvent {
	return BaseEvent{ID: uuid.NewString(), OccurredAt: time.Now()}
}

// EventID returns the unique id of the event.
func (e BaseEvent) EventID() string { return e.ID }

// Handler processes a delivered event. Handlers must be idempotent: the bus
// gives no ordering guarantee between events dispatched concurrently.
type Handler func(ctx context.Context, ev Event)

type task struct {
	ev Event
	h  Handler
}

// Bus is an in-process publish/subscribe dispatcher with a bounded worker
// pool. When the dispatch queue is full, the publishing goroutine executes
// the handler itself (caller-runs) so overload applies back-pressure to the
// publisher instead of silently dropping events.
type Bus struct {
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler

	queueMu sync.RWMutex
	queue   chan task
	closed  bool

	wg sync.WaitGroup
}

// New creates a Bus and starts its worker pool.
func New(cfg Config, logger *zap.Logger) *Bus {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize < 0 {
		queueSize = 0
	}

	b := &Bus{
		logger:   logger,
		handlers: make(map[string][]Handler),
		queue:    make(chan task, queueSize),
	}

	b.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go b.worker()
	}
	return b
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers the event to every subscriber of its topic. Delivery is
// asynchronous via the worker pool; if the queue is saturated (or the bus is
// closed) the handler runs on the calling goroutine.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[ev.Topic()]))
	copy(hs, b.handlers[ev.Topic()])
	b.mu.RUnlock()

	// Handlers must not inherit the publisher's cancellation: a handler
	// outliving the publishing request is expected.
	hctx := context.WithoutCancel(ctx)

	for _, h := range hs {
		t := task{ev: ev, h: h}

		b.queueMu.RLock()
		if b.closed {
			b.queueMu.RUnlock()
			b.run(hctx, t)
			continue
		}
		select {
		case b.queue <- t:
			b.queueMu.RUnlock()
		default:
			b.queueMu.RUnlock()
			// Caller-runs back-pressure.
			b.run(hctx, t)
		}
	}
}

// Close stops accepting queued work and waits for the workers to drain.
func (b *Bus) Close() {
	b.queueMu.Lock()
	if b.closed {
		b.queueMu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.queueMu.Unlock()

	b.wg.Wait()
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for t := range b.queue {
		b.run(context.Background(), t)
	}
}

func (b *Bus) run(ctx context.Context, t task) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", t.ev.Topic()),
				zap.String("event_id", t.ev.EventID()),
				zap.Any("panic", r))
		}
	}()
	t.h(ctx, t.ev)
}
