package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"finchat/internal/domain"
)

type subscriber struct {
	id      uint64
	handler domain.EventHandler
}

// Bus is an in-process, goroutine-safe event bus carrying ambient
// signals (status changes, domain notifications) to UI observers.
type Bus struct {
	mu     sync.RWMutex
	typed  map[domain.EventType][]subscriber
	all    []subscriber
	nextID atomic.Uint64
	logger *slog.Logger
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New creates an event bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		typed:  make(map[domain.EventType][]subscriber),
		logger: logger,
	}
}

// Publish fans an event out to typed and catch-all subscribers. Each
// handler runs in its own goroutine; panics are recovered and logged.
func (b *Bus) Publish(ctx context.Context, event domain.Event) {
	if b.closed.Load() {
		return
	}

	b.mu.RLock()
	subs := make([]subscriber, 0, len(b.typed[event.Type])+len(b.all))
	subs = append(subs, b.typed[event.Type]...)
	subs = append(subs, b.all...)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.wg.Add(1)
		go func(s subscriber) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panicked", "event", string(event.Type), "panic", r)
				}
			}()
			s.handler(ctx, event)
		}(sub)
	}
}

// Subscribe registers a handler for one event type and returns its
// unsubscribe function.
func (b *Bus) Subscribe(eventType domain.EventType, handler domain.EventHandler) func() {
	sub := subscriber{id: b.nextID.Add(1), handler: handler}
	b.mu.Lock()
	b.typed[eventType] = append(b.typed[eventType], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		b.typed[eventType] = remove(b.typed[eventType], sub.id)
		b.mu.Unlock()
	}
}

// SubscribeAll registers a handler for every event and returns its
// unsubscribe function.
func (b *Bus) SubscribeAll(handler domain.EventHandler) func() {
	sub := subscriber{id: b.nextID.Add(1), handler: handler}
	b.mu.Lock()
	b.all = append(b.all, sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		b.all = remove(b.all, sub.id)
		b.mu.Unlock()
	}
}

// Close prevents new publishes and waits for in-flight handlers.
// Idempotent.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.wg.Wait()
}

func remove(subs []subscriber, id uint64) []subscriber {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}

var _ domain.EventBus = (*Bus)(nil)
