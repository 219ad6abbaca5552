package services

import (
	"fmt"
	"log"
	"sync"
)

// Handler processes one published payload. A returned error is logged by the
// bus and never reaches the publisher.
type Handler func(payload interface{}) error

type subscription struct {
	id      uint64
	handler Handler
}

// EventBus is an in-process publish/subscribe dispatcher. Handlers for one
// event run in registration order on the publishing goroutine.
type EventBus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]subscription
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]subscription),
	}
}

// Subscribe registers handler for event and returns a function removing it.
func (b *EventBus) Subscribe(event string, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[event] = append(b.handlers[event], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(event, id) })
	}
}

func (b *EventBus) unsubscribe(event string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[event]
	for i, sub := range subs {
		if sub.id == id {
			// copy so in-flight publishes keep their snapshot intact
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.handlers, event)
			} else {
				b.handlers[event] = next
			}
			return
		}
	}
}

// Publish invokes every handler registered for event and returns once all of
// them have completed or failed.
func (b *EventBus) Publish(event string, payload interface{}) {
	b.mu.RLock()
	subs := b.handlers[event]
	b.mu.RUnlock()

	for _, sub := range subs {
		b.invoke(event, sub.handler, payload)
	}
}

func (b *EventBus) invoke(event string, handler Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Handler panic for %s: %v", event, r)
		}
	}()
	if err := handler(payload); err != nil {
		log.Printf("Handler error for %s: %v", event, err)
	}
}

func (b *EventBus) HandlerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

// On subscribes a typed handler. Payloads of another type are rejected with
// ErrPayloadType.
func On[T any](b *EventBus, event string, fn func(T) error) func() {
	return b.Subscribe(event, func(payload interface{}) error {
		typed, ok := payload.(T)
		if !ok {
			return fmt.Errorf("%w: %s got %T", ErrPayloadType, event, payload)
		}
		return fn(typed)
	})
}
