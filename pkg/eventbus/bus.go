package eventbus

import (
	"reflect"
	"sync"
)

// Bus is a typed publish/subscribe registry.
//
// Handlers are keyed by the concrete event type and invoked synchronously in
// registration order on the publisher's goroutine. There is no inheritance or
// interface matching: Publish delivers to handlers registered for exactly the
// published type.
//
// A Bus is constructed explicitly and owned by the session; there is no
// package-level instance.
type Bus struct {
	mu sync.Mutex

	// Ordered handler lists keyed by event type.
	handlers map[reflect.Type][]registration

	// Monotonic registration counter, used as the unsubscribe token.
	nextID uint64

	// Invoked when a handler panics during dispatch.
	onPanic func(eventType reflect.Type, recovered any)
}

// registration pairs a handler with its removal token.
type registration struct {
	id uint64
	fn func(any)
}

// Subscription identifies one handler registration for later removal.
type Subscription struct {
	eventType reflect.Type
	id        uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]registration)}
}

// SetPanicHandler installs a callback invoked when a handler panics.
// By default panics are swallowed so one failing handler cannot prevent
// delivery to the handlers registered after it.
func (b *Bus) SetPanicHandler(fn func(eventType reflect.Type, recovered any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onPanic = fn
}

// Subscribe registers a handler for events of type T and returns a token
// for Unsubscribe.
func Subscribe[T any](b *Bus, handler func(T)) Subscription {
	et := reflect.TypeOf((*T)(nil)).Elem()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[et] = append(b.handlers[et], registration{
		id: b.nextID,
		fn: func(event any) { handler(event.(T)) },
	})

	return Subscription{eventType: et, id: b.nextID}
}

// Unsubscribe removes the registration identified by sub.
// Removing a registration that no longer exists is a no-op.
func Unsubscribe(b *Bus, sub Subscription) {
	if sub.eventType == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[sub.eventType]
	for i, r := range regs {
		if r.id == sub.id {
			b.handlers[sub.eventType] = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(b.handlers[sub.eventType]) == 0 {
		delete(b.handlers, sub.eventType)
	}
}

// Publish delivers event to every handler registered for type T, in
// registration order, on the caller's goroutine. A panicking handler does
// not prevent delivery to the remaining handlers.
func Publish[T any](b *Bus, event T) {
	et := reflect.TypeOf((*T)(nil)).Elem()

	b.mu.Lock()
	regs := make([]registration, len(b.handlers[et]))
	copy(regs, b.handlers[et])
	onPanic := b.onPanic
	b.mu.Unlock()

	for _, r := range regs {
		invoke(r.fn, event, et, onPanic)
	}
}

// invoke runs one handler with panic isolation.
func invoke(fn func(any), event any, et reflect.Type, onPanic func(reflect.Type, any)) {
	defer func() {
		if r := recover(); r != nil && onPanic != nil {
			onPanic(et, r)
		}
	}()
	fn(event)
}

// Clear removes all registrations for all event types.
// Intended for lifecycle boundaries such as session teardown.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[reflect.Type][]registration)
}

// ClearType removes all registrations for events of type T.
func ClearType[T any](b *Bus) {
	et := reflect.TypeOf((*T)(nil)).Elem()

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, et)
}

// HandlerCount returns the number of handlers registered for type T.
func HandlerCount[T any](b *Bus) int {
	et := reflect.TypeOf((*T)(nil)).Elem()

	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[et])
}
