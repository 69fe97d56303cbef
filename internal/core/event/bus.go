package event

import (
	"reflect"
	"sync"
)

// Event is any outcome message produced by the core (spawned, damaged,
// killed...). Collaborators consume them via Drain; core systems can also
// subscribe to individual types.
type Event any

// Bus is a double-buffered outcome queue. Events emitted in tick N are
// dispatched and drainable in tick N+1, after SwapBuffers rotates the
// buffers at tick start. The back buffer preserves emission order across
// event types, so a registered event always precedes the kill of the same
// entity.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []Event
	back     []Event
	handlers map[reflect.Type][]func(Event)
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]Event, 0, 64),
		back:     make([]Event, 0, 64),
		handlers: make(map[reflect.Type][]func(Event)),
	}
}

// Emit queues an event into the back buffer (readable next tick).
func Emit[T any](b *Bus, ev T) {
	b.back = append(b.back, ev)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], func(ev Event) {
		fn(ev.(T))
	})
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Called once at tick start.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers the front buffer to subscribed handlers in
// emission order.
func (b *Bus) DispatchAll() {
	for _, ev := range b.front {
		for _, h := range b.handlers[reflect.TypeOf(ev)] {
			h(ev)
		}
	}
}

// Drain returns the events dispatched this tick, in emission order, for
// external collaborators (presentation, rewards, UI). The slice is valid
// until the next SwapBuffers.
func (b *Bus) Drain() []Event {
	return b.front
}

// Pending reports how many events are queued for the next tick.
func (b *Bus) Pending() int {
	return len(b.back)
}
