// Package events provides the broadcast channel through which any API call
// site that observed a server-side rejection pushes an immediate
// "session invalid" signal to the session monitor, without either side
// holding a reference to the other.
package events

import "sync"

type subscription struct {
	id int64
	fn func()
}

// Bus is a process-wide invalidation broadcast. It is constructed once at
// application start and injected into every component that needs it;
// there is no package-level instance.
type Bus struct {
	mu     sync.Mutex
	nextID int64
	subs   []subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a callback and returns its unsubscribe handle.
// Subscribing the same function twice creates two independent handles.
// The handle is idempotent and safe to call from inside a callback
// during an in-progress Emit.
func (b *Bus) Subscribe(fn func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit synchronously invokes every currently registered callback in
// registration order. The list is snapshotted first so callbacks may
// subscribe or unsubscribe mid-emit, and a panicking callback does not
// suppress the remaining ones.
func (b *Bus) Emit() {
	b.mu.Lock()
	snapshot := append([]subscription(nil), b.subs...)
	b.mu.Unlock()

	for _, sub := range snapshot {
		b.invoke(sub.fn)
	}
}

func (b *Bus) invoke(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
