// Package store holds the process-wide UI state: the authenticated flag, the
// signed-in user's profile and the cached category list. Values are
// observable so a front-end can react to changes.
package store

import "sync"

// Value is an observable value. Subscribers are called with the current value
// when they subscribe and again after every Set or Update.
//
// Notifications are delivered one at a time in the order the changes were
// made, so the last value a subscriber sees is always the value Get returns.
// A Set made while another goroutine is delivering is queued and delivered by
// that goroutine; a Set from inside a subscriber is delivered after the
// subscriber returns.
type Value[T any] struct {
	value    T
	subs     []subscriber[T]
	pending  []notification[T]
	nextID   int
	draining bool
	mu       sync.Mutex
}

type subscriber[T any] struct {
	fn func(T)
	id int
}

type notification[T any] struct {
	value T
	subs  []subscriber[T]
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{value: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set replaces the value and notifies subscribers.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	v.value = value
	v.enqueue(value, v.snapshot())
	v.drain()
}

// Update applies fn to the current value and stores the result.
func (v *Value[T]) Update(fn func(T) T) {
	v.mu.Lock()
	v.value = fn(v.value)
	v.enqueue(v.value, v.snapshot())
	v.drain()
}

// Subscribe registers fn and returns a function that removes it.
func (v *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	sub := subscriber[T]{id: id, fn: fn}
	v.subs = append(v.subs, sub)
	v.enqueue(v.value, []subscriber[T]{sub})
	v.drain()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			for i, s := range v.subs {
				if s.id == id {
					v.subs = append(v.subs[:i:i], v.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// enqueue must be called with mu held.
func (v *Value[T]) enqueue(value T, subs []subscriber[T]) {
	v.pending = append(v.pending, notification[T]{value: value, subs: subs})
}

// drain must be called with mu held and releases it. Only one goroutine
// delivers at a time; the others leave their notifications queued for it.
func (v *Value[T]) drain() {
	if v.draining {
		v.mu.Unlock()
		return
	}
	v.draining = true

	for len(v.pending) > 0 {
		n := v.pending[0]
		v.pending = v.pending[1:]
		v.mu.Unlock()
		v.deliver(n)
		v.mu.Lock()
	}

	v.draining = false
	v.mu.Unlock()
}

// deliver runs the subscribers of n. If one panics, the queue is dropped so
// later changes can still be delivered.
func (v *Value[T]) deliver(n notification[T]) {
	done := false
	defer func() {
		if !done {
			v.mu.Lock()
			v.draining = false
			v.pending = nil
			v.mu.Unlock()
		}
	}()

	for _, s := range n.subs {
		s.fn(n.value)
	}
	done = true
}

// snapshot must be called with mu held.
func (v *Value[T]) snapshot() []subscriber[T] {
	subs := make([]subscriber[T], len(v.subs))
	copy(subs, v.subs)
	return subs
}
