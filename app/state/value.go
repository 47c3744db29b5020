// Package state provides an observable value that UI code subscribes to.
package state

import "sync"

// Value holds the current state and fans every change out to subscribers.
// Subscribers get a channel of capacity one that always carries the most
// recent value: a slow reader skips intermediate states but never blocks
// the writer.
type Value[T any] struct {
	mu   sync.RWMutex
	cur  T
	subs map[chan T]struct{}
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[chan T]struct{}),
	}
}

func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cur
}

func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = next
	v.publishLocked()
}

// Update applies fn to the current value atomically and publishes the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = fn(v.cur)
	v.publishLocked()
	return v.cur
}

// Subscribe returns a channel primed with the current value.
func (v *Value[T]) Subscribe() <-chan T {
	ch := make(chan T, 1)
	v.mu.Lock()
	defer v.mu.Unlock()
	ch <- v.cur
	v.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe stops delivery and closes the channel.
func (v *Value[T]) Unsubscribe(ch <-chan T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for c := range v.subs {
		if c == ch {
			delete(v.subs, c)
			close(c)
			return
		}
	}
}

func (v *Value[T]) publishLocked() {
	for ch := range v.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v.cur
	}
}
