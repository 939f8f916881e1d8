// Package observable provides a minimal reactive cell.
//
// A Value holds a single value and synchronously notifies its subscribers,
// in subscription order, on every Set. There is no change detection: setting
// the same value twice notifies twice. Consumers that only care about changes
// filter for themselves (or use SubscribeWhen).
//
// Subscriber failures are isolated. A subscriber that panics is logged and
// the remaining subscribers are still invoked; the panic never reaches the
// caller of Set.
package observable

import (
	"log/slog"
	"sync"
)

// Readable is the read-only view of a Value handed out to observers.
// Holders can read and subscribe but never Set.
type Readable[T any] interface {
	Get() T
	Subscribe(fn func(T)) Subscription
	SubscribeWhen(pred func(T) bool, fn func(T)) Subscription
}

// Value is a reactive cell.
//
// Get and Subscribe are safe from any goroutine. Subscribers run on the
// goroutine that called Set, outside the internal lock, so a subscriber may
// read the cell (or Set it again) without deadlocking.
type Value[T any] struct {
	mu     sync.RWMutex
	value  T
	clone  func(T) T
	subs   []subscriber[T]
	nextID uint64
}

type subscriber[T any] struct {
	id   uint64
	pred func(T) bool
	fn   func(T)
}

// New creates a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{value: initial}
}

// NewWithClone creates a Value whose reads and notifications go through
// clone, so neither readers nor subscribers can reach the stored value.
// Use it for reference types (slices, maps, pointers).
func NewWithClone[T any](initial T, clone func(T) T) *Value[T] {
	return &Value[T]{value: initial, clone: clone}
}

// Get returns the most recently set value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.copyOf(v.value)
}

// Set stores x and then notifies every subscriber with it.
//
// Subscribers are notified from a snapshot taken at the time of the call:
// a subscriber added while notification is in progress is not invoked for
// this Set, and one removed mid-notification may still receive it.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	v.value = x
	subs := make([]subscriber[T], len(v.subs))
	copy(subs, v.subs)
	v.mu.Unlock()

	for _, s := range subs {
		v.notify(s, x)
	}
}

// Subscribe appends fn to the subscriber list.
// fn is not called with the current value, only with later ones.
func (v *Value[T]) Subscribe(fn func(T)) Subscription {
	return v.add(nil, fn)
}

// SubscribeWhen appends fn, invoking it only for values that satisfy pred.
func (v *Value[T]) SubscribeWhen(pred func(T) bool, fn func(T)) Subscription {
	return v.add(pred, fn)
}

// Len returns the number of active subscribers.
func (v *Value[T]) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subs)
}

func (v *Value[T]) add(pred func(T) bool, fn func(T)) Subscription {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.nextID++
	id := v.nextID
	v.subs = append(v.subs, subscriber[T]{id: id, pred: pred, fn: fn})

	return Subscription{id: id, remove: func() { v.remove(id) }}
}

func (v *Value[T]) remove(id uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, s := range v.subs {
		if s.id == id {
			// Preserve order for the remaining subscribers
			v.subs = append(v.subs[:i:i], v.subs[i+1:]...)
			return
		}
	}
}

// notify runs one subscriber with panic isolation.
func (v *Value[T]) notify(s subscriber[T], x T) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("subscriber panicked",
				"subscription", s.id,
				"panic", r,
			)
		}
	}()

	if s.pred != nil && !s.pred(v.copyOf(x)) {
		return
	}
	s.fn(v.copyOf(x))
}

func (v *Value[T]) copyOf(x T) T {
	if v.clone == nil {
		return x
	}
	return v.clone(x)
}

// ReadOnly returns a view of v that can read and subscribe but not Set.
func (v *Value[T]) ReadOnly() View[T] {
	return View[T]{v: v}
}

// View is the read-only handle an owner hands out. The zero View is not
// usable.
type View[T any] struct {
	v *Value[T]
}

var _ Readable[int] = View[int]{}

func (r View[T]) Get() T {
	return r.v.Get()
}

func (r View[T]) Subscribe(fn func(T)) Subscription {
	return r.v.Subscribe(fn)
}

func (r View[T]) SubscribeWhen(pred func(T) bool, fn func(T)) Subscription {
	return r.v.SubscribeWhen(pred, fn)
}

// Subscription identifies one registered subscriber.
type Subscription struct {
	id     uint64
	remove func()
}

// Unsubscribe removes the subscriber. Calling it more than once, or on the
// zero Subscription, is a no-op.
func (s Subscription) Unsubscribe() {
	if s.remove != nil {
		s.remove()
	}
}

// ID returns the subscription's identifier, unique per Value.
func (s Subscription) ID() uint64 {
	return s.id
}
