package service

import (
	"sync"
	"sync/atomic"
)

// Collection is an ordered, id-addressed local copy of server records.
// Once closed it ignores every mutation.
type Collection[T any] struct {
	mu       sync.RWMutex
	items    []T
	closed   bool
	inFlight atomic.Int32
	id       func(T) string
	onChange func(n int)
}

func NewCollection[T any](id func(T) string) *Collection[T] {
	return &Collection[T]{id: id, items: []T{}}
}

// OnChange registers fn to receive the size after every applied mutation.
func (c *Collection[T]) OnChange(fn func(n int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Begin marks a call in flight; the returned func ends it.
func (c *Collection[T]) Begin() (done func()) {
	c.inFlight.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { c.inFlight.Add(-1) })
	}
}

func (c *Collection[T]) Busy() bool {
	return c.inFlight.Load() > 0
}

func (c *Collection[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Collection[T]) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Items returns a copy in collection order.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) Lookup(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Replace swaps in a whole new list. Reports false when closed.
func (c *Collection[T]) Replace(items []T) bool {
	next := make([]T, len(items))
	copy(next, items)
	return c.mutate(func() {
		c.items = next
	})
}

func (c *Collection[T]) Append(item T) bool {
	return c.mutate(func() {
		c.items = append(c.items, item)
	})
}

// ReplaceByID swaps the record with the same id; absent ids are ignored.
func (c *Collection[T]) ReplaceByID(item T) bool {
	return c.mutate(func() {
		if i := c.indexOf(c.id(item)); i >= 0 {
			c.items[i] = item
		}
	})
}

// Upsert replaces the record with the same id or appends it.
func (c *Collection[T]) Upsert(item T) bool {
	return c.mutate(func() {
		if i := c.indexOf(c.id(item)); i >= 0 {
			c.items[i] = item
			return
		}
		c.items = append(c.items, item)
	})
}

// InsertBefore places item ahead of the first element for which before
// reports true, or at the end.
func (c *Collection[T]) InsertBefore(item T, before func(existing T) bool) bool {
	return c.mutate(func() {
		pos := len(c.items)
		for i, existing := range c.items {
			if before(existing) {
				pos = i
				break
			}
		}
		c.items = append(c.items, item)
		copy(c.items[pos+1:], c.items[pos:])
		c.items[pos] = item
	})
}

func (c *Collection[T]) Remove(id string) bool {
	return c.mutate(func() {
		if i := c.indexOf(id); i >= 0 {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
		}
	})
}

func (c *Collection[T]) mutate(fn func()) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	fn()
	n, notify := len(c.items), c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify(n)
	}
	return true
}

func (c *Collection[T]) indexOf(id string) int {
	for i, item := range c.items {
		if c.id(item) == id {
			return i
		}
	}
	return -1
}
