// Package serial serializes work per key: one conversation log or one
// brainstorm session is only ever mutated by one caller at a time.
package serial

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locks is a set of mutexes created on demand and dropped when unused.
// The zero value is ready to use.
type Locks[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// Lock blocks until k is free and returns the matching unlock.
func (l *Locks[K]) Lock(k K) (unlock func()) {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[K]*entry)
	}
	e, ok := l.entries[k]
	if !ok {
		e = &entry{}
		l.entries[k] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, k)
		}
		l.mu.Unlock()
	}
}

// Len reports how many keys are currently held or awaited.
func (l *Locks[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
