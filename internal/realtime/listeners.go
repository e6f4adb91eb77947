package realtime

import "github.com/google/uuid"

// listenerEntry pairs a callback with a unique registration token so that
// removal is idempotent and independent of callback identity.
type listenerEntry[T any] struct {
	id uuid.UUID
	fn T
}

// listenerList is an ordered set of callbacks. Zero value is ready to use.
// Not goroutine-safe; callers hold the client mutex.
type listenerList[T any] struct {
	entries []listenerEntry[T]
}

// add registers fn and returns its token.
func (l *listenerList[T]) add(fn T) uuid.UUID {
	id := uuid.New()
	l.entries = append(l.entries, listenerEntry[T]{id: id, fn: fn})
	return id
}

// remove deletes the entry with the given token. Returns false if the
// token was already removed.
func (l *listenerList[T]) remove(id uuid.UUID) bool {
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot returns the callbacks in registration order. The returned
// slice is safe to iterate after the client mutex is released.
func (l *listenerList[T]) snapshot() []T {
	if len(l.entries) == 0 {
		return nil
	}
	fns := make([]T, len(l.entries))
	for i, e := range l.entries {
		fns[i] = e.fn
	}
	return fns
}

// size returns the number of registered callbacks.
func (l *listenerList[T]) size() int {
	return len(l.entries)
}
