package pipeline

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader initializes a shared value on first use. Concurrent first callers
// wait for one load; a failed load is not remembered and is retried by the
// next caller.
type Loader[T any] struct {
	load  func() (T, error)
	group singleflight.Group

	mu     sync.RWMutex
	value  T
	loaded bool
}

// NewLoader creates a loader around the given load function
func NewLoader[T any](load func() (T, error)) *Loader[T] {
	return &Loader[T]{load: load}
}

// Get returns the loaded value, loading it if necessary
func (l *Loader[T]) Get() (T, error) {
	if value, ok := l.Loaded(); ok {
		return value, nil
	}

	v, err, _ := l.group.Do("load", func() (interface{}, error) {
		if value, ok := l.Loaded(); ok {
			return value, nil
		}
		value, err := l.load()
		if err != nil {
			return value, err
		}

		l.mu.Lock()
		l.value = value
		l.loaded = true
		l.mu.Unlock()

		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Loaded returns the value if a load has already succeeded
func (l *Loader[T]) Loaded() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.loaded
}
