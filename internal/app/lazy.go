package app

import "sync"

// lazy holds a component built on first use. A failed build is not retried:
// every later call returns the same error.
type lazy[T any] struct {
	mu    sync.Mutex
	built bool
	value T
	err   error
}

func (l *lazy[T]) get(build func() (T, error)) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.built {
		l.value, l.err = build()
		l.built = true
	}
	return l.value, l.err
}

// peek returns the component only if it was built successfully.
func (l *lazy[T]) peek() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.built && l.err == nil
}
