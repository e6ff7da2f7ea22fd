package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazy(t *testing.T) {
	t.Run("BuildsOnce", func(t *testing.T) {
		var l lazy[*int]
		calls := 0
		build := func() (*int, error) {
			calls++
			v := calls
			return &v, nil
		}

		_, ok := l.peek()
		assert.False(t, ok)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = l.get(build)
			}()
		}
		wg.Wait()

		v, err := l.get(build)
		require.NoError(t, err)
		assert.Equal(t, 1, *v)
		assert.Equal(t, 1, calls)

		peeked, ok := l.peek()
		assert.True(t, ok)
		assert.Same(t, v, peeked)
	})

	t.Run("KeepsFirstError", func(t *testing.T) {
		var l lazy[string]
		boom := errors.New("boom")

		_, err := l.get(func() (string, error) { return "", boom })
		assert.ErrorIs(t, err, boom)

		_, err = l.get(func() (string, error) { return "late", nil })
		assert.ErrorIs(t, err, boom)

		_, ok := l.peek()
		assert.False(t, ok)
	})
}
