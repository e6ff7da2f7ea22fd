package usecase

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("SerializesSameKey", func(t *testing.T) {
		locks := newKeyedMutex()
		id := uuid.Must(uuid.NewV7())

		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := locks.Lock(id)
				defer unlock()
				v := counter
				counter = v + 1
			}()
		}
		wg.Wait()

		assert.Equal(t, 50, counter)
		assert.Zero(t, locks.size())
	})

	t.Run("IndependentKeys", func(t *testing.T) {
		locks := newKeyedMutex()
		a := locks.Lock(uuid.Must(uuid.NewV7()))
		b := locks.Lock(uuid.Must(uuid.NewV7()))
		assert.Equal(t, 2, locks.size())

		a()
		b()
		assert.Zero(t, locks.size())
	})
}
