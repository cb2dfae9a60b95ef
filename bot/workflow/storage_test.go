package workflow

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreTake(t *testing.T) {
	s := NewStore[string]()
	s.Set(1, "signup")

	v, ok := s.Take(1)
	assert.True(t, ok)
	assert.Equal(t, "signup", v)

	_, ok = s.Take(1)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestLocksSerializeUser(t *testing.T) {
	locks := NewLocks()
	counter := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(9)
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.users)
}
