package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_Sequence(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())

	for want := int64(1); want <= 4; want++ {
		assert.Equal(t, want, clock.Next())
	}
	assert.Equal(t, int64(4), clock.Current())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Next()
	clock.Next()

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_ConcurrentUniqueValues(t *testing.T) {
	clock := NewDeterministicClock()
	const workers, calls = 50, 100

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*calls)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, calls)
			for j := 0; j < calls; j++ {
				local = append(local, clock.Next())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, v := range local {
				seen[v] = true
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*calls)
	for v := int64(1); v <= workers*calls; v++ {
		assert.True(t, seen[v], "missing value %d", v)
	}
}
