package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock(t *testing.T) {
	c := NewFixedClock(42)
	assert.Equal(t, int64(42), c.NowMillis())
	assert.Equal(t, int64(42), c.NowMillis())

	c.Advance(8)
	assert.Equal(t, int64(50), c.NowMillis())
}

func TestTickingClock(t *testing.T) {
	c := NewTickingClock(1000)
	assert.Equal(t, int64(1001), c.NowMillis())
	assert.Equal(t, int64(1002), c.NowMillis())

	c.Reset()
	assert.Equal(t, int64(1001), c.NowMillis())
}

func TestTickingClock_ConcurrentReadsAreDistinct(t *testing.T) {
	c := NewTickingClock(0)

	var wg sync.WaitGroup
	seen := make(chan int64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.NowMillis()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		assert.False(t, unique[v], "timestamp %d issued twice", v)
		unique[v] = true
	}
	assert.Len(t, unique, 100)
}
