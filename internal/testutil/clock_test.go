package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// TestClock_FrozenUntilAdvanced checks that repeated reads observe the
// same instant.
func TestClock_FrozenUntilAdvanced(t *testing.T) {
	c := NewClock(epoch)

	assert.Equal(t, epoch, c.Now())
	assert.Equal(t, epoch, c.Now())

	c.Advance(20 * time.Millisecond)
	assert.Equal(t, epoch.Add(20*time.Millisecond), c.Now())
}

// TestClock_AdvanceAccumulates checks that tick-sized steps add up
// exactly.
func TestClock_AdvanceAccumulates(t *testing.T) {
	c := NewClock(epoch)
	for i := 0; i < 50; i++ {
		c.Advance(20 * time.Millisecond)
	}
	assert.Equal(t, epoch.Add(time.Second), c.Now())
}

// TestClock_ConcurrentReads exercises the render-worker access pattern
// under the race detector.
func TestClock_ConcurrentReads(t *testing.T) {
	c := NewClock(epoch)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Now()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		c.Advance(time.Millisecond)
	}
	wg.Wait()

	assert.Equal(t, epoch.Add(100*time.Millisecond), c.Now())
}
