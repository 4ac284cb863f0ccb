// internal/services/application_service_test.go
package services

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func lockTableSize(s *ApplicationService) int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

func TestApplicationLockReleasedAfterUse(t *testing.T) {
	s := &ApplicationService{locks: make(map[uuid.UUID]*appLock)}

	for i := 0; i < 100; i++ {
		id := uuid.New()
		s.lock(id)
		s.unlock(id)
	}

	assert.Equal(t, 0, lockTableSize(s))
}

func TestApplicationLockSerializesContenders(t *testing.T) {
	s := &ApplicationService{locks: make(map[uuid.UUID]*appLock)}
	id := uuid.New()

	var wg sync.WaitGroup
	var inside, overlaps int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.lock(id)
			if atomic.AddInt32(&inside, 1) > 1 {
				atomic.AddInt32(&overlaps, 1)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			s.unlock(id)
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&overlaps))
	assert.Equal(t, 0, lockTableSize(s))
}

func TestApplicationLockKeptWhileContended(t *testing.T) {
	s := &ApplicationService{locks: make(map[uuid.UUID]*appLock)}
	id := uuid.New()

	s.lock(id)

	started := make(chan struct{})
	released := make(chan struct{})
	go func() {
		close(started)
		s.lock(id)
		s.unlock(id)
		close(released)
	}()
	<-started

	// The waiter holds a reference, so the first release must not drop
	// the entry out from under it.
	assert.Equal(t, 1, lockTableSize(s))
	s.unlock(id)
	<-released
	assert.Equal(t, 0, lockTableSize(s))
}
