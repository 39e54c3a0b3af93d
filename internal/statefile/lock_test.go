package statefile

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLockCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "x.lock")

	lock, err := AcquireLock(path)
	require.NoError(t, err)
	assert.NoError(t, lock.Close())
}

func TestWithLockSerializesConcurrentCallers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.lock")

	var counter int32
	var maxSeen int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := withLock(path, func() error {
				n := atomic.AddInt32(&counter, 1)
				if n > atomic.LoadInt32(&maxSeen) {
					atomic.StoreInt32(&maxSeen, n)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&counter, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
	assert.EqualValues(t, 1, maxSeen, "withLock must serialize access to the critical section")
}
