package lease

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jun/cloudbridge/internal/model"
)

type failingLocker struct{}

func (failingLocker) Acquire(context.Context, string, string) (*model.Lease, error) {
	return nil, errors.New("table missing")
}

func (failingLocker) Release(context.Context, string, string) error { return nil }

func TestHold_SerializesOneKey(t *testing.T) {
	locker := NewMemoryLocker()

	var active, maxSeen, calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := hold(context.Background(), locker, "user-1", time.Millisecond)
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := active.Add(1)
			for {
				m := maxSeen.Load()
				if n <= m || maxSeen.CompareAndSwap(m, n) {
					break
				}
			}
			calls.Add(1)
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), calls.Load())
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestHold_KeysAreIndependent(t *testing.T) {
	locker := NewMemoryLocker()

	r1, err := Hold(context.Background(), locker, "user-1")
	require.NoError(t, err)
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r2, err := Hold(ctx, locker, "user-2")
	require.NoError(t, err)
	r2()
}

func TestHold_ReleaseFreesLease(t *testing.T) {
	locker := NewMemoryLocker()

	release, err := Hold(context.Background(), locker, "user-1")
	require.NoError(t, err)
	release()

	_, err = locker.Acquire(context.Background(), "user-1", "someone-else")
	assert.NoError(t, err)
}

func TestHold_WaitHonorsContext(t *testing.T) {
	locker := NewMemoryLocker()
	_, err := locker.Acquire(context.Background(), "user-1", "someone-else")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	release, err := hold(ctx, locker, "user-1", time.Millisecond)
	assert.Nil(t, release)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHold_LockerError(t *testing.T) {
	release, err := Hold(context.Background(), failingLocker{}, "user-1")
	assert.Nil(t, release)
	assert.ErrorContains(t, err, "table missing")
}
