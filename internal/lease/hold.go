package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultPollInterval is how often a waiting Hold retries a held lease.
const DefaultPollInterval = 200 * time.Millisecond

// Hold takes the lease for key under a fresh owner and returns the func
// that releases it. While another owner holds the lease, Hold waits until
// it frees up or ctx is done.
//
// Callers hold the lease from loading a credential set until the possibly
// refreshed set has been saved, so only one refresh is in flight per set.
func Hold(ctx context.Context, locker Locker, key string) (func(), error) {
	return hold(ctx, locker, key, DefaultPollInterval)
}

func hold(ctx context.Context, locker Locker, key string, poll time.Duration) (func(), error) {
	owner := uuid.NewString()
	for {
		_, err := locker.Acquire(ctx, key, owner)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrHeld) {
			return nil, fmt.Errorf("acquire credential lease: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire credential lease: %w", ctx.Err())
		case <-time.After(poll):
		}
	}

	return func() {
		_ = locker.Release(context.WithoutCancel(ctx), key, owner)
	}, nil
}
