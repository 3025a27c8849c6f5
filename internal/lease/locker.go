// Package lease serializes use of one credential set across concurrent
// callers. Adapters are not safe for concurrent use while a token refresh
// may be in flight, so callers sharing credentials hold a lease per
// credential set from loading it until the refreshed set is saved.
package lease

import (
	"context"
	"errors"
	"time"

	"github.com/jun/cloudbridge/internal/model"
)

// DefaultTTL bounds how long a crashed holder can block others.
const DefaultTTL = 5 * time.Minute

// ErrHeld is returned by Acquire when another owner holds an unexpired lease.
var ErrHeld = errors.New("lease held by another owner")

// Locker grants exclusive leases keyed by credential set.
type Locker interface {
	// Acquire takes the lease for key. It succeeds if no lease exists, the
	// existing lease has expired, or owner already holds it.
	Acquire(ctx context.Context, key, owner string) (*model.Lease, error)

	// Release drops the lease if owner holds it.
	Release(ctx context.Context, key, owner string) error
}
