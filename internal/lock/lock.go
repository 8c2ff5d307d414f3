package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dreamware/statekv/internal/store"
)

// ErrNotAcquired is returned when the lock is still held by another owner
// after the coordinator has exhausted its retry budget.
var ErrNotAcquired = errors.New("lock: not acquired")

// Retry policy for contested locks. Transport errors are never retried;
// only "currently held" is.
const (
	maxAttempts = 3
	backoff     = 100 * time.Millisecond
)

// Handle is the opaque token returned by a successful acquire and required
// to release. It is only valid for the locker that issued it.
type Handle struct {
	Name  string
	Token string
}

// Locker is the consumed mutual-exclusion capability. Acquire returns
// (handle, true, nil) on success, (zero, false, nil) when the lock is held
// by someone else, and a non-nil error only for transport-level failures.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (Handle, bool, error)
	Release(ctx context.Context, h Handle) error
}

// StoreLocker implements Locker on the same Store used for data, via SetNX
// with a TTL and a compare-and-delete release keyed on a random token. The
// TTL bounds worst-case unavailability: a crashed holder's lock self-expires.
type StoreLocker struct {
	store store.Store
}

// NewStoreLocker creates a Locker backed by s.
func NewStoreLocker(s store.Store) *StoreLocker {
	return &StoreLocker{store: s}
}

// Acquire attempts one SetNX of a fresh token under name.
func (l *StoreLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Handle, bool, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, name, []byte(token), ttl)
	if err != nil {
		return Handle{}, false, fmt.Errorf("lock: acquire %q: %w", name, err)
	}
	if !ok {
		return Handle{}, false, nil
	}
	return Handle{Name: name, Token: token}, true, nil
}

// Release deletes the lock entry only if it still carries the handle's
// token. A lock that expired and was re-acquired by someone else is left
// alone; that outcome is not an error.
func (l *StoreLocker) Release(ctx context.Context, h Handle) error {
	_, err := l.store.CompareAndDelete(ctx, h.Name, []byte(h.Token))
	if err != nil {
		return fmt.Errorf("lock: release %q: %w", h.Name, err)
	}
	return nil
}

// Coordinator wraps a Locker with the bounded retry policy: up to
// maxAttempts acquires, sleeping backoff between contested attempts.
type Coordinator struct {
	locker   Locker
	attempts int
	backoff  time.Duration
	log      zerolog.Logger
}

// NewCoordinator creates a coordinator for l. Pass zerolog.Nop() to
// silence it.
func NewCoordinator(l Locker, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		locker:   l,
		attempts: maxAttempts,
		backoff:  backoff,
		log:      log,
	}
}

// Acquire retries until the lock is obtained or the attempt budget runs
// out, returning ErrNotAcquired in the latter case. A transport error
// surfaces immediately without retry. The backoff sleep honors ctx.
func (c *Coordinator) Acquire(ctx context.Context, name string, ttl time.Duration) (Handle, error) {
	for attempt := 1; ; attempt++ {
		h, ok, err := c.locker.Acquire(ctx, name, ttl)
		if err != nil {
			return Handle{}, err
		}
		if ok {
			return h, nil
		}
		if attempt >= c.attempts {
			return Handle{}, fmt.Errorf("%w after %d attempts", ErrNotAcquired, c.attempts)
		}

		c.log.Debug().Str("lock", name).Int("attempt", attempt).Msg("lock held, backing off")
		select {
		case <-time.After(c.backoff):
		case <-ctx.Done():
			return Handle{}, ctx.Err()
		}
	}
}

// Release releases h. Failures are logged and returned; callers on error
// paths typically ignore the result since the lock self-expires anyway.
func (c *Coordinator) Release(ctx context.Context, h Handle) error {
	if err := c.locker.Release(ctx, h); err != nil {
		c.log.Warn().Err(err).Str("lock", h.Name).Msg("lock release failed")
		return err
	}
	return nil
}
