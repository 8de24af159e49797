package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/openpantry/vouchers-backend/pkg/errors"
	"github.com/openpantry/vouchers-backend/pkg/logger"
	"github.com/openpantry/vouchers-backend/pkg/redis"
)

// releaseScript deletes the lock only when the caller still owns it, so a
// slow holder cannot release a lock that already expired and was re-acquired.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Lock serializes order submissions per participant. It is a latency
// optimization, not the correctness mechanism: when the coordination store is
// unreachable it fails open and the database transaction plus the idempotency
// reservation remain the safety net.
type Lock struct {
	store kvStore
	logg  *logger.Logger
	ttl   time.Duration
}

type LockParams struct {
	Store  kvStore
	Logger *logger.Logger
	TTL    time.Duration
}

func NewLock(p LockParams) (*Lock, error) {
	if p.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if p.TTL <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}
	return &Lock{store: p.Store, logg: p.Logger, ttl: p.TTL}, nil
}

// Lease is a held (or fail-open skipped) lock.
type Lease struct {
	key      string
	owner    string
	acquired bool
}

// Acquired reports whether the lease actually holds the lock.
func (l Lease) Acquired() bool {
	return l.acquired
}

// Acquire takes the per-participant lock. Contention returns a LockBusy error;
// an unreachable store logs a warning and returns a non-acquired lease.
func (l *Lock) Acquire(ctx context.Context, participantID uuid.UUID) (Lease, error) {
	key := redis.SubmissionLockKey(participantID.String())
	owner := uuid.NewString()

	ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		l.logg.Warn(ctx, "submission lock store unreachable, proceeding without lock: "+err.Error())
		return Lease{}, nil
	}
	if !ok {
		return Lease{}, pkgerrors.New(pkgerrors.CodeLockBusy, "another submission for this participant is in progress")
	}
	return Lease{key: key, owner: owner, acquired: true}, nil
}

// Release frees the lease if it was acquired. Failures are logged only; the
// TTL bounds how long a stuck lock can linger.
func (l *Lock) Release(ctx context.Context, lease Lease) {
	if !lease.acquired {
		return
	}
	if _, err := l.store.Eval(ctx, releaseScript, []string{lease.key}, lease.owner); err != nil {
		l.logg.Warn(ctx, "failed to release submission lock: "+err.Error())
	}
}
