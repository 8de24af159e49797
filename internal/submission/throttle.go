package submission

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/openpantry/vouchers-backend/pkg/errors"
	"github.com/openpantry/vouchers-backend/pkg/logger"
	"github.com/openpantry/vouchers-backend/pkg/redis"
)

// Throttle gates submissions behind an exponential backoff driven by the
// participant's consecutive validation failures. The counter idles out after
// an hour without failures.
type Throttle struct {
	store      kvStore
	logg       *logger.Logger
	maxBackoff time.Duration
	idleExpiry time.Duration
	now        func() time.Time
}

type ThrottleParams struct {
	Store      kvStore
	Logger     *logger.Logger
	MaxBackoff time.Duration
	IdleExpiry time.Duration
}

func NewThrottle(p ThrottleParams) (*Throttle, error) {
	if p.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if p.MaxBackoff <= 0 {
		return nil, fmt.Errorf("max backoff must be positive")
	}
	if p.IdleExpiry <= 0 {
		return nil, fmt.Errorf("idle expiry must be positive")
	}
	return &Throttle{
		store:      p.Store,
		logg:       p.Logger,
		maxBackoff: p.MaxBackoff,
		idleExpiry: p.IdleExpiry,
		now:        time.Now,
	}, nil
}

// ThrottleDetails is attached to the rejection so callers can render the wait.
type ThrottleDetails struct {
	RetryAfterSeconds int64 `json:"retry_after_seconds"`
}

// Check rejects the request while the participant is inside a backoff window.
// A store failure admits the request; the throttle is advisory.
func (t *Throttle) Check(ctx context.Context, participantID uuid.UUID) error {
	raw, err := t.store.Get(ctx, redis.ThrottleDeadlineKey(participantID.String()))
	if err != nil {
		t.logg.Warn(ctx, "throttle store unreachable, admitting request: "+err.Error())
		return nil
	}
	if raw == "" {
		return nil
	}

	deadlineUnix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}

	wait := time.Unix(deadlineUnix, 0).Sub(t.now())
	if wait <= 0 {
		return nil
	}

	return pkgerrors.New(pkgerrors.CodeThrottled, "too many failed attempts").
		WithDetails(ThrottleDetails{RetryAfterSeconds: int64(wait.Round(time.Second).Seconds())})
}

// Penalize bumps the failure counter and schedules the next backoff window,
// min(2^n, max). The counter's idle expiry is refreshed on every failure.
func (t *Throttle) Penalize(ctx context.Context, participantID uuid.UUID) {
	count, err := t.store.IncrWithTTL(ctx, redis.ThrottleCountKey(participantID.String()), t.idleExpiry)
	if err != nil {
		t.logg.Warn(ctx, "failed to increment throttle counter: "+err.Error())
		return
	}

	backoff := t.backoffFor(count)
	deadline := t.now().Add(backoff)
	err = t.store.Set(ctx, redis.ThrottleDeadlineKey(participantID.String()),
		strconv.FormatInt(deadline.Unix(), 10), backoff)
	if err != nil {
		t.logg.Warn(ctx, "failed to store throttle deadline: "+err.Error())
	}
}

// Reset clears the failure state after a committed order.
func (t *Throttle) Reset(ctx context.Context, participantID uuid.UUID) {
	err := t.store.Del(ctx,
		redis.ThrottleCountKey(participantID.String()),
		redis.ThrottleDeadlineKey(participantID.String()))
	if err != nil {
		t.logg.Warn(ctx, "failed to reset throttle state: "+err.Error())
	}
}

func (t *Throttle) backoffFor(failures int64) time.Duration {
	if failures < 1 {
		failures = 1
	}
	// 2^n seconds, capped before the shift can overflow
	if failures > 30 {
		return t.maxBackoff
	}
	backoff := time.Duration(1<<uint(failures)) * time.Second
	if backoff > t.maxBackoff {
		return t.maxBackoff
	}
	return backoff
}
