package submission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/openpantry/vouchers-backend/pkg/errors"
	"github.com/openpantry/vouchers-backend/pkg/logger"
	"github.com/openpantry/vouchers-backend/pkg/redis"
)

// CartLine is the minimal item shape the fingerprint is computed from.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// Guard is the short-TTL replay check keyed by participant + canonical cart +
// coarse time bucket. The reservation happens before validation so a second
// concurrent identical cart fails fast.
type Guard struct {
	store  kvStore
	logg   *logger.Logger
	ttl    time.Duration
	bucket time.Duration
	now    func() time.Time
}

type GuardParams struct {
	Store  kvStore
	Logger *logger.Logger
	TTL    time.Duration
	Bucket time.Duration
}

func NewGuard(p GuardParams) (*Guard, error) {
	if p.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if p.TTL <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}
	if p.Bucket <= 0 {
		return nil, fmt.Errorf("bucket must be positive")
	}
	return &Guard{
		store:  p.Store,
		logg:   p.Logger,
		ttl:    p.TTL,
		bucket: p.Bucket,
		now:    time.Now,
	}, nil
}

// Fingerprint canonicalizes the cart (sorted by product id, merged
// quantities) and hashes it with the participant and the current time bucket.
func (g *Guard) Fingerprint(participantID uuid.UUID, lines []CartLine) string {
	merged := map[uuid.UUID]int{}
	for _, l := range lines {
		merged[l.ProductID] += l.Quantity
	}

	ids := make([]uuid.UUID, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	parts := make([]string, 0, len(ids)+2)
	parts = append(parts, participantID.String())
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s:%d", id, merged[id]))
	}

	bucket := g.now().Unix() / int64(g.bucket.Seconds())
	parts = append(parts, fmt.Sprintf("b%d", bucket))

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Reserve claims the fingerprint for the dedup window. A prior claim means the
// submission is a replay and is rejected without touching balances. A store
// failure is returned as a dependency error: with the lock allowed to fail
// open, the reservation is the remaining double-submit safety net and must not
// degrade silently.
func (g *Guard) Reserve(ctx context.Context, fingerprint string) error {
	ok, err := g.store.SetNX(ctx, redis.IdempotencyKey(fingerprint), "1", g.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeDuplicate, "identical cart was submitted moments ago")
	}
	return nil
}

// Release drops the reservation. Called when the attempt never reached
// validation (lock busy, fatal) so a retry with the same cart is not treated
// as a replay. Validation failures keep the reservation.
func (g *Guard) Release(ctx context.Context, fingerprint string) {
	if err := g.store.Del(ctx, redis.IdempotencyKey(fingerprint)); err != nil {
		g.logg.Warn(ctx, "failed to release idempotency reservation: "+err.Error())
	}
}
