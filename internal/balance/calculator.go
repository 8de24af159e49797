package balance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openpantry/vouchers-backend/pkg/db/models"
	"github.com/openpantry/vouchers-backend/pkg/enums"
)

// DefaultMaxVouchersCounted caps the candidate set when no policy is loaded.
const DefaultMaxVouchersCounted = 2

var three = decimal.NewFromInt(3)

// Inputs is the point-in-time snapshot a single attempt computes against.
// Everything is read once up front; a mid-attempt policy edit cannot change
// the numbers an order was validated with.
type Inputs struct {
	Account     models.Account
	Vouchers    []models.Voucher
	Policy      *models.VoucherPolicy
	Pauses      []models.ProgramPause
	FreshPolicy *models.FreshFoodPolicy
	Now         time.Time
}

// Snapshot holds the derived balances plus the exact ordered candidate set the
// ledger must consume from. Validation and consumption share this set so the
// two can never disagree.
type Snapshot struct {
	Base             decimal.Decimal
	Available        decimal.Decimal
	Hygiene          decimal.Decimal
	FreshFood        decimal.Decimal
	GatedPauseActive bool
	Candidates       []models.Voucher
}

// Compute derives all balances. It never errors; absent inputs yield zeros so
// callers can still render a degraded response.
func Compute(in Inputs) Snapshot {
	snap := Snapshot{
		Base:      computeBase(in.Account, in.Policy),
		FreshFood: computeFreshFood(in.Account, in.FreshPolicy),
	}

	snap.GatedPauseActive = gatedPauseActive(in.Pauses, in.Now)
	snap.Candidates = Candidates(in.Vouchers, in.Policy, snap.GatedPauseActive)

	for _, v := range snap.Candidates {
		snap.Available = snap.Available.Add(v.RemainingAmount)
	}
	snap.Hygiene = snap.Available.DivRound(three, 2)

	return snap
}

// Candidates selects the ordered voucher subset that both the available
// balance and the ledger walk are computed from: applied grocery vouchers,
// filtered to pause-eligible ones while a gated pause is active, oldest first,
// capped at the policy's counted maximum.
func Candidates(vouchers []models.Voucher, policy *models.VoucherPolicy, gated bool) []models.Voucher {
	max := DefaultMaxVouchersCounted
	if policy != nil && policy.MaxVouchersCounted > 0 {
		max = policy.MaxVouchersCounted
	}

	eligible := make([]models.Voucher, 0, len(vouchers))
	for _, v := range vouchers {
		if v.State != enums.VoucherStateApplied || v.Type != enums.VoucherTypeGrocery {
			continue
		}
		if gated && !v.PauseEligible {
			continue
		}
		eligible = append(eligible, v)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].CreatedAt.Equal(eligible[j].CreatedAt) {
			return eligible[i].ID.String() < eligible[j].ID.String()
		}
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})

	if len(eligible) > max {
		eligible = eligible[:max]
	}
	return eligible
}

func computeBase(account models.Account, policy *models.VoucherPolicy) decimal.Decimal {
	if policy == nil {
		return decimal.Zero
	}

	adults := decimal.NewFromInt(int64(account.Adults))
	children := decimal.NewFromInt(int64(account.Children))
	dependents := decimal.NewFromInt(int64(account.Dependents))

	base := adults.Mul(policy.AdultAmount).
		Add(children.Mul(policy.ChildAmount)).
		Add(dependents.Mul(policy.DependentModifier))

	if base.LessThan(policy.MinimumBase) {
		return policy.MinimumBase
	}
	return base
}

func computeFreshFood(account models.Account, policy *models.FreshFoodPolicy) decimal.Decimal {
	if policy == nil {
		return decimal.Zero
	}
	return policy.AmountFor(account.HouseholdSize())
}

func gatedPauseActive(pauses []models.ProgramPause, now time.Time) bool {
	for _, p := range pauses {
		if p.Gated && p.ActiveAt(now) {
			return true
		}
	}
	return false
}
