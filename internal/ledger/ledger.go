package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/openpantry/vouchers-backend/pkg/db"
	"github.com/openpantry/vouchers-backend/pkg/db/models"
	"github.com/openpantry/vouchers-backend/pkg/enums"
	pkgerrors "github.com/openpantry/vouchers-backend/pkg/errors"
)

// ErrInsufficientCandidates signals that the candidate walk ran out of value
// before covering the order total. Validation gates entry to consumption, so
// hitting this is a consistency violation and the whole transaction must roll
// back.
var ErrInsufficientCandidates = pkgerrors.New(pkgerrors.CodeInternal, "voucher candidates exhausted before order total was covered")

// PlannedApplication pairs a voucher's post-consumption state with the amount
// drawn from it. PriorRemaining is the remaining amount the plan was computed
// against; Apply uses it to detect a voucher that changed between snapshot
// and commit.
type PlannedApplication struct {
	Voucher        models.Voucher
	Applied        decimal.Decimal
	PriorRemaining decimal.Decimal
}

// Plan walks the candidate set oldest first and computes the consumption for
// the given order total. It mutates nothing; Apply persists the result inside
// the commit transaction.
func Plan(candidates []models.Voucher, total decimal.Decimal) ([]PlannedApplication, error) {
	if total.IsNegative() {
		return nil, fmt.Errorf("order total must not be negative, got %s", total)
	}

	remaining := total
	plan := make([]PlannedApplication, 0, len(candidates))

	for _, v := range candidates {
		if remaining.IsZero() {
			break
		}

		applied := v.RemainingAmount
		next := v
		if remaining.GreaterThanOrEqual(v.RemainingAmount) {
			next.State = enums.VoucherStateConsumed
			next.RemainingAmount = decimal.Zero
		} else {
			applied = remaining
			next.RemainingAmount = v.RemainingAmount.Sub(remaining)
		}

		if err := validateTransition(v, next, applied); err != nil {
			return nil, err
		}

		plan = append(plan, PlannedApplication{Voucher: next, Applied: applied, PriorRemaining: v.RemainingAmount})
		remaining = remaining.Sub(applied)
	}

	if remaining.IsPositive() {
		return nil, ErrInsufficientCandidates
	}
	return plan, nil
}

// Apply persists the planned consumption inside the caller's transaction:
// each voucher row is updated individually and a VoucherApplication is
// recorded for the drawn amount. Every update is a compare-and-swap against
// the state and remaining amount the plan was computed from; the lock is
// allowed to fail open, so a concurrent submission may have consumed a
// voucher after the snapshot was taken and the stale plan must not land.
func Apply(tx *gorm.DB, orderID uuid.UUID, plan []PlannedApplication) ([]models.VoucherApplication, error) {
	applications := make([]models.VoucherApplication, 0, len(plan))

	for _, p := range plan {
		res := tx.Model(&models.Voucher{}).
			Where("id = ? AND state = ? AND remaining_amount = ?", p.Voucher.ID, enums.VoucherStateApplied, p.PriorRemaining).
			Updates(map[string]interface{}{
				"state":            p.Voucher.State,
				"remaining_amount": p.Voucher.RemainingAmount,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("updating voucher %s: %w", p.Voucher.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("voucher %s changed or vanished since the consumption plan was computed", p.Voucher.ID)
		}

		app := models.VoucherApplication{
			ID:            uuid.New(),
			OrderID:       orderID,
			VoucherID:     p.Voucher.ID,
			AppliedAmount: p.Applied,
		}
		if err := tx.Create(&app).Error; err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, fmt.Errorf("voucher %s was already applied to order %s", p.Voucher.ID, orderID)
			}
			return nil, fmt.Errorf("recording voucher application: %w", err)
		}
		applications = append(applications, app)
	}

	return applications, nil
}

// validateTransition checks a single voucher state change before it is allowed
// into the plan. Invariant violations fail loudly instead of persisting.
func validateTransition(before, after models.Voucher, applied decimal.Decimal) error {
	if before.State != enums.VoucherStateApplied {
		return fmt.Errorf("voucher %s is %s, only applied vouchers are consumable", before.ID, before.State)
	}
	if !applied.IsPositive() {
		return fmt.Errorf("voucher %s application amount %s must be positive", before.ID, applied)
	}
	if after.RemainingAmount.IsNegative() {
		return fmt.Errorf("voucher %s remaining amount %s went negative", before.ID, after.RemainingAmount)
	}
	if after.RemainingAmount.GreaterThan(before.FaceValue()) {
		return fmt.Errorf("voucher %s remaining amount %s exceeds face value %s", before.ID, after.RemainingAmount, before.FaceValue())
	}
	if after.State == enums.VoucherStateConsumed && !after.RemainingAmount.IsZero() {
		return fmt.Errorf("voucher %s consumed with nonzero remaining %s", before.ID, after.RemainingAmount)
	}
	return nil
}
