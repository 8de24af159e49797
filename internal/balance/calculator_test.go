package balance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpantry/vouchers-backend/pkg/db/models"
	"github.com/openpantry/vouchers-backend/pkg/enums"
)

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func appliedGrocery(amount string, age time.Duration, pauseEligible bool) models.Voucher {
	amt := money(amount)
	return models.Voucher{
		ID:              uuid.New(),
		Amount:          amt,
		Multiplier:      decimal.NewFromInt(1),
		RemainingAmount: amt,
		Type:            enums.VoucherTypeGrocery,
		State:           enums.VoucherStateApplied,
		PauseEligible:   pauseEligible,
		CreatedAt:       time.Now().Add(-age),
	}
}

func activePolicy() *models.VoucherPolicy {
	return &models.VoucherPolicy{
		AdultAmount:        money("20.00"),
		ChildAmount:        money("12.50"),
		DependentModifier:  money("0"),
		MaxVouchersCounted: 2,
		Active:             true,
	}
}

func TestComputeBaseBalance(t *testing.T) {
	snap := Compute(Inputs{
		Account: models.Account{Adults: 2, Children: 1},
		Policy:  activePolicy(),
		Now:     time.Now(),
	})

	assert.True(t, snap.Base.Equal(money("52.50")), "got %s", snap.Base)
}

func TestComputeBaseBalanceFlooredAtMinimum(t *testing.T) {
	policy := activePolicy()
	policy.MinimumBase = money("30.00")

	snap := Compute(Inputs{
		Account: models.Account{Adults: 1},
		Policy:  policy,
		Now:     time.Now(),
	})

	assert.True(t, snap.Base.Equal(money("30.00")), "got %s", snap.Base)
}

func TestComputeAvailableAndHygiene(t *testing.T) {
	vouchers := []models.Voucher{
		appliedGrocery("50.00", 2*time.Hour, false),
		appliedGrocery("30.00", time.Hour, false),
	}

	snap := Compute(Inputs{
		Account:  models.Account{Adults: 2, Children: 1},
		Vouchers: vouchers,
		Policy:   activePolicy(),
		Now:      time.Now(),
	})

	assert.True(t, snap.Available.Equal(money("80.00")), "available: %s", snap.Available)
	assert.True(t, snap.Hygiene.Equal(money("26.67")), "hygiene: %s", snap.Hygiene)
}

func TestComputeCapsCandidatesAtPolicyMax(t *testing.T) {
	vouchers := []models.Voucher{
		appliedGrocery("50.00", 3*time.Hour, false),
		appliedGrocery("30.00", 2*time.Hour, false),
		appliedGrocery("20.00", time.Hour, false),
	}

	snap := Compute(Inputs{
		Vouchers: vouchers,
		Policy:   activePolicy(),
		Now:      time.Now(),
	})

	require.Len(t, snap.Candidates, 2)
	assert.True(t, snap.Available.Equal(money("80.00")), "available: %s", snap.Available)
}

func TestComputeGatedPauseFiltersBeforeCapping(t *testing.T) {
	now := time.Now()
	vouchers := []models.Voucher{
		appliedGrocery("50.00", 3*time.Hour, false),
		appliedGrocery("30.00", 2*time.Hour, true),
		appliedGrocery("20.00", time.Hour, true),
	}
	pauses := []models.ProgramPause{{
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
		Gated:    true,
	}}

	snap := Compute(Inputs{
		Vouchers: vouchers,
		Policy:   activePolicy(),
		Pauses:   pauses,
		Now:      now,
	})

	assert.True(t, snap.GatedPauseActive)
	require.Len(t, snap.Candidates, 2)
	assert.True(t, snap.Available.Equal(money("50.00")), "available: %s", snap.Available)
}

func TestComputeIgnoresExpiredPause(t *testing.T) {
	now := time.Now()
	vouchers := []models.Voucher{
		appliedGrocery("50.00", 2*time.Hour, false),
	}
	pauses := []models.ProgramPause{{
		StartsAt: now.Add(-3 * time.Hour),
		EndsAt:   now.Add(-time.Hour),
		Gated:    true,
	}}

	snap := Compute(Inputs{
		Vouchers: vouchers,
		Policy:   activePolicy(),
		Pauses:   pauses,
		Now:      now,
	})

	assert.False(t, snap.GatedPauseActive)
	assert.True(t, snap.Available.Equal(money("50.00")), "available: %s", snap.Available)
}

func TestComputeSkipsNonCandidateVouchers(t *testing.T) {
	consumed := appliedGrocery("40.00", 4*time.Hour, false)
	consumed.State = enums.VoucherStateConsumed
	hygieneType := appliedGrocery("15.00", 3*time.Hour, false)
	hygieneType.Type = enums.VoucherTypeHygiene

	snap := Compute(Inputs{
		Vouchers: []models.Voucher{consumed, hygieneType, appliedGrocery("25.00", time.Hour, false)},
		Policy:   activePolicy(),
		Now:      time.Now(),
	})

	require.Len(t, snap.Candidates, 1)
	assert.True(t, snap.Available.Equal(money("25.00")), "available: %s", snap.Available)
}

func TestComputeFreshFoodTiering(t *testing.T) {
	policy := &models.FreshFoodPolicy{
		SmallThreshold: 2,
		LargeThreshold: 6,
		SmallAmount:    money("10.00"),
		MediumAmount:   money("20.00"),
		LargeAmount:    money("25.00"),
		Active:         true,
	}

	cases := []struct {
		name     string
		adults   int
		children int
		want     string
	}{
		{"small household", 1, 1, "10.00"},
		{"medium household", 2, 2, "20.00"},
		{"large household", 4, 2, "25.00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := Compute(Inputs{
				Account:     models.Account{Adults: tc.adults, Children: tc.children},
				FreshPolicy: policy,
				Now:         time.Now(),
			})
			assert.True(t, snap.FreshFood.Equal(money(tc.want)), "fresh: %s", snap.FreshFood)
		})
	}
}

func TestComputeZeroesWithoutPolicies(t *testing.T) {
	snap := Compute(Inputs{
		Account:  models.Account{Adults: 2},
		Vouchers: []models.Voucher{appliedGrocery("50.00", time.Hour, false)},
		Now:      time.Now(),
	})

	assert.True(t, snap.Base.IsZero())
	assert.True(t, snap.FreshFood.IsZero())
	// vouchers still count; only the policy-derived numbers degrade
	assert.True(t, snap.Available.Equal(money("50.00")))
}

func TestCandidatesDeterministicTieBreak(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	a := appliedGrocery("10.00", 0, false)
	b := appliedGrocery("20.00", 0, false)
	a.CreatedAt = created
	b.CreatedAt = created

	got1 := Candidates([]models.Voucher{a, b}, activePolicy(), false)
	got2 := Candidates([]models.Voucher{b, a}, activePolicy(), false)

	require.Len(t, got1, 2)
	assert.Equal(t, got1[0].ID, got2[0].ID)
	assert.Equal(t, got1[1].ID, got2[1].ID)
}
