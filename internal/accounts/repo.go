package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/openpantry/vouchers-backend/pkg/db/models"
	pkgerrors "github.com/openpantry/vouchers-backend/pkg/errors"
)

// Snapshot is the point-in-time read every submission attempt works from:
// the account, its vouchers, and the active policy rows, loaded once so a
// concurrent admin edit cannot split an attempt across two configurations.
type Snapshot struct {
	Account     models.Account
	Vouchers    []models.Voucher
	Policy      *models.VoucherPolicy
	Pauses      []models.ProgramPause
	FreshPolicy *models.FreshFoodPolicy
	LoadedAt    time.Time
}

// Repo loads and mutates participant accounts.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) (*Repo, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &Repo{db: db}, nil
}

// LoadSnapshot reads the account with vouchers plus the active policy,
// pauses, and fresh-food policy in one pass.
func (r *Repo) LoadSnapshot(ctx context.Context, participantID uuid.UUID) (*Snapshot, error) {
	now := time.Now().UTC()
	snap := &Snapshot{LoadedAt: now}

	err := r.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		First(&snap.Account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found for participant")
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}

	err = r.db.WithContext(ctx).
		Where("account_id = ?", snap.Account.ID).
		Find(&snap.Vouchers).Error
	if err != nil {
		return nil, fmt.Errorf("loading vouchers: %w", err)
	}

	var policy models.VoucherPolicy
	err = r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("updated_at DESC").
		First(&policy).Error
	if err == nil {
		snap.Policy = &policy
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("loading voucher policy: %w", err)
	}

	err = r.db.WithContext(ctx).
		Where("starts_at <= ? AND ends_at > ?", now, now).
		Find(&snap.Pauses).Error
	if err != nil {
		return nil, fmt.Errorf("loading program pauses: %w", err)
	}

	var fresh models.FreshFoodPolicy
	err = r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("updated_at DESC").
		First(&fresh).Error
	if err == nil {
		snap.FreshPolicy = &fresh
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("loading fresh food policy: %w", err)
	}

	return snap, nil
}

// UpdateHousehold persists new household counts and the recomputed base
// balance in one transaction.
func (r *Repo) UpdateHousehold(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, adults, children, dependents int, baseBalance decimal.Decimal) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	res := conn.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"adults":       adults,
			"children":     children,
			"dependents":   dependents,
			"base_balance": baseBalance,
		})
	if res.Error != nil {
		return fmt.Errorf("updating household: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return nil
}
