package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpantry/vouchers-backend/pkg/enums"
)

// Voucher is a funding unit tied to an account. Issuance creates and applies
// vouchers elsewhere; this service only mutates them inside the order commit
// transaction.
type Voucher struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID       uuid.UUID          `gorm:"column:account_id;type:uuid;not null;index"`
	Amount          decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Multiplier      decimal.Decimal    `gorm:"column:multiplier;type:numeric(6,2);not null;default:1"`
	RemainingAmount decimal.Decimal    `gorm:"column:remaining_amount;type:numeric(12,2);not null"`
	Type            enums.VoucherType  `gorm:"column:type;type:text;not null;default:'grocery'"`
	State           enums.VoucherState `gorm:"column:state;type:text;not null;default:'pending'"`
	PauseEligible   bool               `gorm:"column:pause_eligible;not null;default:false"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// FaceValue is the voucher's full spendable value before any consumption.
func (v Voucher) FaceValue() decimal.Decimal {
	return v.Amount.Mul(v.Multiplier)
}
