package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherApplication records how much of a voucher funded an order. The sum of
// applied amounts for an order equals the order total.
type VoucherApplication struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	VoucherID     uuid.UUID       `gorm:"column:voucher_id;type:uuid;not null;index"`
	AppliedAmount decimal.Decimal `gorm:"column:applied_amount;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
