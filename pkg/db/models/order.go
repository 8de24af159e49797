package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpantry/vouchers-backend/pkg/enums"
)

// Order is a submitted, validated purchase. A row exists only when validation
// fully succeeded; it is created in one transaction with its items and
// voucher applications.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     int64                `gorm:"column:order_number;not null;autoIncrement:false;default:null"`
	AccountID       uuid.UUID            `gorm:"column:account_id;type:uuid;not null;index"`
	Status          enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'confirmed'"`
	Total           decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	HygieneSubtotal decimal.Decimal      `gorm:"column:hygiene_subtotal;type:numeric(12,2);not null;default:0"`
	FreshSubtotal   decimal.Decimal      `gorm:"column:fresh_subtotal;type:numeric(12,2);not null;default:0"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Applications    []VoucherApplication `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
}
