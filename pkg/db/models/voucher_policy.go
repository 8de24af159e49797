package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherPolicy is the admin-edited rate configuration. Exactly one row is
// active at a time; callers read it once per attempt into a point-in-time
// snapshot rather than joining it live during consumption.
type VoucherPolicy struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AdultAmount        decimal.Decimal `gorm:"column:adult_amount;type:numeric(12,2);not null"`
	ChildAmount        decimal.Decimal `gorm:"column:child_amount;type:numeric(12,2);not null"`
	DependentModifier  decimal.Decimal `gorm:"column:dependent_modifier;type:numeric(12,2);not null;default:0"`
	MaxVouchersCounted int             `gorm:"column:max_vouchers_counted;not null;default:2"`
	MinimumBase        decimal.Decimal `gorm:"column:minimum_base;type:numeric(12,2);not null;default:0"`
	Active             bool            `gorm:"column:active;not null;default:false"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
