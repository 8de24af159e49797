package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FreshFoodPolicy is the household-size-tiered per-order fresh-food budget.
// The budget resets on every order; it is never stored as a remaining balance.
type FreshFoodPolicy struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SmallThreshold int             `gorm:"column:small_threshold;not null"`
	LargeThreshold int             `gorm:"column:large_threshold;not null"`
	SmallAmount    decimal.Decimal `gorm:"column:small_amount;type:numeric(12,2);not null"`
	MediumAmount   decimal.Decimal `gorm:"column:medium_amount;type:numeric(12,2);not null"`
	LargeAmount    decimal.Decimal `gorm:"column:large_amount;type:numeric(12,2);not null"`
	Active         bool            `gorm:"column:active;not null;default:false"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// AmountFor returns the per-order budget for the given household size.
func (p FreshFoodPolicy) AmountFor(householdSize int) decimal.Decimal {
	switch {
	case householdSize <= p.SmallThreshold:
		return p.SmallAmount
	case householdSize >= p.LargeThreshold:
		return p.LargeAmount
	default:
		return p.MediumAmount
	}
}
