package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a participant's benefit wallet. BaseBalance is the persisted
// result of the explicit household recompute operation; it is never derived
// implicitly by save hooks.
type Account struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ParticipantID uuid.UUID       `gorm:"column:participant_id;type:uuid;not null;uniqueIndex"`
	Adults        int             `gorm:"column:adults;not null;default:0"`
	Children      int             `gorm:"column:children;not null;default:0"`
	Dependents    int             `gorm:"column:dependents;not null;default:0"`
	BaseBalance   decimal.Decimal `gorm:"column:base_balance;type:numeric(12,2);not null;default:0"`
	Vouchers      []Voucher       `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// HouseholdSize is the tier input for the fresh-food budget lookup.
func (a Account) HouseholdSize() int {
	return a.Adults + a.Children + a.Dependents
}
