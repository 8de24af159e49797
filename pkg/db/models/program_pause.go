package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgramPause is an admin-managed time window. While a gated pause is active,
// only vouchers flagged pause_eligible count toward the available balance.
type ProgramPause struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StartsAt  time.Time `gorm:"column:starts_at;not null"`
	EndsAt    time.Time `gorm:"column:ends_at;not null"`
	Gated     bool      `gorm:"column:gated;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ActiveAt reports whether the pause window covers the given instant.
func (p ProgramPause) ActiveAt(t time.Time) bool {
	return !t.Before(p.StartsAt) && t.Before(p.EndsAt)
}
