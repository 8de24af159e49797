package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/openpantry/vouchers-backend/pkg/enums"
)

// FailedAttempt is the append-only forensic snapshot written on every rejected
// submission. Rows are purged by the maintenance worker after the retention
// window; nothing in the submission path ever updates or deletes them.
type FailedAttempt struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ParticipantID  uuid.UUID             `gorm:"column:participant_id;type:uuid;not null;index"`
	PrimaryReason  enums.RejectionReason `gorm:"column:primary_reason;type:text;not null"`
	Cart           json.RawMessage       `gorm:"column:cart;type:jsonb;not null"`
	Balances       json.RawMessage       `gorm:"column:balances;type:jsonb;not null"`
	PauseContext   json.RawMessage       `gorm:"column:pause_context;type:jsonb"`
	VoucherSummary json.RawMessage       `gorm:"column:voucher_summary;type:jsonb"`
	Errors         json.RawMessage       `gorm:"column:errors;type:jsonb;not null"`
	IdempotencyKey string                `gorm:"column:idempotency_key;not null"`
	CartHash       string                `gorm:"column:cart_hash;not null"`
	ClientAddr     string                `gorm:"column:client_addr"`
	ClientAgent    string                `gorm:"column:client_agent"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime;index"`
}
