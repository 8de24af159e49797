package failures

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpantry/vouchers-backend/pkg/db/models"
	"github.com/openpantry/vouchers-backend/pkg/enums"
	"github.com/openpantry/vouchers-backend/pkg/logger"
	"github.com/openpantry/vouchers-backend/pkg/pagination"
)

type attemptStore interface {
	Insert(ctx context.Context, row *models.FailedAttempt) error
	ListRecent(ctx context.Context, params pagination.Params, participantID *uuid.UUID) ([]models.FailedAttempt, string, error)
	Analytics(ctx context.Context, from, to time.Time, participantID *uuid.UUID) (*AnalyticsResult, error)
}

// Issue is one structured validation error on a rejected attempt.
type Issue struct {
	Reason  enums.RejectionReason `json:"reason"`
	Message string                `json:"message"`
	Needed  decimal.Decimal       `json:"needed"`
	Have    decimal.Decimal       `json:"have"`
}

// BalanceContext is the balance snapshot the rejected cart was evaluated
// against.
type BalanceContext struct {
	Base             decimal.Decimal `json:"base_balance"`
	Available        decimal.Decimal `json:"available_balance"`
	Hygiene          decimal.Decimal `json:"hygiene_balance"`
	FreshFood        decimal.Decimal `json:"fresh_food_balance"`
	GatedPauseActive bool            `json:"gated_pause_active"`
}

// VoucherSummary is one candidate voucher as considered at failure time.
type VoucherSummary struct {
	ID         uuid.UUID       `json:"id"`
	Remaining  decimal.Decimal `json:"remaining_amount"`
	Multiplier decimal.Decimal `json:"multiplier"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Record is everything the recorder snapshots about a rejection.
type Record struct {
	ParticipantID  uuid.UUID
	Cart           interface{}
	Balances       BalanceContext
	Vouchers       []VoucherSummary
	Issues         []Issue
	IdempotencyKey string
	CartHash       string
	ClientAddr     string
	ClientAgent    string
}

// Recorder persists forensic snapshots of rejected submissions. The write is
// synchronous and must not be skipped even when the surrounding request also
// hits a system error; it is the primary support debugging aid.
type Recorder struct {
	repo attemptStore
	logg *logger.Logger
}

type RecorderParams struct {
	Repo   attemptStore
	Logger *logger.Logger
}

func NewRecorder(p RecorderParams) (*Recorder, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Recorder{repo: p.Repo, logg: p.Logger}, nil
}

// Save writes the failed attempt and returns the stored row's id. The primary
// reason is the first issue's, giving analytics a single groupable column.
func (r *Recorder) Save(ctx context.Context, rec Record) (uuid.UUID, error) {
	if len(rec.Issues) == 0 {
		return uuid.Nil, fmt.Errorf("a failed attempt needs at least one issue")
	}

	cart, err := json.Marshal(rec.Cart)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling cart snapshot: %w", err)
	}
	balances, err := json.Marshal(rec.Balances)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling balance snapshot: %w", err)
	}
	vouchers, err := json.Marshal(rec.Vouchers)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling voucher summary: %w", err)
	}
	issues, err := json.Marshal(rec.Issues)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling issues: %w", err)
	}
	pauseCtx, err := json.Marshal(map[string]bool{"gated_pause_active": rec.Balances.GatedPauseActive})
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling pause context: %w", err)
	}

	row := &models.FailedAttempt{
		ParticipantID:  rec.ParticipantID,
		PrimaryReason:  rec.Issues[0].Reason,
		Cart:           cart,
		Balances:       balances,
		PauseContext:   pauseCtx,
		VoucherSummary: vouchers,
		Errors:         issues,
		IdempotencyKey: rec.IdempotencyKey,
		CartHash:       rec.CartHash,
		ClientAddr:     rec.ClientAddr,
		ClientAgent:    rec.ClientAgent,
	}

	if err := r.repo.Insert(ctx, row); err != nil {
		return uuid.Nil, fmt.Errorf("persisting failed attempt: %w", err)
	}

	r.logg.Info(r.logg.WithParticipantID(ctx, rec.ParticipantID.String()), "failed attempt recorded")
	return row.ID, nil
}

// Recent exposes the staff listing.
func (r *Recorder) Recent(ctx context.Context, params pagination.Params, participantID *uuid.UUID) ([]models.FailedAttempt, string, error) {
	return r.repo.ListRecent(ctx, params, participantID)
}

// Analytics exposes the staff aggregation.
func (r *Recorder) Analytics(ctx context.Context, from, to time.Time, participantID *uuid.UUID) (*AnalyticsResult, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("date range end must be after start")
	}
	return r.repo.Analytics(ctx, from, to, participantID)
}
