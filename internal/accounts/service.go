package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/openpantry/vouchers-backend/internal/balance"
	"github.com/openpantry/vouchers-backend/pkg/enums"
	pkgerrors "github.com/openpantry/vouchers-backend/pkg/errors"
	"github.com/openpantry/vouchers-backend/pkg/logger"
)

type snapshotStore interface {
	LoadSnapshot(ctx context.Context, participantID uuid.UUID) (*Snapshot, error)
	UpdateHousehold(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, adults, children, dependents int, baseBalance decimal.Decimal) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditSink interface {
	EmitTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID, data interface{}) error
}

// Service owns the read-side balance view and the explicit household
// recompute. Base balance changes happen only through RecomputeHousehold,
// never through save-time side effects.
type Service struct {
	repo  snapshotStore
	tx    txRunner
	audit auditSink
	logg  *logger.Logger
}

type ServiceParams struct {
	Repo   snapshotStore
	Tx     txRunner
	Audit  auditSink
	Logger *logger.Logger
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{repo: p.Repo, tx: p.Tx, audit: p.Audit, logg: p.Logger}, nil
}

// Balances is the display-facing balance view. It may be momentarily stale;
// the commit path always recomputes from its own snapshot.
type Balances struct {
	Base             decimal.Decimal `json:"base_balance"`
	Available        decimal.Decimal `json:"available_balance"`
	Hygiene          decimal.Decimal `json:"hygiene_balance"`
	FreshFood        decimal.Decimal `json:"fresh_food_balance"`
	GatedPauseActive bool            `json:"gated_pause_active"`
}

// GetBalances computes the current balances for display.
func (s *Service) GetBalances(ctx context.Context, participantID uuid.UUID) (*Balances, error) {
	snap, err := s.repo.LoadSnapshot(ctx, participantID)
	if err != nil {
		return nil, err
	}

	computed := balance.Compute(balance.Inputs{
		Account:     snap.Account,
		Vouchers:    snap.Vouchers,
		Policy:      snap.Policy,
		Pauses:      snap.Pauses,
		FreshPolicy: snap.FreshPolicy,
		Now:         time.Now().UTC(),
	})

	return &Balances{
		Base:             computed.Base,
		Available:        computed.Available,
		Hygiene:          computed.Hygiene,
		FreshFood:        computed.FreshFood,
		GatedPauseActive: computed.GatedPauseActive,
	}, nil
}

// HouseholdUpdate carries the new household counts.
type HouseholdUpdate struct {
	Adults     int
	Children   int
	Dependents int
}

type householdRecomputedEvent struct {
	ParticipantID uuid.UUID       `json:"participant_id"`
	Adults        int             `json:"adults"`
	Children      int             `json:"children"`
	Dependents    int             `json:"dependents"`
	BaseBalance   decimal.Decimal `json:"base_balance"`
}

// RecomputeHousehold updates the household counts and recomputes the base
// balance against the active policy in one transaction. This is the only
// write path for base_balance.
func (s *Service) RecomputeHousehold(ctx context.Context, participantID uuid.UUID, update HouseholdUpdate) (*Balances, error) {
	if update.Adults < 0 || update.Children < 0 || update.Dependents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "household counts must not be negative")
	}

	snap, err := s.repo.LoadSnapshot(ctx, participantID)
	if err != nil {
		return nil, err
	}

	account := snap.Account
	account.Adults = update.Adults
	account.Children = update.Children
	account.Dependents = update.Dependents

	computed := balance.Compute(balance.Inputs{
		Account:     account,
		Vouchers:    snap.Vouchers,
		Policy:      snap.Policy,
		Pauses:      snap.Pauses,
		FreshPolicy: snap.FreshPolicy,
		Now:         time.Now().UTC(),
	})

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateHousehold(ctx, tx, account.ID, update.Adults, update.Children, update.Dependents, computed.Base); err != nil {
			return err
		}
		if s.audit == nil {
			return nil
		}
		return s.audit.EmitTx(tx, enums.EventHouseholdRecompute, enums.AggregateAccount, account.ID, householdRecomputedEvent{
			ParticipantID: participantID,
			Adults:        update.Adults,
			Children:      update.Children,
			Dependents:    update.Dependents,
			BaseBalance:   computed.Base,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithParticipantID(ctx, participantID.String()), "household recomputed")

	return &Balances{
		Base:             computed.Base,
		Available:        computed.Available,
		Hygiene:          computed.Hygiene,
		FreshFood:        computed.FreshFood,
		GatedPauseActive: computed.GatedPauseActive,
	}, nil
}
