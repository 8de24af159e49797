package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openpantry/vouchers-backend/pkg/enums"
)

// Service is the write-side outbox surface used by domain code. Publishing is
// handled separately by the outbox publisher binary.
type Service struct {
	repo *Repository
}

type ServiceParams struct {
	Repo *Repository
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("outbox repository is required")
	}
	return &Service{repo: p.Repo}, nil
}

// EmitTx wraps the payload in an envelope and inserts it inside the caller's
// transaction.
func (s *Service) EmitTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID, data interface{}) error {
	env, err := NewEnvelope(eventType, aggregateType, aggregateID, data)
	if err != nil {
		return err
	}
	return s.repo.InsertTx(tx, env)
}

// Emit inserts the event in its own write, outside any caller transaction.
func (s *Service) Emit(ctx context.Context, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID, data interface{}) error {
	env, err := NewEnvelope(eventType, aggregateType, aggregateID, data)
	if err != nil {
		return err
	}
	return s.repo.Insert(ctx, env)
}
