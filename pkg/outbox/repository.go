package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openpantry/vouchers-backend/pkg/db/models"
)

// Repository persists outbox events and tracks publish progress.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertTx appends an event inside the caller's transaction. The event becomes
// visible to the publisher only when the surrounding commit succeeds.
func (r *Repository) InsertTx(tx *gorm.DB, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	row := models.OutboxEvent{
		ID:            env.EventID,
		EventType:     env.EventType,
		AggregateType: env.AggregateType,
		AggregateID:   env.AggregateID,
		Payload:       payload,
	}
	return tx.Create(&row).Error
}

// Insert appends an event in its own short write, for emitters that run
// outside any transaction (a rejected attempt never opened one).
func (r *Repository) Insert(ctx context.Context, env Envelope) error {
	return r.InsertTx(r.db.WithContext(ctx), env)
}

// FetchUnpublished returns the oldest pending events, capped at limit.
// Events that already burned maxAttempts publish attempts are left behind
// for manual inspection.
func (r *Repository) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL AND attempt_count < ?", maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkPublished stamps an event as delivered.
func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"published_at": now}).Error
}

// MarkFailed records a publish failure and bumps the attempt counter.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	msg := cause.Error()
	return r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"last_error":    msg,
		}).Error
}

// DeletePublishedBefore purges delivered events older than the cutoff and
// returns the number of rows removed.
func (r *Repository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at < ?", cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}
