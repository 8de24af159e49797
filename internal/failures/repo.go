package failures

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openpantry/vouchers-backend/pkg/db/models"
	"github.com/openpantry/vouchers-backend/pkg/pagination"
)

// Repo persists and queries the forensic failed-attempt rows.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) (*Repo, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &Repo{db: db}, nil
}

// Insert appends a failed attempt. Uses its own connection, never the order
// transaction: the forensic row must survive the rollback it documents.
func (r *Repo) Insert(ctx context.Context, row *models.FailedAttempt) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// DeleteOlderThan purges rows past the retention window and reports how many
// were removed.
func (r *Repo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.FailedAttempt{})
	return res.RowsAffected, res.Error
}

// ListRecent returns a page of failed attempts, newest first, optionally
// filtered by participant.
func (r *Repo) ListRecent(ctx context.Context, params pagination.Params, participantID *uuid.UUID) ([]models.FailedAttempt, string, error) {
	query := r.db.WithContext(ctx).Model(&models.FailedAttempt{})
	if participantID != nil {
		query = query.Where("participant_id = ?", *participantID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.FailedAttempt
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", fmt.Errorf("listing failed attempts: %w", err)
	}

	rows, hasMore := pagination.TrimPage(rows, params.Limit)
	next := ""
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// ReasonCount is one slice of the top-error aggregation.
type ReasonCount struct {
	Reason string `json:"reason" gorm:"column:primary_reason"`
	Count  int64  `json:"count" gorm:"column:count"`
}

// DayCount is one day of the daily breakdown.
type DayCount struct {
	Day   string `json:"day" gorm:"column:day"`
	Count int64  `json:"count" gorm:"column:count"`
}

// AnalyticsResult answers the operator question "what is getting rejected and
// why" for a date range.
type AnalyticsResult struct {
	Count      int64         `json:"count"`
	TopReasons []ReasonCount `json:"top_error_kinds"`
	Daily      []DayCount    `json:"daily_breakdown"`
}

// Analytics aggregates failures in [from, to), optionally per participant.
func (r *Repo) Analytics(ctx context.Context, from, to time.Time, participantID *uuid.UUID) (*AnalyticsResult, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&models.FailedAttempt{}).
			Where("created_at >= ? AND created_at < ?", from, to)
		if participantID != nil {
			q = q.Where("participant_id = ?", *participantID)
		}
		return q
	}

	result := &AnalyticsResult{TopReasons: []ReasonCount{}, Daily: []DayCount{}}

	if err := scope().Count(&result.Count).Error; err != nil {
		return nil, fmt.Errorf("counting failures: %w", err)
	}

	err := scope().
		Select("primary_reason, COUNT(*) AS count").
		Group("primary_reason").
		Order("count DESC").
		Limit(10).
		Scan(&result.TopReasons).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating failure reasons: %w", err)
	}

	// DATE() keeps this portable across postgres and the sqlite test harness
	err = scope().
		Select("DATE(created_at) AS day, COUNT(*) AS count").
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&result.Daily).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating daily breakdown: %w", err)
	}

	return result, nil
}
