package failures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openpantry/vouchers-backend/pkg/db/models"
	"github.com/openpantry/vouchers-backend/pkg/enums"
	"github.com/openpantry/vouchers-backend/pkg/logger"
	"github.com/openpantry/vouchers-backend/pkg/pagination"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:failures_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`CREATE TABLE failed_attempts (
		id TEXT PRIMARY KEY,
		participant_id TEXT NOT NULL,
		primary_reason TEXT NOT NULL,
		cart TEXT NOT NULL,
		balances TEXT NOT NULL,
		pause_context TEXT,
		voucher_summary TEXT,
		errors TEXT NOT NULL,
		idempotency_key TEXT NOT NULL,
		cart_hash TEXT NOT NULL,
		client_addr TEXT,
		client_agent TEXT,
		created_at DATETIME
	)`).Error)
	return conn
}

func seedAttempt(t *testing.T, conn *gorm.DB, participant uuid.UUID, reason enums.RejectionReason, createdAt time.Time) models.FailedAttempt {
	t.Helper()
	row := models.FailedAttempt{
		ID:             uuid.New(),
		ParticipantID:  participant,
		PrimaryReason:  reason,
		Cart:           json.RawMessage(`[]`),
		Balances:       json.RawMessage(`{}`),
		Errors:         json.RawMessage(`[{"reason":"insufficient_balance"}]`),
		IdempotencyKey: uuid.NewString(),
		CartHash:       uuid.NewString(),
		CreatedAt:      createdAt,
	}
	require.NoError(t, conn.Create(&row).Error)
	return row
}

func TestRepoListRecentPaginates(t *testing.T) {
	conn := openTestDB(t)
	repo, err := NewRepo(conn)
	require.NoError(t, err)
	ctx := context.Background()

	participant := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		seedAttempt(t, conn, participant, enums.RejectionInsufficientBalance, base.Add(time.Duration(i)*time.Minute))
	}

	page1, cursor, err := repo.ListRecent(ctx, pagination.Params{Limit: 2}, &participant)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotEmpty(t, cursor)
	assert.True(t, page1[0].CreatedAt.After(page1[1].CreatedAt))

	page2, cursor2, err := repo.ListRecent(ctx, pagination.Params{Limit: 2, Cursor: cursor}, &participant)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotEmpty(t, cursor2)
	assert.True(t, page1[1].CreatedAt.After(page2[0].CreatedAt) || page1[1].CreatedAt.Equal(page2[0].CreatedAt))

	page3, cursor3, err := repo.ListRecent(ctx, pagination.Params{Limit: 2, Cursor: cursor2}, &participant)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Empty(t, cursor3)
}

func TestRepoListRecentFiltersByParticipant(t *testing.T) {
	conn := openTestDB(t)
	repo, err := NewRepo(conn)
	require.NoError(t, err)

	target := uuid.New()
	seedAttempt(t, conn, target, enums.RejectionInsufficientBalance, time.Now().UTC())
	seedAttempt(t, conn, uuid.New(), enums.RejectionEmptyCart, time.Now().UTC())

	rows, _, err := repo.ListRecent(context.Background(), pagination.Params{}, &target)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, target, rows[0].ParticipantID)
}

func TestRepoAnalyticsAggregates(t *testing.T) {
	conn := openTestDB(t)
	repo, err := NewRepo(conn)
	require.NoError(t, err)
	ctx := context.Background()

	participant := uuid.New()
	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	seedAttempt(t, conn, participant, enums.RejectionInsufficientBalance, day1)
	seedAttempt(t, conn, participant, enums.RejectionInsufficientBalance, day1.Add(time.Hour))
	seedAttempt(t, conn, participant, enums.RejectionHygieneCapExceeded, day2)
	// outside the range
	seedAttempt(t, conn, participant, enums.RejectionEmptyCart, day2.Add(48*time.Hour))

	got, err := repo.Analytics(ctx, day1.Add(-time.Hour), day2.Add(time.Hour), nil)
	require.NoError(t, err)

	assert.EqualValues(t, 3, got.Count)
	require.NotEmpty(t, got.TopReasons)
	assert.Equal(t, string(enums.RejectionInsufficientBalance), got.TopReasons[0].Reason)
	assert.EqualValues(t, 2, got.TopReasons[0].Count)
	assert.Len(t, got.Daily, 2)
}

func TestRepoDeleteOlderThan(t *testing.T) {
	conn := openTestDB(t)
	repo, err := NewRepo(conn)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Now().UTC()
	seedAttempt(t, conn, uuid.New(), enums.RejectionEmptyCart, now.Add(-91*24*time.Hour))
	seedAttempt(t, conn, uuid.New(), enums.RejectionEmptyCart, now.Add(-89*24*time.Hour))

	removed, err := repo.DeleteOlderThan(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	var remaining int64
	require.NoError(t, conn.Model(&models.FailedAttempt{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestRecorderSavePersistsFullContext(t *testing.T) {
	conn := openTestDB(t)
	repo, err := NewRepo(conn)
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	recorder, err := NewRecorder(RecorderParams{Repo: repo, Logger: logg})
	require.NoError(t, err)

	participant := uuid.New()
	rec := Record{
		ParticipantID: participant,
		Cart:          []map[string]any{{"product_id": uuid.NewString(), "quantity": 2}},
		Balances: BalanceContext{
			Available: decimal.RequireFromString("80.00"),
			Hygiene:   decimal.RequireFromString("26.67"),
		},
		Vouchers: []VoucherSummary{{
			ID:         uuid.New(),
			Remaining:  decimal.RequireFromString("50.00"),
			Multiplier: decimal.NewFromInt(1),
			CreatedAt:  time.Now().UTC(),
		}},
		Issues: []Issue{
			{
				Reason:  enums.RejectionInsufficientBalance,
				Message: "cart total exceeds available balance",
				Needed:  decimal.RequireFromString("95.00"),
				Have:    decimal.RequireFromString("80.00"),
			},
			{Reason: enums.RejectionHygieneCapExceeded, Message: "hygiene cap exceeded"},
		},
		IdempotencyKey: "fp-123",
		CartHash:       "hash-123",
		ClientAddr:     "203.0.113.9",
		ClientAgent:    "test-agent/1.0",
	}

	attemptID, err := recorder.Save(context.Background(), rec)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, attemptID)

	var row models.FailedAttempt
	require.NoError(t, conn.First(&row, "participant_id = ?", participant).Error)
	assert.Equal(t, attemptID, row.ID)
	assert.Equal(t, enums.RejectionInsufficientBalance, row.PrimaryReason)
	assert.Equal(t, "fp-123", row.IdempotencyKey)
	assert.Equal(t, "hash-123", row.CartHash)
	assert.Equal(t, "203.0.113.9", row.ClientAddr)

	var issues []Issue
	require.NoError(t, json.Unmarshal(row.Errors, &issues))
	require.Len(t, issues, 2)
	assert.True(t, issues[0].Needed.Equal(decimal.RequireFromString("95.00")))
}

func TestRecorderSaveRequiresIssues(t *testing.T) {
	conn := openTestDB(t)
	repo, err := NewRepo(conn)
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	recorder, err := NewRecorder(RecorderParams{Repo: repo, Logger: logg})
	require.NoError(t, err)

	_, err = recorder.Save(context.Background(), Record{ParticipantID: uuid.New()})
	require.Error(t, err)
}
