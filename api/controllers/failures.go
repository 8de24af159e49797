package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/openpantry/vouchers-backend/api/responses"
	"github.com/openpantry/vouchers-backend/api/validators"
	"github.com/openpantry/vouchers-backend/internal/failures"
	"github.com/openpantry/vouchers-backend/pkg/db/models"
	"github.com/openpantry/vouchers-backend/pkg/logger"
	"github.com/openpantry/vouchers-backend/pkg/pagination"
)

type failureReader interface {
	Recent(ctx context.Context, params pagination.Params, participantID *uuid.UUID) ([]models.FailedAttempt, string, error)
	Analytics(ctx context.Context, from, to time.Time, participantID *uuid.UUID) (*failures.AnalyticsResult, error)
}

type failurePage struct {
	Attempts   []models.FailedAttempt `json:"attempts"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// ListFailures pages through recent rejected attempts, newest first.
func ListFailures(service failureReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		participantID, err := validators.ParseQueryUUID(r, "participant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		attempts, nextCursor, err := service.Recent(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, participantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, failurePage{Attempts: attempts, NextCursor: nextCursor})
	}
}

// FailureAnalytics aggregates rejections over a date range, defaulting to
// the trailing 30 days.
func FailureAnalytics(service failureReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		from, err := validators.ParseQueryTime(r, "from", now.AddDate(0, 0, -30))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to", now)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		participantID, err := validators.ParseQueryUUID(r, "participant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := service.Analytics(r.Context(), from, to, participantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
