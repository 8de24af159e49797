package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openpantry/vouchers-backend/internal/failures"
	"github.com/openpantry/vouchers-backend/pkg/db/models"
	"github.com/openpantry/vouchers-backend/pkg/pagination"
)

type stubFailureReader struct {
	params        pagination.Params
	participantID *uuid.UUID
	from, to      time.Time
	attempts      []models.FailedAttempt
	nextCursor    string
	analytics     *failures.AnalyticsResult
	err           error
}

func (s *stubFailureReader) Recent(_ context.Context, params pagination.Params, participantID *uuid.UUID) ([]models.FailedAttempt, string, error) {
	s.params = params
	s.participantID = participantID
	return s.attempts, s.nextCursor, s.err
}

func (s *stubFailureReader) Analytics(_ context.Context, from, to time.Time, participantID *uuid.UUID) (*failures.AnalyticsResult, error) {
	s.from, s.to = from, to
	s.participantID = participantID
	return s.analytics, s.err
}

func TestListFailuresDefaultsAndFilters(t *testing.T) {
	participantID := uuid.New()
	reader := &stubFailureReader{
		attempts:   []models.FailedAttempt{{ParticipantID: participantID, PrimaryReason: "insufficient_balance"}},
		nextCursor: "next-page",
	}

	req := httptest.NewRequest(http.MethodGet, "/?participant_id="+participantID.String(), nil)
	rec := httptest.NewRecorder()
	ListFailures(reader, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, pagination.DefaultLimit, reader.params.Limit)
	require.NotNil(t, reader.participantID)
	require.Equal(t, participantID, *reader.participantID)

	var envelope struct {
		Data failurePage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.Len(t, envelope.Data.Attempts, 1)
	require.Equal(t, "next-page", envelope.Data.NextCursor)
}

func TestListFailuresForwardsCursorAndLimit(t *testing.T) {
	reader := &stubFailureReader{}
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&cursor=abc", nil)
	rec := httptest.NewRecorder()
	ListFailures(reader, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, reader.params.Limit)
	require.Equal(t, "abc", reader.params.Cursor)
}

func TestListFailuresRejectsOversizedLimit(t *testing.T) {
	reader := &stubFailureReader{}
	req := httptest.NewRequest(http.MethodGet, "/?limit=1000", nil)
	rec := httptest.NewRecorder()
	ListFailures(reader, testLogger())(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestFailureAnalyticsParsesRange(t *testing.T) {
	reader := &stubFailureReader{analytics: &failures.AnalyticsResult{Count: 3}}

	req := httptest.NewRequest(http.MethodGet, "/?from=2026-05-01&to=2026-06-01", nil)
	rec := httptest.NewRecorder()
	FailureAnalytics(reader, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), reader.from)
	require.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), reader.to)
	require.Contains(t, rec.Body.String(), `"count":3`)
}

func TestFailureAnalyticsRejectsBadDate(t *testing.T) {
	reader := &stubFailureReader{analytics: &failures.AnalyticsResult{}}
	req := httptest.NewRequest(http.MethodGet, "/?from=yesterday", nil)
	rec := httptest.NewRecorder()
	FailureAnalytics(reader, testLogger())(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
