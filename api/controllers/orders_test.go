package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/openpantry/vouchers-backend/api/middleware"
	"github.com/openpantry/vouchers-backend/internal/orders"
	"github.com/openpantry/vouchers-backend/pkg/enums"
	pkgerrors "github.com/openpantry/vouchers-backend/pkg/errors"
)

type stubSubmitter struct {
	input    orders.CreateOrderInput
	response *orders.OrderResponse
	err      error
}

func (s *stubSubmitter) Submit(_ context.Context, input orders.CreateOrderInput) (*orders.OrderResponse, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func TestSubmitOrderUsesTokenParticipant(t *testing.T) {
	participantID := uuid.New()
	productID := uuid.New()
	submitter := &stubSubmitter{response: &orders.OrderResponse{
		ID:          uuid.New(),
		OrderNumber: 41,
		Status:      enums.OrderStatusConfirmed,
		Total:       decimal.RequireFromString("12.50"),
	}}

	body := `{"items":[{"product_id":"` + productID.String() + `","quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("User-Agent", "pantry-app/2.1")
	req.RemoteAddr = "10.1.2.3:41852"
	ctx := middleware.WithRole(req.Context(), enums.ActorRoleParticipant)
	ctx = middleware.WithParticipantID(ctx, participantID)
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	SubmitOrder(submitter, testLogger())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, participantID, submitter.input.ParticipantID)
	require.Len(t, submitter.input.Items, 1)
	require.Equal(t, productID, submitter.input.Items[0].ProductID)
	require.Equal(t, 2, submitter.input.Items[0].Quantity)
	require.Equal(t, "10.1.2.3", submitter.input.ClientMeta.Address)
	require.Equal(t, "pantry-app/2.1", submitter.input.ClientMeta.AgentString)

	var envelope struct {
		Data orders.OrderResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.Equal(t, int64(41), envelope.Data.OrderNumber)
}

func TestSubmitOrderStaffMustNameParticipant(t *testing.T) {
	submitter := &stubSubmitter{response: &orders.OrderResponse{}}
	productID := uuid.New()

	body := `{"items":[{"product_id":"` + productID.String() + `","quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithRole(req.Context(), enums.ActorRoleStaff))

	rec := httptest.NewRecorder()
	SubmitOrder(submitter, testLogger())(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	participantID := uuid.New()
	body = `{"participant_id":"` + participantID.String() + `","items":[{"product_id":"` + productID.String() + `","quantity":1}]}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithRole(req.Context(), enums.ActorRoleStaff))

	rec = httptest.NewRecorder()
	SubmitOrder(submitter, testLogger())(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, participantID, submitter.input.ParticipantID)
}

func TestSubmitOrderRejectsMalformedBody(t *testing.T) {
	submitter := &stubSubmitter{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"items":"nope"}`))
	rec := httptest.NewRecorder()
	SubmitOrder(submitter, testLogger())(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	envelope := decodeErrorEnvelope(t, rec)
	require.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
}

func TestSubmitOrderPropagatesPipelineErrors(t *testing.T) {
	participantID := uuid.New()
	productID := uuid.New()

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"throttled", pkgerrors.New(pkgerrors.CodeThrottled, "try again in 4s"), http.StatusTooManyRequests},
		{"duplicate", pkgerrors.New(pkgerrors.CodeDuplicate, "duplicate submission"), http.StatusConflict},
		{"lock busy", pkgerrors.New(pkgerrors.CodeLockBusy, "submission already in progress"), http.StatusConflict},
		{"validation", pkgerrors.New(pkgerrors.CodeValidation, "cart failed validation"), http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			submitter := &stubSubmitter{err: tc.err}
			body := `{"items":[{"product_id":"` + productID.String() + `","quantity":1}]}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
			ctx := middleware.WithParticipantID(req.Context(), participantID)
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()
			SubmitOrder(submitter, testLogger())(rec, req)
			require.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}
