package controllers

import (
	"context"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/openpantry/vouchers-backend/api/middleware"
	"github.com/openpantry/vouchers-backend/api/responses"
	"github.com/openpantry/vouchers-backend/api/validators"
	"github.com/openpantry/vouchers-backend/internal/orders"
	pkgerrors "github.com/openpantry/vouchers-backend/pkg/errors"
	"github.com/openpantry/vouchers-backend/pkg/logger"
)

type orderSubmitter interface {
	Submit(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderResponse, error)
}

type submitOrderRequest struct {
	ParticipantID *uuid.UUID         `json:"participant_id"`
	Items         []orders.ItemInput `json:"items" validate:"required,dive"`
}

// SubmitOrder runs a cart through the full submission pipeline. Participants
// always submit for their own account; staff must name the participant.
func SubmitOrder(service orderSubmitter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		participantID := middleware.ParticipantIDFromContext(r.Context())
		if participantID == nil {
			participantID = req.ParticipantID
		}
		if participantID == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "participant_id is required"))
			return
		}

		result, err := service.Submit(r.Context(), orders.CreateOrderInput{
			ParticipantID: *participantID,
			Items:         req.Items,
			ClientMeta: orders.ClientMeta{
				Address:     clientAddr(r),
				AgentString: r.UserAgent(),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func clientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
