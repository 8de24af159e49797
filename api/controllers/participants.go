package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openpantry/vouchers-backend/api/middleware"
	"github.com/openpantry/vouchers-backend/api/responses"
	"github.com/openpantry/vouchers-backend/api/validators"
	"github.com/openpantry/vouchers-backend/internal/accounts"
	pkgerrors "github.com/openpantry/vouchers-backend/pkg/errors"
	"github.com/openpantry/vouchers-backend/pkg/logger"
)

type balanceReader interface {
	GetBalances(ctx context.Context, participantID uuid.UUID) (*accounts.Balances, error)
}

type householdUpdater interface {
	RecomputeHousehold(ctx context.Context, participantID uuid.UUID, update accounts.HouseholdUpdate) (*accounts.Balances, error)
}

func pathParticipantID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "participantID")
	participantID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "participant id must be a uuid")
	}
	return participantID, nil
}

// authorizeParticipant lets staff read any account and participants only
// their own.
func authorizeParticipant(ctx context.Context, participantID uuid.UUID) error {
	if middleware.RoleFromContext(ctx).IsStaff() {
		return nil
	}
	own := middleware.ParticipantIDFromContext(ctx)
	if own == nil || *own != participantID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot access another participant's account")
	}
	return nil
}

// GetBalances returns the four display balances for a participant.
func GetBalances(service balanceReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participantID, err := pathParticipantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := authorizeParticipant(r.Context(), participantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balances, err := service.GetBalances(r.Context(), participantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balances)
	}
}

type householdRequest struct {
	Adults     *int `json:"adults" validate:"required,gte=0"`
	Children   *int `json:"children" validate:"required,gte=0"`
	Dependents *int `json:"dependents" validate:"required,gte=0"`
}

// UpdateHousehold changes the household counts and recomputes the base
// balance. Staff only; participants cannot resize their own household.
func UpdateHousehold(service householdUpdater, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participantID, err := pathParticipantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req householdRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balances, err := service.RecomputeHousehold(r.Context(), participantID, accounts.HouseholdUpdate{
			Adults:     *req.Adults,
			Children:   *req.Children,
			Dependents: *req.Dependents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balances)
	}
}
