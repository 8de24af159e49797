package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/openpantry/vouchers-backend/pkg/enums"
)

type contextKey string

const (
	ctxParticipantID contextKey = "participant_id"
	ctxRole          contextKey = "actor_role"
)

// ParticipantIDFromContext returns the authenticated participant id, or nil
// for staff tokens.
func ParticipantIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxParticipantID).(uuid.UUID); ok {
		return &v
	}
	return nil
}

func RoleFromContext(ctx context.Context) enums.ActorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.ActorRole); ok {
		return v
	}
	return ""
}

// WithParticipantID injects the participant identifier for downstream handlers.
func WithParticipantID(ctx context.Context, participantID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxParticipantID, participantID)
}

// WithRole injects the actor role for downstream handlers.
func WithRole(ctx context.Context, role enums.ActorRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}
