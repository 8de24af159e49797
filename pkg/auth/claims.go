package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/openpantry/vouchers-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ParticipantID *uuid.UUID
	Role          enums.ActorRole
}

// AccessTokenClaims represents the typed JWT presented by clients. Staff
// tokens carry no participant id; participant tokens always do.
type AccessTokenClaims struct {
	ParticipantID *uuid.UUID      `json:"participant_id,omitempty"`
	Role          enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
