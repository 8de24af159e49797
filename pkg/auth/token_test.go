package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openpantry/vouchers-backend/pkg/config"
	"github.com/openpantry/vouchers-backend/pkg/enums"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "openpantry",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	participantID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		ParticipantID: &participantID,
		Role:          enums.ActorRoleParticipant,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.ParticipantID == nil || *claims.ParticipantID != participantID {
		t.Fatalf("participant id not preserved")
	}
	if claims.Role != enums.ActorRoleParticipant {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
}

func TestMintRejectsParticipantTokenWithoutID(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "openpantry", ExpirationMinutes: 30}
	_, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.ActorRoleParticipant})
	if err == nil || !strings.Contains(err.Error(), "participant id") {
		t.Fatalf("expected participant id error, got %v", err)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	mintCfg := config.JWTConfig{Secret: "secret", Issuer: "someone-else", ExpirationMinutes: 30}
	token, err := MintAccessToken(mintCfg, time.Now(), AccessTokenPayload{Role: enums.ActorRoleStaff})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	parseCfg := config.JWTConfig{Secret: "secret", Issuer: "openpantry", ExpirationMinutes: 30}
	if _, err := ParseAccessToken(parseCfg, token); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "openpantry", ExpirationMinutes: 1}
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{Role: enums.ActorRoleStaff})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
