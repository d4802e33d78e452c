package auth_test

import (
	"testing"

	"github.com/comanda-pos/api/internal/auth"
	"github.com/google/uuid"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	staffID := uuid.New()
	role := "STAFF"

	token, err := auth.GenerateToken(secret, staffID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.StaffID != staffID {
		t.Errorf("staff ID: got %v, want %v", claims.StaffID, staffID)
	}
	if claims.Role != role {
		t.Errorf("role: got %v, want %v", claims.Role, role)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken("secret-a", uuid.New(), "ADMIN")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := auth.ValidateToken("secret-b", token); err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	if _, err := auth.ValidateToken("secret", "not-a-jwt"); err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	staffID := uuid.New()

	token, err := auth.GenerateRefreshToken(secret, staffID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	got, err := auth.ValidateRefreshToken(secret, token)
	if err != nil {
		t.Fatalf("validate refresh token: %v", err)
	}
	if got != staffID {
		t.Errorf("staff ID: got %v, want %v", got, staffID)
	}
}

func TestRefreshTokenNotAcceptedAsAccessToken(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateRefreshToken(secret, uuid.New())
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		return
	}
	// A refresh token carries no staff_id claim; it must not grant access.
	if claims.StaffID != uuid.Nil {
		t.Errorf("refresh token produced staff claims: %v", claims.StaffID)
	}
}
