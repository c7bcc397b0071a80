package auth

import (
	"testing"
	"time"
)

func newTestManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test",
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, jti, err := m.GenerateAccessToken(42, "user@example.com", "student", 3)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if jti == "" {
		t.Error("empty JTI")
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "user@example.com" || claims.Role != "student" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.TokenType != "access" {
		t.Errorf("token type = %q, want access", claims.TokenType)
	}
	if claims.TokenVersion != 3 {
		t.Errorf("token version = %d, want 3", claims.TokenVersion)
	}
	if claims.ID != jti {
		t.Error("claims JTI does not match generated JTI")
	}
}

func TestRefreshTokenType(t *testing.T) {
	m := newTestManager()

	token, _, err := m.GenerateRefreshToken(1, "u@e.com", "student", 0)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("token type = %q, want refresh", claims.TokenType)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewJWTManager(JWTConfig{Secret: "different", Expiry: time.Hour, RefreshExpiry: time.Hour})

	token, _, err := m.GenerateAccessToken(1, "u@e.com", "student", 0)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with another secret validated")
	}
}

func TestExpiredToken(t *testing.T) {
	m := NewJWTManager(JWTConfig{
		Secret: "test-secret",
		Expiry: -time.Minute, // already expired at issue time
	})

	token, _, err := m.GenerateAccessToken(1, "u@e.com", "student", 0)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := m.ValidateToken(token); err != ErrExpiredToken {
		t.Errorf("got %v, want ErrExpiredToken", err)
	}
}

func TestGetTokenExpiry(t *testing.T) {
	m := newTestManager()

	token, _, err := m.GenerateAccessToken(1, "u@e.com", "student", 0)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	exp, err := m.GetTokenExpiry(token)
	if err != nil {
		t.Fatalf("expiry failed: %v", err)
	}

	want := time.Now().Add(time.Hour)
	if exp.Before(want.Add(-time.Minute)) || exp.After(want.Add(time.Minute)) {
		t.Errorf("expiry = %v, want about %v", exp, want)
	}
}
