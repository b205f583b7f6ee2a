package service

import (
	"errors"
	"testing"
	"time"

	"promptly/internal/domain"
)

func TestJWTServiceGenerateAndParse(t *testing.T) {
	svc := NewJWTService("super-secreto", 15*time.Minute, time.Hour)
	user := domain.User{ID: "u1", Email: "fer@example.com", FullName: "Fer"}

	pair, err := svc.GeneratePair(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expires_in: %d", pair.ExpiresIn)
	}

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "fer@example.com" || claims.TokenType != "access" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTServiceParseRejectsRefreshToken(t *testing.T) {
	svc := NewJWTService("super-secreto", 15*time.Minute, time.Hour)
	pair, err := svc.GeneratePair(domain.User{ID: "u1", Email: "fer@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ParseAccessToken(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for refresh token, got %v", err)
	}
}

func TestJWTServiceParseRejectsForeignSecret(t *testing.T) {
	issuer := NewJWTService("secreto-a", 15*time.Minute, time.Hour)
	verifier := NewJWTService("secreto-b", 15*time.Minute, time.Hour)

	pair, err := issuer.GeneratePair(domain.User{ID: "u1", Email: "fer@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := verifier.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}

func TestJWTServiceParseExpired(t *testing.T) {
	svc := NewJWTService("super-secreto", 15*time.Minute, time.Hour)
	svc.accessTTL = -time.Minute

	pair, err := svc.GeneratePair(domain.User{ID: "u1", Email: "fer@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTServiceRefreshRotation(t *testing.T) {
	svc := NewJWTService("super-secreto", 15*time.Minute, time.Hour)
	user := domain.User{ID: "u1", Email: "fer@example.com"}

	pair, err := svc.GeneratePair(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rotated, err := svc.RefreshPair(pair.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == "" {
		t.Fatalf("expected new pair, got %+v", rotated)
	}

	// El refresh consumido queda revocado.
	if _, err := svc.RefreshPair(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected rotated token to be rejected, got %v", err)
	}
	// El nuevo sigue siendo usable.
	if _, err := svc.RefreshPair(rotated.RefreshToken); err != nil {
		t.Fatalf("expected new refresh token to work, got %v", err)
	}
}

func TestJWTServiceRevokeRefresh(t *testing.T) {
	svc := NewJWTService("super-secreto", 15*time.Minute, time.Hour)
	pair, err := svc.GeneratePair(domain.User{ID: "u1", Email: "fer@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.RevokeRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RefreshPair(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}

func TestJWTServiceWithoutSecret(t *testing.T) {
	svc := NewJWTService("", 15*time.Minute, time.Hour)
	if _, err := svc.GeneratePair(domain.User{ID: "u1"}); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid without secret, got %v", err)
	}
	if _, err := svc.ParseAccessToken("token"); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid without secret, got %v", err)
	}
}
