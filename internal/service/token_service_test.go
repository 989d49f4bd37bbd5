package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/constants"
	"github.com/storecase-identity/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

func newTestTokenService(secret string, now time.Time) *TokenService {
	svc := NewTokenService(config.JWTConfig{SecretKey: secret, Issuer: "storecase-identity"}, config.TokenTTLs{
		Access:  30 * time.Minute,
		Refresh: 14 * 24 * time.Hour,
	})
	svc.now = func() time.Time { return now }
	return svc
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService("secret-a", now)

	token, expiresAt, err := svc.Issue(42, constants.RoleAdmin, constants.TokenTypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected expires at: %s", expiresAt)
	}

	principal, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if principal.UserID != 42 || principal.Role != constants.RoleAdmin {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	principal, err = svc.Verify(constants.TokenPrefix + token)
	if err != nil || principal.UserID != 42 {
		t.Fatalf("bearer prefix should be accepted: %v", err)
	}
}

func TestTokenExpiresAtMatchesClaim(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 750_000_000, time.UTC)
	svc := newTestTokenService("secret-a", now)

	token, expiresAt, err := svc.Issue(42, constants.RoleUser, constants.TokenTypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if !expiresAt.Equal(claims.ExpiresAt.Time) {
		t.Fatalf("returned expiry %s differs from exp claim %s", expiresAt, claims.ExpiresAt.Time)
	}
	if !expiresAt.Equal(time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)) {
		t.Fatalf("expiry should be truncated to whole seconds, got %s", expiresAt)
	}

	pair, err := svc.IssuePair(&models.User{ID: 42, Role: constants.RoleUser})
	if err != nil {
		t.Fatalf("issue pair failed: %v", err)
	}
	if pair.AccessExpiresAt.Nanosecond() != 0 || pair.RefreshExpiresAt.Nanosecond() != 0 {
		t.Fatalf("pair expiries should carry no sub-second part: %+v", pair)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService("secret-a", now)
	token, _, err := svc.Issue(7, constants.RoleUser, constants.TokenTypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	svc.now = func() time.Time { return now.Add(time.Minute + time.Second) }
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired got %v", err)
	}
}

func TestTokenInvalid(t *testing.T) {
	now := time.Now()
	issuer := newTestTokenService("secret-a", now)
	other := newTestTokenService("secret-b", now)

	token, _, err := issuer.Issue(7, constants.RoleUser, constants.TokenTypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	cases := map[string]string{
		"wrong secret": token,
		"empty":        "",
		"garbage":      "not-a-token",
		"truncated":    token[:len(token)-4],
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := other.Verify(value); !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("want ErrTokenInvalid got %v", err)
			}
		})
	}
}

func TestTokenWrongAlgorithmRejected(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService("secret-a", now)

	claims := TokenClaims{
		UserID:    7,
		Role:      constants.RoleUser,
		TokenType: constants.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "storecase-identity",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret-a"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid for HS256 token got %v", err)
	}
}

func TestTokenTypeDiscriminant(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService("secret-a", now)
	user := &models.User{ID: 9, Role: constants.RoleUser}

	pair, err := svc.IssuePair(user)
	if err != nil {
		t.Fatalf("issue pair failed: %v", err)
	}
	if strings.TrimSpace(pair.AccessToken) == "" || strings.TrimSpace(pair.RefreshToken) == "" {
		t.Fatalf("empty tokens in pair")
	}
	if !pair.RefreshExpiresAt.After(pair.AccessExpiresAt) {
		t.Fatalf("refresh should outlive access")
	}

	if _, err := svc.VerifyAccess(pair.AccessToken); err != nil {
		t.Fatalf("access token rejected: %v", err)
	}
	if _, err := svc.VerifyRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("refresh token rejected: %v", err)
	}
	if _, err := svc.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token must not pass as access token, got %v", err)
	}
	if _, err := svc.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access token must not pass as refresh token, got %v", err)
	}
}
