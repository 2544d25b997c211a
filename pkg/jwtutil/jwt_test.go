package jwtutil

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"device-registry/pkg/config"
)

func testCodec(accessTTL, refreshTTL time.Duration) *JWT {
	return New(&config.JWTConfig{
		SigningKey: "test-signing-key",
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	})
}

func TestIssueValidateRoundTrip(t *testing.T) {
	codec := testCodec(15*time.Minute, 24*time.Hour)

	pair, err := codec.IssuePair(42, 7, "user@example.com")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	access, err := codec.Validate(pair.Access, KindAccess)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if access.UserID != 42 || access.PlatformID != 7 || access.Email != "user@example.com" {
		t.Fatalf("access claims do not round-trip: %+v", access)
	}
	if access.Kind != KindAccess {
		t.Fatalf("expected access kind, got %q", access.Kind)
	}

	refresh, err := codec.Validate(pair.Refresh, KindRefresh)
	if err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
	if refresh.UserID != access.UserID || refresh.PlatformID != access.PlatformID || refresh.Email != access.Email {
		t.Fatalf("refresh identity claims differ from access claims")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	codec := testCodec(-time.Minute, 24*time.Hour)

	token, err := codec.Issue(1, 1, "user@example.com", KindAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := codec.Validate(token, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestValidateNearExpiryBoundary(t *testing.T) {
	// A token one second from expiry is still valid.
	codec := testCodec(time.Second, 24*time.Hour)

	token, err := codec.Issue(1, 1, "user@example.com", KindAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := codec.Validate(token, KindAccess); err != nil {
		t.Fatalf("token should be valid before expiry: %v", err)
	}
}

func TestValidateRejectsWrongKind(t *testing.T) {
	codec := testCodec(15*time.Minute, 24*time.Hour)

	pair, err := codec.IssuePair(1, 1, "user@example.com")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := codec.Validate(pair.Refresh, KindAccess); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("refresh token must not validate as access, got %v", err)
	}
	if _, err := codec.Validate(pair.Access, KindRefresh); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("access token must not validate as refresh, got %v", err)
	}
}

func TestValidateRejectsMissingPlatformClaim(t *testing.T) {
	codec := testCodec(15*time.Minute, 24*time.Hour)

	// A generic token signed with the right key but without a platform
	// claim must be rejected outright.
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"email":   "user@example.com",
		"kind":    KindAccess,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	})
	signed, err := foreign.SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("sign foreign token: %v", err)
	}

	if _, err := codec.Validate(signed, KindAccess); !errors.Is(err, ErrMissingPlatform) {
		t.Fatalf("expected ErrMissingPlatform, got %v", err)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	codec := testCodec(15*time.Minute, 24*time.Hour)

	token, err := codec.Issue(1, 1, "user@example.com", KindAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Flip a character in the payload segment; the signature covers the
	// whole payload so any mutation invalidates the token.
	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}

	if _, err := codec.Validate(string(tampered), KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestValidateRejectsWrongKey(t *testing.T) {
	codec := testCodec(15*time.Minute, 24*time.Hour)
	other := New(&config.JWTConfig{
		SigningKey: "a-different-key",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})

	token, err := other.Issue(1, 1, "user@example.com", KindAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := codec.Validate(token, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}
