package jwtutil

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"device-registry/pkg/config"
)

// Token kinds. Access tokens authenticate API requests; refresh tokens may
// only be exchanged for a new access token.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrMissingPlatform = errors.New("token does not contain platform_id")
	ErrWrongKind       = errors.New("unexpected token kind")
)

// Claims represents the signed token payload for platform users.
// A platform_id claim is mandatory: a token without one is rejected outright,
// so a foreign token format can never bypass tenant scoping.
type Claims struct {
	UserID     uint   `json:"user_id"`
	PlatformID uint   `json:"platform_id"`
	Email      string `json:"email"`
	Kind       string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenPair carries the two tokens minted at login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// JWT issues and validates signed tokens. Validation is pure and touches no
// store, so it is safe to call concurrently from any request.
type JWT struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New creates a codec from the JWT section of the service configuration.
func New(cfg *config.JWTConfig) *JWT {
	return &JWT{
		secret:     []byte(cfg.SigningKey),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// Issue creates a single signed token of the given kind.
func (j *JWT) Issue(userID, platformID uint, email, kind string) (string, error) {
	ttl := j.accessTTL
	if kind == KindRefresh {
		ttl = j.refreshTTL
	}

	now := time.Now()
	claims := Claims{
		UserID:     userID,
		PlatformID: platformID,
		Email:      email,
		Kind:       kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// IssuePair mints an access and a refresh token carrying identical identity claims.
func (j *JWT) IssuePair(userID, platformID uint, email string) (*TokenPair, error) {
	access, err := j.Issue(userID, platformID, email, KindAccess)
	if err != nil {
		return nil, err
	}

	refresh, err := j.Issue(userID, platformID, email, KindRefresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Validate verifies the signature and expiry of the token and checks that it
// is of the expected kind and carries a platform claim.
func (j *JWT) Validate(tokenString, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.PlatformID == 0 {
		return nil, ErrMissingPlatform
	}

	if claims.Kind != kind {
		return nil, ErrWrongKind
	}

	return claims, nil
}
