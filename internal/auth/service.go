package auth

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"device-registry/internal/model"
	"device-registry/internal/store"
	"device-registry/pkg/jwtutil"
)

// Service authenticates platform users and mints their tokens.
type Service struct {
	store store.CredentialStore
	codec *jwtutil.JWT
	log   *zap.Logger
}

func NewService(credentials store.CredentialStore, codec *jwtutil.JWT, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: credentials, codec: codec, log: log}
}

// RegisterResult is the public projection of a freshly created account.
// It never carries the password or its hash.
type RegisterResult struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	Platform string `json:"platform"`
}

// NormalizeEmail lowercases and trims an email before any lookup so that
// credentials compare consistently.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login validates the (email, password, platform) triple and returns an
// access/refresh token pair. Platform selection failures carry a distinct
// message since the platform is a public, pre-auth choice; email and
// password failures stay generic.
func (s *Service) Login(email, password string, platformID uint) (*jwtutil.TokenPair, error) {
	email = NormalizeEmail(email)

	if email == "" {
		return nil, fieldError("email", "email is required")
	}
	if password == "" {
		return nil, fieldError("password", "password is required")
	}
	if platformID == 0 {
		return nil, fieldError("platform_id", "platform_id is required")
	}

	platform, err := s.store.ActivePlatform(platformID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fieldError("platform_id", "platform not found or inactive")
		}
		return nil, err
	}

	user, err := s.store.ActiveUserByEmail(email, platform.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fieldError("email", "invalid credentials")
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, fieldError("password", "invalid credentials")
	}

	// Best effort: a failed last_login write must not fail the login.
	if err := s.store.TouchLastLogin(user.ID, time.Now()); err != nil {
		s.log.Warn("failed to update last_login",
			zap.Uint("user_id", user.ID),
			zap.Error(err))
	}

	pair, err := s.codec.IssuePair(user.ID, platform.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in",
		zap.Uint("user_id", user.ID),
		zap.Uint("platform_id", platform.ID))
	return pair, nil
}

// Register creates a new account under an active platform. The (email,
// platform) pair is unique: the same email may register independently on
// other platforms.
func (s *Service) Register(email, password string, platformID uint) (*RegisterResult, error) {
	email = NormalizeEmail(email)

	if email == "" {
		return nil, fieldError("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fieldError("email", "enter a valid email address")
	}
	if platformID == 0 {
		return nil, fieldError("platform_id", "platform_id is required")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	platform, err := s.store.ActivePlatform(platformID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fieldError("platform_id", "platform not found or inactive")
		}
		return nil, err
	}

	user := &model.UserPlatform{
		Email:      email,
		PlatformID: platform.ID,
		IsActive:   true,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fieldError("email", "email already registered on this platform")
		}
		return nil, err
	}

	s.log.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.Uint("platform_id", platform.ID))

	return &RegisterResult{
		UserID:   user.ID,
		Email:    user.Email,
		Platform: platform.Name,
	}, nil
}

// Resolve turns validated token claims into a live identity. The current
// platform and user rows are re-read from the store: a user or platform
// deactivated after the token was issued is rejected on its next request
// even though the token itself is still cryptographically valid.
func (s *Service) Resolve(claims *jwtutil.Claims) (*Identity, error) {
	platform, err := s.store.ActivePlatform(claims.PlatformID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user, err := s.store.ActiveUser(claims.UserID, platform.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &Identity{User: user, Platform: platform}, nil
}

// Refresh exchanges a valid refresh token for a new access token. User and
// platform liveness is re-checked; the refresh token's embedded claims are
// never trusted forever.
func (s *Service) Refresh(refreshToken string) (string, error) {
	claims, err := s.codec.Validate(refreshToken, jwtutil.KindRefresh)
	if err != nil {
		return "", jwtutil.ErrInvalidToken
	}

	identity, err := s.Resolve(claims)
	if err != nil {
		return "", err
	}

	return s.codec.Issue(identity.User.ID, identity.Platform.ID, identity.User.Email, jwtutil.KindAccess)
}
