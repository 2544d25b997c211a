package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"device-registry/internal/model"
)

// GormCredentialStore is the PostgreSQL-backed credential store.
type GormCredentialStore struct {
	db *gorm.DB
}

func NewGormCredentialStore(db *gorm.DB) *GormCredentialStore {
	return &GormCredentialStore{db: db}
}

// ActivePlatform returns the platform only if it exists and is active.
func (s *GormCredentialStore) ActivePlatform(id uint) (*model.Platform, error) {
	var platform model.Platform
	result := s.db.Where("id = ? AND is_active = ?", id, true).First(&platform)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &platform, nil
}

// ActiveUser returns the user only if it exists, is active and belongs to
// the given platform.
func (s *GormCredentialStore) ActiveUser(id, platformID uint) (*model.UserPlatform, error) {
	var user model.UserPlatform
	result := s.db.Where("id = ? AND platform_id = ? AND is_active = ?", id, platformID, true).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// ActiveUserByEmail resolves the (email, platform) pair to an active account.
func (s *GormCredentialStore) ActiveUserByEmail(email string, platformID uint) (*model.UserPlatform, error) {
	var user model.UserPlatform
	result := s.db.Where("email = ? AND platform_id = ? AND is_active = ?", email, platformID, true).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// CreateUser inserts a new platform user. ErrConflict when the
// (email, platform) pair is already taken.
func (s *GormCredentialStore) CreateUser(u *model.UserPlatform) error {
	var count int64
	if err := s.db.Model(&model.UserPlatform{}).
		Where("email = ? AND platform_id = ?", u.Email, u.PlatformID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}

	if err := s.db.Create(u).Error; err != nil {
		// Concurrent registrations race past the pre-check and hit the
		// unique index instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// TouchLastLogin records a successful authentication. Single-column update,
// row-level atomicity is enough.
func (s *GormCredentialStore) TouchLastLogin(userID uint, at time.Time) error {
	return s.db.Model(&model.UserPlatform{}).
		Where("id = ?", userID).
		Update("last_login", at).Error
}

// ListActivePlatforms returns the public, read-only platform catalogue.
func (s *GormCredentialStore) ListActivePlatforms() ([]model.Platform, error) {
	var platforms []model.Platform
	if err := s.db.Where("is_active = ?", true).Order("name").Find(&platforms).Error; err != nil {
		return nil, err
	}
	return platforms, nil
}
