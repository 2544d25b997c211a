package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserPlatform is an authenticatable account scoped to exactly one platform.
// The same email may exist under several platforms, each a fully independent
// account with its own password and device set.
type UserPlatform struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Email      string         `json:"email" gorm:"type:varchar(255);not null;index;uniqueIndex:idx_user_platform_email,priority:1"`
	PlatformID uint           `json:"platform_id" gorm:"not null;uniqueIndex:idx_user_platform_email,priority:2"`
	Password   string         `json:"-" gorm:"type:varchar(255);not null"`
	IsActive   bool           `json:"is_active" gorm:"default:true"`
	LastLogin  *time.Time     `json:"last_login,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Platform Platform `json:"platform,omitempty" gorm:"foreignKey:PlatformID;constraint:OnDelete:CASCADE"`
}

// SetPassword hashes the raw password and stores only the hash.
func (u *UserPlatform) SetPassword(raw string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword verifies the raw password against the stored hash.
// bcrypt's comparison is constant time.
func (u *UserPlatform) CheckPassword(raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(raw)) == nil
}
