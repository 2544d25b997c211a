package model

import (
	"time"

	"gorm.io/gorm"
)

// Device is an IP-addressable device owned by exactly one platform user.
// created_by/updated_by keep the audit trail even if the acting user is
// later deleted (SET NULL, never cascade).
type Device struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Name           string         `json:"name" gorm:"type:varchar(200);not null"`
	IPAddress      string         `json:"ip_address" gorm:"type:varchar(15);not null"`
	IsActive       bool           `json:"is_active" gorm:"default:true;index:idx_device_owner_active,priority:2"`
	UserPlatformID uint           `json:"user_platform_id" gorm:"not null;index:idx_device_owner_active,priority:1"`
	CreatedBy      *uint          `json:"created_by,omitempty"`
	UpdatedBy      *uint          `json:"updated_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	UserPlatform UserPlatform  `json:"-" gorm:"foreignKey:UserPlatformID;constraint:OnDelete:CASCADE"`
	Creator      *UserPlatform `json:"-" gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL"`
	Updater      *UserPlatform `json:"-" gorm:"foreignKey:UpdatedBy;constraint:OnDelete:SET NULL"`
}
