package store

import (
	"errors"
	"time"

	"device-registry/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist or is outside the
	// caller's scope. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("record already exists")
)

// Owner identifies the caller for tenant scoping. Every device access is
// filtered by both halves: the owning user and that user's platform.
type Owner struct {
	UserID     uint
	PlatformID uint
}

// CredentialStore holds platforms and platform-scoped user accounts.
// Lookups used for authentication only ever return active rows: an inactive
// platform or user behaves exactly like one that does not exist.
type CredentialStore interface {
	ActivePlatform(id uint) (*model.Platform, error)
	ActiveUser(id, platformID uint) (*model.UserPlatform, error)
	ActiveUserByEmail(email string, platformID uint) (*model.UserPlatform, error)
	CreateUser(u *model.UserPlatform) error
	TouchLastLogin(userID uint, at time.Time) error
	ListActivePlatforms() ([]model.Platform, error)
}

// DeviceQuery carries list filtering and pagination parameters.
type DeviceQuery struct {
	Search   string
	Ordering string
	Page     int
	PageSize int
}

// DeviceStore persists devices. Every read and mutation is scoped to the
// owner; a row belonging to another user or platform surfaces ErrNotFound.
type DeviceStore interface {
	ListOwned(owner Owner, q DeviceQuery) ([]model.Device, int64, error)
	AllOwned(owner Owner) ([]model.Device, error)
	GetOwned(id uint, owner Owner) (*model.Device, error)
	Create(d *model.Device) error
	Update(d *model.Device) error
	Delete(id uint, owner Owner) error
}
