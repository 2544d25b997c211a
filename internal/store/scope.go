package store

import "gorm.io/gorm"

// ScopedToOwner is the tenant-scoped access guard: every device query path
// goes through this scope so the predicate cannot be forgotten on a new
// endpoint. It enforces both halves of the ownership rule in SQL, never
// client-side after fetching.
func ScopedToOwner(owner Owner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN user_platforms ON user_platforms.id = devices.user_platform_id AND user_platforms.deleted_at IS NULL").
			Where("devices.user_platform_id = ? AND user_platforms.platform_id = ?", owner.UserID, owner.PlatformID)
	}
}
