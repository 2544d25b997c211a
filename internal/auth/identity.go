package auth

import (
	"device-registry/internal/model"
	"device-registry/internal/store"
)

// Identity is the resolved caller of an authenticated request: the live user
// row and its platform, re-read from the store at resolution time. Token
// claims are only trusted for identity, never for current state.
type Identity struct {
	User     *model.UserPlatform
	Platform *model.Platform
}

// Owner returns the scoping key applied to every data access made on behalf
// of this identity.
func (i *Identity) Owner() store.Owner {
	return store.Owner{UserID: i.User.ID, PlatformID: i.Platform.ID}
}
