package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"device-registry/internal/auth"
	"device-registry/internal/model"
	"device-registry/internal/store"
	"device-registry/pkg/config"
	"device-registry/pkg/jwtutil"
)

type fakeCredentialStore struct {
	platform *model.Platform
	user     *model.UserPlatform
}

func (f *fakeCredentialStore) ActivePlatform(id uint) (*model.Platform, error) {
	if f.platform != nil && f.platform.ID == id && f.platform.IsActive {
		return f.platform, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeCredentialStore) ActiveUser(id, platformID uint) (*model.UserPlatform, error) {
	if f.user != nil && f.user.ID == id && f.user.PlatformID == platformID && f.user.IsActive {
		return f.user, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeCredentialStore) ActiveUserByEmail(email string, platformID uint) (*model.UserPlatform, error) {
	if f.user != nil && f.user.Email == email && f.user.PlatformID == platformID && f.user.IsActive {
		return f.user, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeCredentialStore) CreateUser(u *model.UserPlatform) error         { return nil }
func (f *fakeCredentialStore) TouchLastLogin(userID uint, at time.Time) error { return nil }
func (f *fakeCredentialStore) ListActivePlatforms() ([]model.Platform, error) { return nil, nil }

func setup(t *testing.T) (*echo.Echo, *fakeCredentialStore, *jwtutil.JWT) {
	t.Helper()

	credentials := &fakeCredentialStore{
		platform: &model.Platform{ID: 1, Name: "Platform A", IsActive: true},
		user:     &model.UserPlatform{ID: 10, Email: "a@x.com", PlatformID: 1, IsActive: true},
	}
	codec := jwtutil.New(&config.JWTConfig{
		SigningKey: "test-signing-key",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	service := auth.NewService(credentials, codec, nil)

	e := echo.New()
	protected := e.Group("/protected")
	protected.Use(Auth(codec, service))
	protected.GET("", func(c echo.Context) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "identity missing"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"user_id":     identity.User.ID,
			"platform_id": identity.Platform.ID,
		})
	})

	return e, credentials, codec
}

func request(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	e, _, _ := setup(t)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"bare token", "sometoken"},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := request(e, tc.header); rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthResolvesIdentity(t *testing.T) {
	e, _, codec := setup(t)

	token, err := codec.Issue(10, 1, "a@x.com", jwtutil.KindAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := request(e, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRejectsRefreshToken(t *testing.T) {
	e, _, codec := setup(t)

	token, err := codec.Issue(10, 1, "a@x.com", jwtutil.KindRefresh)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if rec := request(e, "Bearer "+token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token must not authenticate a request, got %d", rec.Code)
	}
}

func TestAuthRejectsStaleIdentity(t *testing.T) {
	e, credentials, codec := setup(t)

	token, err := codec.Issue(10, 1, "a@x.com", jwtutil.KindAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Unexpired token, but the user was deactivated after issuance.
	credentials.user.IsActive = false
	if rec := request(e, "Bearer "+token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deactivated user, got %d", rec.Code)
	}

	// Same for the platform.
	credentials.user.IsActive = true
	credentials.platform.IsActive = false
	if rec := request(e, "Bearer "+token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deactivated platform, got %d", rec.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	e, _, _ := setup(t)

	expired := jwtutil.New(&config.JWTConfig{
		SigningKey: "test-signing-key",
		AccessTTL:  -time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	token, err := expired.Issue(10, 1, "a@x.com", jwtutil.KindAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if rec := request(e, "Bearer "+token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}
