package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"device-registry/internal/auth"
	"device-registry/pkg/jwtutil"
	"device-registry/pkg/logger"
	"device-registry/prometheus"
)

// IdentityKey is the echo context key the resolved identity is stored under.
const IdentityKey = "identity"

// Auth builds the request identity resolver middleware. It extracts the
// bearer token, validates it through the codec, then re-resolves the live
// user and platform from the credential store. Requests whose token is
// malformed, expired, missing the platform claim, or referencing a
// deactivated user or platform are rejected with 401.
func Auth(codec *jwtutil.JWT, service *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Debug("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Debug("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := codec.Validate(parts[1], jwtutil.KindAccess)
			if err != nil {
				log.Debug("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			// The token only proves identity. Current state comes from the
			// store so deactivation takes effect on the very next request.
			identity, err := service.Resolve(claims)
			if err != nil {
				log.Debug("Token no longer resolves to an active user",
					zap.Uint("user_id", claims.UserID),
					zap.Uint("platform_id", claims.PlatformID),
					zap.Error(err))
				prometheus.RecordAuthError("stale_identity")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token or user not found"})
			}

			c.Set(IdentityKey, identity)
			c.Set("user_id", identity.User.ID)
			c.Set("email", identity.User.Email)
			c.Set("platform_id", identity.Platform.ID)

			return next(c)
		}
	}
}

// IdentityFromContext returns the identity attached by the Auth middleware.
func IdentityFromContext(c echo.Context) (*auth.Identity, bool) {
	identity, ok := c.Get(IdentityKey).(*auth.Identity)
	return identity, ok
}
