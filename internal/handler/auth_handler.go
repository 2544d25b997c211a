package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"device-registry/internal/auth"
	"device-registry/pkg/logger"
	"device-registry/prometheus"
)

// AuthHandler exposes login, registration and token refresh.
type AuthHandler struct {
	service *auth.Service
}

func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// writeAuthError converts a service failure into a field-tagged 400 body.
// Anything that is not a validation error is an internal failure and leaks
// no detail.
func writeAuthError(c echo.Context, err error) error {
	var fieldErrs auth.FieldErrors
	if errors.As(err, &fieldErrs) {
		return c.JSON(http.StatusBadRequest, fieldErrs)
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// Login handles POST /api/auth/login/
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		PlatformID uint   `json:"platform_id"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	pair, err := h.service.Login(req.Email, req.Password, req.PlatformID)
	if err != nil {
		log.Info("Login rejected", zap.Uint("platform_id", req.PlatformID))
		prometheus.RecordAuthError("login_failure")
		return writeAuthError(c, err)
	}

	prometheus.IncreaseActiveTokens()
	return c.JSON(http.StatusOK, pair)
}

// Register handles POST /api/auth/register/
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		PlatformID uint   `json:"platform_id"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	result, err := h.service.Register(req.Email, req.Password, req.PlatformID)
	if err != nil {
		log.Info("Registration rejected", zap.Uint("platform_id", req.PlatformID))
		prometheus.RecordAuthError("registration_failure")
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "User registered successfully",
		"user_id":  result.UserID,
		"email":    result.Email,
		"platform": result.Platform,
	})
}

// Refresh handles POST /api/auth/refresh/
func (h *AuthHandler) Refresh(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RefreshCounter.Inc()

	var req struct {
		Refresh string `json:"refresh"`
	}

	if err := c.Bind(&req); err != nil || req.Refresh == "" {
		log.Error("Failed to parse refresh request")
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh token is required"})
	}

	access, err := h.service.Refresh(req.Refresh)
	if err != nil {
		log.Info("Token refresh rejected", zap.Error(err))
		prometheus.RecordAuthError("refresh_failure")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	prometheus.IncreaseActiveTokens()
	return c.JSON(http.StatusOK, echo.Map{"access": access})
}
