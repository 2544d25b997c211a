package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"device-registry/internal/store"
	"device-registry/pkg/logger"
	"device-registry/prometheus"
)

// PlatformHandler exposes the public, read-only platform catalogue.
type PlatformHandler struct {
	store store.CredentialStore
}

func NewPlatformHandler(credentials store.CredentialStore) *PlatformHandler {
	return &PlatformHandler{store: credentials}
}

// List handles GET /api/platforms/ — active platforms only, no auth required.
func (h *PlatformHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	platforms, err := h.store.ListActivePlatforms()
	if err != nil {
		log.Error("Failed to list platforms", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve platforms"})
	}

	return c.JSON(http.StatusOK, platforms)
}
