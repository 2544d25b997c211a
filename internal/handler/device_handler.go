package handler

import (
	"errors"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"device-registry/internal/auth"
	"device-registry/internal/middleware"
	"device-registry/internal/model"
	"device-registry/internal/store"
	"device-registry/pkg/logger"
	"device-registry/prometheus"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// DeviceHandler exposes the tenant-scoped device CRUD. Every operation runs
// through the owner scope of the resolved identity; a device outside that
// scope is reported as 404, the same as one that does not exist at all.
type DeviceHandler struct {
	devices store.DeviceStore
}

func NewDeviceHandler(devices store.DeviceStore) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

func identity(c echo.Context) (*auth.Identity, bool) {
	return middleware.IdentityFromContext(c)
}

func validateDevice(name, ipAddress string) (string, auth.FieldErrors) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", auth.FieldErrors{"name": {"device name is required"}}
	}
	addr, err := netip.ParseAddr(ipAddress)
	if err != nil || !addr.Is4() {
		return "", auth.FieldErrors{"ip_address": {"enter a valid IPv4 address"}}
	}
	return name, nil
}

// List handles GET /api/devices/ with pagination, search and ordering.
func (h *DeviceHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("list")

	ident, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := store.DeviceQuery{
		Search:   c.QueryParam("search"),
		Ordering: c.QueryParam("ordering"),
		Page:     page,
		PageSize: pageSize,
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	devices, count, err := h.devices.ListOwned(ident.Owner(), query)
	if err != nil {
		log.Error("Failed to list devices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve devices"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count":   count,
		"results": devices,
	})
}

// MyDevices handles GET /api/devices/my_devices/ — the caller's full device
// list, unpaginated.
func (h *DeviceHandler) MyDevices(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("list")

	ident, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	devices, err := h.devices.AllOwned(ident.Owner())
	if err != nil {
		log.Error("Failed to list devices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve devices"})
	}

	return c.JSON(http.StatusOK, devices)
}

// Create handles POST /api/devices/. Any client-supplied owner or audit
// fields are ignored; they are stamped from the resolved identity.
func (h *DeviceHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("create")

	ident, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Name      string `json:"name"`
		IPAddress string `json:"ip_address"`
		IsActive  *bool  `json:"is_active"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse device creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	name, fieldErrs := validateDevice(req.Name, req.IPAddress)
	if fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, fieldErrs)
	}

	userID := ident.User.ID
	device := model.Device{
		Name:           name,
		IPAddress:      req.IPAddress,
		IsActive:       true,
		UserPlatformID: userID,
		CreatedBy:      &userID,
		UpdatedBy:      &userID,
	}
	if req.IsActive != nil {
		device.IsActive = *req.IsActive
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.devices.Create(&device); err != nil {
		log.Error("Failed to create device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create device"})
	}

	log.Info("Device created",
		zap.Uint("device_id", device.ID),
		zap.Uint("user_id", userID),
		zap.Uint("platform_id", ident.Platform.ID))
	return c.JSON(http.StatusCreated, device)
}

// Get handles GET /api/devices/:id/
func (h *DeviceHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("get")

	ident, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "device not found"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	device, err := h.devices.GetOwned(id, ident.Owner())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "device not found"})
		}
		log.Error("Failed to fetch device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve device"})
	}

	return c.JSON(http.StatusOK, device)
}

// Update handles PATCH /api/devices/:id/ with partial updates.
func (h *DeviceHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("update")

	ident, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "device not found"})
	}

	var req struct {
		Name      *string `json:"name"`
		IPAddress *string `json:"ip_address"`
		IsActive  *bool   `json:"is_active"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse device update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	device, err := h.devices.GetOwned(id, ident.Owner())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "device not found"})
		}
		log.Error("Failed to fetch device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve device"})
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, auth.FieldErrors{"name": {"device name is required"}})
		}
		device.Name = name
	}
	if req.IPAddress != nil {
		addr, err := netip.ParseAddr(*req.IPAddress)
		if err != nil || !addr.Is4() {
			return c.JSON(http.StatusBadRequest, auth.FieldErrors{"ip_address": {"enter a valid IPv4 address"}})
		}
		device.IPAddress = *req.IPAddress
	}
	if req.IsActive != nil {
		device.IsActive = *req.IsActive
	}
	userID := ident.User.ID
	device.UpdatedBy = &userID

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.devices.Update(device); err != nil {
		log.Error("Failed to update device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update device"})
	}

	return c.JSON(http.StatusOK, device)
}

// Delete handles DELETE /api/devices/:id/
func (h *DeviceHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("delete")

	ident, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "device not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.devices.Delete(id, ident.Owner()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "device not found"})
		}
		log.Error("Failed to delete device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete device"})
	}

	return c.NoContent(http.StatusNoContent)
}

// ToggleActive handles PATCH /api/devices/:id/toggle_active/
func (h *DeviceHandler) ToggleActive(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("toggle")

	ident, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "device not found"})
	}

	device, err := h.devices.GetOwned(id, ident.Owner())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "device not found"})
		}
		log.Error("Failed to fetch device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve device"})
	}

	device.IsActive = !device.IsActive
	userID := ident.User.ID
	device.UpdatedBy = &userID

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.devices.Update(device); err != nil {
		log.Error("Failed to toggle device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update device"})
	}

	log.Info("Device toggled",
		zap.Uint("device_id", device.ID),
		zap.Bool("is_active", device.IsActive))
	return c.JSON(http.StatusOK, device)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
