package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"device-registry/internal/model"
)

// orderings whitelists the client-selectable sort columns.
var orderings = map[string]string{
	"name":        "devices.name",
	"-name":       "devices.name DESC",
	"created_at":  "devices.created_at",
	"-created_at": "devices.created_at DESC",
	"updated_at":  "devices.updated_at",
	"-updated_at": "devices.updated_at DESC",
}

// GormDeviceStore is the PostgreSQL-backed device store. All reads and
// mutations go through the ScopedToOwner guard.
type GormDeviceStore struct {
	db *gorm.DB
}

func NewGormDeviceStore(db *gorm.DB) *GormDeviceStore {
	return &GormDeviceStore{db: db}
}

// ListOwned returns one page of the owner's devices plus the total count.
func (s *GormDeviceStore) ListOwned(owner Owner, q DeviceQuery) ([]model.Device, int64, error) {
	query := s.db.Model(&model.Device{}).Scopes(ScopedToOwner(owner))

	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("LOWER(devices.name) LIKE ? OR devices.ip_address LIKE ?", pattern, pattern)
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	order, ok := orderings[q.Ordering]
	if !ok {
		order = orderings["-created_at"]
	}

	page := q.Page
	if page < 1 {
		page = 1
	}

	var devices []model.Device
	err := query.Order(order).
		Offset((page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&devices).Error
	if err != nil {
		return nil, 0, err
	}
	return devices, count, nil
}

// AllOwned returns every device of the owner, unpaginated.
func (s *GormDeviceStore) AllOwned(owner Owner) ([]model.Device, error) {
	var devices []model.Device
	err := s.db.Model(&model.Device{}).
		Scopes(ScopedToOwner(owner)).
		Order("devices.created_at DESC").
		Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// GetOwned fetches a single device inside the owner's scope. A device that
// belongs to another user or platform yields ErrNotFound, never a hint that
// the row exists.
func (s *GormDeviceStore) GetOwned(id uint, owner Owner) (*model.Device, error) {
	var device model.Device
	result := s.db.Model(&model.Device{}).
		Scopes(ScopedToOwner(owner)).
		Where("devices.id = ?", id).
		First(&device)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &device, nil
}

func (s *GormDeviceStore) Create(d *model.Device) error {
	return s.db.Create(d).Error
}

func (s *GormDeviceStore) Update(d *model.Device) error {
	return s.db.Save(d).Error
}

// Delete removes a device after re-fetching it inside the owner's scope.
func (s *GormDeviceStore) Delete(id uint, owner Owner) error {
	device, err := s.GetOwned(id, owner)
	if err != nil {
		return err
	}
	return s.db.Delete(device).Error
}
