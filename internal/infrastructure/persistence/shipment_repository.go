package persistence

import (
	"context"

	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/freightdesk/backend/internal/domain/shipment"
	"github.com/freightdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShipmentRepository implements shipment.Repository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByID finds a shipment by its ID
func (r *GormShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipment.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err = translateError("find shipment", err); shared.IsNotFound(err) {
			return nil, shipment.ErrShipmentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Exists reports whether a shipment with id is stored
func (r *GormShipmentRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ShipmentModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, translateError("check shipment", err)
	}
	return count > 0, nil
}

// ListIDs returns the ID of every shipment
func (r *GormShipmentRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.ShipmentModel{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, translateError("list shipment ids", err)
	}
	return ids, nil
}

// LatestCodeWithPrefix returns the greatest code starting with prefix
func (r *GormShipmentRepository) LatestCodeWithPrefix(ctx context.Context, prefix string) (string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).Model(&models.ShipmentModel{}).
		Where("code LIKE ?", prefix+"%").
		Order("code DESC").
		Limit(1).
		Pluck("code", &codes).Error; err != nil {
		return "", translateError("latest shipment code", err)
	}
	if len(codes) == 0 {
		return "", nil
	}
	return codes[0], nil
}

// Create inserts a shipment
func (r *GormShipmentRepository) Create(ctx context.Context, s *shipment.Shipment) error {
	model := models.ShipmentModelFromDomain(s)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError("create shipment", err)
	}
	return nil
}

// Delete removes a shipment. Deleting a missing shipment is not an error.
func (r *GormShipmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.ShipmentModel{}, "id = ?", id).Error; err != nil {
		return translateError("delete shipment", err)
	}
	return nil
}

// Ensure GormShipmentRepository implements shipment.Repository
var _ shipment.Repository = (*GormShipmentRepository)(nil)
