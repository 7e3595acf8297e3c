package persistence

import (
	"context"

	"github.com/freightdesk/backend/internal/domain/attachment"
	"github.com/freightdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAttachmentRepository implements attachment.Repository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// FindByShipment lists the attachment records of a shipment, oldest first
func (r *GormAttachmentRepository) FindByShipment(ctx context.Context, shipmentID uuid.UUID) ([]attachment.Attachment, error) {
	var rows []models.AttachmentModel
	if err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("find attachments", err)
	}

	attachments := make([]attachment.Attachment, len(rows))
	for i, row := range rows {
		attachments[i] = *row.ToDomain()
	}
	return attachments, nil
}

// Create inserts an attachment record
func (r *GormAttachmentRepository) Create(ctx context.Context, a *attachment.Attachment) error {
	if err := r.db.WithContext(ctx).Create(models.AttachmentModelFromDomain(a)).Error; err != nil {
		return translateError("create attachment", err)
	}
	return nil
}

// DeleteByShipment removes every attachment record of a shipment
func (r *GormAttachmentRepository) DeleteByShipment(ctx context.Context, shipmentID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.AttachmentModel{}, "shipment_id = ?", shipmentID)
	if result.Error != nil {
		return 0, translateError("delete attachments", result.Error)
	}
	return result.RowsAffected, nil
}

var _ attachment.Repository = (*GormAttachmentRepository)(nil)
