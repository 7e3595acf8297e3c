package models

import (
	"github.com/freightdesk/backend/internal/domain/attachment"
	"github.com/google/uuid"
)

// AttachmentModel is the persistence model for attachment records
type AttachmentModel struct {
	BaseModel
	ShipmentID  uuid.UUID `gorm:"type:uuid;not null;index"`
	FileName    string    `gorm:"size:255;not null"`
	ContentType string    `gorm:"size:100"`
	FileSize    int64     `gorm:"not null;default:0"`
	StorageKey  string    `gorm:"size:512;not null"`
}

// TableName returns the table name for GORM
func (AttachmentModel) TableName() string {
	return "attachments"
}

// ToDomain converts the persistence model to a domain Attachment
func (m *AttachmentModel) ToDomain() *attachment.Attachment {
	return &attachment.Attachment{
		BaseEntity:  m.BaseModel.ToDomain(),
		ShipmentID:  m.ShipmentID,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		FileSize:    m.FileSize,
		StorageKey:  m.StorageKey,
	}
}

// AttachmentModelFromDomain creates a persistence model from a domain Attachment
func AttachmentModelFromDomain(a *attachment.Attachment) *AttachmentModel {
	m := &AttachmentModel{
		ShipmentID:  a.ShipmentID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		FileSize:    a.FileSize,
		StorageKey:  a.StorageKey,
	}
	m.BaseModel.FromDomain(a.BaseEntity)
	return m
}
