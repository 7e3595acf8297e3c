package attachment

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Attachment is a file record in the attachments store. The bytes live in
// object storage under StorageKey.
type Attachment struct {
	shared.BaseEntity
	ShipmentID  uuid.UUID `json:"shipment_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	StorageKey  string    `json:"storage_key"`
}

// ShipmentPrefix is the object key prefix for every file of a shipment
func ShipmentPrefix(shipmentID uuid.UUID) string {
	return fmt.Sprintf("shipments/%s/", shipmentID)
}

// NewAttachment creates the record for a file stored under the shipment's prefix
func NewAttachment(shipmentID uuid.UUID, fileName, contentType string, size int64, now time.Time) (*Attachment, error) {
	name := path.Base(strings.TrimSpace(fileName))
	if name == "" || name == "." || name == "/" {
		return nil, shared.ErrInvalidInput.WithMessage("Attachment file name cannot be empty")
	}
	if size < 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Attachment size cannot be negative")
	}
	base := shared.NewBaseEntity(now)
	return &Attachment{
		BaseEntity:  base,
		ShipmentID:  shipmentID,
		FileName:    name,
		ContentType: contentType,
		FileSize:    size,
		StorageKey:  ShipmentPrefix(shipmentID) + base.ID.String() + "/" + name,
	}, nil
}

// Repository defines attachment record persistence
type Repository interface {
	FindByShipment(ctx context.Context, shipmentID uuid.UUID) ([]Attachment, error)
	Create(ctx context.Context, a *Attachment) error
	DeleteByShipment(ctx context.Context, shipmentID uuid.UUID) (int64, error)
}

// ObjectStorage stores attachment bytes
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string, size int64) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
