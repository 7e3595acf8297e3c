package shipment

import (
	"time"

	"github.com/freightdesk/backend/internal/domain/attachment"
	"github.com/freightdesk/backend/internal/domain/shipment"
	"github.com/google/uuid"
)

// CreateShipmentRequest represents a request to book a shipment
type CreateShipmentRequest struct {
	CustomerID  *uuid.UUID `json:"customer_id"`
	Origin      string     `json:"origin" binding:"required,max=100"`
	Destination string     `json:"destination" binding:"required,max=100"`
	Remarks     string     `json:"remarks" binding:"max=500"`
}

// ShipmentResponse represents a shipment in API responses
type ShipmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	Remarks     string     `json:"remarks,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DeleteShipmentResult reports what the cascade removed. Incomplete is set
// when a step after the shipment delete failed; reconciliation removes any
// costs left behind.
type DeleteShipmentResult struct {
	ShipmentID         uuid.UUID `json:"shipment_id"`
	CostsDeleted       int64     `json:"costs_deleted"`
	AttachmentsDeleted int64     `json:"attachments_deleted"`
	ObjectsDeleted     int       `json:"objects_deleted"`
	Incomplete         bool      `json:"incomplete"`
}

// AttachFileRequest carries an uploaded file
type AttachFileRequest struct {
	FileName    string
	ContentType string
	Size        int64
}

// AttachmentResponse represents an attachment record in API responses
type AttachmentResponse struct {
	ID          uuid.UUID `json:"id"`
	ShipmentID  uuid.UUID `json:"shipment_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	StorageKey  string    `json:"storage_key"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToShipmentResponse converts a domain Shipment to ShipmentResponse
func ToShipmentResponse(s *shipment.Shipment) ShipmentResponse {
	return ShipmentResponse{
		ID:          s.ID,
		Code:        s.Code,
		CustomerID:  s.CustomerID,
		Origin:      s.Origin,
		Destination: s.Destination,
		Remarks:     s.Remarks,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToAttachmentResponse converts a domain Attachment to AttachmentResponse
func ToAttachmentResponse(a *attachment.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		ShipmentID:  a.ShipmentID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		FileSize:    a.FileSize,
		StorageKey:  a.StorageKey,
		CreatedAt:   a.CreatedAt,
	}
}
