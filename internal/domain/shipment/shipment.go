package shipment

import (
	"context"
	"strings"
	"time"

	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrShipmentNotFound is returned when a shipment id matches nothing
var ErrShipmentNotFound = shared.NewDomainError(shared.KindNotFound, "SHIPMENT_NOT_FOUND", "Shipment not found")

// Shipment is a freight booking. Costs in the finance store reference it
// by id only, so deleting one leaves orphans for reconciliation to remove.
type Shipment struct {
	shared.BaseEntity
	Code        string     `json:"code"`
	CustomerID  *uuid.UUID `json:"customer_id"`
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	Remarks     string     `json:"remarks"`
}

// NewShipment creates a shipment with an already minted code
func NewShipment(code string, customerID *uuid.UUID, origin, destination, remarks string, now time.Time) (*Shipment, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Shipment code cannot be empty")
	}
	return &Shipment{
		BaseEntity:  shared.NewBaseEntity(now),
		Code:        code,
		CustomerID:  customerID,
		Origin:      strings.TrimSpace(origin),
		Destination: strings.TrimSpace(destination),
		Remarks:     remarks,
	}, nil
}

// Repository defines shipment persistence in the shipment store
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// LatestCodeWithPrefix returns the greatest code starting with prefix,
	// or an empty string when there is none
	LatestCodeWithPrefix(ctx context.Context, prefix string) (string, error)

	// Create inserts a shipment. A code collision returns shared.ErrDuplicateKey.
	Create(ctx context.Context, s *Shipment) error
	Delete(ctx context.Context, id uuid.UUID) error
}
