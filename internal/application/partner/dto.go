package partner

import (
	"time"

	"github.com/freightdesk/backend/internal/domain/partner"
	"github.com/google/uuid"
)

// =============================================================================
// Partner DTOs
// =============================================================================

// CreatePartnerRequest represents a request to create a customer or supplier.
// The code is always generated.
type CreatePartnerRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=200"`
	ContactName  string `json:"contact_name" binding:"max=100"`
	ContactPhone string `json:"contact_phone" binding:"max=50"`
	Email        string `json:"email" binding:"omitempty,email,max=200"`
	Address      string `json:"address" binding:"max=500"`
}

// PartnerResponse represents a customer or supplier in API responses
type PartnerResponse struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	ContactName  string    `json:"contact_name,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r CreatePartnerRequest) details() partner.Details {
	return partner.Details{
		Name:         r.Name,
		ContactName:  r.ContactName,
		ContactPhone: r.ContactPhone,
		Email:        r.Email,
		Address:      r.Address,
	}
}

// ToPartnerResponse converts a domain Partner to PartnerResponse
func ToPartnerResponse(kind partner.Kind, p *partner.Partner) PartnerResponse {
	return PartnerResponse{
		ID:           p.ID,
		Kind:         string(kind),
		Code:         p.Code,
		Name:         p.Name,
		ContactName:  p.ContactName,
		ContactPhone: p.ContactPhone,
		Email:        p.Email,
		Address:      p.Address,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
