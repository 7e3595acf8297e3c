package partner

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

var codePattern = regexp.MustCompile(`^[1-9]\d{6}$`)

// ErrPartnerNotFound is returned when a customer or supplier id matches nothing
var ErrPartnerNotFound = shared.NewDomainError(shared.KindNotFound, "PARTNER_NOT_FOUND", "Partner not found")

// Kind distinguishes customers from suppliers
type Kind string

const (
	KindCustomer Kind = "customer"
	KindSupplier Kind = "supplier"
)

// Partner holds the attributes customers and suppliers share. Code is a
// random 7-digit number, unique per kind.
type Partner struct {
	shared.BaseEntity
	Code         string `json:"code"`
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	Email        string `json:"email"`
	Address      string `json:"address"`
}

// Customer is a partner we invoice
type Customer struct {
	Partner
}

// Supplier is a partner we pay
type Supplier struct {
	Partner
}

// Details carries the caller-supplied attributes of a new partner
type Details struct {
	Name         string
	ContactName  string
	ContactPhone string
	Email        string
	Address      string
}

func newPartner(code string, d Details, now time.Time) (Partner, error) {
	if !IsValidCode(code) {
		return Partner{}, shared.ErrInvalidInput.WithMessage("Partner code must be 7 digits, got %q", code)
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Partner{}, shared.ErrInvalidInput.WithMessage("Partner name cannot be empty")
	}
	return Partner{
		BaseEntity:   shared.NewBaseEntity(now),
		Code:         code,
		Name:         name,
		ContactName:  strings.TrimSpace(d.ContactName),
		ContactPhone: strings.TrimSpace(d.ContactPhone),
		Email:        strings.TrimSpace(d.Email),
		Address:      strings.TrimSpace(d.Address),
	}, nil
}

// NewCustomer creates a customer with an already minted code
func NewCustomer(code string, d Details, now time.Time) (*Customer, error) {
	p, err := newPartner(code, d, now)
	if err != nil {
		return nil, err
	}
	return &Customer{Partner: p}, nil
}

// NewSupplier creates a supplier with an already minted code
func NewSupplier(code string, d Details, now time.Time) (*Supplier, error) {
	p, err := newPartner(code, d, now)
	if err != nil {
		return nil, err
	}
	return &Supplier{Partner: p}, nil
}

// IsValidCode reports whether code is a 7-digit partner code
func IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// CustomerRepository defines customer persistence in the main store
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, c *Customer) error
}

// SupplierRepository defines supplier persistence in the main store
type SupplierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, s *Supplier) error
}
