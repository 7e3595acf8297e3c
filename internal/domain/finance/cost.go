package finance

import (
	"strings"
	"time"

	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostType distinguishes money owed to us from money we owe
type CostType string

const (
	CostTypeReceivable CostType = "receivable"
	CostTypePayable    CostType = "payable"
)

// IsValid checks if the type is a valid CostType
func (t CostType) IsValid() bool {
	return t == CostTypeReceivable || t == CostTypePayable
}

// String returns the string representation of CostType
func (t CostType) String() string {
	return string(t)
}

// CostStatus represents where a cost is in the apply/settle lifecycle
type CostStatus string

const (
	CostStatusUnapplied CostStatus = "unapplied"
	CostStatusApplied   CostStatus = "applied"
	CostStatusSettled   CostStatus = "settled"
)

// IsValid checks if the status is a valid CostStatus
func (s CostStatus) IsValid() bool {
	switch s {
	case CostStatusUnapplied, CostStatusApplied, CostStatusSettled:
		return true
	}
	return false
}

// String returns the string representation of CostStatus
func (s CostStatus) String() string {
	return string(s)
}

// RequiresApplication reports whether a cost in this status must carry an
// application number
func (s CostStatus) RequiresApplication() bool {
	return s == CostStatusApplied || s == CostStatusSettled
}

// SettlementUnitType is the kind of partner a cost is settled with
type SettlementUnitType string

const (
	SettlementUnitCustomer SettlementUnitType = "customer"
	SettlementUnitSupplier SettlementUnitType = "supplier"
)

// IsValid checks if the unit type is a valid SettlementUnitType
func (t SettlementUnitType) IsValid() bool {
	return t == SettlementUnitCustomer || t == SettlementUnitSupplier
}

// Cost is a single charge attached to a shipment. It lives in the finance
// store and references its shipment by id only.
type Cost struct {
	shared.BaseEntity
	ShipmentID         uuid.UUID          `json:"shipment_id"`
	Amount             decimal.Decimal    `json:"amount"`
	Currency           string             `json:"currency"`
	Type               CostType           `json:"type"`
	Status             CostStatus         `json:"status"`
	FinancialSubjectID *uuid.UUID         `json:"financial_subject_id"`
	SettlementUnitID   *uuid.UUID         `json:"settlement_unit_id"`
	SettlementUnitType SettlementUnitType `json:"settlement_unit_type"`
	Description        string             `json:"description"`

	ApplicationNumber  *string    `json:"application_number"`
	ApplicationDate    *time.Time `json:"application_date"`
	DueDate            *time.Time `json:"due_date"`
	ApplicationRemarks string     `json:"application_remarks"`

	SettlementDate    *time.Time `json:"settlement_date"`
	SettlementRemarks string     `json:"settlement_remarks"`
}

// CostInput carries the caller-supplied attributes of a new cost
type CostInput struct {
	ShipmentID         uuid.UUID
	Amount             decimal.Decimal
	Currency           string
	Type               CostType
	FinancialSubjectID *uuid.UUID
	SettlementUnitID   *uuid.UUID
	SettlementUnitType SettlementUnitType
	Description        string
}

// NewCost creates a new unapplied cost
func NewCost(in CostInput, now time.Time) (*Cost, error) {
	if !in.Type.IsValid() {
		return nil, ErrInvalidCostType
	}
	if in.SettlementUnitType != "" && !in.SettlementUnitType.IsValid() {
		return nil, ErrInvalidSettlementUnit
	}

	cost := &Cost{
		BaseEntity:         shared.NewBaseEntity(now),
		ShipmentID:         in.ShipmentID,
		Amount:             in.Amount,
		Currency:           strings.ToUpper(strings.TrimSpace(in.Currency)),
		Type:               in.Type,
		Status:             CostStatusUnapplied,
		FinancialSubjectID: in.FinancialSubjectID,
		SettlementUnitID:   in.SettlementUnitID,
		SettlementUnitType: in.SettlementUnitType,
		Description:        strings.TrimSpace(in.Description),
	}
	if !cost.IsComplete() {
		return nil, ErrInvalidCost
	}
	return cost, nil
}

// IsComplete reports whether the cost carries every attribute a valid cost
// needs: financial subject, settlement unit, description, currency and a
// positive amount.
func (c *Cost) IsComplete() bool {
	if c.FinancialSubjectID == nil || *c.FinancialSubjectID == uuid.Nil {
		return false
	}
	if c.SettlementUnitID == nil || *c.SettlementUnitID == uuid.Nil {
		return false
	}
	if strings.TrimSpace(c.Description) == "" || strings.TrimSpace(c.Currency) == "" {
		return false
	}
	return c.Amount.GreaterThan(decimal.Zero)
}

// HasApplicationNumber reports whether the cost is linked to an application
func (c *Cost) HasApplicationNumber() bool {
	return c.ApplicationNumber != nil && *c.ApplicationNumber != ""
}

// BelongsTo reports whether the cost is a member of the given application
func (c *Cost) BelongsTo(number string) bool {
	return c.HasApplicationNumber() && *c.ApplicationNumber == number
}

// HasApplicationFields reports whether any application or settlement field is set
func (c *Cost) HasApplicationFields() bool {
	return c.HasApplicationNumber() ||
		c.ApplicationDate != nil ||
		c.DueDate != nil ||
		c.ApplicationRemarks != "" ||
		c.SettlementDate != nil ||
		c.SettlementRemarks != ""
}

// Apply links an unapplied cost to an application
func (c *Cost) Apply(number string, dueDate *time.Time, remarks string, now time.Time) error {
	if c.Status != CostStatusUnapplied {
		return ErrCostNotUnapplied.WithMessage("Cost %s is %s, only unapplied costs can be applied", c.ID, c.Status)
	}
	applied := now
	c.Status = CostStatusApplied
	c.ApplicationNumber = &number
	c.ApplicationDate = &applied
	c.DueDate = dueDate
	c.ApplicationRemarks = remarks
	c.Touch(now)
	return nil
}

// Unapply reverts the cost to unapplied and clears every application and
// settlement field.
func (c *Cost) Unapply(now time.Time) {
	c.Status = CostStatusUnapplied
	c.ApplicationNumber = nil
	c.ApplicationDate = nil
	c.DueDate = nil
	c.ApplicationRemarks = ""
	c.SettlementDate = nil
	c.SettlementRemarks = ""
	c.Touch(now)
}

// Settle marks an applied cost as settled. A nil date means now.
func (c *Cost) Settle(date *time.Time, remarks string, now time.Time) error {
	if c.Status != CostStatusApplied {
		return ErrCostNotApplied.WithMessage("Cost %s is %s, only applied costs can be settled", c.ID, c.Status)
	}
	settled := now
	if date != nil {
		settled = *date
	}
	c.Status = CostStatusSettled
	c.SettlementDate = &settled
	c.SettlementRemarks = remarks
	c.Touch(now)
	return nil
}

// RevertSettlement moves a settled cost back to applied. It returns false
// and leaves the cost untouched when it is not settled.
func (c *Cost) RevertSettlement(now time.Time) bool {
	if c.Status != CostStatusSettled {
		return false
	}
	c.Status = CostStatusApplied
	c.SettlementDate = nil
	c.SettlementRemarks = ""
	c.Touch(now)
	return true
}
