package models

import (
	"time"

	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostModel is the persistence model for costs in the finance store.
// ShipmentID points into another store and carries no foreign key.
type CostModel struct {
	BaseModel
	ShipmentID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency           string          `gorm:"size:3"`
	Type               string          `gorm:"size:16;not null"`
	Status             string          `gorm:"size:16;not null;index"`
	FinancialSubjectID *uuid.UUID      `gorm:"type:uuid"`
	SettlementUnitID   *uuid.UUID      `gorm:"type:uuid"`
	SettlementUnitType string          `gorm:"size:16"`
	Description        string          `gorm:"type:text"`
	ApplicationNumber  *string         `gorm:"size:32;index"`
	ApplicationDate    *time.Time
	DueDate            *time.Time
	ApplicationRemarks string `gorm:"type:text"`
	SettlementDate     *time.Time
	SettlementRemarks  string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CostModel) TableName() string {
	return "costs"
}

// ToDomain converts the persistence model to a domain Cost
func (m *CostModel) ToDomain() *finance.Cost {
	return &finance.Cost{
		BaseEntity:         m.BaseModel.ToDomain(),
		ShipmentID:         m.ShipmentID,
		Amount:             m.Amount,
		Currency:           m.Currency,
		Type:               finance.CostType(m.Type),
		Status:             finance.CostStatus(m.Status),
		FinancialSubjectID: m.FinancialSubjectID,
		SettlementUnitID:   m.SettlementUnitID,
		SettlementUnitType: finance.SettlementUnitType(m.SettlementUnitType),
		Description:        m.Description,
		ApplicationNumber:  m.ApplicationNumber,
		ApplicationDate:    m.ApplicationDate,
		DueDate:            m.DueDate,
		ApplicationRemarks: m.ApplicationRemarks,
		SettlementDate:     m.SettlementDate,
		SettlementRemarks:  m.SettlementRemarks,
	}
}

// CostModelFromDomain creates a persistence model from a domain Cost
func CostModelFromDomain(c *finance.Cost) *CostModel {
	m := &CostModel{
		ShipmentID:         c.ShipmentID,
		Amount:             c.Amount,
		Currency:           c.Currency,
		Type:               string(c.Type),
		Status:             string(c.Status),
		FinancialSubjectID: c.FinancialSubjectID,
		SettlementUnitID:   c.SettlementUnitID,
		SettlementUnitType: string(c.SettlementUnitType),
		Description:        c.Description,
		ApplicationNumber:  c.ApplicationNumber,
		ApplicationDate:    c.ApplicationDate,
		DueDate:            c.DueDate,
		ApplicationRemarks: c.ApplicationRemarks,
		SettlementDate:     c.SettlementDate,
		SettlementRemarks:  c.SettlementRemarks,
	}
	m.BaseModel.FromDomain(c.BaseEntity)
	return m
}

// ApplicationModel is the persistence model for expense applications
type ApplicationModel struct {
	BaseModel
	Number      string          `gorm:"size:32;not null;uniqueIndex"`
	Type        string          `gorm:"size:16;not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency    string          `gorm:"size:3"`
	CostCount   int             `gorm:"not null;default:0"`
	Status      string          `gorm:"size:16;not null;index"`
	DueDate     *time.Time
	Remarks     string `gorm:"type:text"`
	CanceledAt  *time.Time
}

// TableName returns the table name for GORM
func (ApplicationModel) TableName() string {
	return "expense_applications"
}

// ToDomain converts the persistence model to a domain Application
func (m *ApplicationModel) ToDomain() *finance.Application {
	return &finance.Application{
		BaseEntity:  m.BaseModel.ToDomain(),
		Number:      m.Number,
		Type:        finance.CostType(m.Type),
		TotalAmount: m.TotalAmount,
		Currency:    m.Currency,
		CostCount:   m.CostCount,
		Status:      finance.ApplicationStatus(m.Status),
		DueDate:     m.DueDate,
		Remarks:     m.Remarks,
		CanceledAt:  m.CanceledAt,
	}
}

// ApplicationModelFromDomain creates a persistence model from a domain Application
func ApplicationModelFromDomain(a *finance.Application) *ApplicationModel {
	m := &ApplicationModel{
		Number:      a.Number,
		Type:        string(a.Type),
		TotalAmount: a.TotalAmount,
		Currency:    a.Currency,
		CostCount:   a.CostCount,
		Status:      string(a.Status),
		DueDate:     a.DueDate,
		Remarks:     a.Remarks,
		CanceledAt:  a.CanceledAt,
	}
	m.BaseModel.FromDomain(a.BaseEntity)
	return m
}
