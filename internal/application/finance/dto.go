package finance

import (
	"time"

	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Requests ====================

// ApplyRequest groups unapplied costs into a new expense application
type ApplyRequest struct {
	CostIDs []uuid.UUID `json:"cost_ids" binding:"required,min=1,max=50,dive,required"`
	DueDate *time.Time  `json:"due_date"`
	Remarks string      `json:"remarks" binding:"max=500"`
}

// SettleRequest settles applied costs
type SettleRequest struct {
	CostIDs        []uuid.UUID `json:"cost_ids" binding:"required,min=1,dive,required"`
	SettlementDate *time.Time  `json:"settlement_date"`
	Remarks        string      `json:"remarks" binding:"max=500"`
}

// CancelSettlementRequest reverts settled costs to applied
type CancelSettlementRequest struct {
	CostIDs []uuid.UUID `json:"cost_ids" binding:"required,min=1,dive,required"`
}

// CreateCostRequest registers a cost against a shipment
type CreateCostRequest struct {
	ShipmentID         uuid.UUID       `json:"shipment_id" binding:"required"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	Currency           string          `json:"currency" binding:"required,len=3"`
	Type               string          `json:"type" binding:"required,oneof=receivable payable"`
	FinancialSubjectID *uuid.UUID      `json:"financial_subject_id" binding:"required"`
	SettlementUnitID   *uuid.UUID      `json:"settlement_unit_id" binding:"required"`
	SettlementUnitType string          `json:"settlement_unit_type" binding:"omitempty,oneof=customer supplier"`
	Description        string          `json:"description" binding:"required,max=255"`
}

// ListApplicationsQuery selects applications by creation time
type ListApplicationsQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// ==================== Responses ====================

// CostResponse represents a cost in API responses
type CostResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ShipmentID         uuid.UUID       `json:"shipment_id"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Type               string          `json:"type"`
	Status             string          `json:"status"`
	FinancialSubjectID *uuid.UUID      `json:"financial_subject_id,omitempty"`
	SettlementUnitID   *uuid.UUID      `json:"settlement_unit_id,omitempty"`
	SettlementUnitType string          `json:"settlement_unit_type,omitempty"`
	Description        string          `json:"description"`
	ApplicationNumber  string          `json:"application_number,omitempty"`
	ApplicationDate    *time.Time      `json:"application_date,omitempty"`
	DueDate            *time.Time      `json:"due_date,omitempty"`
	ApplicationRemarks string          `json:"application_remarks,omitempty"`
	SettlementDate     *time.Time      `json:"settlement_date,omitempty"`
	SettlementRemarks  string          `json:"settlement_remarks,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ApplicationResponse represents an expense application in API responses
type ApplicationResponse struct {
	Number      string          `json:"number"`
	Type        string          `json:"type"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	CostCount   int             `json:"cost_count"`
	Status      string          `json:"status"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Remarks     string          `json:"remarks,omitempty"`
	CanceledAt  *time.Time      `json:"canceled_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Costs       []CostResponse  `json:"costs,omitempty"`
}

// ReconcileResponse reports the outcome of a sweep or a preview
type ReconcileResponse struct {
	finance.ReconcileReport
	Total  int  `json:"total"`
	DryRun bool `json:"dry_run"`
}

// ToCostResponse converts a domain Cost to CostResponse
func ToCostResponse(c *finance.Cost) CostResponse {
	resp := CostResponse{
		ID:                 c.ID,
		ShipmentID:         c.ShipmentID,
		Amount:             c.Amount,
		Currency:           c.Currency,
		Type:               c.Type.String(),
		Status:             c.Status.String(),
		FinancialSubjectID: c.FinancialSubjectID,
		SettlementUnitID:   c.SettlementUnitID,
		SettlementUnitType: string(c.SettlementUnitType),
		Description:        c.Description,
		ApplicationDate:    c.ApplicationDate,
		DueDate:            c.DueDate,
		ApplicationRemarks: c.ApplicationRemarks,
		SettlementDate:     c.SettlementDate,
		SettlementRemarks:  c.SettlementRemarks,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	if c.HasApplicationNumber() {
		resp.ApplicationNumber = *c.ApplicationNumber
	}
	return resp
}

// ToCostResponses converts a slice of domain Costs
func ToCostResponses(costs []finance.Cost) []CostResponse {
	responses := make([]CostResponse, len(costs))
	for i := range costs {
		responses[i] = ToCostResponse(&costs[i])
	}
	return responses
}

// ToApplicationResponse converts a domain Application to ApplicationResponse
func ToApplicationResponse(a *finance.Application, members []finance.Cost) ApplicationResponse {
	resp := ApplicationResponse{
		Number:      a.Number,
		Type:        a.Type.String(),
		TotalAmount: a.TotalAmount,
		Currency:    a.Currency,
		CostCount:   a.CostCount,
		Status:      a.Status.String(),
		DueDate:     a.DueDate,
		Remarks:     a.Remarks,
		CanceledAt:  a.CanceledAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if len(members) > 0 {
		resp.Costs = ToCostResponses(members)
	}
	return resp
}

// ToReconcileResponse wraps a report
func ToReconcileResponse(report finance.ReconcileReport, dryRun bool) ReconcileResponse {
	return ReconcileResponse{ReconcileReport: report, Total: report.Total(), DryRun: dryRun}
}
