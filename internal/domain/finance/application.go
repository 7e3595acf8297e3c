package finance

import (
	"time"

	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ApplicationStatus represents the status of an expense application
type ApplicationStatus string

const (
	ApplicationStatusActive   ApplicationStatus = "active"
	ApplicationStatusCanceled ApplicationStatus = "canceled"
)

// IsValid checks if the status is a valid ApplicationStatus
func (s ApplicationStatus) IsValid() bool {
	return s == ApplicationStatusActive || s == ApplicationStatusCanceled
}

// String returns the string representation of ApplicationStatus
func (s ApplicationStatus) String() string {
	return string(s)
}

// Application is an expense application: the aggregate over every cost that
// carries its number. Totals are derived and are rebuilt from the members.
type Application struct {
	shared.BaseEntity
	Number      string            `json:"number"`
	Type        CostType          `json:"type"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Currency    string            `json:"currency"`
	CostCount   int               `json:"cost_count"`
	Status      ApplicationStatus `json:"status"`
	DueDate     *time.Time        `json:"due_date"`
	Remarks     string            `json:"remarks"`
	CanceledAt  *time.Time        `json:"canceled_at"`
}

// ValidateSelection checks that a set of costs can be grouped into one
// application. Existence is the caller's concern.
func ValidateSelection(costs []Cost) error {
	if len(costs) == 0 {
		return ErrEmptySelection
	}
	if len(costs) > MaxApplicationSize {
		return ErrBatchLimitExceeded.WithMessage("An application may contain at most %d costs, got %d", MaxApplicationSize, len(costs))
	}
	first := costs[0]
	for i := range costs {
		c := &costs[i]
		if c.Status != CostStatusUnapplied {
			return ErrCostNotUnapplied.WithMessage("Cost %s is %s, only unapplied costs can be applied", c.ID, c.Status)
		}
		if c.Type != first.Type {
			return ErrMixedCostType
		}
		if c.Currency != first.Currency {
			return ErrMixedCurrency
		}
	}
	return nil
}

// NewApplication creates an active application over the given costs and
// links each of them. The costs are modified in place.
func NewApplication(number string, costs []Cost, dueDate *time.Time, remarks string, now time.Time) (*Application, error) {
	if number == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Application number cannot be empty")
	}
	if err := ValidateSelection(costs); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range costs {
		total = total.Add(costs[i].Amount)
		if err := costs[i].Apply(number, dueDate, remarks, now); err != nil {
			return nil, err
		}
	}

	return &Application{
		BaseEntity:  shared.NewBaseEntity(now),
		Number:      number,
		Type:        costs[0].Type,
		TotalAmount: total,
		Currency:    costs[0].Currency,
		CostCount:   len(costs),
		Status:      ApplicationStatusActive,
		DueDate:     dueDate,
		Remarks:     remarks,
	}, nil
}

// IsCanceled returns true if the application has been canceled
func (a *Application) IsCanceled() bool {
	return a.Status == ApplicationStatusCanceled
}

// Cancel cancels the application and unlinks its members. The members are
// modified in place; nothing is changed when a precondition fails.
func (a *Application) Cancel(members []Cost, now time.Time) error {
	if a.IsCanceled() {
		return ErrAlreadyCanceled
	}
	for i := range members {
		if members[i].Status == CostStatusSettled {
			return ErrContainsSettledCost.WithMessage("Expense application %s contains settled cost %s", a.Number, members[i].ID)
		}
	}

	canceled := now
	a.Status = ApplicationStatusCanceled
	a.CanceledAt = &canceled
	a.Touch(now)
	for i := range members {
		members[i].Unapply(now)
	}
	return nil
}

// RebuildAction is the outcome of recomputing an application from its members
type RebuildAction string

const (
	RebuildNone   RebuildAction = "none"
	RebuildDelete RebuildAction = "delete"
	RebuildZero   RebuildAction = "zero"
	RebuildUpdate RebuildAction = "update"
)

// Rebuild recomputes totals from the current members. An active application
// with no members should be deleted; a canceled one keeps its row with
// zeroed totals. RebuildNone means the stored aggregate is already correct.
func (a *Application) Rebuild(members []Cost, now time.Time) RebuildAction {
	if len(members) == 0 {
		if !a.IsCanceled() {
			return RebuildDelete
		}
		if a.TotalAmount.IsZero() && a.CostCount == 0 {
			return RebuildNone
		}
		a.TotalAmount = decimal.Zero
		a.CostCount = 0
		a.Touch(now)
		return RebuildZero
	}

	total := decimal.Zero
	for i := range members {
		total = total.Add(members[i].Amount)
	}
	currency := members[0].Currency
	if total.Equal(a.TotalAmount) && a.CostCount == len(members) && a.Currency == currency {
		return RebuildNone
	}
	a.TotalAmount = total
	a.Currency = currency
	a.CostCount = len(members)
	a.Touch(now)
	return RebuildUpdate
}
