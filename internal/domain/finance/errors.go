package finance

import "github.com/freightdesk/backend/internal/domain/shared"

// MaxApplicationSize is the largest number of costs one application may group
const MaxApplicationSize = 50

// Lifecycle failure reasons
var (
	ErrCostNotFound          = shared.NewDomainError(shared.KindNotFound, "COST_NOT_FOUND", "Cost not found")
	ErrApplicationNotFound   = shared.NewDomainError(shared.KindNotFound, "APPLICATION_NOT_FOUND", "Expense application not found")
	ErrEmptySelection        = shared.NewDomainError(shared.KindPreconditionViolation, "EMPTY_SELECTION", "At least one cost must be selected")
	ErrBatchLimitExceeded    = shared.NewDomainError(shared.KindPreconditionViolation, "BATCH_LIMIT_EXCEEDED", "An application may contain at most 50 costs")
	ErrCostNotUnapplied      = shared.NewDomainError(shared.KindPreconditionViolation, "COST_NOT_UNAPPLIED", "Only unapplied costs can be applied")
	ErrCostNotApplied        = shared.NewDomainError(shared.KindPreconditionViolation, "COST_NOT_APPLIED", "Only applied costs can be settled")
	ErrMixedCostType         = shared.NewDomainError(shared.KindPreconditionViolation, "MIXED_COST_TYPE", "Costs in one application must share a type")
	ErrMixedCurrency         = shared.NewDomainError(shared.KindPreconditionViolation, "MIXED_CURRENCY", "Costs in one application must share a currency")
	ErrAlreadyCanceled       = shared.NewDomainError(shared.KindPreconditionViolation, "APPLICATION_ALREADY_CANCELED", "Expense application is already canceled")
	ErrContainsSettledCost   = shared.NewDomainError(shared.KindPreconditionViolation, "APPLICATION_HAS_SETTLED_COST", "Expense application contains a settled cost")
	ErrNothingToRevert       = shared.NewDomainError(shared.KindPreconditionViolation, "NOTHING_TO_REVERT", "None of the selected costs is settled")
	ErrInvalidCost           = shared.NewDomainError(shared.KindPreconditionViolation, "INVALID_COST", "Cost is missing required attributes")
	ErrInvalidCostType       = shared.NewDomainError(shared.KindPreconditionViolation, "INVALID_COST_TYPE", "Cost type must be receivable or payable")
	ErrInvalidSettlementUnit = shared.NewDomainError(shared.KindPreconditionViolation, "INVALID_SETTLEMENT_UNIT", "Settlement unit must be a customer or supplier")
)
