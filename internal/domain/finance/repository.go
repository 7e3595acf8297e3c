package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CostRepository defines the interface for cost persistence in the finance store
type CostRepository interface {
	// FindByID finds a cost by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Cost, error)

	// FindByIDs returns the costs that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Cost, error)

	// FindByIDsForUpdate is FindByIDs with a row lock, for use inside a transaction
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Cost, error)

	// FindByShipment finds the costs of one shipment
	FindByShipment(ctx context.Context, shipmentID uuid.UUID) ([]Cost, error)

	// FindByApplicationNumber finds the members of an application
	FindByApplicationNumber(ctx context.Context, number string) ([]Cost, error)

	// FindByStatus finds costs in the given status
	FindByStatus(ctx context.Context, status CostStatus) ([]Cost, error)

	// FindAll returns every cost
	FindAll(ctx context.Context) ([]Cost, error)

	// Create inserts a new cost
	Create(ctx context.Context, cost *Cost) error

	// Save updates an existing cost
	Save(ctx context.Context, cost *Cost) error

	// SaveAll updates several costs
	SaveAll(ctx context.Context, costs []Cost) error

	// Delete removes a cost
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByShipment removes every cost of a shipment and returns the count
	DeleteByShipment(ctx context.Context, shipmentID uuid.UUID) (int64, error)

	// ClearApplicationLink resets a cost to unapplied only if it still carries
	// the expected application number. It returns the affected row count.
	ClearApplicationLink(ctx context.Context, id uuid.UUID, number string) (int64, error)

	// NormalizeUnlinked fixes a cost that is in status from with no
	// application number, if it is still in that state.
	NormalizeUnlinked(ctx context.Context, id uuid.UUID, from CostStatus) (int64, error)
}

// ApplicationRepository defines the interface for expense application persistence
type ApplicationRepository interface {
	// FindByNumber finds an application by its number
	FindByNumber(ctx context.Context, number string) (*Application, error)

	// FindByNumberForUpdate is FindByNumber with a row lock
	FindByNumberForUpdate(ctx context.Context, number string) (*Application, error)

	// FindAll returns every application
	FindAll(ctx context.Context) ([]Application, error)

	// FindCreatedBetween returns applications created in [from, to)
	FindCreatedBetween(ctx context.Context, from, to time.Time) ([]Application, error)

	// ListNumbers returns the number of every application
	ListNumbers(ctx context.Context) ([]string, error)

	// Create inserts a new application
	Create(ctx context.Context, app *Application) error

	// Save updates an existing application
	Save(ctx context.Context, app *Application) error

	// DeleteIfEmpty deletes an active application only if no cost references it
	DeleteIfEmpty(ctx context.Context, number string) (int64, error)

	// LatestNumberWithPrefix returns the greatest number starting with prefix,
	// or an empty string
	LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error)
}

// TransactionalRepositories exposes the finance repositories bound to one
// transaction.
type TransactionalRepositories interface {
	CostRepo() CostRepository
	ApplicationRepo() ApplicationRepository
}

// TransactionScope runs fn inside a single finance-store transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
