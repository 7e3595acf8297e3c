package persistence

import (
	"context"

	"github.com/freightdesk/backend/internal/domain/finance"
	"gorm.io/gorm"
)

// GormFinanceTransactionScope runs finance repository work in one
// transaction of the finance store.
type GormFinanceTransactionScope struct {
	db *gorm.DB
}

// NewGormFinanceTransactionScope creates a new GormFinanceTransactionScope
func NewGormFinanceTransactionScope(db *gorm.DB) *GormFinanceTransactionScope {
	return &GormFinanceTransactionScope{db: db}
}

// Execute runs fn inside a transaction. An error from fn rolls back and is
// returned as is.
func (s *GormFinanceTransactionScope) Execute(ctx context.Context, fn func(repos finance.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormFinanceRepositories{tx: tx})
	})
	return translateError("finance transaction", err)
}

type gormFinanceRepositories struct {
	tx *gorm.DB
}

// CostRepo returns the cost repository bound to the transaction
func (r *gormFinanceRepositories) CostRepo() finance.CostRepository {
	return NewGormCostRepository(r.tx)
}

// ApplicationRepo returns the application repository bound to the transaction
func (r *gormFinanceRepositories) ApplicationRepo() finance.ApplicationRepository {
	return NewGormApplicationRepository(r.tx)
}

var (
	_ finance.TransactionScope          = (*GormFinanceTransactionScope)(nil)
	_ finance.TransactionalRepositories = (*gormFinanceRepositories)(nil)
)
