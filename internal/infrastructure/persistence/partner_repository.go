package persistence

import (
	"context"

	"github.com/freightdesk/backend/internal/domain/partner"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/freightdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ==================== Customers ====================

// GormCustomerRepository implements partner.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err = translateError("find customer", err); shared.IsNotFound(err) {
			return nil, partner.ErrPartnerNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByCode reports whether a customer already uses code
func (r *GormCustomerRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return existsByCode(ctx, r.db, &models.CustomerModel{}, code)
}

// Create inserts a customer
func (r *GormCustomerRepository) Create(ctx context.Context, c *partner.Customer) error {
	if err := r.db.WithContext(ctx).Create(models.CustomerModelFromDomain(c)).Error; err != nil {
		return translateError("create customer", err)
	}
	return nil
}

// ==================== Suppliers ====================

// GormSupplierRepository implements partner.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by its ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var model models.SupplierModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err = translateError("find supplier", err); shared.IsNotFound(err) {
			return nil, partner.ErrPartnerNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByCode reports whether a supplier already uses code
func (r *GormSupplierRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return existsByCode(ctx, r.db, &models.SupplierModel{}, code)
}

// Create inserts a supplier
func (r *GormSupplierRepository) Create(ctx context.Context, s *partner.Supplier) error {
	if err := r.db.WithContext(ctx).Create(models.SupplierModelFromDomain(s)).Error; err != nil {
		return translateError("create supplier", err)
	}
	return nil
}

func existsByCode(ctx context.Context, db *gorm.DB, model any, code string) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(model).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, translateError("check partner code", err)
	}
	return count > 0, nil
}

var (
	_ partner.CustomerRepository = (*GormCustomerRepository)(nil)
	_ partner.SupplierRepository = (*GormSupplierRepository)(nil)
)
