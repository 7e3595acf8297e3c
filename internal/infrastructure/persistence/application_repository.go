package persistence

import (
	"context"
	"time"

	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/freightdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormApplicationRepository implements finance.ApplicationRepository using GORM
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewGormApplicationRepository creates a new GormApplicationRepository
func NewGormApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// FindByNumber finds an application by its number
func (r *GormApplicationRepository) FindByNumber(ctx context.Context, number string) (*finance.Application, error) {
	return r.findByNumber(r.db.WithContext(ctx), number)
}

// FindByNumberForUpdate locks the application row until the transaction ends
func (r *GormApplicationRepository) FindByNumberForUpdate(ctx context.Context, number string) (*finance.Application, error) {
	return r.findByNumber(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), number)
}

func (r *GormApplicationRepository) findByNumber(query *gorm.DB, number string) (*finance.Application, error) {
	var model models.ApplicationModel
	if err := query.Where("number = ?", number).Take(&model).Error; err != nil {
		if err = translateError("find application", err); shared.IsNotFound(err) {
			return nil, finance.ErrApplicationNotFound.WithMessage("Application %s not found", number)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every application, newest first
func (r *GormApplicationRepository) FindAll(ctx context.Context) ([]finance.Application, error) {
	return r.find(r.db.WithContext(ctx).Order("created_at DESC"), "list applications")
}

// FindCreatedBetween returns applications created in [from, to)
func (r *GormApplicationRepository) FindCreatedBetween(ctx context.Context, from, to time.Time) ([]finance.Application, error) {
	return r.find(r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC"), "find applications by date")
}

func (r *GormApplicationRepository) find(query *gorm.DB, op string) ([]finance.Application, error) {
	var rows []models.ApplicationModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(op, err)
	}
	apps := make([]finance.Application, len(rows))
	for i, row := range rows {
		apps[i] = *row.ToDomain()
	}
	return apps, nil
}

// ListNumbers returns the number of every application
func (r *GormApplicationRepository) ListNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&models.ApplicationModel{}).
		Order("number ASC").
		Pluck("number", &numbers).Error; err != nil {
		return nil, translateError("list application numbers", err)
	}
	return numbers, nil
}

// Create inserts a new application. A number collision returns shared.ErrDuplicateKey.
func (r *GormApplicationRepository) Create(ctx context.Context, app *finance.Application) error {
	if err := r.db.WithContext(ctx).Create(models.ApplicationModelFromDomain(app)).Error; err != nil {
		return translateError("create application", err)
	}
	return nil
}

// Save overwrites every column of an existing application
func (r *GormApplicationRepository) Save(ctx context.Context, app *finance.Application) error {
	model := models.ApplicationModelFromDomain(app)
	result := r.db.WithContext(ctx).Model(model).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return translateError("save application", result.Error)
	}
	if result.RowsAffected == 0 {
		return finance.ErrApplicationNotFound.WithMessage("Application %s not found", app.Number)
	}
	return nil
}

// DeleteIfEmpty deletes an active application that no cost references
func (r *GormApplicationRepository) DeleteIfEmpty(ctx context.Context, number string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("number = ? AND status = ?", number, finance.ApplicationStatusActive).
		Where("NOT EXISTS (SELECT 1 FROM costs WHERE costs.application_number = expense_applications.number)").
		Delete(&models.ApplicationModel{})
	if result.Error != nil {
		return 0, translateError("delete empty application", result.Error)
	}
	return result.RowsAffected, nil
}

// LatestNumberWithPrefix returns the greatest number starting with prefix
func (r *GormApplicationRepository) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&models.ApplicationModel{}).
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error; err != nil {
		return "", translateError("latest application number", err)
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

var _ finance.ApplicationRepository = (*GormApplicationRepository)(nil)
