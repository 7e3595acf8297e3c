package persistence

import (
	"context"
	"time"

	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/freightdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// unlinkedCondition matches costs without an application number
const unlinkedCondition = "(application_number IS NULL OR application_number = '')"

// GormCostRepository implements finance.CostRepository using GORM
type GormCostRepository struct {
	db *gorm.DB
}

// NewGormCostRepository creates a new GormCostRepository
func NewGormCostRepository(db *gorm.DB) *GormCostRepository {
	return &GormCostRepository{db: db}
}

// ==================== Reads ====================

// FindByID finds a cost by its ID
func (r *GormCostRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Cost, error) {
	var model models.CostModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err = translateError("find cost", err); shared.IsNotFound(err) {
			return nil, finance.ErrCostNotFound.WithMessage("Cost %s not found", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the costs that exist among ids
func (r *GormCostRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]finance.Cost, error) {
	return r.findByIDs(ctx, ids, false)
}

// FindByIDsForUpdate locks the rows it returns until the transaction ends.
// Rows are locked in ID order so concurrent callers cannot deadlock.
func (r *GormCostRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]finance.Cost, error) {
	return r.findByIDs(ctx, ids, true)
}

func (r *GormCostRepository) findByIDs(ctx context.Context, ids []uuid.UUID, lock bool) ([]finance.Cost, error) {
	if len(ids) == 0 {
		return []finance.Cost{}, nil
	}
	query := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC")
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.find(query, "find costs")
}

// FindByShipment finds the costs of one shipment
func (r *GormCostRepository) FindByShipment(ctx context.Context, shipmentID uuid.UUID) ([]finance.Cost, error) {
	return r.find(r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC"), "find shipment costs")
}

// FindByApplicationNumber finds the members of an application
func (r *GormCostRepository) FindByApplicationNumber(ctx context.Context, number string) ([]finance.Cost, error) {
	return r.find(r.db.WithContext(ctx).
		Where("application_number = ?", number).
		Order("created_at ASC"), "find application costs")
}

// FindByStatus finds costs in the given status
func (r *GormCostRepository) FindByStatus(ctx context.Context, status finance.CostStatus) ([]finance.Cost, error) {
	return r.find(r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC"), "find costs by status")
}

// FindAll returns every cost
func (r *GormCostRepository) FindAll(ctx context.Context) ([]finance.Cost, error) {
	return r.find(r.db.WithContext(ctx).Order("created_at ASC"), "list costs")
}

func (r *GormCostRepository) find(query *gorm.DB, op string) ([]finance.Cost, error) {
	var rows []models.CostModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(op, err)
	}
	costs := make([]finance.Cost, len(rows))
	for i, row := range rows {
		costs[i] = *row.ToDomain()
	}
	return costs, nil
}

// ==================== Writes ====================

// Create inserts a new cost
func (r *GormCostRepository) Create(ctx context.Context, cost *finance.Cost) error {
	if err := r.db.WithContext(ctx).Create(models.CostModelFromDomain(cost)).Error; err != nil {
		return translateError("create cost", err)
	}
	return nil
}

// Save overwrites every column of an existing cost. A cost that no longer
// exists is reported as not found rather than re-inserted.
func (r *GormCostRepository) Save(ctx context.Context, cost *finance.Cost) error {
	model := models.CostModelFromDomain(cost)
	result := r.db.WithContext(ctx).Model(model).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return translateError("save cost", result.Error)
	}
	if result.RowsAffected == 0 {
		return finance.ErrCostNotFound.WithMessage("Cost %s not found", cost.ID)
	}
	return nil
}

// SaveAll saves several costs
func (r *GormCostRepository) SaveAll(ctx context.Context, costs []finance.Cost) error {
	for i := range costs {
		if err := r.Save(ctx, &costs[i]); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a cost
func (r *GormCostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CostModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError("delete cost", result.Error)
	}
	if result.RowsAffected == 0 {
		return finance.ErrCostNotFound.WithMessage("Cost %s not found", id)
	}
	return nil
}

// DeleteByShipment removes every cost of a shipment
func (r *GormCostRepository) DeleteByShipment(ctx context.Context, shipmentID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.CostModel{}, "shipment_id = ?", shipmentID)
	if result.Error != nil {
		return 0, translateError("delete shipment costs", result.Error)
	}
	return result.RowsAffected, nil
}

// ClearApplicationLink resets a cost to a clean unapplied state if it still
// carries number. An empty number targets an unapplied cost holding stale
// application or settlement fields.
func (r *GormCostRepository) ClearApplicationLink(ctx context.Context, id uuid.UUID, number string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CostModel{}).Where("id = ?", id)
	if number == "" {
		query = query.Where("status = ?", finance.CostStatusUnapplied)
	} else {
		query = query.Where("application_number = ?", number)
	}
	result := query.Updates(unappliedColumns())
	if result.Error != nil {
		return 0, translateError("clear application link", result.Error)
	}
	return result.RowsAffected, nil
}

// NormalizeUnlinked moves a cost without application number one step back:
// settled becomes applied, applied becomes unapplied.
func (r *GormCostRepository) NormalizeUnlinked(ctx context.Context, id uuid.UUID, from finance.CostStatus) (int64, error) {
	var columns map[string]any
	switch from {
	case finance.CostStatusSettled:
		columns = map[string]any{
			"status":             finance.CostStatusApplied,
			"settlement_date":    nil,
			"settlement_remarks": "",
			"updated_at":         time.Now(),
		}
	case finance.CostStatusApplied:
		columns = unappliedColumns()
	default:
		return 0, shared.ErrInvalidInput.WithMessage("cannot normalize costs in status %s", from)
	}

	result := r.db.WithContext(ctx).Model(&models.CostModel{}).
		Where("id = ? AND status = ?", id, from).
		Where(unlinkedCondition).
		Updates(columns)
	if result.Error != nil {
		return 0, translateError("normalize cost status", result.Error)
	}
	return result.RowsAffected, nil
}

func unappliedColumns() map[string]any {
	return map[string]any{
		"status":              finance.CostStatusUnapplied,
		"application_number":  nil,
		"application_date":    nil,
		"due_date":            nil,
		"application_remarks": "",
		"settlement_date":     nil,
		"settlement_remarks":  "",
		"updated_at":          time.Now(),
	}
}

var _ finance.CostRepository = (*GormCostRepository)(nil)
