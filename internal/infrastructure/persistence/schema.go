package persistence

import (
	"fmt"

	"github.com/freightdesk/backend/internal/infrastructure/config"
	"github.com/freightdesk/backend/internal/infrastructure/persistence/models"
)

// StoreModels returns the GORM models owned by a store
func StoreModels(store string) []any {
	switch store {
	case config.StoreMain:
		return []any{&models.CustomerModel{}, &models.SupplierModel{}}
	case config.StoreShipment:
		return []any{&models.ShipmentModel{}, &models.SequenceCounterModel{}}
	case config.StoreFinance:
		return []any{&models.CostModel{}, &models.ApplicationModel{}, &models.SequenceCounterModel{}}
	case config.StoreAttachment:
		return []any{&models.AttachmentModel{}}
	default:
		return nil
	}
}

// AutoMigrate creates the store's tables from the GORM models. Postgres
// deployments use the SQL migrations instead; this serves sqlite stores.
func AutoMigrate(db *Database) error {
	tables := StoreModels(db.Name)
	if tables == nil {
		return fmt.Errorf("unknown store %q", db.Name)
	}
	if err := db.DB.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("failed to migrate %s store: %w", db.Name, err)
	}
	return nil
}
