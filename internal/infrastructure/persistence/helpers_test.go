package persistence

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

// newSQLiteDatabase opens a migrated in-memory store
func newSQLiteDatabase(t *testing.T, store string) *Database {
	t.Helper()
	db, err := NewDatabase(store, &config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newMockGormDB opens GORM on a sqlmock connection with the postgres dialect
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	return gormDB, mock
}

func newTestCost(t *testing.T, shipmentID uuid.UUID, amount int64) *finance.Cost {
	t.Helper()
	subject := uuid.New()
	unit := uuid.New()
	c, err := finance.NewCost(finance.CostInput{
		ShipmentID:         shipmentID,
		Amount:             decimal.NewFromInt(amount),
		Currency:           "USD",
		Type:               finance.CostTypePayable,
		FinancialSubjectID: &subject,
		SettlementUnitID:   &unit,
		SettlementUnitType: finance.SettlementUnitSupplier,
		Description:        "Trucking",
	}, testNow)
	require.NoError(t, err)
	return c
}
