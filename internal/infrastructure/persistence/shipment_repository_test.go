package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/freightdesk/backend/internal/domain/attachment"
	"github.com/freightdesk/backend/internal/domain/partner"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/freightdesk/backend/internal/domain/shipment"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormShipmentRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create, find and delete", func(t *testing.T) {
		repo := NewGormShipmentRepository(newSQLiteDatabase(t, "shipment").DB)
		customer := uuid.New()
		s, err := shipment.NewShipment("Rsl-250101001", &customer, "Bangkok", "Shanghai", "", testNow)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, s))

		found, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rsl-250101001", found.Code)
		require.NotNil(t, found.CustomerID)
		assert.Equal(t, customer, *found.CustomerID)

		exists, err := repo.Exists(ctx, s.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		ids, err := repo.ListIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{s.ID}, ids)

		require.NoError(t, repo.Delete(ctx, s.ID))
		_, err = repo.FindByID(ctx, s.ID)
		assert.ErrorIs(t, err, shipment.ErrShipmentNotFound)
		require.NoError(t, repo.Delete(ctx, s.ID))
	})

	t.Run("duplicate code", func(t *testing.T) {
		repo := NewGormShipmentRepository(newSQLiteDatabase(t, "shipment").DB)
		first, err := shipment.NewShipment("Rsl-250101001", nil, "", "", "", testNow)
		require.NoError(t, err)
		second, err := shipment.NewShipment("Rsl-250101001", nil, "", "", "", testNow)
		require.NoError(t, err)

		require.NoError(t, repo.Create(ctx, first))
		assert.ErrorIs(t, repo.Create(ctx, second), shared.ErrDuplicateKey)
	})

	t.Run("latest code with prefix", func(t *testing.T) {
		repo := NewGormShipmentRepository(newSQLiteDatabase(t, "shipment").DB)
		for _, code := range []string{"Rsl-250101002", "Rsl-250101010", "Rsl-250102001"} {
			s, err := shipment.NewShipment(code, nil, "", "", "", testNow)
			require.NoError(t, err)
			require.NoError(t, repo.Create(ctx, s))
		}

		latest, err := repo.LatestCodeWithPrefix(ctx, "Rsl-250101")
		require.NoError(t, err)
		assert.Equal(t, "Rsl-250101010", latest)
	})

	t.Run("postgres unique violation maps to duplicate key", func(t *testing.T) {
		gormDB, mock := newMockGormDB(t)
		repo := NewGormShipmentRepository(gormDB)
		s, err := shipment.NewShipment("Rsl-250101001", nil, "", "", "", testNow)
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "shipments"`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_shipments_code"})

		err = repo.Create(ctx, s)
		assert.ErrorIs(t, err, shared.ErrDuplicateKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exists query", func(t *testing.T) {
		gormDB, mock := newMockGormDB(t)
		repo := NewGormShipmentRepository(gormDB)
		id := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "shipments" WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPartnerRepositories(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDatabase(t, "main")
	customers := NewGormCustomerRepository(db.DB)
	suppliers := NewGormSupplierRepository(db.DB)

	c, err := partner.NewCustomer("1234567", partner.Details{Name: "Siam Trading"}, testNow)
	require.NoError(t, err)
	require.NoError(t, customers.Create(ctx, c))

	found, err := customers.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Siam Trading", found.Name)

	taken, err := customers.ExistsByCode(ctx, "1234567")
	require.NoError(t, err)
	assert.True(t, taken)

	// Customer and supplier codes are separate namespaces
	taken, err = suppliers.ExistsByCode(ctx, "1234567")
	require.NoError(t, err)
	assert.False(t, taken)

	s, err := partner.NewSupplier("1234567", partner.Details{Name: "Blue Line"}, testNow)
	require.NoError(t, err)
	require.NoError(t, suppliers.Create(ctx, s))

	dup, err := partner.NewSupplier("1234567", partner.Details{Name: "Copy"}, testNow)
	require.NoError(t, err)
	assert.ErrorIs(t, suppliers.Create(ctx, dup), shared.ErrDuplicateKey)

	_, err = suppliers.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, partner.ErrPartnerNotFound)
}

func TestGormAttachmentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAttachmentRepository(newSQLiteDatabase(t, "attachment").DB)
	shipmentID := uuid.New()

	for _, name := range []string{"invoice.pdf", "bl.pdf"} {
		a, err := attachment.NewAttachment(shipmentID, name, "application/pdf", 100, testNow)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, a))
	}
	other, err := attachment.NewAttachment(uuid.New(), "other.pdf", "application/pdf", 1, testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, other))

	found, err := repo.FindByShipment(ctx, shipmentID)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	n, err := repo.DeleteByShipment(ctx, shipmentID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	found, err = repo.FindByShipment(ctx, shipmentID)
	require.NoError(t, err)
	assert.Empty(t, found)
}
