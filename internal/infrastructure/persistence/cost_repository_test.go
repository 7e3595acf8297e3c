package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCostRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		repo := NewGormCostRepository(newSQLiteDatabase(t, "finance").DB)
		shipmentID := uuid.New()
		c := newTestCost(t, shipmentID, 120)
		require.NoError(t, repo.Create(ctx, c))

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)
		assert.True(t, c.Amount.Equal(found.Amount))
		assert.Equal(t, finance.CostStatusUnapplied, found.Status)
		assert.Nil(t, found.ApplicationNumber)

		byShipment, err := repo.FindByShipment(ctx, shipmentID)
		require.NoError(t, err)
		assert.Len(t, byShipment, 1)
	})

	t.Run("missing cost is not found", func(t *testing.T) {
		repo := NewGormCostRepository(newSQLiteDatabase(t, "finance").DB)
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, finance.ErrCostNotFound)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("find by ids skips unknown ids", func(t *testing.T) {
		repo := NewGormCostRepository(newSQLiteDatabase(t, "finance").DB)
		a := newTestCost(t, uuid.New(), 10)
		b := newTestCost(t, uuid.New(), 20)
		require.NoError(t, repo.Create(ctx, a))
		require.NoError(t, repo.Create(ctx, b))

		found, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, found, 2)

		none, err := repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("save overwrites and refuses missing rows", func(t *testing.T) {
		repo := NewGormCostRepository(newSQLiteDatabase(t, "finance").DB)
		c := newTestCost(t, uuid.New(), 50)
		require.NoError(t, repo.Create(ctx, c))

		require.NoError(t, c.Apply("F250101001", nil, "urgent", testNow))
		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.FindByApplicationNumber(ctx, "F250101001")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, finance.CostStatusApplied, found[0].Status)
		assert.Equal(t, "urgent", found[0].ApplicationRemarks)

		c.Unapply(testNow)
		require.NoError(t, repo.Save(ctx, c))
		found, err = repo.FindByApplicationNumber(ctx, "F250101001")
		require.NoError(t, err)
		assert.Empty(t, found)

		ghost := newTestCost(t, uuid.New(), 1)
		assert.ErrorIs(t, repo.Save(ctx, ghost), finance.ErrCostNotFound)
	})

	t.Run("clear application link is conditional", func(t *testing.T) {
		repo := NewGormCostRepository(newSQLiteDatabase(t, "finance").DB)
		c := newTestCost(t, uuid.New(), 50)
		require.NoError(t, c.Apply("F250101001", nil, "", testNow))
		require.NoError(t, repo.Create(ctx, c))

		n, err := repo.ClearApplicationLink(ctx, c.ID, "F250101002")
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = repo.ClearApplicationLink(ctx, c.ID, "F250101001")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.CostStatusUnapplied, found.Status)
		assert.False(t, found.HasApplicationFields())
	})

	t.Run("clear stale fields on an unapplied cost", func(t *testing.T) {
		repo := NewGormCostRepository(newSQLiteDatabase(t, "finance").DB)
		c := newTestCost(t, uuid.New(), 50)
		c.ApplicationRemarks = "left behind"
		require.NoError(t, repo.Create(ctx, c))

		n, err := repo.ClearApplicationLink(ctx, c.ID, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, found.ApplicationRemarks)
	})

	t.Run("normalize unlinked steps back one status", func(t *testing.T) {
		repo := NewGormCostRepository(newSQLiteDatabase(t, "finance").DB)
		c := newTestCost(t, uuid.New(), 50)
		settledOn := testNow.Add(24 * time.Hour)
		c.Status = finance.CostStatusSettled
		c.SettlementDate = &settledOn
		require.NoError(t, repo.Create(ctx, c))

		n, err := repo.NormalizeUnlinked(ctx, c.ID, finance.CostStatusSettled)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.NormalizeUnlinked(ctx, c.ID, finance.CostStatusSettled)
		require.NoError(t, err)
		assert.Zero(t, n, "already applied")

		n, err = repo.NormalizeUnlinked(ctx, c.ID, finance.CostStatusApplied)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.CostStatusUnapplied, found.Status)
		assert.Nil(t, found.SettlementDate)

		_, err = repo.NormalizeUnlinked(ctx, c.ID, finance.CostStatusUnapplied)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("normalize skips linked costs", func(t *testing.T) {
		repo := NewGormCostRepository(newSQLiteDatabase(t, "finance").DB)
		c := newTestCost(t, uuid.New(), 50)
		require.NoError(t, c.Apply("F250101001", nil, "", testNow))
		require.NoError(t, repo.Create(ctx, c))

		n, err := repo.NormalizeUnlinked(ctx, c.ID, finance.CostStatusApplied)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("delete by shipment", func(t *testing.T) {
		repo := NewGormCostRepository(newSQLiteDatabase(t, "finance").DB)
		shipmentID := uuid.New()
		keep := newTestCost(t, uuid.New(), 5)
		require.NoError(t, repo.Create(ctx, keep))
		for i := 0; i < 3; i++ {
			require.NoError(t, repo.Create(ctx, newTestCost(t, shipmentID, int64(i+1))))
		}

		n, err := repo.DeleteByShipment(ctx, shipmentID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, keep.ID, all[0].ID)

		assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), finance.ErrCostNotFound)
		require.NoError(t, repo.Delete(ctx, keep.ID))
	})
}
