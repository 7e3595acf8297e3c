package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// applyInStore applies fresh costs to a new application and stores both
func applyInStore(t *testing.T, db *Database, number string, at time.Time, amounts ...int64) (*finance.Application, []finance.Cost) {
	t.Helper()
	ctx := context.Background()
	costs := NewGormCostRepository(db.DB)

	selected := make([]finance.Cost, len(amounts))
	for i, amount := range amounts {
		c := newTestCost(t, uuid.New(), amount)
		require.NoError(t, costs.Create(ctx, c))
		selected[i] = *c
	}
	app, err := finance.NewApplication(number, selected, nil, "", at)
	require.NoError(t, err)
	require.NoError(t, NewGormApplicationRepository(db.DB).Create(ctx, app))
	require.NoError(t, costs.SaveAll(ctx, selected))
	return app, selected
}

func TestGormApplicationRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find by number", func(t *testing.T) {
		db := newSQLiteDatabase(t, "finance")
		repo := NewGormApplicationRepository(db.DB)
		app, _ := applyInStore(t, db, "F250101001", testNow, 30, 20)

		found, err := repo.FindByNumber(ctx, "F250101001")
		require.NoError(t, err)
		assert.Equal(t, app.ID, found.ID)
		assert.Equal(t, "50", found.TotalAmount.String())
		assert.Equal(t, 2, found.CostCount)
		assert.Equal(t, finance.ApplicationStatusActive, found.Status)

		_, err = repo.FindByNumber(ctx, "F250101999")
		assert.ErrorIs(t, err, finance.ErrApplicationNotFound)
	})

	t.Run("duplicate number is a duplicate key", func(t *testing.T) {
		db := newSQLiteDatabase(t, "finance")
		applyInStore(t, db, "F250101001", testNow, 10)

		c := newTestCost(t, uuid.New(), 5)
		dup, err := finance.NewApplication("F250101001", []finance.Cost{*c}, nil, "", testNow)
		require.NoError(t, err)

		err = NewGormApplicationRepository(db.DB).Create(ctx, dup)
		assert.True(t, shared.IsDuplicateKey(err))
	})

	t.Run("delete if empty only removes unreferenced active applications", func(t *testing.T) {
		db := newSQLiteDatabase(t, "finance")
		repo := NewGormApplicationRepository(db.DB)
		costs := NewGormCostRepository(db.DB)

		applyInStore(t, db, "F250101001", testNow, 10)
		n, err := repo.DeleteIfEmpty(ctx, "F250101001")
		require.NoError(t, err)
		assert.Zero(t, n, "still referenced")

		canceled, members := applyInStore(t, db, "F250101002", testNow, 10)
		require.NoError(t, canceled.Cancel(members, testNow))
		require.NoError(t, repo.Save(ctx, canceled))
		require.NoError(t, costs.SaveAll(ctx, members))
		n, err = repo.DeleteIfEmpty(ctx, "F250101002")
		require.NoError(t, err)
		assert.Zero(t, n, "canceled applications are kept")

		_, emptied := applyInStore(t, db, "F250101003", testNow, 10)
		_, err = costs.ClearApplicationLink(ctx, emptied[0].ID, "F250101003")
		require.NoError(t, err)
		n, err = repo.DeleteIfEmpty(ctx, "F250101003")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		numbers, err := repo.ListNumbers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"F250101001", "F250101002"}, numbers)
	})

	t.Run("queries by creation date and prefix", func(t *testing.T) {
		db := newSQLiteDatabase(t, "finance")
		repo := NewGormApplicationRepository(db.DB)
		applyInStore(t, db, "F250101001", testNow, 10)
		applyInStore(t, db, "F250101002", testNow.Add(time.Hour), 10)
		applyInStore(t, db, "F250102001", testNow.Add(24*time.Hour), 10)

		day, err := repo.FindCreatedBetween(ctx, testNow.Truncate(24*time.Hour), testNow.Truncate(24*time.Hour).Add(24*time.Hour))
		require.NoError(t, err)
		assert.Len(t, day, 2)

		latest, err := repo.LatestNumberWithPrefix(ctx, "F250101")
		require.NoError(t, err)
		assert.Equal(t, "F250101002", latest)

		latest, err = repo.LatestNumberWithPrefix(ctx, "F250103")
		require.NoError(t, err)
		assert.Empty(t, latest)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("save refuses missing rows", func(t *testing.T) {
		repo := NewGormApplicationRepository(newSQLiteDatabase(t, "finance").DB)
		c := newTestCost(t, uuid.New(), 5)
		app, err := finance.NewApplication("F250101001", []finance.Cost{*c}, nil, "", testNow)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Save(ctx, app), finance.ErrApplicationNotFound)
	})
}

func TestGormFinanceTransactionScope(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		db := newSQLiteDatabase(t, "finance")
		scope := NewGormFinanceTransactionScope(db.DB)
		c := newTestCost(t, uuid.New(), 10)

		err := scope.Execute(ctx, func(repos finance.TransactionalRepositories) error {
			return repos.CostRepo().Create(ctx, c)
		})
		require.NoError(t, err)

		_, err = NewGormCostRepository(db.DB).FindByID(ctx, c.ID)
		assert.NoError(t, err)
	})

	t.Run("rolls back and returns the callback error", func(t *testing.T) {
		db := newSQLiteDatabase(t, "finance")
		scope := NewGormFinanceTransactionScope(db.DB)
		c := newTestCost(t, uuid.New(), 10)
		boom := finance.ErrMixedCurrency

		err := scope.Execute(ctx, func(repos finance.TransactionalRepositories) error {
			if err := repos.CostRepo().Create(ctx, c); err != nil {
				return err
			}
			return boom
		})
		assert.True(t, errors.Is(err, boom))

		_, err = NewGormCostRepository(db.DB).FindByID(ctx, c.ID)
		assert.ErrorIs(t, err, finance.ErrCostNotFound)
	})

	t.Run("locks selected costs", func(t *testing.T) {
		db := newSQLiteDatabase(t, "finance")
		scope := NewGormFinanceTransactionScope(db.DB)
		a := newTestCost(t, uuid.New(), 10)
		require.NoError(t, NewGormCostRepository(db.DB).Create(ctx, a))

		err := scope.Execute(ctx, func(repos finance.TransactionalRepositories) error {
			locked, err := repos.CostRepo().FindByIDsForUpdate(ctx, []uuid.UUID{a.ID})
			if err != nil {
				return err
			}
			assert.Len(t, locked, 1)
			return nil
		})
		require.NoError(t, err)
	})
}
