package finance_test

import (
	"context"
	"runtime/pprof"
	"testing"

	appfinance "github.com/freightdesk/backend/internal/application/finance"
	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/domain/shipment"
	"github.com/freightdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweeper_ShipmentDeletion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deleted := h.newShipment(t, "Rsl-250101001")
	kept := h.newShipment(t, "Rsl-250101002")

	loose := h.newCost(t, deleted, 30, "THB")
	member := h.newCost(t, deleted, 100, "THB")
	survivor := h.newCost(t, kept, 50, "THB")
	applied, err := h.lifecycle.Apply(ctx, appfinance.ApplyRequest{CostIDs: []uuid.UUID{member, survivor}})
	require.NoError(t, err)
	require.Equal(t, "F250101001", applied.Number)

	require.NoError(t, h.shipments.Delete(ctx, deleted))

	report, err := h.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.OrphanCostsDeleted)
	assert.Equal(t, 1, report.ApplicationsRebuilt)
	assert.Equal(t, 0, report.ApplicationsDeleted)

	for _, id := range []uuid.UUID{loose, member} {
		_, err := h.costRepo.FindByID(ctx, id)
		assert.ErrorIs(t, err, finance.ErrCostNotFound)
	}
	app := h.application(t, "F250101001")
	assert.True(t, decimal.NewFromInt(50).Equal(app.TotalAmount))
	assert.Equal(t, 1, app.CostCount)
	assert.Equal(t, finance.CostStatusApplied, h.cost(t, survivor).Status)

	again, err := h.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.True(t, again.IsClean(), "second pass changed %+v", again)
}

func TestSweeper_DeletesEmptyActiveApplication(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	s := h.newShipment(t, "Rsl-250101001")
	a := h.newCost(t, s, 100, "USD")
	applied, err := h.lifecycle.Apply(ctx, appfinance.ApplyRequest{CostIDs: []uuid.UUID{a}})
	require.NoError(t, err)

	require.NoError(t, h.costs.Delete(ctx, a))
	assert.Contains(t, h.triggered(), "delete_cost")

	report, err := h.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ApplicationsDeleted)

	_, err = h.appRepo.FindByNumber(ctx, applied.Number)
	assert.ErrorIs(t, err, finance.ErrApplicationNotFound)
}

func TestSweeper_CanceledApplicationIsZeroed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	s := h.newShipment(t, "Rsl-250101001")
	applied, err := h.lifecycle.Apply(ctx, appfinance.ApplyRequest{
		CostIDs: []uuid.UUID{h.newCost(t, s, 100, "USD"), h.newCost(t, s, 20, "USD")},
	})
	require.NoError(t, err)
	_, err = h.lifecycle.CancelApplication(ctx, applied.Number)
	require.NoError(t, err)

	report, err := h.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ApplicationsZeroed)
	assert.Equal(t, 0, report.ApplicationsDeleted)

	app := h.application(t, applied.Number)
	assert.True(t, app.IsCanceled())
	assert.True(t, app.TotalAmount.IsZero())
	assert.Equal(t, 0, app.CostCount)

	again, err := h.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.True(t, again.IsClean())
}

func TestSweeper_RepairsCorruptCosts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	s := h.newShipment(t, "Rsl-250101001")

	invalid := h.cost(t, h.newCost(t, s, 10, "USD"))
	invalid.Description = ""
	require.NoError(t, h.costRepo.Save(ctx, invalid))

	dangling := h.cost(t, h.newCost(t, s, 20, "USD"))
	require.NoError(t, dangling.Apply("F240101999", nil, "", testNow))
	require.NoError(t, h.costRepo.Save(ctx, dangling))

	stale := h.cost(t, h.newCost(t, s, 25, "USD"))
	stale.ApplicationRemarks = "left over"
	require.NoError(t, h.costRepo.Save(ctx, stale))

	settled := h.cost(t, h.newCost(t, s, 30, "USD"))
	require.NoError(t, settled.Apply("F240101998", nil, "", testNow))
	require.NoError(t, settled.Settle(nil, "paid", testNow))
	settled.ApplicationNumber = nil
	require.NoError(t, h.costRepo.Save(ctx, settled))

	applied := h.cost(t, h.newCost(t, s, 40, "USD"))
	require.NoError(t, applied.Apply("F240101997", nil, "", testNow))
	applied.ApplicationNumber = nil
	require.NoError(t, h.costRepo.Save(ctx, applied))

	preview, err := h.sweeper.Preview(ctx)
	require.NoError(t, err)

	report, err := h.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, preview, report)
	assert.Equal(t, 1, report.InvalidCostsDeleted)
	assert.Equal(t, 2, report.LinksCleared)
	assert.Equal(t, 1, report.SettledWithoutNumber)
	assert.Equal(t, 2, report.AppliedWithoutNumber)

	_, err = h.costRepo.FindByID(ctx, invalid.ID)
	assert.ErrorIs(t, err, finance.ErrCostNotFound)
	for _, id := range []uuid.UUID{dangling.ID, stale.ID, settled.ID, applied.ID} {
		c := h.cost(t, id)
		assert.Equal(t, finance.CostStatusUnapplied, c.Status, id)
		assert.False(t, c.HasApplicationFields(), id)
	}

	again, err := h.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.True(t, again.IsClean(), "second pass changed %+v", again)
}

func TestSweeper_PreviewDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	s := h.newShipment(t, "Rsl-250101001")
	orphan := h.newCost(t, s, 10, "USD")
	require.NoError(t, h.shipments.Delete(ctx, s))

	report, err := h.sweeper.Preview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.OrphanCostsDeleted)

	_, err = h.costRepo.FindByID(ctx, orphan)
	assert.NoError(t, err)
}

func TestSweeper_TriggerSwallowsFailure(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() { h.sweeper.TriggerReconcile(ctx, "test") })

	_, err := h.sweeper.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// labelRecordingShipments records the profiling labels seen by ListIDs
type labelRecordingShipments struct {
	shipment.Repository
	component, operation string
}

func (r *labelRecordingShipments) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	r.component, _ = pprof.Label(ctx, telemetry.ProfilingLabelComponent)
	r.operation, _ = pprof.Label(ctx, telemetry.ProfilingLabelOperation)
	return r.Repository.ListIDs(ctx)
}

func TestSweeper_RunIsProfiled(t *testing.T) {
	h := newHarness(t)
	shipments := &labelRecordingShipments{Repository: h.shipments}
	sweeper := appfinance.NewReconciliationSweeper(shipments, h.costRepo, h.appRepo, h.scope, nil, fixedClock(), zap.NewNop())

	_, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "reconciliation", shipments.component)
	assert.Equal(t, "run", shipments.operation)
}
