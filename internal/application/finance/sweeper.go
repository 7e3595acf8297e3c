package finance

import (
	"context"
	"time"

	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/freightdesk/backend/internal/domain/shipment"
	"github.com/freightdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconciliationSweeper repairs the finance store against the shipment
// store. Every step starts from a fresh read and every write is guarded by
// a condition, so a pass is idempotent and may overlap other passes and the
// lifecycle operations.
type ReconciliationSweeper struct {
	shipments shipment.Repository
	costRepo  finance.CostRepository
	appRepo   finance.ApplicationRepository
	scope     finance.TransactionScope
	metrics   *telemetry.ReconciliationMetrics
	clock     shared.Clock
	logger    *zap.Logger
}

// NewReconciliationSweeper creates a new ReconciliationSweeper. metrics may be nil.
func NewReconciliationSweeper(
	shipments shipment.Repository,
	costRepo finance.CostRepository,
	appRepo finance.ApplicationRepository,
	scope finance.TransactionScope,
	metrics *telemetry.ReconciliationMetrics,
	clock shared.Clock,
	logger *zap.Logger,
) *ReconciliationSweeper {
	if clock == nil {
		clock = shared.SystemClock(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationSweeper{
		shipments: shipments,
		costRepo:  costRepo,
		appRepo:   appRepo,
		scope:     scope,
		metrics:   metrics,
		clock:     clock,
		logger:    logger,
	}
}

// Run executes one reconciliation pass. Failures writing a single row are
// logged and skipped; failing to read a collection aborts the pass and
// returns the counts reached so far with the error.
func (s *ReconciliationSweeper) Run(ctx context.Context) (finance.ReconcileReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "run")
	defer span.End()

	start := time.Now()
	var report finance.ReconcileReport
	err := telemetry.ProfileOperation(ctx, "reconciliation", "run", func(ctx context.Context) error {
		var err error
		report, err = s.run(ctx)
		return err
	})
	elapsed := time.Since(start)
	s.metrics.RecordRun(ctx, report, elapsed, err)

	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Reconciliation pass aborted",
			zap.Error(err),
			zap.Int("changes", report.Total()),
			zap.Duration("duration", elapsed),
		)
		return report, err
	}
	telemetry.SetAttributes(span, "changes", report.Total())
	s.logger.Info("Reconciliation pass completed",
		zap.Int("orphan_costs_deleted", report.OrphanCostsDeleted),
		zap.Int("invalid_costs_deleted", report.InvalidCostsDeleted),
		zap.Int("links_cleared", report.LinksCleared),
		zap.Int("applications_deleted", report.ApplicationsDeleted),
		zap.Int("applications_zeroed", report.ApplicationsZeroed),
		zap.Int("applications_rebuilt", report.ApplicationsRebuilt),
		zap.Int("settled_without_number", report.SettledWithoutNumber),
		zap.Int("applied_without_number", report.AppliedWithoutNumber),
		zap.Duration("duration", elapsed),
	)
	return report, nil
}

// TriggerReconcile runs a pass synchronously and only logs its failure
func (s *ReconciliationSweeper) TriggerReconcile(ctx context.Context, reason string) {
	if _, err := s.Run(ctx); err != nil {
		s.logger.Warn("Triggered reconciliation failed", zap.String("reason", reason), zap.Error(err))
	}
}

// Preview computes what a pass would change over one snapshot, without
// writing anything.
func (s *ReconciliationSweeper) Preview(ctx context.Context) (finance.ReconcileReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "preview")
	defer span.End()

	costs, err := s.costRepo.FindAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return finance.ReconcileReport{}, err
	}
	shipmentIDs, err := s.shipments.ListIDs(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return finance.ReconcileReport{}, err
	}
	apps, err := s.appRepo.FindAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return finance.ReconcileReport{}, err
	}

	_, report := finance.Reconcile(finance.Snapshot{
		ShipmentIDs:  shipmentIDs,
		Costs:        costs,
		Applications: apps,
	}, s.clock.Now())
	return report, nil
}

func (s *ReconciliationSweeper) run(ctx context.Context) (finance.ReconcileReport, error) {
	var report finance.ReconcileReport
	steps := []func(context.Context, *finance.ReconcileReport) error{
		s.removeOrphans,
		s.removeInvalid,
		s.clearDanglingLinks,
		s.rebuildAggregates,
		s.normalizeStatuses,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := step(ctx, &report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// ==================== Steps ====================

// removeOrphans deletes costs whose shipment no longer exists. Costs are
// read before shipments: a cost is only written after its shipment exists,
// so a shipment created mid-read cannot make its costs look orphaned.
func (s *ReconciliationSweeper) removeOrphans(ctx context.Context, report *finance.ReconcileReport) error {
	costs, err := s.costRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	shipmentIDs, err := s.shipments.ListIDs(ctx)
	if err != nil {
		return err
	}
	for _, c := range finance.FindOrphanCosts(costs, shipmentIDs) {
		if s.deleteCost(ctx, c.ID, "orphan") {
			report.OrphanCostsDeleted++
		}
	}
	return nil
}

func (s *ReconciliationSweeper) removeInvalid(ctx context.Context, report *finance.ReconcileReport) error {
	costs, err := s.costRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, c := range finance.FindInvalidCosts(costs) {
		if s.deleteCost(ctx, c.ID, "invalid") {
			report.InvalidCostsDeleted++
		}
	}
	return nil
}

// clearDanglingLinks unlinks costs whose application is gone. Costs are read
// before applications since an application is committed together with the
// costs that reference it.
func (s *ReconciliationSweeper) clearDanglingLinks(ctx context.Context, report *finance.ReconcileReport) error {
	costs, err := s.costRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	apps, err := s.appRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, c := range finance.FindDanglingLinks(costs, apps) {
		number := ""
		if c.HasApplicationNumber() {
			number = *c.ApplicationNumber
		}
		n, err := s.costRepo.ClearApplicationLink(ctx, c.ID, number)
		if err != nil {
			s.logger.Warn("Failed to clear dangling application link",
				zap.String("cost_id", c.ID.String()),
				zap.String("application_number", number),
				zap.Error(err),
			)
			continue
		}
		if n > 0 {
			report.LinksCleared++
		}
	}
	return nil
}

// rebuildAggregates recomputes each application from its members under a
// row lock on the application.
func (s *ReconciliationSweeper) rebuildAggregates(ctx context.Context, report *finance.ReconcileReport) error {
	numbers, err := s.appRepo.ListNumbers(ctx)
	if err != nil {
		return err
	}
	for _, number := range numbers {
		action, err := s.rebuildOne(ctx, number)
		if err != nil {
			s.logger.Warn("Failed to rebuild expense application",
				zap.String("application_number", number),
				zap.Error(err),
			)
			continue
		}
		switch action {
		case finance.RebuildDelete:
			report.ApplicationsDeleted++
		case finance.RebuildZero:
			report.ApplicationsZeroed++
		case finance.RebuildUpdate:
			report.ApplicationsRebuilt++
		}
	}
	return nil
}

func (s *ReconciliationSweeper) rebuildOne(ctx context.Context, number string) (finance.RebuildAction, error) {
	action := finance.RebuildNone
	err := s.scope.Execute(ctx, func(repos finance.TransactionalRepositories) error {
		app, err := repos.ApplicationRepo().FindByNumberForUpdate(ctx, number)
		if err != nil {
			if shared.IsNotFound(err) {
				return nil
			}
			return err
		}
		members, err := repos.CostRepo().FindByApplicationNumber(ctx, number)
		if err != nil {
			return err
		}

		switch planned := app.Rebuild(members, s.clock.Now()); planned {
		case finance.RebuildDelete:
			n, err := repos.ApplicationRepo().DeleteIfEmpty(ctx, number)
			if err != nil {
				return err
			}
			if n > 0 {
				action = planned
			}
		case finance.RebuildZero, finance.RebuildUpdate:
			if err := repos.ApplicationRepo().Save(ctx, app); err != nil {
				return err
			}
			action = planned
		}
		return nil
	})
	if err != nil {
		return finance.RebuildNone, err
	}
	return action, nil
}

// normalizeStatuses demotes costs that lost their application number:
// settled ones to applied first, then applied ones to unapplied, so a
// settled cost without a number ends unapplied within one pass.
func (s *ReconciliationSweeper) normalizeStatuses(ctx context.Context, report *finance.ReconcileReport) error {
	for _, from := range []finance.CostStatus{finance.CostStatusSettled, finance.CostStatusApplied} {
		costs, err := s.costRepo.FindAll(ctx)
		if err != nil {
			return err
		}
		settled, applied := finance.FindStatusViolations(costs)
		targets := applied
		if from == finance.CostStatusSettled {
			targets = settled
		}

		for _, c := range targets {
			n, err := s.costRepo.NormalizeUnlinked(ctx, c.ID, from)
			if err != nil {
				s.logger.Warn("Failed to normalize cost status",
					zap.String("cost_id", c.ID.String()),
					zap.String("status", from.String()),
					zap.Error(err),
				)
				continue
			}
			if n == 0 {
				continue
			}
			if from == finance.CostStatusSettled {
				report.SettledWithoutNumber++
			} else {
				report.AppliedWithoutNumber++
			}
		}
	}
	return nil
}

// deleteCost removes one cost and reports whether this pass deleted it
func (s *ReconciliationSweeper) deleteCost(ctx context.Context, id uuid.UUID, reason string) bool {
	if err := s.costRepo.Delete(ctx, id); err != nil {
		if !shared.IsNotFound(err) {
			s.logger.Warn("Failed to delete cost",
				zap.String("cost_id", id.String()),
				zap.String("reason", reason),
				zap.Error(err),
			)
		}
		return false
	}
	return true
}
