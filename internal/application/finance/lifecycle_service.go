package finance

import (
	"context"
	"time"

	"github.com/freightdesk/backend/internal/application/numbering"
	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/freightdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	lifecycleSpanService = "cost_lifecycle"

	// DefaultApplicationCreateAttempts bounds number collisions on Apply
	DefaultApplicationCreateAttempts = 10
)

// CostLifecycleService moves costs between unapplied, applied and settled
// and maintains the expense applications that group them.
type CostLifecycleService struct {
	costRepo finance.CostRepository
	appRepo  finance.ApplicationRepository
	scope    finance.TransactionScope
	numbers  numbering.CodeGenerator
	attempts int
	trigger  ReconcileTrigger
	metrics  *telemetry.LifecycleMetrics
	clock    shared.Clock
	logger   *zap.Logger
}

// LifecycleOption configures a CostLifecycleService
type LifecycleOption func(*CostLifecycleService)

// WithApplicationCreateAttempts sets how often Apply retries a colliding number
func WithApplicationCreateAttempts(n int) LifecycleOption {
	return func(s *CostLifecycleService) {
		s.attempts = n
	}
}

// WithLifecycleTrigger sets the trigger fired after every committed mutation
func WithLifecycleTrigger(t ReconcileTrigger) LifecycleOption {
	return func(s *CostLifecycleService) {
		s.trigger = t
	}
}

// WithLifecycleMetrics records operation outcomes
func WithLifecycleMetrics(m *telemetry.LifecycleMetrics) LifecycleOption {
	return func(s *CostLifecycleService) {
		s.metrics = m
	}
}

// WithLifecycleClock replaces the system clock
func WithLifecycleClock(c shared.Clock) LifecycleOption {
	return func(s *CostLifecycleService) {
		s.clock = c
	}
}

// NewCostLifecycleService creates a new CostLifecycleService
func NewCostLifecycleService(
	costRepo finance.CostRepository,
	appRepo finance.ApplicationRepository,
	scope finance.TransactionScope,
	numbers numbering.CodeGenerator,
	logger *zap.Logger,
	opts ...LifecycleOption,
) *CostLifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CostLifecycleService{
		costRepo: costRepo,
		appRepo:  appRepo,
		scope:    scope,
		numbers:  numbers,
		attempts: DefaultApplicationCreateAttempts,
		clock:    shared.SystemClock(nil),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ==================== Apply ====================

// Apply groups unapplied costs of one type and currency into a new expense
// application. Nothing is written when any precondition fails.
func (s *CostLifecycleService) Apply(ctx context.Context, req ApplyRequest) (*ApplicationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, lifecycleSpanService, "apply")
	defer span.End()

	var (
		app     *finance.Application
		members []finance.Cost
	)
	err := telemetry.ProfileOperation(ctx, lifecycleSpanService, "apply", func(ctx context.Context) error {
		var err error
		app, members, err = s.apply(ctx, req)
		return err
	})
	s.metrics.RecordOperation(ctx, "apply", err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrApplicationNumber, app.Number,
		telemetry.SpanAttrCostCount, app.CostCount,
	)
	s.logger.Info("Expense application created",
		zap.String("application_number", app.Number),
		zap.Int("cost_count", app.CostCount),
		zap.String("total_amount", app.TotalAmount.String()),
		zap.String("currency", app.Currency),
	)

	fire(ctx, s.trigger, "apply")
	resp := ToApplicationResponse(app, members)
	return &resp, nil
}

func (s *CostLifecycleService) apply(ctx context.Context, req ApplyRequest) (*finance.Application, []finance.Cost, error) {
	ids := lo.Uniq(req.CostIDs)
	if len(ids) == 0 {
		return nil, nil, finance.ErrEmptySelection
	}
	if len(ids) > finance.MaxApplicationSize {
		return nil, nil, finance.ErrBatchLimitExceeded.WithMessage(
			"An application may contain at most %d costs, got %d", finance.MaxApplicationSize, len(ids))
	}

	// Checked before a number is minted and again under lock.
	costs, err := s.costRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	if err := requireAll(ids, costs); err != nil {
		return nil, nil, err
	}
	if err := finance.ValidateSelection(costs); err != nil {
		return nil, nil, err
	}

	var (
		app     *finance.Application
		members []finance.Cost
	)
	_, err = numbering.CreateWithCode(ctx, s.numbers, s.attempts, s.logger, func(ctx context.Context, number string) error {
		err := s.scope.Execute(ctx, func(repos finance.TransactionalRepositories) error {
			locked, err := repos.CostRepo().FindByIDsForUpdate(ctx, ids)
			if err != nil {
				return err
			}
			if err := requireAll(ids, locked); err != nil {
				return err
			}
			created, err := finance.NewApplication(number, locked, req.DueDate, req.Remarks, s.clock.Now())
			if err != nil {
				return err
			}
			if err := repos.ApplicationRepo().Create(ctx, created); err != nil {
				return err
			}
			if err := repos.CostRepo().SaveAll(ctx, locked); err != nil {
				return err
			}
			app, members = created, locked
			return nil
		})
		if shared.IsDuplicateKey(err) {
			s.metrics.RecordCollision(ctx, "apply")
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return app, members, nil
}

// ==================== CancelApplication ====================

// CancelApplication cancels an application that has no settled member and
// returns its members to unapplied.
func (s *CostLifecycleService) CancelApplication(ctx context.Context, number string) (*ApplicationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, lifecycleSpanService, "cancel_application")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrApplicationNumber, number)

	var (
		app     *finance.Application
		members []finance.Cost
	)
	err := telemetry.ProfileOperation(ctx, lifecycleSpanService, "cancel_application", func(ctx context.Context) error {
		var err error
		app, members, err = s.cancelApplication(ctx, number)
		return err
	})
	s.metrics.RecordOperation(ctx, "cancel_application", err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("Expense application canceled",
		zap.String("application_number", number),
		zap.Int("released_costs", len(members)),
	)

	fire(ctx, s.trigger, "cancel_application")
	resp := ToApplicationResponse(app, members)
	return &resp, nil
}

func (s *CostLifecycleService) cancelApplication(ctx context.Context, number string) (*finance.Application, []finance.Cost, error) {
	var (
		app     *finance.Application
		members []finance.Cost
	)
	err := s.scope.Execute(ctx, func(repos finance.TransactionalRepositories) error {
		found, err := repos.ApplicationRepo().FindByNumberForUpdate(ctx, number)
		if err != nil {
			return err
		}
		linked, err := repos.CostRepo().FindByApplicationNumber(ctx, number)
		if err != nil {
			return err
		}
		locked, err := repos.CostRepo().FindByIDsForUpdate(ctx, costIDs(linked))
		if err != nil {
			return err
		}
		locked = lo.Filter(locked, func(c finance.Cost, _ int) bool { return c.BelongsTo(number) })

		if err := found.Cancel(locked, s.clock.Now()); err != nil {
			return err
		}
		if err := repos.ApplicationRepo().Save(ctx, found); err != nil {
			return err
		}
		if err := repos.CostRepo().SaveAll(ctx, locked); err != nil {
			return err
		}
		app, members = found, locked
		return nil
	})
	return app, members, err
}

// ==================== Settlement ====================

// Settle marks applied costs as settled. A nil settlement date means now.
// Application totals are not affected.
func (s *CostLifecycleService) Settle(ctx context.Context, req SettleRequest) ([]CostResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, lifecycleSpanService, "settle")
	defer span.End()

	ids := lo.Uniq(req.CostIDs)
	telemetry.SetAttributes(span, telemetry.SpanAttrCostCount, len(ids))

	var settled []finance.Cost
	err := s.withSelection(ctx, "settle", ids, func(repos finance.TransactionalRepositories, costs []finance.Cost) error {
		if err := requireAll(ids, costs); err != nil {
			return err
		}
		now := s.clock.Now()
		for i := range costs {
			if err := costs[i].Settle(req.SettlementDate, req.Remarks, now); err != nil {
				return err
			}
		}
		settled = costs
		return repos.CostRepo().SaveAll(ctx, costs)
	})
	s.metrics.RecordOperation(ctx, "settle", err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("Costs settled", zap.Int("cost_count", len(settled)))

	fire(ctx, s.trigger, "settle")
	return ToCostResponses(settled), nil
}

// CancelSettlement reverts the settled costs among ids to applied. Costs
// that are missing or not settled are ignored; if none is settled the call
// fails with finance.ErrNothingToRevert.
func (s *CostLifecycleService) CancelSettlement(ctx context.Context, req CancelSettlementRequest) ([]CostResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, lifecycleSpanService, "cancel_settlement")
	defer span.End()

	ids := lo.Uniq(req.CostIDs)
	telemetry.SetAttributes(span, telemetry.SpanAttrCostCount, len(ids))

	var reverted []finance.Cost
	err := s.withSelection(ctx, "cancel_settlement", ids, func(repos finance.TransactionalRepositories, costs []finance.Cost) error {
		now := s.clock.Now()
		reverted = lo.Filter(costs, func(c finance.Cost, _ int) bool { return c.Status == finance.CostStatusSettled })
		if len(reverted) == 0 {
			return finance.ErrNothingToRevert
		}
		for i := range reverted {
			reverted[i].RevertSettlement(now)
		}
		return repos.CostRepo().SaveAll(ctx, reverted)
	})
	s.metrics.RecordOperation(ctx, "cancel_settlement", err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("Settlements canceled",
		zap.Int("requested", len(ids)),
		zap.Int("reverted", len(reverted)),
	)

	fire(ctx, s.trigger, "cancel_settlement")
	return ToCostResponses(reverted), nil
}

// withSelection runs fn in a finance transaction over the locked costs,
// profiled as operation
func (s *CostLifecycleService) withSelection(ctx context.Context, operation string, ids []uuid.UUID, fn func(finance.TransactionalRepositories, []finance.Cost) error) error {
	if len(ids) == 0 {
		return finance.ErrEmptySelection
	}
	return telemetry.ProfileOperation(ctx, lifecycleSpanService, operation, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos finance.TransactionalRepositories) error {
			costs, err := repos.CostRepo().FindByIDsForUpdate(ctx, ids)
			if err != nil {
				return err
			}
			return fn(repos, costs)
		})
	})
}

// ==================== Queries ====================

// GetApplication returns an application with its current members
func (s *CostLifecycleService) GetApplication(ctx context.Context, number string) (*ApplicationResponse, error) {
	app, err := s.appRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	members, err := s.costRepo.FindByApplicationNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	resp := ToApplicationResponse(app, members)
	return &resp, nil
}

// ListApplications returns applications created in [from, to). Without
// bounds every application is returned, newest first.
func (s *CostLifecycleService) ListApplications(ctx context.Context, query ListApplicationsQuery) ([]ApplicationResponse, error) {
	var (
		apps []finance.Application
		err  error
	)
	if query.From == nil && query.To == nil {
		apps, err = s.appRepo.FindAll(ctx)
	} else {
		from := time.Time{}
		if query.From != nil {
			from = *query.From
		}
		to := s.clock.Now().Add(24 * time.Hour)
		if query.To != nil {
			to = *query.To
		}
		if !from.Before(to) {
			return nil, shared.ErrInvalidInput.WithMessage("from must be before to")
		}
		apps, err = s.appRepo.FindCreatedBetween(ctx, from, to)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]ApplicationResponse, len(apps))
	for i := range apps {
		responses[i] = ToApplicationResponse(&apps[i], nil)
	}
	return responses, nil
}

// requireAll fails with the first id that has no cost
func requireAll(ids []uuid.UUID, costs []finance.Cost) error {
	found := lo.SliceToMap(costs, func(c finance.Cost) (uuid.UUID, struct{}) {
		return c.ID, struct{}{}
	})
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return finance.ErrCostNotFound.WithMessage("Cost %s not found", id)
		}
	}
	return nil
}

func costIDs(costs []finance.Cost) []uuid.UUID {
	return lo.Map(costs, func(c finance.Cost, _ int) uuid.UUID { return c.ID })
}
