package finance

import (
	"context"

	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/freightdesk/backend/internal/domain/shipment"
	"github.com/freightdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CostService registers and removes costs in the finance store
type CostService struct {
	costRepo  finance.CostRepository
	shipments shipment.Repository
	trigger   ReconcileTrigger
	clock     shared.Clock
	logger    *zap.Logger
}

// NewCostService creates a new CostService. trigger may be nil.
func NewCostService(
	costRepo finance.CostRepository,
	shipments shipment.Repository,
	trigger ReconcileTrigger,
	clock shared.Clock,
	logger *zap.Logger,
) *CostService {
	if clock == nil {
		clock = shared.SystemClock(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostService{
		costRepo:  costRepo,
		shipments: shipments,
		trigger:   trigger,
		clock:     clock,
		logger:    logger,
	}
}

// Create registers an unapplied cost against an existing shipment
func (s *CostService) Create(ctx context.Context, req CreateCostRequest) (*CostResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cost", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShipmentID, req.ShipmentID.String())

	exists, err := s.shipments.Exists(ctx, req.ShipmentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !exists {
		err := shipment.ErrShipmentNotFound.WithMessage("Shipment %s not found", req.ShipmentID)
		telemetry.RecordError(span, err)
		return nil, err
	}

	cost, err := finance.NewCost(finance.CostInput{
		ShipmentID:         req.ShipmentID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		Type:               finance.CostType(req.Type),
		FinancialSubjectID: req.FinancialSubjectID,
		SettlementUnitID:   req.SettlementUnitID,
		SettlementUnitType: finance.SettlementUnitType(req.SettlementUnitType),
		Description:        req.Description,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.costRepo.Create(ctx, cost); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToCostResponse(cost)
	return &resp, nil
}

// Get retrieves a cost by ID
func (s *CostService) Get(ctx context.Context, id uuid.UUID) (*CostResponse, error) {
	cost, err := s.costRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCostResponse(cost)
	return &resp, nil
}

// ListByShipment returns the costs of one shipment
func (s *CostService) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]CostResponse, error) {
	costs, err := s.costRepo.FindByShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	return ToCostResponses(costs), nil
}

// Delete removes a cost. The application it belonged to, if any, is
// rebuilt by the reconciliation pass fired afterwards.
func (s *CostService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "cost", "delete")
	defer span.End()

	if err := s.costRepo.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.Info("Cost deleted", zap.String("cost_id", id.String()))

	fire(ctx, s.trigger, "delete_cost")
	return nil
}
