package partner

import (
	"context"

	"github.com/freightdesk/backend/internal/application/numbering"
	"github.com/freightdesk/backend/internal/domain/partner"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/freightdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// createAttempts bounds inserts that lose a race for a code that was free
// when drawn
const createAttempts = 5

// PartnerService creates customers and suppliers under random 7-digit codes
type PartnerService struct {
	customers     partner.CustomerRepository
	suppliers     partner.SupplierRepository
	customerCodes *numbering.RandomCodeGenerator
	supplierCodes *numbering.RandomCodeGenerator
	clock         shared.Clock
	logger        *zap.Logger
}

// NewPartnerService creates a new PartnerService. codeOpts configure both
// code generators.
func NewPartnerService(
	customers partner.CustomerRepository,
	suppliers partner.SupplierRepository,
	clock shared.Clock,
	logger *zap.Logger,
	codeOpts ...numbering.RandomCodeOption,
) *PartnerService {
	if clock == nil {
		clock = shared.SystemClock(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartnerService{
		customers:     customers,
		suppliers:     suppliers,
		customerCodes: numbering.NewRandomCodeGenerator(customers.ExistsByCode, codeOpts...),
		supplierCodes: numbering.NewRandomCodeGenerator(suppliers.ExistsByCode, codeOpts...),
		clock:         clock,
		logger:        logger,
	}
}

// CreateCustomer creates a customer
func (s *PartnerService) CreateCustomer(ctx context.Context, req CreatePartnerRequest) (*PartnerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "partner", "create_customer")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrPartnerKind, string(partner.KindCustomer))

	var created *partner.Customer
	_, err := numbering.CreateWithCode(ctx, s.customerCodes, createAttempts, s.logger, func(ctx context.Context, code string) error {
		c, err := partner.NewCustomer(code, req.details(), s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.customers.Create(ctx, c); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logCreated(partner.KindCustomer, created.ID, created.Code)

	resp := ToPartnerResponse(partner.KindCustomer, &created.Partner)
	return &resp, nil
}

// CreateSupplier creates a supplier
func (s *PartnerService) CreateSupplier(ctx context.Context, req CreatePartnerRequest) (*PartnerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "partner", "create_supplier")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrPartnerKind, string(partner.KindSupplier))

	var created *partner.Supplier
	_, err := numbering.CreateWithCode(ctx, s.supplierCodes, createAttempts, s.logger, func(ctx context.Context, code string) error {
		sup, err := partner.NewSupplier(code, req.details(), s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.suppliers.Create(ctx, sup); err != nil {
			return err
		}
		created = sup
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logCreated(partner.KindSupplier, created.ID, created.Code)

	resp := ToPartnerResponse(partner.KindSupplier, &created.Partner)
	return &resp, nil
}

// GetCustomer retrieves a customer by ID
func (s *PartnerService) GetCustomer(ctx context.Context, id uuid.UUID) (*PartnerResponse, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPartnerResponse(partner.KindCustomer, &c.Partner)
	return &resp, nil
}

// GetSupplier retrieves a supplier by ID
func (s *PartnerService) GetSupplier(ctx context.Context, id uuid.UUID) (*PartnerResponse, error) {
	sup, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPartnerResponse(partner.KindSupplier, &sup.Partner)
	return &resp, nil
}

func (s *PartnerService) logCreated(kind partner.Kind, id uuid.UUID, code string) {
	s.logger.Info("Partner created",
		zap.String("kind", string(kind)),
		zap.String("partner_id", id.String()),
		zap.String("code", code),
	)
}
