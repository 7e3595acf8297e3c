package shipment

import (
	"context"
	"io"

	appfinance "github.com/freightdesk/backend/internal/application/finance"
	"github.com/freightdesk/backend/internal/application/numbering"
	"github.com/freightdesk/backend/internal/domain/attachment"
	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/domain/partner"
	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/freightdesk/backend/internal/domain/shipment"
	"github.com/freightdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// DefaultCreateAttempts bounds code collisions on Create
const DefaultCreateAttempts = 5

// ErrStorageDisabled is returned by Attach when no object storage is configured
var ErrStorageDisabled = shared.NewDomainError(shared.KindPreconditionViolation, "ATTACHMENT_STORAGE_DISABLED", "Attachment storage is not configured")

// Dependencies groups the collaborators of ShipmentService. Customers,
// Objects and Trigger may be nil.
type Dependencies struct {
	Shipments   shipment.Repository
	Costs       finance.CostRepository
	Attachments attachment.Repository
	Objects     attachment.ObjectStorage
	Customers   partner.CustomerRepository
	Codes       numbering.CodeGenerator
	Trigger     appfinance.ReconcileTrigger
}

// ShipmentService books and removes shipments. A shipment's costs and
// attachments live in other stores, so deletion cascades step by step.
type ShipmentService struct {
	deps     Dependencies
	attempts int
	clock    shared.Clock
	logger   *zap.Logger
}

// NewShipmentService creates a new ShipmentService. attempts <= 0 uses
// DefaultCreateAttempts.
func NewShipmentService(deps Dependencies, attempts int, clock shared.Clock, logger *zap.Logger) *ShipmentService {
	if attempts <= 0 {
		attempts = DefaultCreateAttempts
	}
	if clock == nil {
		clock = shared.SystemClock(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentService{
		deps:     deps,
		attempts: attempts,
		clock:    clock,
		logger:   logger,
	}
}

// Create books a shipment under a freshly minted code
func (s *ShipmentService) Create(ctx context.Context, req CreateShipmentRequest) (*ShipmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipment", "create")
	defer span.End()

	if req.CustomerID != nil && s.deps.Customers != nil {
		if _, err := s.deps.Customers.FindByID(ctx, *req.CustomerID); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	var created *shipment.Shipment
	code, err := numbering.CreateWithCode(ctx, s.deps.Codes, s.attempts, s.logger, func(ctx context.Context, code string) error {
		sh, err := shipment.NewShipment(code, req.CustomerID, req.Origin, req.Destination, req.Remarks, s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.deps.Shipments.Create(ctx, sh); err != nil {
			return err
		}
		created = sh
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrShipmentID, created.ID.String(),
		telemetry.SpanAttrShipmentCode, code,
	)
	s.logger.Info("Shipment created",
		zap.String("shipment_id", created.ID.String()),
		zap.String("shipment_code", code),
	)

	resp := ToShipmentResponse(created)
	return &resp, nil
}

// Get retrieves a shipment by ID
func (s *ShipmentService) Get(ctx context.Context, id uuid.UUID) (*ShipmentResponse, error) {
	sh, err := s.deps.Shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToShipmentResponse(sh)
	return &resp, nil
}

// Delete removes a shipment, then its costs, then its attachment records and
// objects, then fires reconciliation. The steps are not atomic: once the
// shipment is gone, later failures are logged and reported as Incomplete.
func (s *ShipmentService) Delete(ctx context.Context, id uuid.UUID) (*DeleteShipmentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipment", "delete")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShipmentID, id.String())

	exists, err := s.deps.Shipments.Exists(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !exists {
		return nil, shipment.ErrShipmentNotFound.WithMessage("Shipment %s not found", id)
	}
	if err := s.deps.Shipments.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &DeleteShipmentResult{ShipmentID: id}
	log := s.logger.With(zap.String("shipment_id", id.String()))

	costs, err := s.deps.Costs.DeleteByShipment(ctx, id)
	if err != nil {
		log.Warn("Failed to delete shipment costs", zap.Error(err))
		result.Incomplete = true
	}
	result.CostsDeleted = costs

	var (
		wg                    conc.WaitGroup
		recordsErr, objectErr error
	)
	wg.Go(func() {
		result.AttachmentsDeleted, recordsErr = s.deps.Attachments.DeleteByShipment(ctx, id)
	})
	if s.deps.Objects != nil {
		wg.Go(func() {
			result.ObjectsDeleted, objectErr = s.deps.Objects.DeletePrefix(ctx, attachment.ShipmentPrefix(id))
		})
	}
	wg.Wait()
	if recordsErr != nil {
		log.Warn("Failed to delete attachment records", zap.Error(recordsErr))
		result.Incomplete = true
	}
	if objectErr != nil {
		log.Warn("Failed to delete attachment objects", zap.Error(objectErr))
		result.Incomplete = true
	}

	log.Info("Shipment deleted",
		zap.Int64("costs_deleted", result.CostsDeleted),
		zap.Int64("attachments_deleted", result.AttachmentsDeleted),
		zap.Int("objects_deleted", result.ObjectsDeleted),
		zap.Bool("incomplete", result.Incomplete),
	)

	if s.deps.Trigger != nil {
		s.deps.Trigger.TriggerReconcile(context.WithoutCancel(ctx), "delete_shipment")
	}
	return result, nil
}

// Attach uploads a file for a shipment and records it. The object is
// removed again when the record cannot be written.
func (s *ShipmentService) Attach(ctx context.Context, shipmentID uuid.UUID, req AttachFileRequest, body io.Reader) (*AttachmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipment", "attach")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShipmentID, shipmentID.String())

	if s.deps.Objects == nil {
		return nil, ErrStorageDisabled
	}
	exists, err := s.deps.Shipments.Exists(ctx, shipmentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !exists {
		return nil, shipment.ErrShipmentNotFound.WithMessage("Shipment %s not found", shipmentID)
	}

	a, err := attachment.NewAttachment(shipmentID, req.FileName, req.ContentType, req.Size, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.deps.Objects.Upload(ctx, a.StorageKey, body, a.ContentType, a.FileSize); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.deps.Attachments.Create(ctx, a); err != nil {
		telemetry.RecordError(span, err)
		if delErr := s.deps.Objects.Delete(context.WithoutCancel(ctx), a.StorageKey); delErr != nil {
			s.logger.Warn("Failed to remove uploaded object",
				zap.String("storage_key", a.StorageKey),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	resp := ToAttachmentResponse(a)
	return &resp, nil
}

// ListAttachments returns a shipment's attachment records, oldest first
func (s *ShipmentService) ListAttachments(ctx context.Context, shipmentID uuid.UUID) ([]AttachmentResponse, error) {
	records, err := s.deps.Attachments.FindByShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	responses := make([]AttachmentResponse, len(records))
	for i := range records {
		responses[i] = ToAttachmentResponse(&records[i])
	}
	return responses, nil
}
