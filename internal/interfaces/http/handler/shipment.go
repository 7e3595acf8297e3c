package handler

import (
	"context"
	"io"

	shipmentapp "github.com/freightdesk/backend/internal/application/shipment"
	"github.com/freightdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultMaxUploadBytes caps one attachment upload
const DefaultMaxUploadBytes = 20 << 20

// ShipmentService books, removes and attaches files to shipments
type ShipmentService interface {
	Create(ctx context.Context, req shipmentapp.CreateShipmentRequest) (*shipmentapp.ShipmentResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*shipmentapp.ShipmentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) (*shipmentapp.DeleteShipmentResult, error)
	Attach(ctx context.Context, shipmentID uuid.UUID, req shipmentapp.AttachFileRequest, body io.Reader) (*shipmentapp.AttachmentResponse, error)
	ListAttachments(ctx context.Context, shipmentID uuid.UUID) ([]shipmentapp.AttachmentResponse, error)
}

// ShipmentHandler handles shipment and attachment endpoints
type ShipmentHandler struct {
	BaseHandler
	shipments      ShipmentService
	maxUploadBytes int64
}

// NewShipmentHandler creates a new ShipmentHandler. maxUploadBytes <= 0
// uses DefaultMaxUploadBytes.
func NewShipmentHandler(shipments ShipmentService, maxUploadBytes int64) *ShipmentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ShipmentHandler{
		shipments:      shipments,
		maxUploadBytes: maxUploadBytes,
	}
}

// Create godoc
// @Summary      Book a shipment
// @Description  Book a shipment and assign its code
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Param        request body shipmentapp.CreateShipmentRequest true "Shipment details"
// @Success      201 {object} dto.Response{data=shipmentapp.ShipmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shipments [post]
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req shipmentapp.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	sh, err := h.shipments.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sh)
}

// Get godoc
// @Summary      Get a shipment
// @Description  Get a shipment by ID
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=shipmentapp.ShipmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shipments/{id} [get]
func (h *ShipmentHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	sh, err := h.shipments.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sh)
}

// Delete godoc
// @Summary      Delete a shipment
// @Description  Delete a shipment with its costs and attachments. A partially failed cascade answers 200 with incomplete set.
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=shipmentapp.DeleteShipmentResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shipments/{id} [delete]
func (h *ShipmentHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.shipments.Delete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Attach godoc
// @Summary      Attach a file
// @Description  Upload a file to object storage and record it against the shipment
// @Tags         shipment-attachments
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Param        file formData file true "File to attach"
// @Success      201 {object} dto.Response{data=shipmentapp.AttachmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shipments/{id}/attachments [post]
func (h *ShipmentHandler) Attach(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(err)
		h.BadRequest(c, "A multipart file field named file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	att, err := h.shipments.Attach(c.Request.Context(), id, shipmentapp.AttachFileRequest{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
	}, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, att)
}

// ListAttachments godoc
// @Summary      List shipment attachments
// @Description  List the files attached to a shipment
// @Tags         shipment-attachments
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]shipmentapp.AttachmentResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shipments/{id}/attachments [get]
func (h *ShipmentHandler) ListAttachments(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	atts, err := h.shipments.ListAttachments(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, atts, len(atts))
}

// RegisterRoutes mounts the shipment routes under rg
func (h *ShipmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	shipments := rg.Group("/shipments")
	shipments.POST("", h.Create)
	shipments.GET("/:id", h.Get)
	shipments.DELETE("/:id", h.Delete)
	shipments.GET("/:id/attachments", h.ListAttachments)
	shipments.POST("/:id/attachments", middleware.BodyLimit(h.maxUploadBytes), h.Attach)
}
