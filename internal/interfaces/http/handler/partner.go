package handler

import (
	"context"

	partnerapp "github.com/freightdesk/backend/internal/application/partner"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PartnerService registers customers and suppliers
type PartnerService interface {
	CreateCustomer(ctx context.Context, req partnerapp.CreatePartnerRequest) (*partnerapp.PartnerResponse, error)
	CreateSupplier(ctx context.Context, req partnerapp.CreatePartnerRequest) (*partnerapp.PartnerResponse, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*partnerapp.PartnerResponse, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*partnerapp.PartnerResponse, error)
}

// PartnerHandler handles customer and supplier endpoints
type PartnerHandler struct {
	BaseHandler
	partners PartnerService
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(partners PartnerService) *PartnerHandler {
	return &PartnerHandler{partners: partners}
}

type createFunc func(context.Context, partnerapp.CreatePartnerRequest) (*partnerapp.PartnerResponse, error)

type getFunc func(context.Context, uuid.UUID) (*partnerapp.PartnerResponse, error)

func (h *PartnerHandler) create(fn createFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req partnerapp.CreatePartnerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
		p, err := fn(c.Request.Context(), req)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Created(c, p)
	}
}

func (h *PartnerHandler) get(fn getFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.parseID(c, "id")
		if !ok {
			return
		}
		p, err := fn(c.Request.Context(), id)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, p)
	}
}

// CreateCustomer godoc
// @Summary      Create a customer
// @Description  Register a customer with a generated code
// @Tags         partners
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.CreatePartnerRequest true "Partner details"
// @Success      201 {object} dto.Response{data=partnerapp.PartnerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /customers [post]
func (h *PartnerHandler) CreateCustomer(c *gin.Context) {
	h.create(h.partners.CreateCustomer)(c)
}

// GetCustomer godoc
// @Summary      Get a customer
// @Description  Get a customer by ID
// @Tags         partners
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} dto.Response{data=partnerapp.PartnerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /customers/{id} [get]
func (h *PartnerHandler) GetCustomer(c *gin.Context) {
	h.get(h.partners.GetCustomer)(c)
}

// CreateSupplier godoc
// @Summary      Create a supplier
// @Description  Register a supplier with a generated code
// @Tags         partners
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.CreatePartnerRequest true "Partner details"
// @Success      201 {object} dto.Response{data=partnerapp.PartnerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /suppliers [post]
func (h *PartnerHandler) CreateSupplier(c *gin.Context) {
	h.create(h.partners.CreateSupplier)(c)
}

// GetSupplier godoc
// @Summary      Get a supplier
// @Description  Get a supplier by ID
// @Tags         partners
// @Produce      json
// @Param        id path string true "Supplier ID" format(uuid)
// @Success      200 {object} dto.Response{data=partnerapp.PartnerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /suppliers/{id} [get]
func (h *PartnerHandler) GetSupplier(c *gin.Context) {
	h.get(h.partners.GetSupplier)(c)
}

// RegisterRoutes mounts /customers and /suppliers under rg
func (h *PartnerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/customers", h.CreateCustomer)
	rg.GET("/customers/:id", h.GetCustomer)
	rg.POST("/suppliers", h.CreateSupplier)
	rg.GET("/suppliers/:id", h.GetSupplier)
}
