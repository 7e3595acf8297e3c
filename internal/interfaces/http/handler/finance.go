package handler

import (
	"context"

	financeapp "github.com/freightdesk/backend/internal/application/finance"
	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LifecycleService moves costs through application and settlement
type LifecycleService interface {
	Apply(ctx context.Context, req financeapp.ApplyRequest) (*financeapp.ApplicationResponse, error)
	CancelApplication(ctx context.Context, number string) (*financeapp.ApplicationResponse, error)
	Settle(ctx context.Context, req financeapp.SettleRequest) ([]financeapp.CostResponse, error)
	CancelSettlement(ctx context.Context, req financeapp.CancelSettlementRequest) ([]financeapp.CostResponse, error)
	GetApplication(ctx context.Context, number string) (*financeapp.ApplicationResponse, error)
	ListApplications(ctx context.Context, query financeapp.ListApplicationsQuery) ([]financeapp.ApplicationResponse, error)
}

// CostService registers and removes costs
type CostService interface {
	Create(ctx context.Context, req financeapp.CreateCostRequest) (*financeapp.CostResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*financeapp.CostResponse, error)
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]financeapp.CostResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Reconciler runs or previews a reconciliation pass
type Reconciler interface {
	Run(ctx context.Context) (finance.ReconcileReport, error)
	Preview(ctx context.Context) (finance.ReconcileReport, error)
}

// FinanceHandler handles expense application, settlement, cost and
// reconciliation endpoints
type FinanceHandler struct {
	BaseHandler
	lifecycle  LifecycleService
	costs      CostService
	reconciler Reconciler
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(lifecycle LifecycleService, costs CostService, reconciler Reconciler) *FinanceHandler {
	return &FinanceHandler{
		lifecycle:  lifecycle,
		costs:      costs,
		reconciler: reconciler,
	}
}

// ==================== Applications ====================

// Apply godoc
// @Summary      Apply for costs
// @Description  Group unapplied costs of one type and currency into a new expense application
// @Tags         finance-applications
// @Accept       json
// @Produce      json
// @Param        request body financeapp.ApplyRequest true "Costs to apply"
// @Success      201 {object} dto.Response{data=financeapp.ApplicationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /finance/applications [post]
func (h *FinanceHandler) Apply(c *gin.Context) {
	var req financeapp.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	app, err := h.lifecycle.Apply(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, app)
}

// CancelApplication godoc
// @Summary      Cancel an expense application
// @Description  Detach every applied cost from the application and mark it canceled
// @Tags         finance-applications
// @Accept       json
// @Produce      json
// @Param        number path string true "Application number"
// @Success      200 {object} dto.Response{data=financeapp.ApplicationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /finance/applications/{number}/cancel [post]
func (h *FinanceHandler) CancelApplication(c *gin.Context) {
	var uri dto.NumberRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	app, err := h.lifecycle.CancelApplication(c.Request.Context(), uri.Number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, app)
}

// GetApplication godoc
// @Summary      Get an expense application
// @Description  Get an expense application with its costs
// @Tags         finance-applications
// @Accept       json
// @Produce      json
// @Param        number path string true "Application number"
// @Success      200 {object} dto.Response{data=financeapp.ApplicationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /finance/applications/{number} [get]
func (h *FinanceHandler) GetApplication(c *gin.Context) {
	var uri dto.NumberRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	app, err := h.lifecycle.GetApplication(c.Request.Context(), uri.Number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, app)
}

// ListApplications godoc
// @Summary      List expense applications
// @Description  List expense applications created within a date range
// @Tags         finance-applications
// @Accept       json
// @Produce      json
// @Param        from query string false "Created on or after (YYYY-MM-DD)"
// @Param        to query string false "Created on or before (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]financeapp.ApplicationResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /finance/applications [get]
func (h *FinanceHandler) ListApplications(c *gin.Context) {
	var query financeapp.ListApplicationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	apps, err := h.lifecycle.ListApplications(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, apps, len(apps))
}

// ==================== Settlement ====================

// Settle godoc
// @Summary      Settle costs
// @Description  Move applied costs to settled
// @Tags         finance-settlement
// @Accept       json
// @Produce      json
// @Param        request body financeapp.SettleRequest true "Costs to settle"
// @Success      200 {object} dto.Response{data=[]financeapp.CostResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /finance/costs/settle [post]
func (h *FinanceHandler) Settle(c *gin.Context) {
	var req financeapp.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	costs, err := h.lifecycle.Settle(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, costs, len(costs))
}

// CancelSettlement godoc
// @Summary      Cancel settlement
// @Description  Move settled costs back to applied
// @Tags         finance-settlement
// @Accept       json
// @Produce      json
// @Param        request body financeapp.CancelSettlementRequest true "Costs to revert"
// @Success      200 {object} dto.Response{data=[]financeapp.CostResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /finance/costs/cancel-settlement [post]
func (h *FinanceHandler) CancelSettlement(c *gin.Context) {
	var req financeapp.CancelSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	costs, err := h.lifecycle.CancelSettlement(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, costs, len(costs))
}

// ==================== Costs ====================

// CreateCost godoc
// @Summary      Register a cost
// @Description  Register a receivable or payable cost against a shipment
// @Tags         finance-costs
// @Accept       json
// @Produce      json
// @Param        request body financeapp.CreateCostRequest true "Cost details"
// @Success      201 {object} dto.Response{data=financeapp.CostResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /finance/costs [post]
func (h *FinanceHandler) CreateCost(c *gin.Context) {
	var req financeapp.CreateCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	cost, err := h.costs.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cost)
}

// GetCost godoc
// @Summary      Get a cost
// @Description  Get a cost by ID
// @Tags         finance-costs
// @Accept       json
// @Produce      json
// @Param        id path string true "Cost ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.CostResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /finance/costs/{id} [get]
func (h *FinanceHandler) GetCost(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	cost, err := h.costs.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cost)
}

// DeleteCost godoc
// @Summary      Delete a cost
// @Description  Delete a cost and reconcile its application
// @Tags         finance-costs
// @Accept       json
// @Produce      json
// @Param        id path string true "Cost ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /finance/costs/{id} [delete]
func (h *FinanceHandler) DeleteCost(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.costs.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id})
}

// ListShipmentCosts godoc
// @Summary      List shipment costs
// @Description  List every cost registered against a shipment
// @Tags         finance-costs
// @Accept       json
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]financeapp.CostResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shipments/{id}/costs [get]
func (h *FinanceHandler) ListShipmentCosts(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	costs, err := h.costs.ListByShipment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, costs, len(costs))
}

// ==================== Reconciliation ====================

// RunReconciliation godoc
// @Summary      Run reconciliation
// @Description  Run one reconciliation pass synchronously and report the changes
// @Tags         finance-reconciliation
// @Produce      json
// @Success      200 {object} dto.Response{data=financeapp.ReconcileResponse}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /finance/reconciliation/run [post]
func (h *FinanceHandler) RunReconciliation(c *gin.Context) {
	report, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, financeapp.ToReconcileResponse(report, false))
}

// PreviewReconciliation godoc
// @Summary      Preview reconciliation
// @Description  Report what a reconciliation pass would change without writing
// @Tags         finance-reconciliation
// @Produce      json
// @Success      200 {object} dto.Response{data=financeapp.ReconcileResponse}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /finance/reconciliation/preview [get]
func (h *FinanceHandler) PreviewReconciliation(c *gin.Context) {
	report, err := h.reconciler.Preview(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, financeapp.ToReconcileResponse(report, true))
}

// RegisterRoutes mounts the finance routes under rg
func (h *FinanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	fin := rg.Group("/finance")

	apps := fin.Group("/applications")
	apps.POST("", h.Apply)
	apps.GET("", h.ListApplications)
	apps.GET("/:number", h.GetApplication)
	apps.POST("/:number/cancel", h.CancelApplication)

	costs := fin.Group("/costs")
	costs.POST("", h.CreateCost)
	costs.POST("/settle", h.Settle)
	costs.POST("/cancel-settlement", h.CancelSettlement)
	costs.GET("/:id", h.GetCost)
	costs.DELETE("/:id", h.DeleteCost)

	rec := fin.Group("/reconciliation")
	rec.POST("/run", h.RunReconciliation)
	rec.GET("/preview", h.PreviewReconciliation)

	rg.GET("/shipments/:id/costs", h.ListShipmentCosts)
}
