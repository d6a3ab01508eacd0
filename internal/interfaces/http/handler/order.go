package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	recvapp "github.com/retailops/backoffice/internal/application/receiving"
	"github.com/retailops/backoffice/internal/domain/shared"
	"github.com/retailops/backoffice/internal/interfaces/http/dto"
)

// OrderHandler handles receiving order API endpoints
type OrderHandler struct {
	BaseHandler
	orderService          *recvapp.OrderService
	reconciliationService *recvapp.ReconciliationService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *recvapp.OrderService, reconciliationService *recvapp.ReconciliationService) *OrderHandler {
	return &OrderHandler{
		orderService:          orderService,
		reconciliationService: reconciliationService,
	}
}

// Create creates a new receiving order in DRAFT state
func (h *OrderHandler) Create(c *gin.Context) {
	var req recvapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Get returns one order with its lines
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List returns orders matching the filter
func (h *OrderHandler) List(c *gin.Context) {
	filter := recvapp.OrderListFilter{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Ship marks an order as sent from the source location
func (h *OrderHandler) Ship(c *gin.Context) {
	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.Ship(c.Request.Context(), orderID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel cancels an order that has not started receiving
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req recvapp.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), orderID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Revert performs the administrative SENT -> DRAFT rollback
func (h *OrderHandler) Revert(c *gin.Context) {
	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.RevertToDraft(c.Request.Context(), orderID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ApplyReceipt applies one receipt batch against an order
func (h *OrderHandler) ApplyReceipt(c *gin.Context) {
	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}

	var req recvapp.ApplyReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.reconciliationService.ApplyReceipt(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AuditTrail returns the chronological audit trail for an order
func (h *OrderHandler) AuditTrail(c *gin.Context) {
	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		Filters:  map[string]interface{}{},
	}
	if action := c.Query("action"); action != "" {
		filter.Filters["action"] = action
	}

	events, err := h.orderService.GetAuditTrail(c.Request.Context(), orderID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, events)
}

// parseOrderID parses the :id path parameter
func (h *OrderHandler) parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return uuid.Nil, false
	}
	return orderID, true
}

// RegisterRoutes registers all receiving order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/ship", h.Ship)
		orders.POST("/:id/cancel", h.Cancel)
		orders.POST("/:id/revert", h.Revert)
		orders.POST("/:id/receipts", h.ApplyReceipt)
		orders.GET("/:id/audit", h.AuditTrail)
	}
}
