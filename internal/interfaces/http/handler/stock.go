package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	recvapp "github.com/retailops/backoffice/internal/application/receiving"
	"github.com/retailops/backoffice/internal/domain/shared"
	"github.com/retailops/backoffice/internal/interfaces/http/dto"
)

// StockHandler handles stock level API endpoints
type StockHandler struct {
	BaseHandler
	stockService *recvapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *recvapp.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// GetLevel returns the stock level for one product at one location
func (h *StockHandler) GetLevel(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}
	locationID, err := uuid.Parse(c.Query("location_id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	level, err := h.stockService.GetLevel(c.Request.Context(), productID, locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// ListByLocation returns all stock levels at a location
func (h *StockHandler) ListByLocation(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("locationId"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	levels, err := h.stockService.ListByLocation(c.Request.Context(), locationID, shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, levels)
}

// Adjust applies a manual stock correction
func (h *StockHandler) Adjust(c *gin.Context) {
	var req recvapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	level, err := h.stockService.Adjust(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// RegisterRoutes registers all stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.GET("/levels", h.GetLevel)
		stock.GET("/locations/:locationId/levels", h.ListByLocation)
		stock.POST("/adjustments", h.Adjust)
	}
}
