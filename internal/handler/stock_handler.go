package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stock service.StockService
}

func NewStockHandler(stock service.StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock")
	{
		stock.GET("", middleware.RequireRole(allRoles...), h.List)
		stock.GET("/:material", middleware.RequireRole(allRoles...), h.Get)
		stock.PUT("", middleware.RequireRole(model.RoleStoreKeeper, model.RoleAdmin), h.Upsert)
	}
	router.PUT("/api/catalog", middleware.RequireRole(model.RoleEstimator, model.RoleAdmin), h.UpsertCatalogItem)
}

// List returns the store's inventory
func (h *StockHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	items, total, err := h.stock.ListStock(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// Get returns one stock line by material name
func (h *StockHandler) Get(c *gin.Context) {
	item, err := h.stock.GetStock(c.Request.Context(), c.Param("material"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Upsert sets a material's available quantity
func (h *StockHandler) Upsert(c *gin.Context) {
	var req service.UpsertStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.stock.UpsertStock(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// UpsertCatalogItem maintains the priced material catalog
func (h *StockHandler) UpsertCatalogItem(c *gin.Context) {
	var req service.UpsertCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.stock.UpsertCatalogItem(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}
