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

type VendorHandler struct {
	vendors service.VendorService
}

func NewVendorHandler(vendors service.VendorService) *VendorHandler {
	return &VendorHandler{vendors: vendors}
}

func (h *VendorHandler) RegisterRoutes(router *gin.RouterGroup) {
	vendors := router.Group("/api/vendors")
	{
		vendors.POST("", middleware.RequireRole(model.RoleBuyer, model.RoleAdmin), h.Create)
		vendors.GET("", middleware.RequireRole(allRoles...), h.List)
		vendors.GET("/:id", middleware.RequireRole(allRoles...), h.Get)
		vendors.PUT("/:id/prices", middleware.RequireRole(model.RoleBuyer, model.RoleAdmin), h.SetPrice)
	}
}

// Create registers a new supplier
func (h *VendorHandler) Create(c *gin.Context) {
	var req service.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vendor, err := h.vendors.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vendor))
}

// List returns suppliers with their quoted prices
func (h *VendorHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	vendors, total, err := h.vendors.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"vendors": vendors,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

// Get returns one supplier
func (h *VendorHandler) Get(c *gin.Context) {
	vendor, err := h.vendors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// SetPrice upserts a supplier's quote for one material
func (h *VendorHandler) SetPrice(c *gin.Context) {
	var req service.SetVendorPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	price, err := h.vendors.SetPrice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, price))
}
