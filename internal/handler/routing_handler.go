package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoutingHandler struct {
	routing service.RoutingService
}

func NewRoutingHandler(routing service.RoutingService) *RoutingHandler {
	return &RoutingHandler{routing: routing}
}

func (h *RoutingHandler) RegisterRoutes(router *gin.RouterGroup) {
	crs := router.Group("/api/change-requests")
	{
		crs.POST("/:id/route", middleware.RequireRole(model.RoleBuyer, model.RoleStoreKeeper, model.RoleAdmin), h.RouteMaterials)
		crs.GET("/:id/children", middleware.RequireRole(allRoles...), h.ListChildren)
	}
	router.PUT("/api/po-children/:id/status",
		middleware.RequireRole(model.RoleBuyer, model.RoleStoreKeeper, model.RoleAdmin), h.UpdateChildStatus)
}

type childStatusDTO struct {
	Status model.POChildStatus `json:"status" binding:"required,oneof=dispatched delivered completed cancelled"`
}

// RouteMaterials splits a subset of a CR's materials into a sub-order
// @Summary      Route materials to a vendor or the internal store
// @Tags         routing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Change Request ID"
// @Param        payload  body      service.RouteMaterialsRequest  true  "Routing Payload"
// @Success      201      {object}  response.Response{data=service.RouteResult}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/change-requests/{id}/route [post]
func (h *RoutingHandler) RouteMaterials(c *gin.Context) {
	var req service.RouteMaterialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.routing.RouteMaterials(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// UpdateChildStatus advances one sub-order through its lifecycle
func (h *RoutingHandler) UpdateChildStatus(c *gin.Context) {
	var req childStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	child, err := h.routing.UpdateChildStatus(c.Request.Context(), c.Param("id"), actorID(c), req.Status)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, child))
}

// ListChildren returns a CR's sub-orders
func (h *RoutingHandler) ListChildren(c *gin.Context) {
	children, err := h.routing.ListChildren(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, children))
}
