package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type InspectionHandler struct {
	inspections service.InspectionService
}

func NewInspectionHandler(inspections service.InspectionService) *InspectionHandler {
	return &InspectionHandler{inspections: inspections}
}

func (h *InspectionHandler) RegisterRoutes(router *gin.RouterGroup) {
	inspections := router.Group("/api/inspections")
	{
		inspections.POST("", middleware.RequireRole(model.RoleProjectManager, model.RoleStoreKeeper, model.RoleAdmin), h.Record)
		inspections.GET("/:id", middleware.RequireRole(allRoles...), h.Get)
	}
	router.GET("/api/change-requests/:id/inspections", middleware.RequireRole(allRoles...), h.ListByChangeRequest)
}

// Record stores one accept/reject pass over a vendor delivery
// @Summary      Record a delivery inspection
// @Tags         inspections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.RecordInspectionDTO  true  "Inspection Payload"
// @Success      201      {object}  response.Response{data=service.InspectionResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/inspections [post]
func (h *InspectionHandler) Record(c *gin.Context) {
	var req service.RecordInspectionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	insp, err := h.inspections.Record(c.Request.Context(), actorID(c), req)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, insp))
}

// Get returns one inspection with its material lines
func (h *InspectionHandler) Get(c *gin.Context) {
	insp, err := h.inspections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, insp))
}

// ListByChangeRequest returns every inspection recorded against a CR
func (h *InspectionHandler) ListByChangeRequest(c *gin.Context) {
	list, err := h.inspections.ListByChangeRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, list))
}
