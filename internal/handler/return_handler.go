package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReturnHandler struct {
	returns service.ReturnService
}

func NewReturnHandler(returns service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returns: returns}
}

func (h *ReturnHandler) RegisterRoutes(router *gin.RouterGroup) {
	returns := router.Group("/api/returns")
	{
		returns.POST("", middleware.RequireRole(model.RoleProjectManager, model.RoleAdmin), h.Create)
		returns.GET("/:id", middleware.RequireRole(allRoles...), h.Get)

		returns.PUT("/:id/td-decision", middleware.RequireRole(model.RoleTechnicalDirector), h.TDDecide)
		returns.PUT("/:id/start-return", middleware.RequireRole(model.RoleBuyer, model.RoleStoreKeeper), h.StartReturn)
		returns.PUT("/:id/returned", middleware.RequireRole(model.RoleBuyer, model.RoleStoreKeeper), h.MarkReturned)
		returns.PUT("/:id/settle-refund", middleware.RequireRole(model.RoleBuyer, model.RoleAdmin), h.SettleRefund)
		returns.PUT("/:id/replacement-delivery", middleware.RequireRole(model.RoleProjectManager, model.RoleStoreKeeper), h.ReplacementDelivery)
		returns.PUT("/:id/new-vendor-decision", middleware.RequireRole(model.RoleTechnicalDirector), h.TDDecideNewVendor)
	}
	router.GET("/api/change-requests/:id/returns", middleware.RequireRole(allRoles...), h.ListByChangeRequest)
}

type replacementDeliveryDTO struct {
	Lines []service.InspectionLineDTO `json:"lines" binding:"required,min=1,dive"`
}

// Create opens a return request from an inspection's rejected lines
// @Summary      Create a vendor return request
// @Tags         returns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateReturnRequestDTO  true  "Return Request Payload"
// @Success      201      {object}  response.Response{data=service.ReturnRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/returns [post]
func (h *ReturnHandler) Create(c *gin.Context) {
	var req service.CreateReturnRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ret, err := h.returns.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ret))
}

// Get returns one return request with its material snapshot
func (h *ReturnHandler) Get(c *gin.Context) {
	ret, err := h.returns.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// ListByChangeRequest returns every return request under a CR
func (h *ReturnHandler) ListByChangeRequest(c *gin.Context) {
	list, err := h.returns.ListByChangeRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, list))
}

// TDDecide records the Technical Director's decision on the return
func (h *ReturnHandler) TDDecide(c *gin.Context) {
	var req decisionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	ret, err := h.returns.TDDecide(c.Request.Context(), c.Param("id"), actorID(c), req.Approve, req.Reason)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// StartReturn marks the physical return to the vendor as underway
func (h *ReturnHandler) StartReturn(c *gin.Context) {
	ret, err := h.returns.MarkReturnInProgress(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// MarkReturned confirms the vendor took the materials back
func (h *ReturnHandler) MarkReturned(c *gin.Context) {
	ret, err := h.returns.MarkReturnedToVendor(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// SettleRefund records the credit note closing a refund resolution
func (h *ReturnHandler) SettleRefund(c *gin.Context) {
	var req service.SettleRefundDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Both refs are optional
		req = service.SettleRefundDTO{}
	}

	ret, err := h.returns.SettleRefund(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// ReplacementDelivery records the inspection of a replacement delivery
func (h *ReturnHandler) ReplacementDelivery(c *gin.Context) {
	var req replacementDeliveryDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ret, err := h.returns.RecordReplacementDelivery(c.Request.Context(), c.Param("id"), actorID(c), req.Lines)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// TDDecideNewVendor approves or rejects the replacement vendor
func (h *ReturnHandler) TDDecideNewVendor(c *gin.Context) {
	var req decisionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	ret, err := h.returns.TDDecideNewVendor(c.Request.Context(), c.Param("id"), actorID(c), req.Approve)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}
