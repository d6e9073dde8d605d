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

type ChangeRequestHandler struct {
	lifecycle  service.LifecycleService
	iterations service.IterationService
}

func NewChangeRequestHandler(lifecycle service.LifecycleService, iterations service.IterationService) *ChangeRequestHandler {
	return &ChangeRequestHandler{lifecycle: lifecycle, iterations: iterations}
}

func (h *ChangeRequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	crs := router.Group("/api/change-requests")
	{
		crs.POST("", middleware.RequireRole(model.RoleEstimator, model.RoleProjectManager, model.RoleAdmin), h.Submit)
		crs.GET("", middleware.RequireRole(allRoles...), h.List)
		crs.GET("/:id", middleware.RequireRole(allRoles...), h.Get)
		crs.GET("/:id/iterations", middleware.RequireRole(allRoles...), h.Iterations)

		crs.PUT("/:id/assign-pm", middleware.RequireRole(model.RoleAdmin, model.RoleTechnicalDirector), h.AssignProjectManager)
		crs.PUT("/:id/pm-approve", middleware.RequireRole(model.RoleProjectManager), h.PMApprove)
		crs.PUT("/:id/price-materials", middleware.RequireRole(model.RoleEstimator), h.PriceMaterials)
		crs.PUT("/:id/assign-buyer", middleware.RequireRole(model.RoleAdmin, model.RoleProjectManager), h.AssignBuyer)
		crs.PUT("/:id/select-vendor", middleware.RequireRole(model.RoleBuyer), h.SelectVendor)
		crs.PUT("/:id/td-decision", middleware.RequireRole(model.RoleTechnicalDirector), h.TDDecideVendor)
		crs.PUT("/:id/dispatch", middleware.RequireRole(model.RoleBuyer), h.Dispatch)
		crs.PUT("/:id/reject", middleware.RequireRole(model.RoleProjectManager, model.RoleTechnicalDirector, model.RoleBuyer), h.Reject)
		crs.PUT("/:id/complete", middleware.RequireRole(model.RoleBuyer, model.RoleAdmin), h.CompletePurchase)
	}
}

type assignDTO struct {
	UserID string `json:"user_id" binding:"required"`
}

type decisionDTO struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

type rejectDTO struct {
	Reason string `json:"reason" binding:"required"`
}

type priceMaterialsDTO struct {
	Prices []service.PriceMaterialDTO `json:"prices" binding:"required,min=1,dive"`
}

// Submit creates a change request from a bill-of-quantities line
// @Summary      Submit a change request
// @Tags         change-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitChangeRequestDTO  true  "Change Request Payload"
// @Success      201      {object}  response.Response{data=service.ChangeRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/change-requests [post]
func (h *ChangeRequestHandler) Submit(c *gin.Context) {
	var req service.SubmitChangeRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	cr, err := h.lifecycle.Submit(c.Request.Context(), actorID(c), req)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, cr))
}

// List returns change requests, optionally filtered by status
func (h *ChangeRequestHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	filter := service.CRFilter{
		Status: model.CRStatus(c.Query("status")),
		Page:   p.Page,
		Limit:  p.Limit,
	}

	crs, total, err := h.lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   crs,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	})
}

// Get returns one change request with materials and routing state
func (h *ChangeRequestHandler) Get(c *gin.Context) {
	cr, err := h.lifecycle.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}

// Iterations returns the re-attempt tree of a change request
func (h *ChangeRequestHandler) Iterations(c *gin.Context) {
	tree, err := h.iterations.Tree(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tree))
}

// AssignProjectManager moves a pending CR to a project manager's queue
func (h *ChangeRequestHandler) AssignProjectManager(c *gin.Context) {
	var req assignDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	cr, err := h.lifecycle.AssignProjectManager(c.Request.Context(), c.Param("id"), req.UserID, actorID(c))
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}

// PMApprove records project-manager approval of the CR
func (h *ChangeRequestHandler) PMApprove(c *gin.Context) {
	cr, err := h.lifecycle.PMApprove(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}

// PriceMaterials lets the estimator fill in prices for new materials
func (h *ChangeRequestHandler) PriceMaterials(c *gin.Context) {
	var req priceMaterialsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	cr, err := h.lifecycle.PriceMaterials(c.Request.Context(), c.Param("id"), actorID(c), req.Prices)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}

// AssignBuyer hands an approved CR to a buyer
func (h *ChangeRequestHandler) AssignBuyer(c *gin.Context) {
	var req assignDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	cr, err := h.lifecycle.AssignBuyer(c.Request.Context(), c.Param("id"), req.UserID, actorID(c))
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}

// SelectVendor records the buyer's vendor choice pending TD approval
func (h *ChangeRequestHandler) SelectVendor(c *gin.Context) {
	var req service.SelectVendorDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	cr, err := h.lifecycle.SelectVendor(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}

// TDDecideVendor records the Technical Director's vendor decision
func (h *ChangeRequestHandler) TDDecideVendor(c *gin.Context) {
	var req decisionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	cr, err := h.lifecycle.TDDecideVendor(c.Request.Context(), c.Param("id"), actorID(c), req.Approve, req.Reason)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}

// Dispatch sends an approved CR to the vendor or the internal store
func (h *ChangeRequestHandler) Dispatch(c *gin.Context) {
	cr, err := h.lifecycle.Dispatch(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}

// Reject terminates a pre-approval CR with a reason
func (h *ChangeRequestHandler) Reject(c *gin.Context) {
	var req rejectDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	cr, err := h.lifecycle.Reject(c.Request.Context(), c.Param("id"), actorID(c), req.Reason)
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}

// CompletePurchase closes a CR once every sub-order is terminal
func (h *ChangeRequestHandler) CompletePurchase(c *gin.Context) {
	cr, err := h.lifecycle.CompletePurchase(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		c.JSON(statusForError(err), response.Error(statusForError(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}
