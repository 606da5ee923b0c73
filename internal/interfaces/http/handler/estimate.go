package handler

import (
	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/costing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EstimateHandler handles cost estimate endpoints
type EstimateHandler struct {
	BaseHandler
	estimateService *appcosting.EstimateService
}

// NewEstimateHandler creates a new EstimateHandler
func NewEstimateHandler(estimateService *appcosting.EstimateService) *EstimateHandler {
	return &EstimateHandler{estimateService: estimateService}
}

// Calculate handles POST /api/v1/estimates
func (h *EstimateHandler) Calculate(c *gin.Context) {
	var req appcosting.CalculateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	estimate, err := h.estimateService.Calculate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, estimate)
}

// Release handles POST /api/v1/estimates/:id/release
func (h *EstimateHandler) Release(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid estimate id")
		return
	}

	estimate, err := h.estimateService.Release(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, estimate)
}

// MarkStandard handles POST /api/v1/estimates/:id/mark-standard
func (h *EstimateHandler) MarkStandard(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid estimate id")
		return
	}

	estimate, err := h.estimateService.MarkStandard(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, estimate)
}

// Archive handles POST /api/v1/estimates/:id/archive
func (h *EstimateHandler) Archive(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid estimate id")
		return
	}

	estimate, err := h.estimateService.Archive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, estimate)
}

// Get handles GET /api/v1/estimates/:id
func (h *EstimateHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid estimate id")
		return
	}

	estimate, err := h.estimateService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, estimate)
}

type listEstimatesQuery struct {
	MaterialID string `form:"material_id" binding:"omitempty,uuid"`
	PlantID    string `form:"plant_id" binding:"omitempty,uuid"`
}

// List handles GET /api/v1/estimates. Filtered by material and plant, or by
// status.
func (h *EstimateHandler) List(c *gin.Context) {
	var query listEstimatesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}

	var filter appcosting.EstimateListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	if query.MaterialID != "" {
		if query.PlantID == "" {
			h.BadRequest(c, "plant_id is required when filtering by material")
			return
		}
		materialID, _ := uuid.Parse(query.MaterialID)
		plantID, _ := uuid.Parse(query.PlantID)

		estimates, err := h.estimateService.ListByMaterial(c.Request.Context(), materialID, plantID, filter)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, estimates)
		return
	}

	if filter.Status == "" {
		h.BadRequest(c, "either material_id or status is required")
		return
	}

	estimates, err := h.estimateService.ListByStatus(c.Request.Context(), costing.EstimateStatus(filter.Status), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, estimates)
}
