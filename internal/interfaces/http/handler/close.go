package handler

import (
	appclose "github.com/erp/costing/internal/application/periodclose"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CloseHandler handles period close endpoints
type CloseHandler struct {
	BaseHandler
	closeService *appclose.CloseService
}

// NewCloseHandler creates a new CloseHandler
func NewCloseHandler(closeService *appclose.CloseService) *CloseHandler {
	return &CloseHandler{closeService: closeService}
}

// StartClose handles POST /api/v1/close
func (h *CloseHandler) StartClose(c *gin.Context) {
	var req appclose.StartCloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	run, err := h.closeService.StartClose(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, run)
}

type periodQuery struct {
	PlantID string `form:"plant_id" binding:"required,uuid"`
	Year    int    `form:"year" binding:"required"`
	Period  int    `form:"period" binding:"required,min=1,max=12"`
}

// Status handles GET /api/v1/close/status
func (h *CloseHandler) Status(c *gin.Context) {
	var query periodQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}
	plantID, _ := uuid.Parse(query.PlantID)

	run, err := h.closeService.GetStatus(c.Request.Context(), plantID, query.Year, query.Period)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, run)
}

// Report handles GET /api/v1/close/report
func (h *CloseHandler) Report(c *gin.Context) {
	var query periodQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}
	plantID, _ := uuid.Parse(query.PlantID)

	report, err := h.closeService.Report(c.Request.Context(), plantID, query.Year, query.Period)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// AccumulateWIP handles POST /api/v1/close/wip
func (h *CloseHandler) AccumulateWIP(c *gin.Context) {
	var req appclose.AccumulateWIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	position, err := h.closeService.AccumulateWIP(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, position)
}

// ListOpenWIP handles GET /api/v1/close/wip
func (h *CloseHandler) ListOpenWIP(c *gin.Context) {
	var query periodQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}
	plantID, _ := uuid.Parse(query.PlantID)

	positions, err := h.closeService.ListOpenWIP(c.Request.Context(), plantID, query.Year, query.Period)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, positions)
}
