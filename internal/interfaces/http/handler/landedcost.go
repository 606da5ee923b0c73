package handler

import (
	applandedcost "github.com/erp/costing/internal/application/landedcost"
	"github.com/erp/costing/internal/domain/landedcost"
	"github.com/gin-gonic/gin"
)

// LandedCostHandler handles landed cost document endpoints
type LandedCostHandler struct {
	BaseHandler
	documentService *applandedcost.DocumentService
}

// NewLandedCostHandler creates a new LandedCostHandler
func NewLandedCostHandler(documentService *applandedcost.DocumentService) *LandedCostHandler {
	return &LandedCostHandler{documentService: documentService}
}

// Create handles POST /api/v1/landed-costs
func (h *LandedCostHandler) Create(c *gin.Context) {
	var req applandedcost.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	document, err := h.documentService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, document)
}

// AddLine handles POST /api/v1/landed-costs/:id/lines
func (h *LandedCostHandler) AddLine(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid document id")
		return
	}

	var req applandedcost.LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	document, err := h.documentService.AddLine(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, document)
}

// AddIndirectCost handles POST /api/v1/landed-costs/:id/costs
func (h *LandedCostHandler) AddIndirectCost(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid document id")
		return
	}

	var req applandedcost.IndirectCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	document, err := h.documentService.AddIndirectCost(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, document)
}

// Calculate handles POST /api/v1/landed-costs/:id/calculate
func (h *LandedCostHandler) Calculate(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid document id")
		return
	}

	document, err := h.documentService.Calculate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, document)
}

// Post handles POST /api/v1/landed-costs/:id/post
func (h *LandedCostHandler) Post(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid document id")
		return
	}

	document, err := h.documentService.Post(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, document)
}

// Get handles GET /api/v1/landed-costs/:id
func (h *LandedCostHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid document id")
		return
	}

	document, err := h.documentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, document)
}

type listDocumentsQuery struct {
	Status string `form:"status" binding:"required,oneof=DRAFT CALCULATED POSTED"`
}

// List handles GET /api/v1/landed-costs
func (h *LandedCostHandler) List(c *gin.Context) {
	var query listDocumentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}

	var filter applandedcost.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	documents, total, err := h.documentService.ListByStatus(c.Request.Context(), landedcost.DocumentStatus(query.Status), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, documents, total, filter.Page, filter.PageSize)
}
