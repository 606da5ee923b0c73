package handler

import (
	appledger "github.com/erp/costing/internal/application/ledger"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles material ledger endpoints
type LedgerHandler struct {
	BaseHandler
	postingService *appledger.PostingService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(postingService *appledger.PostingService) *LedgerHandler {
	return &LedgerHandler{postingService: postingService}
}

// InitializeMaterial handles POST /api/v1/ledger/materials
func (h *LedgerHandler) InitializeMaterial(c *gin.Context) {
	var req appledger.InitializeMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	prices, err := h.postingService.InitializeMaterial(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, prices)
}

// PostMovement handles POST /api/v1/ledger/movements
func (h *LedgerHandler) PostMovement(c *gin.Context) {
	var req appledger.PostMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	entry, err := h.postingService.PostMovement(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// GetEntry handles GET /api/v1/ledger/entries/:id
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid entry id")
		return
	}

	entry, err := h.postingService.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

type plantQuery struct {
	PlantID string `form:"plant_id" binding:"required,uuid"`
}

type materialLedgerQuery struct {
	PlantID string `form:"plant_id" binding:"required,uuid"`
	Year    int    `form:"year" binding:"required"`
	Period  int    `form:"period" binding:"required,min=1,max=12"`
}

// GetMaterialLedger handles GET /api/v1/ledger/materials/:id/entries
func (h *LedgerHandler) GetMaterialLedger(c *gin.Context) {
	materialID, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid material id")
		return
	}

	var query materialLedgerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}

	period, err := valueobject.NewFiscalPeriod(query.Year, query.Period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	plantID, _ := uuid.Parse(query.PlantID)

	entries, err := h.postingService.GetMaterialLedger(c.Request.Context(), materialID, plantID, period)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// ListEntries handles GET /api/v1/ledger/entries
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	var query plantQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}

	var filter appledger.EntryListFilter
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
	plantID, _ := uuid.Parse(query.PlantID)

	entries, total, err := h.postingService.ListEntries(c.Request.Context(), plantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// GetPrices handles GET /api/v1/ledger/materials/:id/prices
func (h *LedgerHandler) GetPrices(c *gin.Context) {
	materialID, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid material id")
		return
	}

	var query plantQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}
	plantID, _ := uuid.Parse(query.PlantID)

	prices, err := h.postingService.GetPrices(c.Request.Context(), materialID, plantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, prices)
}
