package router

import (
	"net/http"

	"github.com/erp/costing/internal/infrastructure/logger"
	"github.com/erp/costing/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the handlers wired into the router
type Handlers struct {
	Estimate   *handler.EstimateHandler
	Ledger     *handler.LedgerHandler
	Close      *handler.CloseHandler
	LandedCost *handler.LandedCostHandler
}

// New builds the gin engine with middleware and all routes registered
func New(zapLogger *zap.Logger, handlers Handlers) *gin.Engine {
	handler.SetupValidator()

	engine := gin.New()
	engine.Use(
		logger.RequestIDMiddleware(),
		logger.GinMiddleware(zapLogger),
		gin.Recovery(),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")

	estimates := v1.Group("/estimates")
	{
		estimates.POST("", handlers.Estimate.Calculate)
		estimates.GET("", handlers.Estimate.List)
		estimates.GET("/:id", handlers.Estimate.Get)
		estimates.POST("/:id/release", handlers.Estimate.Release)
		estimates.POST("/:id/mark-standard", handlers.Estimate.MarkStandard)
		estimates.POST("/:id/archive", handlers.Estimate.Archive)
	}

	ledger := v1.Group("/ledger")
	{
		ledger.POST("/materials", handlers.Ledger.InitializeMaterial)
		ledger.GET("/materials/:id/entries", handlers.Ledger.GetMaterialLedger)
		ledger.GET("/materials/:id/prices", handlers.Ledger.GetPrices)
		ledger.POST("/movements", handlers.Ledger.PostMovement)
		ledger.GET("/entries", handlers.Ledger.ListEntries)
		ledger.GET("/entries/:id", handlers.Ledger.GetEntry)
	}

	closeGroup := v1.Group("/close")
	{
		closeGroup.POST("", handlers.Close.StartClose)
		closeGroup.GET("/status", handlers.Close.Status)
		closeGroup.GET("/report", handlers.Close.Report)
		closeGroup.POST("/wip", handlers.Close.AccumulateWIP)
		closeGroup.GET("/wip", handlers.Close.ListOpenWIP)
	}

	landedCosts := v1.Group("/landed-costs")
	{
		landedCosts.POST("", handlers.LandedCost.Create)
		landedCosts.GET("", handlers.LandedCost.List)
		landedCosts.GET("/:id", handlers.LandedCost.Get)
		landedCosts.POST("/:id/lines", handlers.LandedCost.AddLine)
		landedCosts.POST("/:id/costs", handlers.LandedCost.AddIndirectCost)
		landedCosts.POST("/:id/calculate", handlers.LandedCost.Calculate)
		landedCosts.POST("/:id/post", handlers.LandedCost.Post)
	}

	return engine
}
