package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcosting "github.com/erp/costing/internal/application/costing"
	applandedcost "github.com/erp/costing/internal/application/landedcost"
	appledger "github.com/erp/costing/internal/application/ledger"
	appclose "github.com/erp/costing/internal/application/periodclose"
	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/cache"
	"github.com/erp/costing/internal/infrastructure/config"
	"github.com/erp/costing/internal/infrastructure/event"
	"github.com/erp/costing/internal/infrastructure/logger"
	"github.com/erp/costing/internal/infrastructure/persistence"
	"github.com/erp/costing/internal/infrastructure/telemetry"
	"github.com/erp/costing/internal/interfaces/http/handler"
	"github.com/erp/costing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting costing engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected")

	// Initialize repositories
	estimateRepo := persistence.NewGormCostEstimateRepository(db.DB)
	entryRepo := persistence.NewGormMaterialLedgerEntryRepository(db.DB)
	priceRepo := persistence.NewGormMaterialPriceRepository(db.DB)
	varianceRepo := persistence.NewGormCostVarianceRepository(db.DB)
	runRepo := persistence.NewGormPeriodCloseRunRepository(db.DB)
	wipRepo := persistence.NewGormWIPPositionRepository(db.DB)
	lockRepo := persistence.NewGormPeriodLockRepository(db.DB)
	documentRepo := persistence.NewGormLandedCostDocumentRepository(db.DB)

	// Master data providers for the estimation engine
	bomProvider := persistence.NewGormBOMProvider(db.DB)
	routingProvider := persistence.NewGormRoutingProvider(db.DB)
	sheetProvider := persistence.NewGormCostingSheetProvider(db.DB)

	// Idempotency store: Redis shared across instances, in-memory fallback
	var idempotencyStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idempotencyStore = redisStore
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize application services
	standardPrices := appcosting.NewStandardPriceProvider(estimateRepo)
	componentPrices := appledger.NewValuationPriceProvider(priceRepo)
	engine := costing.NewEstimationEngine(bomProvider, routingProvider, sheetProvider, componentPrices, standardPrices)

	estimateService := appcosting.NewEstimateService(estimateRepo, engine)
	postingService := appledger.NewPostingService(entryRepo, priceRepo, lockRepo, standardPrices, cfg.Valuation.AllowNegativeStock)
	closeService := appclose.NewCloseService(runRepo, wipRepo, lockRepo, entryRepo, priceRepo, varianceRepo, nil, cfg.Close.TopContributors)
	documentService := applandedcost.NewDocumentService(documentRepo, postingService)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	estimateService.SetEventPublisher(eventBus)
	postingService.SetEventPublisher(eventBus)
	closeService.SetEventPublisher(eventBus)
	documentService.SetEventPublisher(eventBus)

	// Register integration event handlers with deduplication
	movementHandler := appledger.NewMovementHandler(postingService)
	standardCostHandler := appledger.NewStandardCostHandler(postingService)
	wipHandler := appclose.NewWIPHandler(closeService)

	wrapped := event.WrapHandlersWithIdempotency(
		[]shared.EventHandler{movementHandler, standardCostHandler, wipHandler},
		idempotencyStore,
		log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{
			Enabled: cfg.Event.IdempotencyEnabled,
			TTL:     cfg.Event.IdempotencyTTL,
		}),
	)
	for _, h := range wrapped {
		eventBus.Subscribe(h)
	}
	log.Info("Event handlers registered",
		zap.Strings("movement_events", movementHandler.EventTypes()),
		zap.Strings("standard_cost_events", standardCostHandler.EventTypes()),
		zap.Strings("wip_events", wipHandler.EventTypes()),
	)

	// Initialize metrics and feed them from domain events
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	costingMetrics, err := telemetry.NewCostingMetrics(telemetry.CostingMetricsConfig{
		Meter:  meterProvider.Meter("costing"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize costing metrics", zap.Error(err))
	}
	eventBus.Subscribe(telemetry.NewMetricsHandler(costingMetrics))

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize HTTP layer
	engineHTTP := router.New(log, router.Handlers{
		Estimate:   handler.NewEstimateHandler(estimateService),
		Ledger:     handler.NewLedgerHandler(postingService),
		Close:      handler.NewCloseHandler(closeService),
		LandedCost: handler.NewLandedCostHandler(documentService),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engineHTTP,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
