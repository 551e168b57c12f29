// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"storeledger/internal/domain/auth"
	"storeledger/internal/domain/idempotency"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/export"
	"storeledger/internal/infrastructure/http/v1/handlers"
	"storeledger/internal/infrastructure/http/v1/middleware"
	"storeledger/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Ledger is the wired ledger service
	Ledger *ledger.Service

	// Journal backs the export endpoint
	Journal ledger.MovementRepository

	// Database is used by health checks
	Database handlers.Database

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Idempotency stores X-Idempotency-Key state; nil disables the middleware
	Idempotency idempotency.Store

	DefaultWarehouse string
	Version          string
	Development      bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	if cfg.Database != nil {
		healthHandler := handlers.NewHealthHandler(cfg.Database, cfg.Version)
		health := router.Group("/health")
		{
			health.GET("/live", healthHandler.Live)
			health.GET("/ready", healthHandler.Ready)
			health.GET("/info", healthHandler.Info)
		}
	}

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerLedgerRoutes(protected, cfg)
	}

	return router
}

// registerLedgerRoutes registers movement recording, query and export endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()
	ledgerHandler := handlers.NewLedgerHandler(base, cfg.Ledger, cfg.DefaultWarehouse)

	group := rg.Group("/ledger")

	write := group.Group("")
	write.Use(middleware.RequirePermission(auth.PermLedgerWrite))
	if cfg.Idempotency != nil {
		write.Use(middleware.Idempotency(cfg.Idempotency))
	}
	write.POST("/sales", ledgerHandler.RecordSale)
	write.POST("/purchases", ledgerHandler.RecordPurchase)
	write.POST("/returns", ledgerHandler.RecordReturn)
	write.POST("/initial-stock", ledgerHandler.RecordInitialStock)
	write.POST("/adjustments", ledgerHandler.RecordAdjustment)

	read := group.Group("")
	read.Use(middleware.RequirePermission(auth.PermLedgerRead))
	read.GET("/products/:productId/movements", ledgerHandler.GetMovements)
	read.GET("/products/:productId/stock-at", ledgerHandler.GetStockAt)
	read.GET("/products/:productId/summary", ledgerHandler.GetSummary)
	read.GET("/products/:productId/consistency", ledgerHandler.GetConsistency)

	if cfg.Journal != nil {
		exportHandler := handlers.NewExportHandler(base, export.NewExporter(cfg.Journal))
		read.GET("/export", exportHandler.Export)
	}
}
