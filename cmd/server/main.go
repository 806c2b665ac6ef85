package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	advanceapp "github.com/hims/backend/internal/application/advance"
	billingapp "github.com/hims/backend/internal/application/billing"
	"github.com/hims/backend/internal/infrastructure/clinical"
	"github.com/hims/backend/internal/infrastructure/config"
	"github.com/hims/backend/internal/infrastructure/logger"
	"github.com/hims/backend/internal/infrastructure/persistence"
	"github.com/hims/backend/internal/interfaces/http/handler"
	"github.com/hims/backend/internal/interfaces/http/middleware"
	"github.com/hims/backend/internal/interfaces/http/router"
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
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting HIMS Billing Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	advanceRepo := persistence.NewGormAdvanceRepository(db.DB)
	adjustmentRepo := persistence.NewGormAdvanceAdjustmentRepository(db.DB)

	// Transaction scopes run multi-aggregate operations in one database
	// transaction with row locks on the aggregates involved
	billingScope := persistence.NewGormBillingTransactionScope(db.DB)
	advanceScope := persistence.NewGormAdvanceTransactionScope(db.DB)

	// Clinical system adapters. The in-memory implementations stand in
	// until the ADT and price-master integrations are connected.
	priceCatalog := clinical.NewInMemoryPriceCatalog()
	bedStaySource := clinical.NewInMemoryBedStaySource()
	otCaseSource := clinical.NewInMemoryOTCaseSource()

	// Initialize application services
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, priceCatalog, billingScope)
	autoChargeService := billingapp.NewAutoChargeService(billingScope, priceCatalog, bedStaySource, otCaseSource, log)
	advanceService := advanceapp.NewAdvanceService(advanceRepo, adjustmentRepo, advanceScope)

	// Initialize HTTP handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	advanceHandler := handler.NewAdvanceHandler(advanceService)
	autoChargeHandler := handler.NewAutoChargeHandler(autoChargeService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Billing domain (invoices, line items, payments, auto-charges)
	billingRoutes := router.NewDomainGroup("billing", "/billing")

	// Invoice routes
	billingRoutes.POST("/invoices", invoiceHandler.Create)
	billingRoutes.GET("/invoices", invoiceHandler.List)
	billingRoutes.GET("/invoices/:id", invoiceHandler.GetByID)
	billingRoutes.GET("/invoices/number/:invoice_number", invoiceHandler.GetByInvoiceNumber)
	billingRoutes.PUT("/invoices/:id", invoiceHandler.Update)

	// Line item routes
	billingRoutes.POST("/invoices/:id/items", invoiceHandler.AddItem)
	billingRoutes.PUT("/invoices/:id/items/:item_id", invoiceHandler.UpdateItem)
	billingRoutes.POST("/invoices/:id/items/:item_id/void", invoiceHandler.VoidItem)

	// Payment routes
	billingRoutes.POST("/invoices/:id/payments", invoiceHandler.AddPayment)
	billingRoutes.DELETE("/invoices/:id/payments/:payment_id", invoiceHandler.DeletePayment)

	// Lifecycle routes
	billingRoutes.POST("/invoices/:id/finalize", invoiceHandler.Finalize)
	billingRoutes.POST("/invoices/:id/cancel", invoiceHandler.Cancel)
	billingRoutes.POST("/invoices/:id/reverse", invoiceHandler.Reverse)

	// Advance adjustments seen from the invoice side
	billingRoutes.GET("/invoices/:id/adjustments", advanceHandler.ListInvoiceAdjustments)

	// Advance deposit routes
	billingRoutes.POST("/advances", advanceHandler.Create)
	billingRoutes.GET("/advances/:id", advanceHandler.GetByID)
	billingRoutes.POST("/advances/apply", advanceHandler.Apply)
	billingRoutes.POST("/advances/:id/void", advanceHandler.Void)
	billingRoutes.GET("/advances/:id/adjustments", advanceHandler.ListAdvanceAdjustments)
	billingRoutes.DELETE("/adjustments/:adjustment_id", advanceHandler.RemoveAdjustment)

	// Patient-scoped queries
	billingRoutes.GET("/patients/:patient_id/invoices", invoiceHandler.ListByPatient)
	billingRoutes.GET("/patients/:patient_id/advances", advanceHandler.ListByPatient)
	billingRoutes.GET("/patients/:patient_id/advances/summary", advanceHandler.GetPatientSummary)

	// Auto-charge sync routes (bed stays, operation theatre cases)
	billingRoutes.POST("/autocharge/bed-stays", autoChargeHandler.SyncBedCharges)
	billingRoutes.POST("/autocharge/ot-cases", autoChargeHandler.SyncOTCharges)

	r.Register(billingRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
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

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
