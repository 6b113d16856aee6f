package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	eventapp "github.com/erp/backend/internal/application/event"
	procurementapp "github.com/erp/backend/internal/application/procurement"
	"github.com/erp/backend/internal/infrastructure/auth"
	"github.com/erp/backend/internal/infrastructure/cache"
	"github.com/erp/backend/internal/infrastructure/config"
	"github.com/erp/backend/internal/infrastructure/event"
	"github.com/erp/backend/internal/infrastructure/logger"
	"github.com/erp/backend/internal/infrastructure/persistence"
	procurementpersist "github.com/erp/backend/internal/infrastructure/persistence/procurement"
	"github.com/erp/backend/internal/infrastructure/ratelimit"
	"github.com/erp/backend/internal/infrastructure/scheduler"
	"github.com/erp/backend/internal/interfaces/http/handler"
	"github.com/erp/backend/internal/interfaces/http/middleware"
	"github.com/erp/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
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
		_ = logger.Sync(log)
	}()

	log.Info("Starting ERP Backend",
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

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + strconv.Itoa(cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	jwtService := auth.NewJWTService(cfg.JWT)
	eventBus := event.NewInMemoryEventBus(log)
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// --- identity repositories, shared across procurement services ---
	departmentRepo := persistence.NewGormDepartmentRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	roleRepo := persistence.NewGormRoleRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)

	// --- procurement repositories ---
	vendorRepo := procurementpersist.NewGormVendorRepository(db.DB)
	prRepo := procurementpersist.NewGormPurchaseRequestRepository(db.DB, eventSerializer)
	poRepo := procurementpersist.NewGormPurchaseOrderRepository(db.DB, eventSerializer)
	receiptRepo := procurementpersist.NewGormReceiptRepository(db.DB)
	invoiceRepo := procurementpersist.NewGormInvoiceRepository(db.DB)
	budgetRepo := procurementpersist.NewGormBudgetRepository(db.DB)
	budgetReservationRepo := procurementpersist.NewGormBudgetReservationRepository(db.DB)
	approvalRepo := procurementpersist.NewGormApprovalRepository(db.DB)
	rfqRepo := procurementpersist.NewGormRfqRepository(db.DB)
	contractRepo := procurementpersist.NewGormContractRepository(db.DB)
	auditLogRepo := procurementpersist.NewGormAuditLogRepository(db.DB)
	deviceRepo := procurementpersist.NewGormUserDeviceRepository(db.DB)
	notificationRepo := procurementpersist.NewGormNotificationRepository(db.DB)
	scorecardRepo := procurementpersist.NewGormVendorScorecardRepository(db.DB)

	// --- procurement application services ---
	vendorService := procurementapp.NewVendorService(vendorRepo, auditLogRepo)
	approvalService := procurementapp.NewApprovalService(approvalRepo, departmentRepo, userRepo)
	approvalService.SetEventPublisher(eventBus)
	budgetService := procurementapp.NewBudgetService(budgetRepo, budgetReservationRepo)
	budgetService.SetEventPublisher(eventBus)
	prService := procurementapp.NewPurchaseRequestService(prRepo, budgetService, approvalService, auditLogRepo)
	poService := procurementapp.NewPurchaseOrderService(poRepo, prRepo, vendorRepo, budgetService, auditLogRepo)
	matcherService := procurementapp.NewMatcherService(invoiceRepo, poRepo, receiptRepo, auditLogRepo)
	receiptService := procurementapp.NewReceiptService(receiptRepo, poRepo, invoiceRepo, matcherService, auditLogRepo)
	invoiceService := procurementapp.NewInvoiceService(invoiceRepo, poRepo, budgetService, auditLogRepo)
	rfqService := procurementapp.NewRfqService(rfqRepo, vendorRepo, auditLogRepo)
	contractService := procurementapp.NewContractService(contractRepo, vendorRepo)
	sweepService := procurementapp.NewSweepService(contractRepo, approvalRepo, budgetRepo, deviceRepo, notificationRepo, vendorRepo, scorecardRepo, invoiceRepo, log)

	// --- procurement HTTP handlers ---
	procurementHandlers := &handler.ProcurementHandlers{
		Vendors:          handler.NewVendorHandler(vendorService),
		PurchaseRequests: handler.NewPurchaseRequestHandler(prService, approvalService),
		PurchaseOrders:   handler.NewPurchaseOrderHandler(poService),
		Receipts:         handler.NewReceiptHandler(receiptService),
		Invoices:         handler.NewInvoiceHandler(invoiceService, matcherService),
		Budgets:          handler.NewBudgetHandler(budgetService),
		Rfqs:             handler.NewRfqHandler(rfqService),
		Contracts:        handler.NewContractHandler(contractService),
		Outbox:           handler.NewOutboxHandler(outboxService),
	}

	// --- middleware ---
	authMiddleware := middleware.JWTAuthMiddleware(jwtService)

	idempotencyStore := cache.NewRedisHTTPIdempotencyStore(redisClient)
	idempotencyMiddleware := middleware.Idempotency(middleware.IdempotencyConfig{
		Store:  idempotencyStore,
		Logger: log,
	})

	rateLimiter := ratelimit.NewRedisRateLimiterWithClient(redisClient)
	roleResolver := newGormRoleNameResolver(roleRepo)
	rateLimitMiddleware := middleware.ProcurementRateLimit(middleware.ProcurementRateLimitConfig{
		Limiter: rateLimiter,
		Roles:   roleResolver,
		Logger:  log,
	})

	// --- scheduled sweeps (spec.md §4.9) ---
	sweepScheduler := scheduler.NewProcurementSweepScheduler(scheduler.ProcurementSweepFuncs{
		DocumentExpiry:    sweepService.DocumentExpirySweep,
		BudgetUtilization: sweepService.BudgetUtilizationSweep,
		VendorRiskRefresh: sweepService.VendorRiskScoreRefreshSweep,
		ApprovalTimeout:   sweepService.ApprovalTimeoutSweep,
		DeviceCleanup:     sweepService.DeviceCleanupSweep,
	}, tenantRepo, log)

	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	defer cancelScheduler()
	if err := sweepScheduler.Start(schedulerCtx); err != nil {
		log.Error("Failed to start procurement sweep scheduler", zap.Error(err))
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router with our custom middleware
	ginEngine := gin.New()
	ginEngine.Use(middleware.RequestID())
	ginEngine.Use(logger.Recovery(log))
	ginEngine.Use(logger.GinMiddleware(log))
	ginEngine.Use(middleware.CORS())

	// Health check endpoint
	ginEngine.GET("/health", func(c *gin.Context) {
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
	})

	// API v1 routes
	v1 := ginEngine.Group("/api/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "pong",
			})
		})
	}

	apiRouter := router.NewRouter(ginEngine, router.WithAPIVersion("v1"))
	apiRouter.Register(handler.ProcurementRoutes(procurementHandlers, authMiddleware, rateLimitMiddleware, idempotencyMiddleware))
	apiRouter.Setup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      ginEngine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
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

	if err := sweepScheduler.Stop(context.Background()); err != nil {
		log.Error("Error stopping procurement sweep scheduler", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
