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

	checkoutapp "github.com/peptiva/backend/internal/application/checkout"
	referralapp "github.com/peptiva/backend/internal/application/referral"
	"github.com/peptiva/backend/internal/domain/commerce"
	"github.com/peptiva/backend/internal/domain/shared"
	"github.com/peptiva/backend/internal/infrastructure/cache"
	"github.com/peptiva/backend/internal/infrastructure/config"
	"github.com/peptiva/backend/internal/infrastructure/ecommerce"
	"github.com/peptiva/backend/internal/infrastructure/logger"
	"github.com/peptiva/backend/internal/infrastructure/persistence"
	"github.com/peptiva/backend/internal/interfaces/http/handler"
	"github.com/peptiva/backend/internal/interfaces/http/middleware"
	"github.com/peptiva/backend/internal/interfaces/http/router"
)

//	@title			Peptiva Order Integration API
//	@version		1.0
//	@description	Checkout, order forwarding, and referral commission backend for the Peptiva storefront.

//	@contact.name	API Support
//	@contact.url	https://github.com/peptiva/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

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

	log.Info("Starting Peptiva Backend",
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

	if err := persistence.AutoMigrate(db.DB); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Checkout record store: Redis when configured, in-process fallback
	// for single-instance deployments.
	var recordStore shared.CheckoutRecordStore
	if cfg.Redis.Host != "" {
		redisStore, err := cache.NewRedisCheckoutStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		recordStore = redisStore
		log.Info("Checkout record store using Redis",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		recordStore = cache.NewInMemoryCheckoutStore()
		log.Warn("Redis not configured, checkout idempotency is per-instance only")
	}

	// Commerce platform integration. Left unconfigured, forwarding and tax
	// calculation degrade to skipped stage results instead of failing.
	var (
		forwarder commerce.Forwarder
		taxCalc   commerce.TaxCalculator
	)
	wooConfig := ecommerce.NewWooConfig(cfg.Commerce.BaseURL, cfg.Commerce.ConsumerKey, cfg.Commerce.ConsumerSecret)
	wooConfig.AutoSubmit = cfg.Commerce.AutoSubmit
	if cfg.Commerce.TimeoutSeconds > 0 {
		wooConfig.TimeoutSeconds = cfg.Commerce.TimeoutSeconds
	}
	if cfg.Commerce.MaxAttempts > 0 {
		wooConfig.MaxAttempts = cfg.Commerce.MaxAttempts
	}
	if wooConfig.IsConfigured() {
		wooAdapter, err := ecommerce.NewWooAdapter(wooConfig, log)
		if err != nil {
			log.Fatal("Failed to initialize commerce adapter", zap.Error(err))
		}
		forwarder = wooAdapter
		taxCalc = ecommerce.NewWooTaxCalculator(wooAdapter, log)
		log.Info("Commerce integration enabled",
			zap.String("base_url", cfg.Commerce.BaseURL),
			zap.Bool("auto_submit", cfg.Commerce.AutoSubmit),
		)
	} else {
		log.Warn("Commerce platform not configured, order forwarding disabled")
	}

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	referralCodeRepo := persistence.NewGormReferralCodeRepository(db.DB)
	doctorRepo := persistence.NewGormDoctorRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	prospectRepo := persistence.NewGormProspectRepository(db.DB)
	referralTxScope := persistence.NewGormReferralTransactionScope(db.DB)

	// Initialize application services
	codeService := referralapp.NewCodeService(referralCodeRepo, cfg.Referral.CodeMaxAttempts, log)
	commissionService := referralapp.NewCommissionService(
		referralCodeRepo, doctorRepo, ledgerRepo, referralTxScope,
		cfg.Referral.CommissionPercent, log,
	)
	rosterService := referralapp.NewRosterService(referralCodeRepo, log)
	prospectService := referralapp.NewProspectService(prospectRepo, doctorRepo, codeService, log)
	checkoutService := checkoutapp.NewService(
		taxCalc, forwarder, orderRepo, commissionService, recordStore,
		checkoutapp.Config{
			OrderStoreEnabled: cfg.Checkout.OrderStoreEnable,
			IdempotencyTTL:    cfg.Checkout.IdempotencyTTL,
		},
		log,
	)

	// Initialize HTTP handlers
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	referralHandler := handler.NewReferralHandler(codeService, commissionService, rosterService)
	prospectHandler := handler.NewProspectHandler(prospectService)

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
	// 7. ResolveRole - Capture gateway-asserted role and actor headers
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Role resolution from the upstream gateway
	engine.Use(middleware.ResolveRole())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Checkout domain (checkout pipeline, order queries, cancellation)
	checkoutRoutes := router.NewDomainGroup("checkout", "/checkout")
	checkoutRoutes.POST("", middleware.RequireCapabilityWithLogger(middleware.CapCheckout, log), checkoutHandler.Checkout)

	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.GET("", middleware.RequireCapabilityWithLogger(middleware.CapOrderRead, log), checkoutHandler.ListOrders)
	orderRoutes.GET("/:id", middleware.RequireCapabilityWithLogger(middleware.CapOrderRead, log), checkoutHandler.GetOrder)
	orderRoutes.POST("/:id/cancel", middleware.RequireCapabilityWithLogger(middleware.CapOrderCancel, log), checkoutHandler.CancelOrder)

	// Referral domain (codes, roster sync)
	referralRoutes := router.NewDomainGroup("referral", "/referral-codes")
	referralRoutes.POST("", middleware.RequireCapabilityWithLogger(middleware.CapCodeManage, log), referralHandler.CreateCode)
	referralRoutes.POST("/:code/assign", middleware.RequireCapabilityWithLogger(middleware.CapCodeManage, log), referralHandler.AssignCode)
	referralRoutes.POST("/:code/revoke", middleware.RequireCapabilityWithLogger(middleware.CapCodeManage, log), referralHandler.RevokeCode)
	referralRoutes.POST("/:code/retire", middleware.RequireCapabilityWithLogger(middleware.CapCodeManage, log), referralHandler.RetireCode)

	syncRoutes := router.NewDomainGroup("roster", "/referrals")
	syncRoutes.POST("/sync", middleware.RequireCapabilityWithLogger(middleware.CapRosterSync, log), referralHandler.SyncRoster)

	// Sales rep views (codes, prospects, ledger)
	salesRepRoutes := router.NewDomainGroup("sales-reps", "/sales-reps")
	salesRepRoutes.GET("/:id/referral-codes", middleware.RequireCapabilityWithLogger(middleware.CapCodeManage, log), referralHandler.ListCodesBySalesRep)
	salesRepRoutes.GET("/:id/ledger", middleware.RequireCapabilityWithLogger(middleware.CapLedgerRead, log), referralHandler.SalesRepLedger)
	salesRepRoutes.GET("/:id/prospects", middleware.RequireCapabilityWithLogger(middleware.CapProspectWrite, log), prospectHandler.ListBySalesRep)

	// Doctor views (registration, commission ledger)
	doctorRoutes := router.NewDomainGroup("doctors", "/doctors")
	doctorRoutes.POST("", middleware.RequireCapabilityWithLogger(middleware.CapProspectWrite, log), prospectHandler.RegisterDoctor)
	doctorRoutes.GET("/:id/ledger", middleware.RequireCapabilityWithLogger(middleware.CapLedgerRead, log), referralHandler.DoctorLedger)

	// Prospect pipeline
	prospectRoutes := router.NewDomainGroup("prospects", "/prospects")
	prospectRoutes.POST("", middleware.RequireCapabilityWithLogger(middleware.CapProspectWrite, log), prospectHandler.Upsert)

	// Register all domain groups
	r.Register(checkoutRoutes).
		Register(orderRoutes).
		Register(referralRoutes).
		Register(syncRoutes).
		Register(salesRepRoutes).
		Register(doctorRoutes).
		Register(prospectRoutes)

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
