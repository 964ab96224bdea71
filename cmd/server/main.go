package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/clinicore/backend/internal/application/billing"
	consultationapp "github.com/clinicore/backend/internal/application/consultation"
	identityapp "github.com/clinicore/backend/internal/application/identity"
	notificationapp "github.com/clinicore/backend/internal/application/notification"
	orderingapp "github.com/clinicore/backend/internal/application/ordering"
	pharmacyapp "github.com/clinicore/backend/internal/application/pharmacy"
	receptionapp "github.com/clinicore/backend/internal/application/reception"
	"github.com/clinicore/backend/internal/domain/identity"
	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/infrastructure/auth"
	"github.com/clinicore/backend/internal/infrastructure/cache"
	"github.com/clinicore/backend/internal/infrastructure/config"
	"github.com/clinicore/backend/internal/infrastructure/logger"
	"github.com/clinicore/backend/internal/infrastructure/persistence"
	"github.com/clinicore/backend/internal/infrastructure/telemetry"
	"github.com/clinicore/backend/internal/interfaces/http/handler"
	"github.com/clinicore/backend/internal/interfaces/http/middleware"
	"github.com/clinicore/backend/internal/interfaces/http/router"
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
		_ = logger.Sync(log)
	}()

	log.Info("Starting Clinic Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing (no-op provider when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

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

	// Register query tracing when enabled
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:  true,
			DBSystem: "postgresql",
		}, log)
		if err := dbTracing.Register(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Badge counts live in Redis; fall back to the in-process cache when
	// Redis is unreachable so notification routing keeps working.
	var badgeCache notificationapp.BadgeCache
	redisCache, err := cache.NewRedisBadgeCache(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory badge cache", zap.Error(err))
		memCache := cache.NewInMemoryBadgeCache()
		defer memCache.Close()
		badgeCache = memCache
	} else {
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Error closing Redis connection", zap.Error(err))
			}
		}()
		badgeCache = redisCache
		log.Info("Redis badge cache connected")
	}

	// Repositories
	patientRepo := persistence.NewGormPatientRepository(db.DB)
	appointmentRepo := persistence.NewGormAppointmentRepository(db.DB)
	orderRepo := persistence.NewGormServiceOrderRepository(db.DB)
	stockItemRepo := persistence.NewGormStockItemRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	recordRepo := persistence.NewGormMedicalRecordRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)

	// Transaction scopes
	consultationScope := persistence.NewGormConsultationTransactionScope(db.DB)
	pharmacyScope := persistence.NewGormPharmacyTransactionScope(db.DB)
	billingScope := persistence.NewGormBillingTransactionScope(db.DB)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)
	tokenRevoker := auth.NewInMemoryTokenRevoker()

	// Application services
	sessionService := identityapp.NewSessionService(membershipRepo, jwtService, tokenRevoker, log)
	receptionService := receptionapp.NewReceptionService(patientRepo, appointmentRepo)
	consultationService := consultationapp.NewConsultationService(consultationScope, appointmentRepo, recordRepo, log)
	orderService := orderingapp.NewOrderService(orderRepo, patientRepo, notificationRepo)
	fulfillmentService := pharmacyapp.NewFulfillmentService(pharmacyScope, patientRepo)
	inventoryService := pharmacyapp.NewInventoryService(stockItemRepo)
	billingService := billingapp.NewBillingService(billingScope, invoiceRepo, patientRepo, log)
	notificationService := notificationapp.NewNotificationService(notificationRepo, orderRepo, badgeCache, log)

	// Handlers
	authHandler := handler.NewAuthHandler(sessionService)
	receptionHandler := handler.NewReceptionHandler(receptionService)
	consultationHandler := handler.NewConsultationHandler(consultationService)
	orderHandler := handler.NewOrderHandler(orderService)
	pharmacyHandler := handler.NewPharmacyHandler(fulfillmentService, inventoryService)
	billingHandler := handler.NewBillingHandler(billingService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	systemHandler := handler.NewSystemHandler(db.DB)

	// Gin engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Register binding validators
	middleware.SetupValidator()

	// Global middleware, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
	}

	// Health endpoints outside API versioning
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenRevoker:   tokenRevoker,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Session endpoints; login and refresh are public, logout requires the
	// token it revokes
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/logout", authHandler.Logout)
	r.Register(authRoutes)

	// Front desk: patient register and appointment book
	receptionRoutes := router.NewDomainGroup("reception", "/reception")
	receptionRoutes.Use(middleware.RequireAnyRole(identity.RoleReceptionist, identity.RoleAdmin))
	receptionRoutes.POST("/patients", receptionHandler.RegisterPatient)
	receptionRoutes.GET("/patients", receptionHandler.ListPatients)
	receptionRoutes.GET("/patients/:id", receptionHandler.GetPatient)
	receptionRoutes.POST("/appointments", receptionHandler.BookAppointment)
	receptionRoutes.GET("/appointments", receptionHandler.ListAppointments)
	receptionRoutes.POST("/appointments/:id/approve", receptionHandler.ApproveAppointment)
	receptionRoutes.POST("/appointments/:id/check-in", receptionHandler.CheckIn)
	receptionRoutes.POST("/appointments/:id/cancel", receptionHandler.CancelAppointment)
	r.Register(receptionRoutes)

	// Doctor's desk: queue, visit finalization, order entry, history
	consultationRoutes := router.NewDomainGroup("consultation", "/consultation")
	consultationRoutes.Use(middleware.RequireRole(identity.RoleDoctor))
	consultationRoutes.GET("/queue", consultationHandler.Queue)
	consultationRoutes.POST("/appointments/:id/start", consultationHandler.Start)
	consultationRoutes.POST("/complete", consultationHandler.Complete)
	consultationRoutes.GET("/patients/:id/history", consultationHandler.History)
	consultationRoutes.POST("/orders", orderHandler.Create)
	consultationRoutes.GET("/orders", orderHandler.MyOrders)
	r.Register(consultationRoutes)

	// Lab worklist; unpaid orders never reach it
	labRoutes := router.NewDomainGroup("lab", "/lab")
	labRoutes.Use(middleware.RequireAnyRole(identity.RoleLab, identity.RoleAdmin))
	labRoutes.GET("/orders", orderHandler.Worklist(ordering.OrderTypeLab))
	labRoutes.GET("/orders/:id", orderHandler.GetByID)
	labRoutes.POST("/orders/:id/collect-sample", orderHandler.CollectSample)
	labRoutes.POST("/orders/:id/upload-report", orderHandler.UploadReport)
	labRoutes.POST("/orders/:id/publish", orderHandler.Publish)
	labRoutes.POST("/orders/:id/reject", orderHandler.Reject)
	r.Register(labRoutes)

	// Radiology worklist
	radiologyRoutes := router.NewDomainGroup("radiology", "/radiology")
	radiologyRoutes.Use(middleware.RequireAnyRole(identity.RoleRadiology, identity.RoleAdmin))
	radiologyRoutes.GET("/orders", orderHandler.Worklist(ordering.OrderTypeRadiology))
	radiologyRoutes.GET("/orders/:id", orderHandler.GetByID)
	radiologyRoutes.POST("/orders/:id/collect-sample", orderHandler.CollectSample)
	radiologyRoutes.POST("/orders/:id/upload-report", orderHandler.UploadReport)
	radiologyRoutes.POST("/orders/:id/publish", orderHandler.Publish)
	radiologyRoutes.POST("/orders/:id/reject", orderHandler.Reject)
	r.Register(radiologyRoutes)

	// Pharmacy: fulfillment queue, counter sales and the stock register
	pharmacyRoutes := router.NewDomainGroup("pharmacy", "/pharmacy")
	pharmacyRoutes.Use(middleware.RequireAnyRole(identity.RolePharmacy, identity.RoleAdmin))
	pharmacyRoutes.GET("/orders", orderHandler.Worklist(ordering.OrderTypePharmacy))
	pharmacyRoutes.GET("/orders/:id", orderHandler.GetByID)
	pharmacyRoutes.POST("/orders/:id/fulfill", pharmacyHandler.FulfillOrder)
	pharmacyRoutes.POST("/orders/:id/reject", orderHandler.Reject)
	pharmacyRoutes.POST("/sales", pharmacyHandler.DirectSale)
	pharmacyRoutes.GET("/sales", billingHandler.ListDirectSales)
	pharmacyRoutes.POST("/inventory", pharmacyHandler.CreateStockItem)
	pharmacyRoutes.GET("/inventory", pharmacyHandler.ListStockItems)
	pharmacyRoutes.GET("/inventory/low-stock", pharmacyHandler.ListLowStock)
	pharmacyRoutes.GET("/inventory/:id", pharmacyHandler.GetStockItem)
	pharmacyRoutes.PUT("/inventory/:id", pharmacyHandler.UpdateStockItem)
	pharmacyRoutes.POST("/inventory/:id/restock", pharmacyHandler.RestockItem)
	pharmacyRoutes.DELETE("/inventory/:id", pharmacyHandler.DeleteStockItem)
	r.Register(pharmacyRoutes)

	// Billing: invoices, settlement and the accounting dashboard
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.Use(middleware.RequireAnyRole(identity.RoleAccountant, identity.RoleReceptionist, identity.RoleAdmin))
	billingRoutes.POST("/invoices", billingHandler.CreateInvoice)
	billingRoutes.GET("/invoices", billingHandler.List)
	billingRoutes.GET("/invoices/:number", billingHandler.GetByNumber)
	billingRoutes.POST("/invoices/:number/settle", billingHandler.Settle)
	billingRoutes.PUT("/invoices/:number/status", billingHandler.UpdateStatus)
	billingRoutes.GET("/patients/:id/invoices", billingHandler.ListByPatient)
	billingRoutes.GET("/dashboard", billingHandler.Dashboard)
	r.Register(billingRoutes)

	// Patient-facing reads: published results only
	patientRoutes := router.NewDomainGroup("patients", "/patients")
	patientRoutes.GET("/:id/results", orderHandler.PatientResults)
	r.Register(patientRoutes)

	// Department inboxes
	notificationRoutes := router.NewDomainGroup("notifications", "/notifications")
	notificationRoutes.POST("", notificationHandler.Notify)
	notificationRoutes.GET("", notificationHandler.List)
	notificationRoutes.GET("/unread-count", notificationHandler.UnreadCount)
	notificationRoutes.PUT("/:id/status", notificationHandler.UpdateStatus)
	r.Register(notificationRoutes)

	// System
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	r.Register(systemRoutes)

	r.Setup()

	// HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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
