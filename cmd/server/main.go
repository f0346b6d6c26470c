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

	identityapp "github.com/toms/backend/internal/application/identity"
	sessionapp "github.com/toms/backend/internal/application/session"
	travelapp "github.com/toms/backend/internal/application/travel"
	"github.com/toms/backend/internal/domain/identity"
	"github.com/toms/backend/internal/infrastructure/approval"
	"github.com/toms/backend/internal/infrastructure/auth"
	"github.com/toms/backend/internal/infrastructure/config"
	"github.com/toms/backend/internal/infrastructure/logger"
	"github.com/toms/backend/internal/infrastructure/persistence"
	"github.com/toms/backend/internal/infrastructure/storage"
	"github.com/toms/backend/internal/interfaces/http/handler"
	"github.com/toms/backend/internal/interfaces/http/middleware"
	"github.com/toms/backend/internal/interfaces/http/router"
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

	log.Info("Starting travel order backend",
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
	userRepo := persistence.NewGormUserRepository(db.DB)
	travelOrderRepo := persistence.NewGormTravelOrderRepository(db.DB)

	// Object storage for attachments and signature images. Falls back to an
	// in-memory store when no bucket is configured so local development works
	// without S3 credentials.
	var objectStorage interface {
		travelapp.ObjectStorageService
		identityapp.SignatureStorage
	}
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		objectStorage = s3Storage
		log.Info("Object storage initialized",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("region", cfg.Storage.Region),
		)
	} else {
		objectStorage = storage.NewMemoryObjectStorage()
		log.Warn("No storage bucket configured, using in-memory object storage")
	}

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	tokenBlacklist := auth.NewInMemoryTokenBlacklist()
	authService := identityapp.NewAuthService(userRepo, jwtService, tokenBlacklist, log)
	userService := identityapp.NewUserService(userRepo, objectStorage, log)

	// Approval routing resolves the recommender/approver chain from config
	routing, err := approval.NewConfigRouting(cfg.Approval, userRepo, log)
	if err != nil {
		log.Fatal("Failed to initialize approval routing", zap.Error(err))
	}

	// Travel order service
	orderService := travelapp.NewTravelOrderService(travelOrderRepo, objectStorage, routing, log)

	// Unsaved-changes guard, swept periodically for abandoned sessions
	editGuard := sessionapp.NewEditGuard()
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := editGuard.Sweep(); removed > 0 {
					log.Debug("Swept stale edit sessions", zap.Int("removed", removed))
				}
			case <-sweepDone:
				return
			}
		}
	}()
	defer close(sweepDone)

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	travelOrderHandler := handler.NewTravelOrderHandler(orderService, authService)
	sessionHandler := handler.NewSessionHandler(editGuard)
	systemHandler := handler.NewSystemHandler(db.DB)

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
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Login attempts are rate limited per client IP
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	loginRateLimit := middleware.RateLimitByKey(loginLimiter, func(c *gin.Context) string {
		return "login:" + c.ClientIP()
	})

	rolePersonnel := string(identity.RolePersonnel)
	roleDirector := string(identity.RoleDirector)
	roleAdmin := string(identity.RoleAdmin)

	// Authentication routes
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", loginRateLimit, authHandler.Login)
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.GetCurrentUser)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	// Requester-facing travel order routes. The attachment download is open
	// to all three roles; the service enforces per-order visibility.
	travelRoutes := router.NewDomainGroup("travel", "/travel-orders")
	travelRoutes.POST("", middleware.RequireRole(rolePersonnel), travelOrderHandler.Create)
	travelRoutes.GET("", middleware.RequireRole(rolePersonnel), travelOrderHandler.List)
	travelRoutes.GET("/:id", middleware.RequireRole(rolePersonnel), travelOrderHandler.Get)
	travelRoutes.PUT("/:id", middleware.RequireRole(rolePersonnel), travelOrderHandler.Update)
	travelRoutes.DELETE("/:id", middleware.RequireRole(rolePersonnel), travelOrderHandler.Delete)
	travelRoutes.POST("/:id/submit", middleware.RequireRole(rolePersonnel), travelOrderHandler.Submit)
	travelRoutes.POST("/:id/attachments", middleware.RequireRole(rolePersonnel), travelOrderHandler.AddAttachments)
	travelRoutes.GET("/:id/attachments/:attachmentID/download",
		middleware.RequireRole(rolePersonnel, roleDirector, roleAdmin),
		travelOrderHandler.DownloadAttachment)

	// Director routes
	directorRoutes := router.NewDomainGroup("director", "/director/travel-orders")
	directorRoutes.Use(middleware.RequireRole(roleDirector))
	directorRoutes.GET("/pending", travelOrderHandler.ListPending)
	directorRoutes.GET("/history", travelOrderHandler.ListHistory)
	directorRoutes.GET("/:id", travelOrderHandler.GetForDirector)
	directorRoutes.POST("/:id/act", travelOrderHandler.Act)

	// ICT administrator routes: roster management plus full order visibility
	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.Use(middleware.RequireRole(roleAdmin))
	adminRoutes.GET("/travel-orders", travelOrderHandler.ListAll)
	adminRoutes.GET("/travel-orders/stats/status-counts", travelOrderHandler.StatusCounts)
	adminRoutes.GET("/travel-orders/:id", travelOrderHandler.GetByID)
	adminRoutes.POST("/users", userHandler.Create)
	adminRoutes.GET("/users", userHandler.List)
	adminRoutes.GET("/users/stats/count", userHandler.Count)
	adminRoutes.GET("/users/:id", userHandler.Get)
	adminRoutes.PUT("/users/:id", userHandler.Update)
	adminRoutes.POST("/users/:id/activate", userHandler.Activate)
	adminRoutes.POST("/users/:id/deactivate", userHandler.Deactivate)
	adminRoutes.POST("/users/:id/reset-password", userHandler.ResetPassword)
	adminRoutes.POST("/users/:id/signature", userHandler.UploadSignature)
	adminRoutes.GET("/users/:id/signature", userHandler.GetSignature)
	adminRoutes.DELETE("/users/:id/signature", userHandler.DeleteSignature)

	// Unsaved-changes guard routes
	sessionRoutes := router.NewDomainGroup("session", "/session/edit-state")
	sessionRoutes.POST("/dirty", sessionHandler.MarkDirty)
	sessionRoutes.POST("/clean", sessionHandler.MarkClean)
	sessionRoutes.GET("/navigation", sessionHandler.CheckNavigation)
	sessionRoutes.POST("/navigation/resolve", sessionHandler.ResolveNavigation)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(authRoutes).
		Register(travelRoutes).
		Register(directorRoutes).
		Register(adminRoutes).
		Register(sessionRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

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
