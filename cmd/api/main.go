package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "docflow/api/swagger" // swagger docs
	"docflow/internal/auth/password"
	"docflow/internal/auth/token"
	"docflow/internal/cache"
	"docflow/internal/config"
	"docflow/internal/database"
	"docflow/internal/handler"
	"docflow/internal/middleware"
	"docflow/internal/repository"
	"docflow/internal/service"
	"docflow/internal/storage"
	"docflow/internal/websocket"
	"docflow/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Docflow API
// @version         1.0
// @description     Document tracking with placeholders, file binding, status workflow and an activity log.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zapLogger.Info("Configuration loaded", zap.Stringer("config", cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.GetDSN(), cfg.DBLogLevel, zapLogger)
	if err != nil {
		zapLogger.Fatal("Database connection failed", zap.Error(err))
	}
	zapLogger.Info("Connected to PostgreSQL successfully")

	files, err := newFileStore(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("File storage unavailable", zap.Error(err))
	}

	var (
		reserver service.PlaceholderReserver
		revoker  service.TokenRevoker
	)
	if cfg.RedisAddr != "" {
		redisCache := cache.New(cache.Config{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Password: cfg.RedisPassword}, zapLogger)
		if err := redisCache.Ping(ctx); err != nil {
			zapLogger.Fatal("Redis unavailable", zap.Error(err))
		}
		defer redisCache.Close()
		reserver = cache.NewPlaceholderReservations(redisCache, cfg.PlaceholderReservationTTL)
		revoker = cache.NewTokenRevocations(redisCache)
		zapLogger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	hasher, err := password.New(cfg.PasswordHasher)
	if err != nil {
		zapLogger.Fatal("Invalid password hasher", zap.Error(err))
	}
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zapLogger, cfg.AllowedOrigins()...)
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	inputRepo := repository.NewInputValueRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)
	txManager := repository.NewTransactionManager(db)

	activityService := service.NewActivityService(activityRepo, wsHub, zapLogger)
	placeholders := service.NewPlaceholderAllocator(documentRepo, reserver, zapLogger)
	documentService := service.NewDocumentService(documentRepo, userRepo, placeholders, files, activityService, zapLogger)
	userService := service.NewUserService(userRepo, txManager, hasher, zapLogger)
	authService := service.NewAuthService(userRepo, hasher, tokens, revoker, zapLogger)
	inputService := service.NewInputService(inputRepo)
	statisticsService := service.NewStatisticsService(statisticsRepo)

	guard := middleware.NewGuard(authService, middleware.DefaultPolicy)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, userService, guard, cfg.IsProduction())
	userHandler := handler.NewUserHandler(userService, guard)
	documentHandler := handler.NewDocumentHandler(documentService, guard, cfg.MaxUploadBytes)
	activityHandler := handler.NewActivityHandler(activityService, guard)
	inputHandler := handler.NewInputHandler(inputService, guard)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, guard)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger), gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "Content-Length"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, guard, middleware.OpSubscribeActivity)
	})

	// API Routing
	authHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	documentHandler.RegisterRoutes(router.Group(""))
	activityHandler.RegisterRoutes(router.Group(""))
	inputHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLogger.Info("Server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zapLogger.Info("Server gracefully stopped")
}

func newFileStore(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	if cfg.StorageDriver == config.StorageS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		})
	}
	return storage.NewLocalStore(cfg.UploadDir)
}
