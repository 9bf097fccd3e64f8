package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "formsportal/api/swagger" // swagger docs
	"formsportal/internal/config"
	"formsportal/internal/database"
	"formsportal/internal/handler"
	"formsportal/internal/logger"
	"formsportal/internal/middleware"
	"formsportal/internal/model"
	"formsportal/internal/queue"
	"formsportal/internal/repository"
	"formsportal/internal/service"
	"formsportal/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Forms Portal API
// @version         1.0
// @description     Request forms, status workflow and dashboard rollups.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			zlog.Warn("Failed to close database", zap.Error(err))
		}
	}()

	forms := model.FormTypes()
	if err := database.Migrate(db, forms); err != nil {
		return err
	}

	// Live updates and, when configured, the broker receive every committed change.
	wsHub := websocket.NewHub(zlog, cfg.Server.CORSOrigins)
	go wsHub.Run(ctx)
	notifiers := service.MultiNotifier{wsHub}
	if cfg.RabbitMQ.URL != "" {
		publisher := queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, zlog)
		defer func() { _ = publisher.Close() }()
		notifiers = append(notifiers, publisher)
	}

	rdb := newRedisClient(ctx, cfg.Redis, zlog)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// Repository -> Service -> Handler
	txManager := repository.NewTransactionManager(db)
	requestRepo := repository.NewRequestRepository(db)
	statusLogRepo := repository.NewStatusLogRepository(db)
	userRepo := repository.NewUserRepository(db)

	sequencer := service.NewCodeSequencer(repository.NewSequenceRepository(db), nil)
	requestService := service.NewRequestService(txManager, requestRepo, statusLogRepo, sequencer, notifiers, zlog)
	statusMachine := service.NewStatusMachine(txManager, requestRepo, statusLogRepo, notifiers, zlog, nil)
	exportService := service.NewExportService(requestRepo, zlog)
	dashboardService := service.NewDashboardService(repository.NewDashboardRepository(db), forms, zlog, nil)
	userService := service.NewUserService(userRepo, cfg.Auth.BcryptCost, zlog)
	referenceService := service.NewReferenceService(repository.NewReferenceRepository(db))
	auditService := service.NewAuditService(repository.NewAuditRepository(db), zlog)

	auth := middleware.NewAuth(cfg.Auth.JWTSecret, userRepo, cfg.Auth.AccessCacheTTL, zlog)
	limiter := middleware.RateLimit(cfg.RateLimit, rdb, zlog)

	formHandler := handler.NewFormHandler(requestService, statusMachine, exportService, auth, limiter, forms)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, auth)
	userHandler := handler.NewUserHandler(userService, referenceService, auditService, auth)
	auditHandler := handler.NewAuditHandler(auditService, auth)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(zlog))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	router.Use(cors.New(corsConfig))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, func(token string) (string, error) {
			claims, err := auth.ParseToken(token)
			if err != nil {
				return "", err
			}
			return claims.UserID, nil
		}, c)
	})

	formHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("Server listening", zap.Int("port", cfg.Server.Port), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// newRedisClient connects when an address is configured. Rate limiting is
// skipped when this returns nil.
func newRedisClient(ctx context.Context, cfg config.RedisConfig, zlog *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zlog.Warn("Redis unavailable, rate limiting disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
