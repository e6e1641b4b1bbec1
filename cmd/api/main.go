package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/api/handlers"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/api/routes"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/column"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/comment"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/events"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/history"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/project"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/task"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/cache"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/persistence/postgres/connection"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/persistence/postgres/migrations"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/config"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/logger"
)

// RequestLoggerMiddleware logs all incoming HTTP requests
func RequestLoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Info("Request completed",
			zap.String("path", path),
			zap.String("method", method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	log := logger.NewLogger(cfg.Logging.Level)
	defer log.Sync()

	log.Info("Configuration loaded successfully")
	log.Info("Server mode: " + cfg.Server.Mode)

	// Set up Gin
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	gin.DefaultWriter = os.Stdout

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggerMiddleware(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Connect to database
	db, err := connection.NewDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if err := migrations.AutoMigrate(db, log.Logger); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cache.NewConfigFromEnv(cfg))
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Initialize logrus logger for the comment service
	commentLogger := logrus.New()
	commentLogger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Server.Mode == "production" {
		commentLogger.SetLevel(logrus.InfoLevel)
	} else {
		commentLogger.SetLevel(logrus.DebugLevel)
	}

	// Initialize repositories
	projectRepo := project.NewRepository(db)
	columnRepo := column.NewRepository(db)
	historyRepo := history.NewRepository(db)
	taskRepo := task.NewRepository(db, historyRepo)
	commentRepo := comment.NewRepository(db, historyRepo)

	// Initialize services
	projectService := project.NewService(projectRepo, cfg.Board.DefaultColumns, log.Logger)
	columnService := column.NewService(columnRepo, projectService, redisClient, cfg.Board.ColumnCacheTTL, log.Logger)
	taskService := task.NewService(taskRepo, columnRepo, historyRepo, projectService, redisClient, cfg.Board.ArchiveColumn, log.Logger)
	commentService := comment.NewService(commentRepo, taskRepo, projectService, redisClient, commentLogger)

	// Initialize handlers and routes
	boardRoutes := routes.NewBoardRoutes(
		handlers.NewProjectHandler(projectService),
		handlers.NewColumnHandler(columnService),
		handlers.NewTaskHandler(taskService),
		handlers.NewCommentHandler(commentService),
		handlers.NewPresenceHandler(redisClient),
		redisClient,
	)
	boardRoutes.RegisterRoutes(router)

	// Invalidate cached column listings when another instance mutates them.
	subscriberCtx, stopSubscriber := context.WithCancel(context.Background())
	defer stopSubscriber()
	go func() {
		err := redisClient.SubscribeToBoardEvents(subscriberCtx, func(event *events.BoardEvent) error {
			switch event.EventType {
			case events.BoardEventColumnCreated, events.BoardEventColumnMoved, events.BoardEventColumnDeleted:
				return redisClient.Delete(subscriberCtx, cache.ColumnListKey(event.ProjectID))
			}
			return nil
		})
		if err != nil && subscriberCtx.Err() == nil {
			log.Error("Board event subscription ended", zap.Error(err))
		}
	}()

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		if err := redisClient.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	stopSubscriber()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
