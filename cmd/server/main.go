package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/config"
	"github.com/stitchworks/capline/internal/middleware"
	"github.com/stitchworks/capline/internal/planning/entity"
	"github.com/stitchworks/capline/internal/planning/event"
	"github.com/stitchworks/capline/internal/planning/handler"
	"github.com/stitchworks/capline/internal/planning/repository"
	"github.com/stitchworks/capline/internal/planning/service"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting capline service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.CalendarEntry{},
		&entity.ProductionLine{},
		&entity.ProductionStandard{},
		&entity.BOMHeader{},
		&entity.BOMDetail{},
		&entity.StockSnapshot{},
		&entity.Order{},
		&entity.CheckRun{},
		&entity.ComponentCheck{},
		&entity.CapacityAnalysis{},
		&entity.Schedule{},
		&entity.ScheduleDetail{},
		&entity.Scenario{},
		&entity.KPICommitment{},
		&entity.ProductionRecord{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, notifications stay log-only", zap.Error(err))
	}

	notificationHandlers := []event.Handler{
		event.NewLogHandler(zapLogger),
		event.NewRedisHandler(rdb),
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, event.ContextDispatcher{}, planningConfig(cfg.Planning), zapLogger)
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, middleware.NotificationBoundary(zapLogger, notificationHandlers...), cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, notifications gin.HandlerFunc, cfg *config.Config) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
	})

	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	authorized.Use(notifications)
	{
		bom := authorized.Group("/bom")
		{
			bom.POST("/explode", h.BOM.Explode)
			bom.POST("/explode-batch", h.BOM.ExplodeBatch)
		}

		checks := authorized.Group("/material-checks")
		{
			checks.POST("", h.Material.RunCheck)
			checks.GET("", h.Material.ListRuns)
			checks.GET("/trend", h.Material.ShortageTrend)
			checks.GET("/:id", h.Material.GetRun)
		}

		capacity := authorized.Group("/capacity")
		{
			capacity.POST("/analyze", h.Capacity.Analyze)
			capacity.GET("/bottlenecks", h.Capacity.Bottlenecks)
			capacity.GET("/export", h.Capacity.Export)
		}

		schedules := authorized.Group("/schedules")
		{
			schedules.POST("/generate", h.Schedule.Generate)
			schedules.POST("", h.Schedule.Create)
			schedules.GET("", h.Schedule.List)
			schedules.GET("/:id", h.Schedule.Get)
			schedules.POST("/:id/commit", h.Schedule.Commit)
			schedules.POST("/:id/activate", h.Schedule.Activate)
			schedules.POST("/:id/complete", h.Schedule.Complete)
			schedules.POST("/:id/cancel", h.Schedule.Cancel)
		}

		scenarios := authorized.Group("/scenarios")
		{
			scenarios.POST("", h.Scenario.Create)
			scenarios.GET("", h.Scenario.List)
			scenarios.POST("/compare", h.Scenario.Compare)
			scenarios.GET("/defaults/:type", h.Scenario.DefaultParams)
			scenarios.GET("/:id", h.Scenario.Get)
			scenarios.POST("/:id/run", h.Scenario.Run)
		}

		kpi := authorized.Group("/kpi")
		{
			kpi.POST("/schedules/:id/commitments", h.KPI.StoreCommitments)
			kpi.GET("/schedules/:id/history", h.KPI.History)
			kpi.POST("/schedules/:id/variance", h.KPI.CalculateVariance)
			kpi.GET("/actuals", h.KPI.GetActuals)
			kpi.GET("/trending/:key", h.KPI.Trending)
		}

		authorized.GET("/dashboard", h.Planning.Dashboard)
	}
}

func planningConfig(p config.PlanningConfig) service.Config {
	cfg := service.DefaultConfig()
	if p.BottleneckThresholdPct > 0 {
		cfg.BottleneckThresholdPct = decimal.NewFromFloat(p.BottleneckThresholdPct)
	}
	if p.VarianceThresholdPct > 0 {
		cfg.VarianceThresholdPct = decimal.NewFromFloat(p.VarianceThresholdPct)
	}
	if p.DefaultEfficiency > 0 {
		cfg.DefaultEfficiency = decimal.NewFromFloat(p.DefaultEfficiency)
	}
	return cfg
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
