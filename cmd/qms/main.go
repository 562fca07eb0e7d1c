package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/firestore"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/config"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/middleware"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/handler"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/repository"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/service"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/sse"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"
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

	zapLogger.Info("Starting qms service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("store", cfg.Store.Driver),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(entity.All()...); err != nil {
			zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
		}
	}

	rdb := initRedis(cfg.Redis)
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		// 抽样表缓存不可用时直接读库
		zapLogger.Warn("Redis unavailable, chart cache disabled", zap.Error(err))
		rdb = nil
	}

	repos := repository.NewRepositories(db)
	if cfg.Store.Driver == "firestore" {
		fsClient, err := initFirestore(context.Background(), cfg.Firestore)
		if err != nil {
			zapLogger.Fatal("Failed to connect to firestore", zap.Error(err))
		}
		defer fsClient.Close()
		repos.Report = repository.NewFirestoreReportStore(fsClient)
		zapLogger.Info("Inspection reports stored in firestore", zap.String("project", cfg.Firestore.ProjectID))
	}

	hub := sse.NewHub(zapLogger)
	services := service.NewServices(repos, rdb, hub, cfg, zapLogger)

	if cfg.Quality.SeedCharts {
		n, err := services.AQL.SeedDefaultCharts(context.Background())
		if err != nil {
			zapLogger.Fatal("Failed to seed AQL charts", zap.Error(err))
		}
		if n > 0 {
			zapLogger.Info("Seeded AQL charts", zap.Int("rows", n))
		}
	}

	handlers := handler.NewHandlers(services, hub)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	// SSE 不压缩，否则事件会被缓冲
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/sse"})))

	registerRoutes(router, handlers, cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
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
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
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

// initFirestore 未配置凭据文件时使用 Application Default Credentials
func initFirestore(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient (project=%s): %w", cfg.ProjectID, err)
	}
	return client, nil
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config, db *gorm.DB, rdb *redis.Client) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		checks := gin.H{"database": "ok", "redis": "disabled"}
		status := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				checks["redis"] = "unavailable"
			}
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 40400, "message": "Not found"})
	})

	v1 := r.Group("/api/v1", middleware.JWTAuth(cfg.JWT.Secret))
	handler.RegisterRoutes(v1, h)
}
