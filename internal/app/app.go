package app

import (
	"context"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/controller"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/pkg/configwatcher"
	"exam_prep_backend/pkg/database"
	"exam_prep_backend/pkg/logger"
	"exam_prep_backend/pkg/monitoring"
	"exam_prep_backend/pkg/security"
	"exam_prep_backend/pkg/storage"
	"exam_prep_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	ConfigDir string
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client
	Storage   storage.Provider

	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	question   *repository.QuestionRepository
	catalog    *repository.CatalogRepository
	paper      *repository.ExamPaperRepository
	submission *repository.SubmissionRepository
	analytics  *repository.AnalyticsRepository
	progress   *repository.ProgressRepository
}

type services struct {
	paper      *service.PaperService
	submission *service.SubmissionService
	analytics  *service.AnalyticsService
	progress   *service.ProgressService
}

type controllers struct {
	paper      *controller.ExamPaperController
	submission *controller.SubmissionController
	analytics  *controller.AnalyticsController
	practice   *controller.PracticeController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		question:   repository.NewQuestionRepository(db),
		catalog:    repository.NewCatalogRepository(db),
		paper:      repository.NewExamPaperRepository(db),
		submission: repository.NewSubmissionRepository(db),
		analytics:  repository.NewAnalyticsRepository(db),
		progress:   repository.NewProgressRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.analytics = service.NewAnalyticsService(repos.analytics, repos.question, a.Redis, cfg.Cache.PYQStatsTTL)
	s.paper = service.NewPaperService(repos.paper, repos.question, repos.catalog, s.analytics, cfg.Practice, nil)
	s.submission = service.NewSubmissionService(a.DB, repos.submission, repos.paper, repos.question, a.Storage)
	s.progress = service.NewProgressService(a.DB, repos.progress, repos.question, repos.catalog, a.Redis, cfg.Cache.QuestionCountsTTL)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		paper:      controller.NewExamPaperController(s.paper),
		submission: controller.NewSubmissionController(s.submission),
		analytics:  controller.NewAnalyticsController(s.analytics),
		practice:   controller.NewPracticeController(s.progress),
		health:     controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// setup wires repositories, services and routes onto an already opened DB.
func (a *App) setup() {
	cfg := a.Config
	repos := a.initRepositories(a.DB)
	a.services = a.initServices(repos, cfg)
	controllers := a.initControllers(a.services)

	router := gin.Default()
	a.setupMiddlewares(router, cfg)
	a.registerRoutes(router, controllers, cfg)

	if _, ok := a.Storage.(*storage.LocalProvider); ok {
		router.Static("/exports", cfg.Storage.LocalPath)
	}
	a.Router = router

	// 配置热更新：练习卷难度比例与日志级别
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		if err := a.services.paper.SetPracticeConfig(newCfg.Practice); err != nil {
			logger.Log.Warn("practice config rejected", zap.Error(err))
			return
		}
		logger.Log.Info("practice split updated",
			zap.Int("easy", newCfg.Practice.EasyPercent),
			zap.Int("medium", newCfg.Practice.MediumPercent),
			zap.Int("hard", newCfg.Practice.HardPercent))
	})
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetMode(newCfg.Server.Mode)
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")
	gin.SetMode(cfg.Server.Mode)

	migrate := cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate
	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config:    cfg,
		ConfigDir: "configs",
		DB:        db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	store, err := storage.New(&cfg.Storage)
	if err != nil {
		logger.Log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	app.Storage = store

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("exam-prep", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	// 监控初始化
	monitoring.Init()

	app.setup()
	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		configFile := filepath.Join(a.ConfigDir, "config.yaml")
		err := configwatcher.WatchConfig(watchCtx, configFile, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
