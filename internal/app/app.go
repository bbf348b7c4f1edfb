package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"milguard_backend/internal/config"
	"milguard_backend/internal/controller"
	"milguard_backend/internal/detection"
	"milguard_backend/internal/repository"
	"milguard_backend/internal/service"
	"milguard_backend/pkg/configwatcher"
	"milguard_backend/pkg/database"
	"milguard_backend/pkg/logger"
	"milguard_backend/pkg/monitoring"
	"milguard_backend/pkg/security"
	"milguard_backend/pkg/tracing"

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
	Store     *repository.Store

	tracer          *sdktrace.TracerProvider
	services        *services
	configCallbacks []func(*config.Config)
}

// Deps are the pieces New does not build itself. Only Store is required.
type Deps struct {
	Store     *repository.Store
	Detector  service.Detector
	Archive   *service.StorageService
	DB        *gorm.DB
	Providers []string
}

type services struct {
	auth         *service.AuthService
	analysis     *service.AnalysisService
	learning     *service.LearningService
	achievement  *service.AchievementService
	dashboard    *service.DashboardService
	verification *service.VerificationService
}

type controllers struct {
	auth         *controller.AuthController
	analysis     *controller.AnalysisController
	learning     *controller.LearningController
	achievement  *controller.AchievementController
	dashboard    *controller.DashboardController
	verification *controller.VerificationController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initServices(cfg *config.Config, deps Deps) *services {
	s := &services{}

	s.achievement = service.NewAchievementService(deps.Store, cfg.Achievements.StreakDays)
	s.learning = service.NewLearningService(deps.Store, s.achievement, cfg.Learning.EnforceUnlock)
	s.analysis = service.NewAnalysisService(deps.Store, deps.Detector, s.achievement, deps.Archive, cfg.Detection)
	s.dashboard = service.NewDashboardService(deps.Store, s.achievement, s.learning)
	s.auth = service.NewAuthService(deps.Store.Users, cfg)
	s.verification = service.NewVerificationService(cfg.Verification)

	return s
}

func (a *App) initControllers(s *services, deps Deps) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		analysis:     controller.NewAnalysisController(s.analysis, a.Config.Detection.MaxUploadBytes()),
		learning:     controller.NewLearningController(s.learning),
		achievement:  controller.NewAchievementController(s.achievement),
		dashboard:    controller.NewDashboardController(s.dashboard),
		verification: controller.NewVerificationController(s.verification),
		health:       controller.NewHealthController(deps.DB, deps.Providers),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New wires services, controllers and routes over deps without touching any
// external infrastructure.
func New(cfg *config.Config, deps Deps) *App {
	app := &App{
		Config: cfg,
		DB:     deps.DB,
		Store:  deps.Store,
	}

	services := app.initServices(cfg, deps)
	app.services = services
	controllers := app.initControllers(services, deps)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Enabled && cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(func(c *config.Config) {
		services.achievement.SetStreakThreshold(c.Achievements.StreakDays)
		services.learning.SetEnforceUnlock(c.Learning.EnforceUnlock)
	})

	return app
}

// NewApp connects the configured infrastructure and builds the App on top of it.
func NewApp(cfg *config.Config, configDir string) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	var (
		store *repository.Store
		db    *gorm.DB
	)
	if cfg.Database.Driver == "" || cfg.Database.Driver == database.DriverMemory {
		logger.Log.Warn("Using in-memory store; data is lost on restart")
		store = repository.NewMemoryStore()
	} else {
		var err error
		db, err = database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
		if err != nil {
			return nil, err
		}
		store = repository.NewGormStore(db)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		var err error
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, module cache disabled", zap.Error(err))
		} else {
			store.Modules = repository.NewCachedModuleStore(store.Modules, rdb, time.Duration(cfg.Redis.ModuleCacheMinutes)*time.Minute)
		}
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		var err error
		tp, err = tracing.InitTracer("milguard", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		}
	}

	archive, err := service.NewStorageService(&cfg.Storage)
	if err != nil {
		return nil, err
	}

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := service.SeedCurriculum(seedCtx, store.Modules, service.DefaultCurriculum()); err != nil {
		return nil, err
	}

	dispatcher := detection.NewDispatcherFromConfig(cfg.Detection)

	app := New(cfg, Deps{
		Store:     store,
		Detector:  dispatcher,
		Archive:   archive,
		DB:        db,
		Providers: dispatcher.ProviderNames(),
	})
	app.ConfigDir = configDir
	app.Redis = rdb
	app.tracer = tp

	app.RegisterConfigCallback(func(c *config.Config) {
		dispatcher.SetTimeout(c.Detection.Timeout())
	})

	return app, nil
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	if a.ConfigDir != "" {
		go func() {
			if err := configwatcher.WatchConfig(watchCtx, a.ConfigDir, a.applyConfig); err != nil {
				logger.Log.Warn("Config hot reload disabled", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stopWatching()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
	logger.Sync()
}
