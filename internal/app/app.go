package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"assessment_backend/internal/config"
	"assessment_backend/internal/controller"
	"assessment_backend/internal/repository"
	"assessment_backend/internal/service"
	"assessment_backend/pkg/configwatcher"
	"assessment_backend/pkg/database"
	"assessment_backend/pkg/logger"
	"assessment_backend/pkg/monitoring"
	"assessment_backend/pkg/security"
	"assessment_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigFile      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	bgCtx           context.Context
	bgCancel        context.CancelFunc
}

type repositories struct {
	session    *repository.SessionRepository
	assignment *repository.AssignmentRepository
	response   *repository.ResponseRepository
}

type services struct {
	hub        *service.EventHub
	workspace  *service.WorkspaceService
	assignment *service.AssignmentService
}

type controllers struct {
	workspace  *controller.WorkspaceController
	assignment *controller.AssignmentController
	scale      *controller.ScaleController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		session:    repository.NewSessionRepository(db),
		assignment: repository.NewAssignmentRepository(db),
		response:   repository.NewResponseRepository(db),
	}
}

// EngineSettings converts the engine section of the config.
func EngineSettings(cfg config.EngineConfig) service.Settings {
	return service.Settings{
		Debounce:        cfg.Debounce(),
		DesiredTicks:    cfg.DesiredTicks,
		AdvanceOnSettle: cfg.AdvanceOnSettle,
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	hub := service.NewEventHub(rdb)
	ws := service.NewWorkspaceService(
		repos.session,
		repos.response,
		repos.assignment,
		hub,
		EngineSettings(cfg.Engine),
		service.WithDisconnector(hub),
	)
	hub.SetInboundHandler(ws.HandleInbound)

	// 引擎参数热更新
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		ws.ApplySettings(EngineSettings(newCfg.Engine))
	})

	return &services{
		hub:        hub,
		workspace:  ws,
		assignment: service.NewAssignmentService(repos.assignment, repos.session, ws),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		workspace:  controller.NewWorkspaceController(s.workspace, s.hub),
		assignment: controller.NewAssignmentController(s.assignment),
		scale: controller.NewScaleController(func() int {
			return s.workspace.Settings().DesiredTicks
		}),
		health: controller.NewHealthController(db, rdb, s.workspace),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.bgCtx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	go s.hub.Run(a.bgCtx)

	idle := time.Duration(a.Config.Engine.IdleMinutes) * time.Minute
	if idle > 0 {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-a.bgCtx.Done():
					return
				case <-ticker.C:
					s.workspace.CloseIdle(idle)
				}
			}
		}()
	}

	if a.ConfigFile != "" {
		go func() {
			err := configwatcher.WatchConfig(a.bgCtx, a.ConfigFile, func(newCfg *config.Config) {
				for _, cb := range a.configCallbacks {
					cb(newCfg)
				}
			})
			if err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}
}

// NewApp wires storage, services and routes. configFile enables hot reload
// of the engine settings when non-empty.
func NewApp(cfg *config.Config, configFile string) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if err := controller.RegisterValidators(); err != nil {
		return nil, err
	}

	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate)
	if err != nil {
		logger.Log.Error("Failed to initialize database", zap.Error(err))
		return nil, err
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Error("Failed to initialize redis", zap.Error(err))
		return nil, err
	}

	gin.SetMode(cfg.Server.Mode)

	app := &App{
		Config:     cfg,
		ConfigFile: configFile,
		DB:         db,
		Redis:      rdb,
	}
	app.bgCtx, app.bgCancel = context.WithCancel(context.Background())

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
			return nil, err
		}
		app.tracer = tp
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)
	app.startBackgroundTasks(services)

	return app, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.shutdown()
			return err
		}
	case <-ctx.Done():
	}
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	a.shutdown()
	logger.Log.Info("Server exiting")
	return err
}

func (a *App) shutdown() {
	// 关闭工作区与 WebSocket 连接
	if a.services != nil {
		a.services.workspace.Shutdown()
		a.services.hub.Stop()
	}
	a.bgCancel()

	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Sync()
}
