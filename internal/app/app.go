package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz_console/internal/config"
	"quiz_console/internal/controller"
	"quiz_console/internal/model"
	"quiz_console/internal/repository"
	"quiz_console/internal/service"
	"quiz_console/pkg/configwatcher"
	"quiz_console/pkg/logger"
	"quiz_console/pkg/monitoring"
	"quiz_console/pkg/security"
	"quiz_console/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type App struct {
	Config  *config.Config
	Router  *gin.Engine
	Redis   *redis.Client
	Store   repository.SessionStore
	Console *service.Console
	Hub     *service.SessionHub

	ctx             context.Context
	cancel          context.CancelFunc
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type controllers struct {
	session    *controller.SessionController
	categories *controller.ResourceController[model.Category, model.CategoryPayload]
	sets       *controller.ResourceController[model.QuestionSet, model.QuestionSetPayload]
	questions  *controller.ResourceController[model.Question, model.QuestionPayload]
	catalog    *controller.CatalogController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initServices(cfg *config.Config) error {
	gate := service.NewSessionGate(a.Store, cfg.Auth, service.WithRecheckInterval(time.Minute))
	if err := gate.Start(a.ctx); err != nil {
		return err
	}

	client := service.NewBackendClient(cfg.Backend, &http.Client{})
	a.Console = service.NewConsole(cfg.Backend, gate, client, service.LogAlerter{}, service.ContextConfirmer{})

	a.Hub = service.NewSessionHub(gate, security.CheckOrigin(cfg.CORS.AllowedOrigins))
	a.Hub.Start(a.ctx)

	// 访问码轮换后立即复查，已有会话随之失效
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		gate.SetExpected(newCfg.Auth)
		gate.Refresh(a.ctx)
	})
	return nil
}

func (a *App) initControllers(cfg *config.Config) *controllers {
	c := a.Console
	return &controllers{
		session:    controller.NewSessionController(c.Gate, a.Hub),
		categories: controller.NewResourceController(c.Categories, ""),
		sets:       controller.NewResourceController(c.QuestionSets, ""),
		questions:  controller.NewResourceController(c.Questions, cfg.Backend.QuestionFilter),
		catalog:    controller.NewCatalogController(c),
		health:     controller.NewHealthController(c.Gate, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	limiter := security.NewLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	router.Use(limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	store, rdb, err := OpenSessionStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to open session store", zap.String("store", cfg.Session.Store), zap.Error(err))
	}
	app.Store = store
	app.Redis = rdb

	if err := app.initServices(cfg); err != nil {
		logger.Log.Fatal("Failed to start session gate", zap.Error(err))
	}
	controllers := app.initControllers(cfg)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("quiz-console", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	if !cfg.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.File != "" {
		if err := configwatcher.WatchConfig(ctx, cfg.File, app.applyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// 停止 gate 监听、websocket 推送和配置监听
	a.cancel()

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
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
