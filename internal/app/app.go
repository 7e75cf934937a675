package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"study_tutor_backend/internal/config"
	"study_tutor_backend/internal/controller"
	"study_tutor_backend/internal/repository"
	"study_tutor_backend/internal/service"
	"study_tutor_backend/pkg/logger"
	"study_tutor_backend/pkg/monitoring"
	"study_tutor_backend/pkg/security"
	"study_tutor_backend/pkg/tracing"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	services        *services
	configCallbacks []func(*config.Config)
}

type services struct {
	ai      *service.AIService
	grader  *service.GraderService
	session *service.SessionService
	decks   *repository.DeckRepository
}

type controllers struct {
	session *controller.SessionController
	deck    *controller.DeckController
	health  *controller.HealthController
}

// RegisterConfigCallback 配置热更新回调（configwatcher 触发）
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 把重载后的配置分发给各回调
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initServices(cfg *config.Config) *services {
	s := &services{}

	s.decks = repository.NewDeckRepository(cfg.Deck.Dir)
	s.ai = service.NewAIService(cfg.AI)
	s.grader = service.NewGraderService(s.ai)
	s.session = service.NewSessionService(s.grader, s.decks)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		session: controller.NewSessionController(s.session),
		deck:    controller.NewDeckController(s.decks),
		health:  controller.NewHealthController(s.ai),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)

	logger.Log.Info("Logger initialized successfully")

	app := &App{Config: cfg}

	s := app.initServices(cfg)
	app.services = s
	c := app.initControllers(s)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("study-tutor", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, c)

	// 配置重载时刷新判分上游设置
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		s.ai.UpdateConfig(newCfg.AI)
	})

	// 启动时加载默认deck到默认会话，和UI端"打开即有题"的行为保持一致
	if cfg.Deck.Default != "" {
		if _, err := s.session.LoadDeckFromFile(service.DefaultSessionID, cfg.Deck.Default, ""); err != nil {
			logger.Log.Fatal("Failed to load default deck",
				zap.String("path", cfg.Deck.Default), zap.Error(err))
		}
	}

	return app
}

func ginMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
