package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus_engage_backend/internal/config"
	"campus_engage_backend/internal/controller"
	"campus_engage_backend/internal/repository"
	"campus_engage_backend/internal/service"
	"campus_engage_backend/pkg/database"
	"campus_engage_backend/pkg/logger"
	"campus_engage_backend/pkg/monitoring"
	"campus_engage_backend/pkg/security"
	"campus_engage_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user         *repository.UserRepository
	sponsor      *repository.SponsorRepository
	landmark     *repository.LandmarkRepository
	evoucher     *repository.EvoucherRepository
	evoucherCode *repository.EvoucherCodeRepository
	claim        *repository.ClaimRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	sponsor     *service.SponsorService
	landmark    *service.LandmarkService
	evoucher    *service.EvoucherService
	leaderboard *service.LeaderboardService
	checkin     *service.CheckinService
}

type controllers struct {
	auth        *controller.AuthController
	checkin     *controller.CheckinController
	leaderboard *controller.LeaderboardController
	evoucher    *controller.EvoucherController
	landmark    *controller.LandmarkController
	sponsor     *controller.SponsorController
	claim       *controller.ClaimController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热加载入口，逐个执行注册的回调
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		sponsor:      repository.NewSponsorRepository(db),
		landmark:     repository.NewLandmarkRepository(db),
		evoucher:     repository.NewEvoucherRepository(db),
		evoucherCode: repository.NewEvoucherCodeRepository(db),
		claim:        repository.NewClaimRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.sponsor = service.NewSponsorService(repos.sponsor)
	s.landmark = service.NewLandmarkService(repos.landmark, repos.sponsor, repos.evoucher)
	s.evoucher = service.NewEvoucherService(repos.evoucher, repos.evoucherCode, repos.sponsor)
	s.leaderboard = service.NewLeaderboardService(repos.claim, repos.user, rdb, cfg)
	s.checkin = service.NewCheckinService(repos.landmark, repos.claim, repos.evoucherCode, s.leaderboard, cfg, db)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		checkin:     controller.NewCheckinController(s.checkin, s.landmark),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		evoucher:    controller.NewEvoucherController(s.evoucher),
		landmark:    controller.NewLandmarkController(s.landmark, s.storage),
		sponsor:     controller.NewSponsorController(s.sponsor, s.storage),
		claim:       controller.NewClaimController(repos.claim),
		health:      controller.NewHealthController(db, rdb),
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

func (a *App) startBackgroundTasks(s *services) {
	// 码池余量指标定时上报
	go func() {
		ticker := time.NewTicker(a.Config.CoinHunting.PoolGaugePeriod)
		for range ticker.C {
			s.evoucher.RefreshPoolGauges()
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("campus-engage", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
		router.Static("/api/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

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

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
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
