package app

import (
	"context"
	"memodeck_backend/internal/config"
	"memodeck_backend/internal/controller"
	"memodeck_backend/internal/middleware"
	"memodeck_backend/internal/repository"
	"memodeck_backend/internal/service"
	"memodeck_backend/pkg/configwatcher"
	"memodeck_backend/pkg/database"
	"memodeck_backend/pkg/logger"
	"memodeck_backend/pkg/monitoring"
	"memodeck_backend/pkg/scheduler"
	"memodeck_backend/pkg/security"
	"memodeck_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const configDir = "configs"

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	sessions        service.SessionStore
	scheduler       *scheduler.Scheduler
	tracer          *sdktrace.TracerProvider
	limiterStop     chan struct{}
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	deck     *repository.DeckRepository
	card     *repository.CardRepository
	session  *repository.StudySessionRepository
	attempt  *repository.QuizAttemptRepository
	stats    *repository.StatisticsRepository
	otp      *repository.OTPRepository
	progress *repository.ProgressRepository
}

type services struct {
	auth     *service.AuthService
	user     *service.UserService
	deck     *service.DeckService
	card     *service.CardService
	transfer *service.DeckTransferService
	study    *service.StudyService
	progress *service.ProgressService
	reset    *service.PasswordResetService
}

type controllers struct {
	auth     *controller.AuthController
	reset    *controller.PasswordResetController
	deck     *controller.DeckController
	card     *controller.CardController
	study    *controller.StudyController
	progress *controller.ProgressController
	user     *controller.UserController
	action   *controller.ActionController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		deck:     repository.NewDeckRepository(db),
		card:     repository.NewCardRepository(db),
		session:  repository.NewStudySessionRepository(db),
		attempt:  repository.NewQuizAttemptRepository(db),
		stats:    repository.NewStatisticsRepository(db),
		otp:      repository.NewOTPRepository(db),
		progress: repository.NewProgressRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	clock := service.NewClock(cfg.Server.Location())
	mailer := service.NewMailer(&cfg.SMTP)

	return &services{
		auth:     service.NewAuthService(repos.user, a.sessions, cfg, clock),
		user:     service.NewUserService(repos.user, repos.deck, repos.card, repos.stats, a.sessions, clock),
		deck:     service.NewDeckService(db, repos.deck, repos.card, clock),
		card:     service.NewCardService(db, repos.deck, repos.card, clock),
		transfer: service.NewDeckTransferService(db, repos.deck, repos.card),
		study:    service.NewStudyService(db, repos.deck, repos.card, repos.session, repos.attempt, repos.stats, clock),
		progress: service.NewProgressService(repos.progress, repos.session, repos.stats, clock),
		reset:    service.NewPasswordResetService(repos.user, repos.otp, mailer, cfg, clock),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	c := &controllers{
		auth:     controller.NewAuthController(s.auth, a.Config),
		reset:    controller.NewPasswordResetController(s.reset),
		deck:     controller.NewDeckController(s.deck, s.transfer),
		card:     controller.NewCardController(s.card),
		study:    controller.NewStudyController(s.study),
		progress: controller.NewProgressController(s.progress),
		user:     controller.NewUserController(s.user, a.Config),
		health:   controller.NewHealthController(db, a.Redis),
	}
	c.action = controller.NewActionController(c.study, c.deck, c.card, c.user)
	return c
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	router.Use(security.RateLimiter(security.NewLimiter(cfg.RateLimit.MaxRequests, window), a.limiterStop))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}
	router.Use(monitoring.MetricsMiddleware())
}

// NewApp 组装各层依赖，Redis 未启用时令牌注销记录保存在进程内
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:      cfg,
		DB:          db,
		limiterStop: make(chan struct{}),
	}
	if cfg.MigrateOnly {
		return app, nil
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.Redis = rdb
		app.sessions = service.NewRedisSessionStore(rdb)
	} else {
		logger.Log.Warn("Redis disabled, revoked tokens are kept in memory")
		app.sessions = service.NewMemorySessionStore()
	}

	tp, err := tracing.InitTracer(cfg.Tracing.Enabled, cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
	if err != nil {
		return nil, err
	}
	app.tracer = tp

	repos := app.initRepositories(db)
	svcs := app.initServices(repos, cfg, db)
	ctrls := app.initControllers(svcs, db)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	app.Router = router
	router.Use(middleware.RequestLogger())
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, cfg)

	app.scheduler = scheduler.New(svcs.reset)
	app.RegisterConfigCallback(logger.SetLevel)

	return app, nil
}

func (a *App) startBackgroundTasks(ctx context.Context) {
	if err := a.scheduler.Start(); err != nil {
		logger.Log.Error("Failed to start scheduler", zap.Error(err))
	}

	err := configwatcher.WatchConfig(ctx, configDir, func(newCfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(newCfg)
		}
	})
	if err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	a.startBackgroundTasks(bgCtx)

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号，5 秒内优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	stopBackground()
	a.scheduler.Stop()
	close(a.limiterStop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracing.Shutdown(ctx, a.tracer); err != nil {
		logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}
