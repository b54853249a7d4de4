package app

import (
	"aims_backend/internal/config"
	"aims_backend/internal/controller"
	"aims_backend/internal/event"
	"aims_backend/internal/grading"
	"aims_backend/internal/repository"
	"aims_backend/internal/service"
	"aims_backend/pkg/database"
	"aims_backend/pkg/logger"
	"aims_backend/pkg/monitoring"
	"aims_backend/pkg/security"
	"aims_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	Engine          *grading.Engine
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user    *repository.UserRepository
	exam    *repository.ExamRepository
	mark    *repository.MarkRepository
	outcome *repository.OutcomeRepository
}

type services struct {
	auth       *service.AuthService
	exam       *service.ExamService
	marks      *service.MarksService
	outcome    *service.OutcomeService
	attainment *service.AttainmentService
}

type controllers struct {
	auth       *controller.AuthController
	exam       *controller.ExamController
	marks      *controller.MarksController
	attainment *controller.AttainmentController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新入口：重建等级表并应用到引擎
func (a *App) ApplyConfig(cfg *config.Config) {
	if table := bandTableFromConfig(cfg); table != nil {
		a.Engine.SetBandTable(table)
		logger.Log.Info("grade band table reloaded")
	}
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

// bandTableFromConfig 把配置中的等级档位转成引擎等级表，
// 配置为空或非法时返回 nil（引擎保持当前表）
func bandTableFromConfig(cfg *config.Config) *grading.BandTable {
	if len(cfg.Grading.Bands) == 0 {
		return nil
	}
	bands := make([]grading.Band, 0, len(cfg.Grading.Bands))
	for _, b := range cfg.Grading.Bands {
		bands = append(bands, grading.Band{Grade: b.Grade, Threshold: b.Min})
	}
	table, err := grading.NewBandTable(bands)
	if err != nil {
		logger.Log.Error("invalid grade band config, keeping current table", zap.Error(err))
		return nil
	}
	return table
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		exam:    repository.NewExamRepository(db),
		mark:    repository.NewMarkRepository(db),
		outcome: repository.NewOutcomeRepository(db),
	}
}

func (a *App) initPublisher(cfg *config.Config, rdb *redis.Client) grading.Publisher {
	if rdb == nil {
		return event.NopPublisher{}
	}
	return event.NewRedisPublisher(rdb, cfg.Grading.EventChannel)
}

func (a *App) initEngine(repos *repositories, cfg *config.Config, pub grading.Publisher) *grading.Engine {
	engine := grading.NewEngine(repos.exam, repos.mark, repos.outcome, repos.mark, pub, logger.Log)
	if table := bandTableFromConfig(cfg); table != nil {
		engine.SetBandTable(table)
	}
	return engine
}

func (a *App) initServices(repos *repositories, cfg *config.Config, engine *grading.Engine, rdb *redis.Client, pub grading.Publisher) *services {
	s := &services{}
	s.auth = service.NewAuthService(repos.user, cfg)
	s.marks = service.NewMarksService(repos.mark, repos.exam, engine)
	s.exam = service.NewExamService(repos.exam, s.marks)
	s.outcome = service.NewOutcomeService(repos.outcome)
	s.attainment = service.NewAttainmentService(
		repos.exam,
		repos.user,
		repos.outcome,
		engine,
		rdb,
		pub,
		time.Duration(cfg.Grading.CacheTTLSeconds)*time.Second,
	)
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		exam:       controller.NewExamController(s.exam),
		marks:      controller.NewMarksController(s.marks),
		attainment: controller.NewAttainmentController(s.attainment, s.outcome),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	pub := app.initPublisher(cfg, rdb)
	app.Engine = app.initEngine(repos, cfg, pub)
	services := app.initServices(repos, cfg, app.Engine, rdb, pub)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("aims-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		go func() {
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

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
