package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mockmate/internal/enrich"
	"mockmate/internal/enrich/gemini"
	"mockmate/internal/enrich/openai"
	"mockmate/internal/extract"
	"mockmate/internal/interview"
	"mockmate/internal/questions"
	"mockmate/internal/queue"
	"mockmate/internal/services/health"
	"mockmate/internal/sessions"
	"mockmate/internal/shared/config"
	"mockmate/internal/shared/metrics"
	"mockmate/internal/shared/server"
	"mockmate/internal/shared/storage/db"
	"mockmate/internal/shared/storage/object"
	localstore "mockmate/internal/shared/storage/object/local"
	s3store "mockmate/internal/shared/storage/object/s3"
	"mockmate/internal/stages"
	"mockmate/internal/usage"
)

const redisKeyPrefix = "mockmate"

// App holds shared dependencies.
type App struct {
	Config        config.Config
	Logger        *zap.Logger
	Router        *gin.Engine
	DB            *sql.DB
	Redis         *redis.Client
	Plan          *stages.Sequencer
	Catalog       *questions.Repository
	CatalogReport questions.LoadReport
	Usage         *usage.Service
	Sessions      *sessions.Service
	Metrics       *metrics.Metrics
	Registry      *prometheus.Registry
	Queue         queue.Publisher
	Enricher      *enrich.Service
	Manager       *interview.Manager
	Health        *health.Service
}

// Build wires every dependency from cfg. Call Close when done.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger}

	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	var err error
	if app.Plan, err = BuildPlan(cfg); err != nil {
		return nil, err
	}
	records, report, err := LoadCatalog(ctx, cfg, app.Plan, logger)
	if err != nil {
		return nil, err
	}
	app.CatalogReport = report

	if app.DB, err = OpenDB(ctx, cfg, db.ServerOptions(), logger); err != nil {
		return nil, err
	}
	if app.DB != nil {
		if err := db.RunMigrations(ctx, app.DB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	if cfg.SessionsBackend == "redis" {
		if app.Redis, err = OpenRedis(ctx, cfg); err != nil {
			return nil, err
		}
	}

	app.Usage = buildUsage(cfg, app.DB)
	app.Catalog = questions.NewRepository(records, app.Usage, logger.Named("questions"))
	if err := app.Catalog.SeedUsage(ctx); err != nil {
		logger.Warn("seed question usage failed", zap.Error(err))
	}

	store, err := buildSessionStore(cfg, app.DB, app.Redis, logger)
	if err != nil {
		return nil, err
	}
	app.Sessions = sessions.NewService(store, logger.Named("sessions"))

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.NewMetrics(app.Registry)
	app.Metrics.SetCatalog(questions.ComputeStats(records, app.Plan).PerStage)

	if app.Queue, err = buildQueue(ctx, cfg); err != nil {
		return nil, err
	}
	completer, err := buildCompleter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Enricher = enrich.NewService(completer, logger.Named("enrich"))

	app.Manager = interview.NewManager(interview.Deps{
		Plan:      app.Plan,
		Questions: app.Catalog,
		Sessions:  app.Sessions,
		Metrics:   app.Metrics,
		Logger:    logger.Named("interview"),
	}, app.Queue)

	app.Health = health.NewService(app.Plan.Version(), app.Catalog.Len, app.Manager.Active)
	if app.DB != nil {
		app.Health.AddCheck("database", app.DB.PingContext)
	}
	if app.Redis != nil {
		app.Health.AddCheck("redis", func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() })
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Logger:          logger.Named("http"),
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		StartRatePerMin: cfg.StartRatePerMin,
		Gatherer:        app.Registry,
		Metrics:         app.Metrics,
		Health:          app.Health,
		Handlers: []server.RouteRegistrar{
			interview.NewHandler(app.Manager, app.Enricher),
			questions.NewHandler(app.Catalog, app.Plan),
			extract.NewHandler(cfg.ExtractMaxBytes),
		},
	})

	logger.Info("app built",
		zap.String("env", cfg.Env),
		zap.String("plan_version", app.Plan.Version()),
		zap.Int("catalog_questions", app.Catalog.Len()),
		zap.String("sessions_backend", cfg.SessionsBackend),
		zap.String("usage_backend", cfg.UsageBackend),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.Bool("queue_enabled", app.Queue != nil),
	)
	ok = true
	return app, nil
}

// Close releases connections held by the app.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

// BuildPlan loads the stage plan file, or the built-in plan when none is configured.
func BuildPlan(cfg config.Config) (*stages.Sequencer, error) {
	planCfg, err := stages.LoadFile(cfg.StagesFile)
	if err != nil {
		return nil, err
	}
	return stages.NewSequencer(planCfg)
}

// LoadCatalog reads the question catalog and rejects one that leaves a planned stage empty.
func LoadCatalog(ctx context.Context, cfg config.Config, plan *stages.Sequencer, logger *zap.Logger) ([]questions.Record, questions.LoadReport, error) {
	store, prefix, err := buildCatalogStore(ctx, cfg)
	if err != nil {
		return nil, questions.LoadReport{}, err
	}
	records, report, err := questions.LoadCatalog(ctx, store, questions.LoaderOptions{
		Prefix: prefix,
		Logger: logger.Named("catalog"),
	})
	if err != nil {
		return nil, report, err
	}
	if missing := questions.MissingStages(records, plan); len(missing) > 0 {
		return nil, report, &stages.ConfigError{
			Reason: fmt.Sprintf("catalog has no questions for stages %s", strings.Join(missing, ", ")),
		}
	}
	return records, report, nil
}

// OpenDB connects when a database URL is configured; otherwise it returns nil.
func OpenDB(ctx context.Context, cfg config.Config, opts db.Options, logger *zap.Logger) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	return db.Connect(ctx, cfg.DatabaseURL, opts, logger.Named("db"))
}

// OpenRedis connects to the configured Redis server and verifies it answers.
func OpenRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// BuildSessions returns the session service for cfg with a CLI sized pool.
func BuildSessions(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sessions.Service, func(), error) {
	sqlDB, err := OpenDB(ctx, cfg, db.CLIOptions(), logger)
	if err != nil {
		return nil, nil, err
	}
	var rdb *redis.Client
	if cfg.SessionsBackend == "redis" {
		if rdb, err = OpenRedis(ctx, cfg); err != nil {
			if sqlDB != nil {
				_ = sqlDB.Close()
			}
			return nil, nil, err
		}
	}
	closeFn := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}
	store, err := buildSessionStore(cfg, sqlDB, rdb, logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return sessions.NewService(store, logger.Named("sessions")), closeFn, nil
}

func buildCatalogStore(ctx context.Context, cfg config.Config) (object.Store, string, error) {
	switch cfg.CatalogStore {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.CatalogPrefix)
		if err != nil {
			return nil, "", fmt.Errorf("catalog s3 store: %w", err)
		}
		return store, "", nil
	default:
		return localstore.New(cfg.CatalogDir), cfg.CatalogPrefix, nil
	}
}

func buildUsage(cfg config.Config, sqlDB *sql.DB) *usage.Service {
	if cfg.UsageBackend == "postgres" && sqlDB != nil {
		return usage.NewService(usage.NewPGStore(sqlDB))
	}
	return usage.NewMemoryService()
}

func buildSessionStore(cfg config.Config, sqlDB *sql.DB, rdb *redis.Client, logger *zap.Logger) (sessions.Store, error) {
	switch cfg.SessionsBackend {
	case "memory":
		return sessions.NewMemoryRepo(), nil
	case "postgres":
		if sqlDB == nil {
			return nil, errors.New("sessions.backend=postgres requires database_url")
		}
		return &sessions.PGRepo{DB: sqlDB}, nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("sessions.backend=redis requires a redis connection")
		}
		return sessions.NewRedisRepo(rdb, redisKeyPrefix), nil
	default:
		return sessions.NewFileRepo(cfg.SessionsDir, logger.Named("sessions.file"))
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Publisher, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return nil, nil
	}
	pub, err := queue.NewSQSPublisher(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

func buildCompleter(ctx context.Context, cfg config.Config, logger *zap.Logger) (enrich.Completer, error) {
	if v := strings.TrimSpace(cfg.PromptVersion); v != "" && v != enrich.PromptVersion {
		logger.Warn("configured prompt version is not bundled",
			zap.String("configured", v),
			zap.String("bundled", enrich.PromptVersion),
		)
	}
	switch cfg.LLMProvider {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, logger.Named("openai"))
	case "gemini":
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	default:
		return nil, nil
	}
}
