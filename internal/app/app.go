package app

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/templui/taskpilot/internal/ai"
	"github.com/templui/taskpilot/internal/config"
	"github.com/templui/taskpilot/internal/db"
	"github.com/templui/taskpilot/internal/metrics"
	"github.com/templui/taskpilot/internal/middleware"
	"github.com/templui/taskpilot/internal/repository"
	"github.com/templui/taskpilot/internal/service"
	"github.com/templui/taskpilot/internal/service/payment"
	"github.com/templui/taskpilot/internal/storage"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	Registry          *prometheus.Registry
	Metrics           *metrics.Collector
	AuthService       *service.AuthService
	TaskService       *service.TaskService
	SuggestionService *service.SuggestionService
	PremiumService    *service.PremiumService
	ExportService     *service.ExportService
	AuthLimiter       *middleware.RateLimiter
	SuggestLimiter    *middleware.RateLimiter
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	return Build(cfg, database)
}

// Build wires repositories and services over an open, migrated database.
func Build(cfg *config.Config, database *sqlx.DB) (*App, error) {
	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// Repositories
	userRepository := repository.NewUserRepository(database)
	taskRepository := repository.NewTaskRepository(database)
	premiumRequestRepository := repository.NewPremiumRequestRepository(database)

	// Storage (exports are disabled without a bucket)
	var exportStorage storage.Storage
	if cfg.StorageEnabled() {
		s3Storage, err := storage.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %v", err)
		}
		exportStorage = s3Storage
	}

	// AI (suggestions fail with a distinct error without a key)
	var generator ai.Generator
	openAI := ai.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.AITimeout)
	if openAI.Configured() {
		generator = openAI
	} else {
		slog.Warn("ai suggestions disabled (OPENAI_API_KEY not set)")
	}

	// Initialize payment provider based on config
	paymentProvider, err := payment.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment provider: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.ClientURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	authService := service.NewAuthService(userRepository, tokenService, emailService)
	taskService := service.NewTaskService(taskRepository)
	suggestionService := service.NewSuggestionService(taskRepository, generator, collector, cfg.FreeSuggestionLimit)
	premiumService := service.NewPremiumService(
		userRepository,
		premiumRequestRepository,
		emailService,
		paymentProvider,
		cfg.PremiumRequireVerifiedPayment,
	)
	exportService := service.NewExportService(taskRepository, exportStorage, emailService)

	return &App{
		Cfg:               cfg,
		DB:                database,
		Registry:          registry,
		Metrics:           collector,
		AuthService:       authService,
		TaskService:       taskService,
		SuggestionService: suggestionService,
		PremiumService:    premiumService,
		ExportService:     exportService,
		AuthLimiter:       middleware.NewRateLimiter(cfg.RateLimitAuthPerMin),
		SuggestLimiter:    middleware.NewRateLimiter(cfg.RateLimitSuggestPerMin),
	}, nil
}

func (a *App) Close() error {
	if a.AuthLimiter != nil {
		a.AuthLimiter.Stop()
	}
	if a.SuggestLimiter != nil {
		a.SuggestLimiter.Stop()
	}
	return db.Close(a.DB)
}
