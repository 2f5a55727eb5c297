package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crimsonops/policygen/internal/config"
	"github.com/crimsonops/policygen/internal/core/detect"
	"github.com/crimsonops/policygen/internal/core/ports"
	"github.com/crimsonops/policygen/internal/core/usecase"
	"github.com/crimsonops/policygen/internal/infrastructure/queue/nats"
	"github.com/crimsonops/policygen/internal/infrastructure/registry/itglue"
	"github.com/crimsonops/policygen/internal/infrastructure/repository/postgres"
	"github.com/crimsonops/policygen/internal/infrastructure/resilience"
	"github.com/crimsonops/policygen/internal/observability/metrics"
)

const ServiceName = "policygen-api"

type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	OrganizationsUC ports.OrganizationLister
	ProfileUC       ports.ProfileBuilder
	PolicyUC        ports.PolicySaver

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	httpMetrics := metrics.NewHTTPServerMetrics(ServiceName)

	ruleSet, err := loadRuleSet(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load detection rules: %w", err)
	}
	engine, err := detect.NewEngine(ruleSet)
	if err != nil {
		return nil, fmt.Errorf("build detection engine: %w", err)
	}

	registryCfg := resilience.DefaultConfig()
	if cfg.RegistryRetryAttempts > 0 {
		registryCfg.RetryMaxAttempts = cfg.RegistryRetryAttempts
	}
	registry := itglue.New(itglue.Config{
		BaseURL:        cfg.RegistryBaseURL,
		APIKey:         cfg.RegistryAPIKey,
		Timeout:        time.Duration(cfg.RegistryTimeoutSeconds) * time.Second,
		PageSize:       cfg.RegistryPageSize,
		RateLimitRPS:   cfg.RegistryRateLimitRPS,
		RateLimitBurst: cfg.RegistryRateLimitBurst,
		Resilience:     registryCfg,
		Observer:       httpMetrics.RegistryObserver(ServiceName),
	})

	var closers []func()

	var history ports.HistoryStore
	if cfg.HistoryEnabled {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewHistoryRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		history = repo
		closers = append(closers, func() { _ = db.Close() })
	}

	// Audit events are optional; a broker that is down at startup must not
	// keep the API from serving profiles.
	var events ports.EventPublisher
	if cfg.EventsEnabled {
		bus, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		})
		if err != nil {
			slog.Warn("event_bus_unavailable", "url", cfg.NATSURL, "error", err)
		} else {
			events = bus
			closers = append(closers, bus.Close)
		}
	}

	thresholds := usecase.SizeThresholds{
		SmallMax:  cfg.SizeSmallMax,
		MediumMax: cfg.SizeMediumMax,
		LargeMax:  cfg.SizeLargeMax,
	}

	return &App{
		Config:  cfg,
		Metrics: httpMetrics,

		OrganizationsUC: usecase.NewListOrganizationsUseCase(registry),
		ProfileUC:       usecase.NewProfileUseCase(registry, engine, events, thresholds),
		PolicyUC:        usecase.NewPolicyUseCase(registry, history, events),

		closeFn: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func loadRuleSet(path string) (detect.RuleSet, error) {
	if path == "" {
		return detect.DefaultRuleSet(), nil
	}
	return detect.Load(path)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
