// Package bootstrap builds the scheduling agent's collaborators from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/clinic-scheduling-agent/internal/api/router"
	"github.com/wolfman30/clinic-scheduling-agent/internal/availability"
	"github.com/wolfman30/clinic-scheduling-agent/internal/bookings"
	appconfig "github.com/wolfman30/clinic-scheduling-agent/internal/config"
	"github.com/wolfman30/clinic-scheduling-agent/internal/conversation"
	"github.com/wolfman30/clinic-scheduling-agent/internal/directory"
	"github.com/wolfman30/clinic-scheduling-agent/internal/faq"
	"github.com/wolfman30/clinic-scheduling-agent/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-scheduling-agent/internal/http/middleware"
	"github.com/wolfman30/clinic-scheduling-agent/internal/observability/metrics"
	"github.com/wolfman30/clinic-scheduling-agent/internal/session"
	"github.com/wolfman30/clinic-scheduling-agent/internal/webchat"
	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

// AWSConfigLoader resolves the shared AWS SDK configuration. It is only called
// when a configured backend needs AWS.
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// App holds every wired collaborator.
type App struct {
	Config    *appconfig.Config
	Logger    *logging.Logger
	Directory *directory.Directory
	Ledger    *bookings.Service
	Resolver  *availability.Resolver
	Sessions  *session.Store
	FAQ       *faq.Store
	Engine    *conversation.Engine
	Metrics   *metrics.ClinicMetrics
	Registry  *prometheus.Registry

	checks  map[string]router.HealthCheck
	closers []func()
	limiter *httpmiddleware.RateLimiter
	once    sync.Once
}

type builder struct {
	cfg           *appconfig.Config
	logger        *logging.Logger
	loadAWS       AWSConfigLoader
	awsCfg        *aws.Config
	bedrockClient *bedrockruntime.Client
	metrics       *metrics.ClinicMetrics
	checks        map[string]router.HealthCheck
	closers       []func()
}

func (b *builder) aws(ctx context.Context) (aws.Config, error) {
	if b.awsCfg != nil {
		return *b.awsCfg, nil
	}
	if b.loadAWS == nil {
		return aws.Config{}, fmt.Errorf("bootstrap: aws configuration is required for this backend")
	}
	cfg, err := b.loadAWS(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	b.awsCfg = &cfg
	return cfg, nil
}

// Build wires the directory, ledger, resolver, session store, FAQ, LLM fallback and engine.
// On error every resource opened so far is released.
func Build(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (app *App, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	b := &builder{
		cfg:     cfg,
		logger:  logger,
		loadAWS: loadAWS,
		metrics: metrics.NewClinicMetrics(registry),
		checks:  map[string]router.HealthCheck{},
	}
	defer func() {
		if err != nil {
			for i := len(b.closers) - 1; i >= 0; i-- {
				b.closers[i]()
			}
		}
	}()

	dir, err := loadDirectory(cfg.DoctorsFile)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location()

	store, err := b.buildLedgerStore(ctx)
	if err != nil {
		return nil, err
	}
	notifier, err := b.buildNotifier(ctx)
	if err != nil {
		return nil, err
	}
	ledgerOpts := []bookings.Option{bookings.WithRecorder(b.metrics)}
	if notifier != nil {
		ledgerOpts = append(ledgerOpts, bookings.WithNotifier(notifier))
	}
	ledger := bookings.NewService(store, logger.Component("bookings"), ledgerOpts...)
	resolver := availability.NewResolver(dir, ledger, availability.WithLocation(loc), availability.WithLogger(logger.Component("availability")))

	backend, err := b.buildSessionBackend(ctx)
	if err != nil {
		return nil, err
	}
	sessions := session.NewStore(backend, logger.Component("session"))

	faqStore, err := b.buildFAQ(ctx)
	if err != nil {
		return nil, err
	}
	llm, model, err := b.buildLLM(ctx)
	if err != nil {
		return nil, err
	}

	engine := conversation.NewEngine(conversation.EngineConfig{
		Sessions: sessions,
		Slots:    resolver,
		Ledger:   ledger,
		FAQ:      faqStore,
		LLM:      llm,
		Model:    model,
		Recorder: b.metrics,
		Logger:   logger.Component("conversation"),
		Location: loc,
	})

	logger.Info("scheduling agent wired",
		"env", cfg.Env,
		"ledger_backend", cfg.LedgerBackend,
		"session_backend", cfg.SessionBackend,
		"llm_provider", cfg.LLMProvider,
		"doctors", len(dir.All()),
		"timezone", loc.String(),
	)
	return &App{
		Config:    cfg,
		Logger:    logger,
		Directory: dir,
		Ledger:    ledger,
		Resolver:  resolver,
		Sessions:  sessions,
		FAQ:       faqStore,
		Engine:    engine,
		Metrics:   b.metrics,
		Registry:  registry,
		checks:    b.checks,
		closers:   b.closers,
	}, nil
}

func loadDirectory(path string) (*directory.Directory, error) {
	var (
		dir *directory.Directory
		err error
	)
	if path == "" {
		dir, err = directory.Default()
	} else {
		dir, err = directory.LoadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load doctor directory: %w", err)
	}
	return dir, nil
}

// Handler assembles the HTTP surface: chat, WebSocket chat, scheduling REST, health and metrics.
func (a *App) Handler() http.Handler {
	if a.limiter == nil && a.Config.RateLimitRPS > 0 {
		a.limiter = httpmiddleware.NewRateLimiter(a.Config.RateLimitRPS, a.Config.RateLimitBurst)
	}
	return router.New(&router.Config{
		Logger:      a.Logger,
		ChatHandler: conversation.NewHandler(a.Engine, a.Config.DefaultSessionID, a.Logger),
		WebChat:     webchat.NewHandler(a.Engine, a.Config.CORSAllowedOrigins, a.Logger.Component("webchat")),
		Scheduling: handlers.NewSchedulingHandler(handlers.SchedulingConfig{
			Slots:  a.Resolver,
			Ledger: a.Ledger,
			Logger: a.Logger,
		}),
		MetricsHandler:     promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		RateLimiter:        a.limiter,
		CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
		HealthChecks:       a.checks,
	})
}

// Close releases pools, clients and the rate limiter. It is safe to call more than once.
func (a *App) Close() {
	a.once.Do(func() {
		if a.limiter != nil {
			a.limiter.Close()
		}
		for i := len(a.closers) - 1; i >= 0; i-- {
			a.closers[i]()
		}
	})
}
