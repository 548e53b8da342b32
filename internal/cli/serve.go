package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/drfirst/dental-claims/internal/api/handlers"
	"github.com/drfirst/dental-claims/internal/api/middleware"
	"github.com/drfirst/dental-claims/internal/config"
	"github.com/drfirst/dental-claims/internal/domain/claim"
	"github.com/drfirst/dental-claims/internal/infrastructure/postgres"
	"github.com/drfirst/dental-claims/internal/infrastructure/redpanda"
	"github.com/drfirst/dental-claims/internal/infrastructure/sqlite"
	"github.com/drfirst/dental-claims/internal/llm"
	"github.com/drfirst/dental-claims/internal/observability/metrics"
	"github.com/drfirst/dental-claims/internal/observability/tracing"
	"github.com/drfirst/dental-claims/internal/reference"
	"github.com/drfirst/dental-claims/internal/session"
	"github.com/drfirst/dental-claims/pkg/circuitbreaker"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the claim assistant HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()

	tcfg := tracing.DefaultConfig(serviceName)
	tcfg.ServiceVersion = Version
	tcfg.Environment = cfg.Env
	tcfg.OTLPEndpoint = cfg.OTLPEndpoint
	tp, err := tracing.Init(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tp.Shutdown(sctx)
	}()

	// Reference tables
	patients, err := reference.LoadPatients(cfg.PatientsFile)
	if err != nil {
		return err
	}
	fieldNames, err := reference.LoadClaimFields(cfg.ClaimFieldsFile)
	if err != nil {
		return err
	}
	codes, err := reference.LoadCodes(cfg.CDTCodesFile)
	if err != nil {
		return err
	}
	logger.Info("reference tables loaded",
		zap.Int("patients", patients.Len()),
		zap.Int("form_fields", len(fieldNames)),
		zap.Int("cdt_codes", codes.Len()),
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New(nil)

	breakers := circuitbreaker.NewManager(logger)
	openai, err := llm.NewOpenAISuggester(llm.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}, logger)
	if err != nil {
		return err
	}

	sessions := session.NewStore(cfg.SessionTTL, 10*time.Minute)
	sessions.OnEvicted(func(id string) {
		m.ActiveSessions.Set(float64(sessions.Count()))
		logger.Debug("session evicted", zap.String("session_id", id))
	})

	deps := handlers.ClaimDeps{
		Sessions:   sessions,
		Patients:   patients,
		Codes:      codes,
		FieldNames: fieldNames,
		Suggester:  openai,
		Store:      store,
		Topic:      cfg.ClaimsTopic,
		Metrics:    m,
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer, err := redpanda.NewProducer(redpanda.DefaultProducerConfig(brokers), logger)
		if err != nil {
			return err
		}
		defer producer.Close()
		publishBreaker, err := breakers.GetOrCreate("publish", circuitbreaker.DefaultConfig("publish"))
		if err != nil {
			return err
		}
		deps.Publisher = redpanda.NewGuardedPublisher(producer, publishBreaker)
		ensureClaimsTopic(ctx, brokers, cfg.ClaimsTopic, logger)
	} else {
		logger.Info("KAFKA_BROKERS not set, claim events disabled")
	}

	router := newRouter(routerDeps{
		logger:   logger,
		metrics:  m,
		limiter:  middleware.NewClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 0),
		claims:   handlers.NewClaimHandler(deps, logger),
		patients: patients,
		codes:    codes,
		store:    store,
		breakers: breakers,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("starting claim assistant",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.String("model", openai.Model()),
		zap.Bool("tracing", tp.Enabled()),
		zap.String("version", Version),
	)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// storeCloser releases the store's connections.
type storeCloser func()

// openStore connects the configured claims store and makes sure its table exists.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (claim.Store, storeCloser, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		store := postgres.NewClaimStore(pool, cfg.ClaimsTable, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("connected to database", zap.String("table", cfg.ClaimsTable))
		return store, pool.Close, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, cfg.ClaimsTable, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("opened sqlite store",
			zap.String("path", cfg.SQLitePath),
			zap.String("table", cfg.ClaimsTable))
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// ensureClaimsTopic creates the claims topic on startup. Failure is logged;
// publishes fail and are counted until the topic exists.
func ensureClaimsTopic(ctx context.Context, brokers []string, topic string, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	admin, err := redpanda.NewAdmin(brokers, logger)
	if err != nil {
		logger.Warn("topic admin unavailable", zap.Error(err))
		return
	}
	defer admin.Close()
	if err := admin.EnsureTopics(ctx, redpanda.ClaimsTopicConfig(topic)); err != nil {
		logger.Warn("failed to ensure claims topic", zap.String("topic", topic), zap.Error(err))
	}
}

type routerDeps struct {
	logger   *zap.Logger
	metrics  *metrics.Metrics
	limiter  *middleware.ClientLimiter
	claims   *handlers.ClaimHandler
	patients *reference.Patients
	codes    *reference.Codes
	store    claim.Store
	breakers *circuitbreaker.Manager
	// metricsHandler defaults to the process-wide registry.
	metricsHandler http.Handler
}

func newRouter(d routerDeps) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)
	r.Use(middleware.Recover(d.logger))
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Metrics(d.metrics.HTTPRequests))
	r.Use(middleware.Tracing(serviceName))

	health := handlers.NewHealthHandler(serviceName, Version, d.store, d.breakers)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	mh := d.metricsHandler
	if mh == nil {
		mh = metrics.Handler()
	}
	r.Handle("/metrics", mh)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(d.limiter))
		r.Mount("/patients", handlers.NewPatientHandler(d.patients).Routes())
		r.Mount("/codes", handlers.NewCodeHandler(d.codes).Routes())
		r.Mount("/sessions", d.claims.Routes())
		r.Mount("/claims", handlers.NewDashboardHandler(d.store, d.logger).Routes())
	})
	return r
}
