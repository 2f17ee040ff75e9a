package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/reelmint/reelmint/internal/artifacts"
	"github.com/reelmint/reelmint/internal/config"
	"github.com/reelmint/reelmint/internal/events"
	"github.com/reelmint/reelmint/internal/generation"
	"github.com/reelmint/reelmint/internal/generation/jobs"
	handlers "github.com/reelmint/reelmint/internal/handlers/v1alpha1"
	"github.com/reelmint/reelmint/internal/provider"
	"github.com/reelmint/reelmint/internal/service"
	"github.com/reelmint/reelmint/internal/store"
	"github.com/reelmint/reelmint/pkg/metrics"
	"github.com/reelmint/reelmint/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	riverStopTimeout        = 30 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
}

// New returns a new instance of the reelmint API server.
func New(cfg *config.Config, store store.Store, listener net.Listener) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	logger := zap.S().Named("api_server")
	logger.Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	providerClient := provider.NewClient(
		s.cfg.Provider.BaseUrl,
		s.cfg.Provider.APIKey,
		s.cfg.Provider.Model,
		s.cfg.Provider.RequestTimeout,
	)

	artifactStore, err := artifacts.NewMinioStore(
		artifacts.WithEndpoint(s.cfg.Storage.Endpoint),
		artifacts.WithBucket(s.cfg.Storage.Bucket),
		artifacts.WithAccessKey(s.cfg.Storage.AccessKey),
		artifacts.WithSecretKey(s.cfg.Storage.SecretKey),
		artifacts.WithPublicBaseURL(s.cfg.Storage.PublicBaseUrl),
		artifacts.WithSSL(s.cfg.Storage.UseSSL),
	)
	if err != nil {
		return fmt.Errorf("failed to create artifact store: %w", err)
	}

	notifier, producer := s.newNotifier()
	if producer != nil {
		defer func() {
			_ = producer.Close()
		}()
	}

	orchestrator := generation.NewOrchestrator(
		s.store.Job(),
		providerClient,
		artifactStore,
		generation.NewClassifier("fal", s.cfg.Provider.Model),
		notifier,
		s.cfg.Provider.PollInterval,
		s.cfg.Provider.PollDeadline,
	)

	trigger, cleanup, err := s.newTrigger(ctx, orchestrator)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := handlers.NewGenerationHandler(service.NewGenerationService(s.store, trigger))
	router.Route("/api/v1alpha1", handler.RegisterRoutes)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		logger.Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		logger.Info("api server terminated")
	}()

	logger.Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}

// newTrigger builds the configured front door. Both variants hand jobs to the
// same orchestrator; they only differ in who survives a process restart.
func (s *Server) newTrigger(ctx context.Context, orchestrator *generation.Orchestrator) (generation.Trigger, func(), error) {
	logger := zap.S().Named("api_server")

	if s.cfg.Service.TriggerMode != "durable" {
		logger.Infow("using in-process background trigger", "grace", s.cfg.Service.BackgroundGrace)
		return generation.NewBackgroundTrigger(orchestrator, s.cfg.Service.BackgroundGrace), func() {}, nil
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s port=%d dbname=%s",
		s.cfg.Database.Hostname,
		s.cfg.Database.User,
		s.cfg.Database.Password,
		s.cfg.Database.Port,
		s.cfg.Database.Name,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	// sized for job processing plus River's LISTEN connection
	poolCfg.MaxConns = 20
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	client, err := jobs.NewClient(ctx, dbPool, orchestrator)
	if err != nil {
		dbPool.Close()
		return nil, nil, fmt.Errorf("failed to create job queue client: %w", err)
	}

	if err := client.Start(ctx); err != nil {
		dbPool.Close()
		return nil, nil, fmt.Errorf("failed to start job queue: %w", err)
	}

	logger.Info("durable job queue initialized")

	cleanup := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), riverStopTimeout)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			logger.Warnw("failed to stop job queue client", "error", err)
		}
		dbPool.Close()
	}
	return client, cleanup, nil
}

// newNotifier wires the terminal-state event sink. Without brokers configured
// events land in the log, which is the dev setup.
func (s *Server) newNotifier() (generation.Notifier, *events.EventProducer) {
	logger := zap.S().Named("api_server")

	var writer events.Writer = &events.StdoutWriter{}
	if len(s.cfg.Service.Kafka.Brokers) > 0 {
		kafkaWriter, err := events.NewKafkaWriter(s.cfg.Service.Kafka.Brokers, s.cfg.Service.Kafka.ClientID)
		if err != nil {
			logger.Errorw("failed to connect to kafka, notifications go to the log", "error", err)
		} else {
			logger.Infow("kafka notifications enabled", "brokers", s.cfg.Service.Kafka.Brokers)
			writer = kafkaWriter
		}
	}

	opts := []events.ProducerOptions{}
	if s.cfg.Service.Kafka.Topic != "" {
		opts = append(opts, events.WithOutputTopic(s.cfg.Service.Kafka.Topic))
	}

	producer := events.NewEventProducer(writer, opts...)
	return generation.NewEventNotifier(producer), producer
}
