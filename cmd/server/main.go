package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"campus/internal/audit"
	jwttoken "campus/internal/jwt_token"
	"campus/internal/platform/config"
	"campus/internal/platform/events"
	"campus/internal/platform/events/kafka"
	"campus/internal/platform/httpserver"
	"campus/internal/platform/lock"
	"campus/internal/platform/logger"
	"campus/internal/platform/metrics"
	"campus/internal/platform/postgres"
	"campus/internal/platform/redis"
	registrationHandler "campus/internal/registration/handler"
	registrationMetrics "campus/internal/registration/metrics"
	registrationService "campus/internal/registration/service"
	registrationStore "campus/internal/registration/store"
	scheduleHandler "campus/internal/scheduling/handler"
	scheduleMetrics "campus/internal/scheduling/metrics"
	scheduleService "campus/internal/scheduling/service"
	scheduleStore "campus/internal/scheduling/store"
	httptransport "campus/internal/transport/http"
)

const auditBuffer = 1024

// main wires dependencies and keeps the process lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

type storage struct {
	schedules     scheduleService.Store
	registrations registrationService.Store
	db            *sql.DB
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	health := map[string]httptransport.HealthCheck{}

	stores, err := openStorage(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if stores.db != nil {
		defer stores.db.Close()
		health["postgres"] = stores.db.PingContext
	}

	locker, closeLocker, err := newLocker(ctx, cfg, log, health)
	if err != nil {
		return err
	}
	defer closeLocker()

	g, gctx := errgroup.WithContext(ctx)

	publisher, err := newEffectPublisher(ctx, g, gctx, cfg.Kafka, log, health)
	if err != nil {
		return err
	}

	auditInbox := make(audit.ChannelEmitter, auditBuffer)
	var auditStore audit.Store = audit.NewInMemoryStore()
	if stores.db != nil {
		auditStore = audit.NewPostgresStore(stores.db)
	}
	auditWorker := audit.NewWorker(auditStore, auditInbox)
	g.Go(func() error { return ignoreCancel(auditWorker.Run(gctx)) })

	schedules := scheduleService.New(stores.schedules,
		scheduleService.WithLogger(log),
		scheduleService.WithMetrics(scheduleMetrics.New(reg)),
		scheduleService.WithLocker(locker),
		scheduleService.WithEffectPublisher(publisher),
		scheduleService.WithAuditPublisher(auditInbox),
		scheduleService.WithCommandTimeout(cfg.CommandTimeout),
	)
	registrations := registrationService.New(stores.registrations,
		registrationService.WithLogger(log),
		registrationService.WithMetrics(registrationMetrics.New(reg)),
		registrationService.WithLocker(locker),
		registrationService.WithEffectPublisher(publisher),
		registrationService.WithAuditPublisher(auditInbox),
		registrationService.WithCommandTimeout(cfg.CommandTimeout),
	)

	routerCfg := httptransport.RouterConfig{
		Logger:       log,
		Gatherer:     reg,
		Metrics:      metrics.New(reg),
		HealthChecks: health,
		APIs: []httptransport.Registrar{
			scheduleHandler.New(schedules, log),
			registrationHandler.New(registrations, log),
			audit.NewHandler(audit.NewPublisher(auditStore), log),
		},
	}
	if cfg.JWTSigningKey != "" {
		routerCfg.Validator = jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.JWTSigningKey, "campus", "campus-api"))
	} else {
		log.Warn("JWT_SIGNING_KEY not set; API routes accept anonymous requests")
	}

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(routerCfg))
	g.Go(func() error {
		log.Info("starting campus server", "addr", cfg.Addr)
		return httpserver.Run(gctx, srv)
	})

	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (storage, error) {
	if cfg.URL == "" {
		log.Info("DATABASE_URL not set; using in-memory stores")
		return storage{
			schedules:     scheduleStore.NewInMemoryStore(),
			registrations: registrationStore.NewInMemoryStore(),
		}, nil
	}
	db, err := postgres.Open(ctx, postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return storage{}, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return storage{}, err
	}
	return storage{
		schedules:     scheduleStore.NewPostgres(db),
		registrations: registrationStore.NewPostgres(db),
		db:            db,
	}, nil
}

func newLocker(ctx context.Context, cfg config.Server, log *slog.Logger, health map[string]httptransport.HealthCheck) (lock.Locker, func(), error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Info("REDIS_URL not set; using in-process locks")
		return lock.NewSharded(cfg.CommandTimeout), func() {}, nil
	}
	health["redis"] = client.Health
	locker := lock.NewRedis(client.Client, cfg.LockTTL, lock.WithTimeout(cfg.CommandTimeout), lock.WithLogger(log))
	return locker, func() { _ = client.Close() }, nil
}

// newEffectPublisher returns the Kafka publisher when brokers are configured,
// otherwise an in-process channel drained into the log by a worker.
func newEffectPublisher(ctx context.Context, g *errgroup.Group, gctx context.Context, cfg config.KafkaConfig, log *slog.Logger, health map[string]httptransport.HealthCheck) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		publisher := events.NewChannelPublisher(0)
		worker := events.NewWorker(publisher.Inbox(), events.LogHandler(log), log)
		g.Go(func() error { return ignoreCancel(worker.Run(gctx)) })
		g.Go(func() error {
			<-gctx.Done()
			return publisher.Close()
		})
		return publisher, nil
	}

	publisher, err := kafka.New(kafka.Config{Brokers: cfg.Brokers, Topic: cfg.Topic}, log)
	if err != nil {
		return nil, err
	}
	if err := publisher.EnsureTopic(ctx, 0, 0); err != nil {
		_ = publisher.Close()
		return nil, err
	}
	health["kafka"] = publisher.Ping
	g.Go(func() error {
		<-gctx.Done()
		return publisher.Close()
	})
	return publisher, nil
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
