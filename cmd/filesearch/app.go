package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/filesearch/internal/config"
	"github.com/kailas-cloud/filesearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/filesearch/internal/db/redis"
	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
	logpkg "github.com/kailas-cloud/filesearch/internal/logger"
	"github.com/kailas-cloud/filesearch/internal/metrics"
	recordrepo "github.com/kailas-cloud/filesearch/internal/repository/record"
	"github.com/kailas-cloud/filesearch/internal/repository/recordpg"
	"github.com/kailas-cloud/filesearch/internal/repository/upload"
	"github.com/kailas-cloud/filesearch/internal/transport/gemini"
	"github.com/kailas-cloud/filesearch/internal/transport/kafka"
	healthuc "github.com/kailas-cloud/filesearch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/filesearch/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/filesearch/internal/usecase/query"
	recorduc "github.com/kailas-cloud/filesearch/internal/usecase/record"
)

// recordStore is what every record backend provides.
type recordStore interface {
	recorduc.Repository
	LatestReady(ctx context.Context, owner string) (domrec.Record, error)
}

// pinger is the health view of a record backend.
type pinger interface {
	Ping(ctx context.Context) error
}

// app is the composition root shared by all commands.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	gateway *gemini.Client

	records  *recorduc.Service
	ingester *ingestuc.Service
	queries  *queryuc.Service
	health   *healthuc.Service
	closers  []func()
}

func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{env: env, cfg: cfg, logger: logger}
	if err := a.wire(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg

	// Register metrics explicitly (no init())
	metrics.RegisterIngestionMetrics()
	metrics.RegisterGatewayMetrics()

	store, db, err := a.openRecordStore(ctx)
	if err != nil {
		return err
	}

	blobs, err := upload.New(cfg.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("open upload dir: %w", err)
	}

	gw, err := gemini.New(ctx, &gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Timeout: time.Duration(cfg.Gemini.TimeoutSec) * time.Second,
		Logger:  a.logger,
	})
	if err != nil {
		return fmt.Errorf("create gemini client: %w", err)
	}
	a.gateway = gw.WithOpener(blobs.Open)

	a.ingester = ingestuc.New(store, a.gateway, a.logger).
		WithPolling(cfg.Ingestion.PollInterval(), cfg.Ingestion.Timeout())

	if cfg.Events.Enabled() {
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("create event publisher: %w", err)
		}
		a.closers = append(a.closers, func() { _ = pub.Close() })
		a.ingester = a.ingester.WithPublisher(pub)
		a.logger.Info("Publishing record events",
			zap.Strings("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic),
		)
	}

	a.records = recorduc.New(store, blobs, a.ingester).
		WithPagination(cfg.HTTP.DefaultPageSize, cfg.HTTP.MaxPageSize)
	a.queries = queryuc.New(store, a.gateway, a.logger)
	a.health = healthuc.New(db, a.gateway)
	return nil
}

func (a *app) openRecordStore(ctx context.Context) (recordStore, pinger, error) {
	cfg := a.cfg.Database
	readiness := time.Duration(cfg.ReadinessTimeout) * time.Second

	switch cfg.Driver {
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		if err := s.WaitForReady(ctx, readiness); err != nil {
			return nil, nil, fmt.Errorf("database not ready: %w", err)
		}
		a.logger.Info("Connected to database",
			zap.String("driver", cfg.Driver),
			zap.Strings("addrs", cfg.Addrs),
		)
		return recordrepo.New(s, a.cfg.Storage.KeyPrefix), s, nil
	case config.DriverPostgres:
		c, err := postgres.New(postgres.Config{
			DSN:          cfg.DSN,
			MaxOpenConns: cfg.MaxOpenConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create postgres client: %w", err)
		}
		a.closers = append(a.closers, c.Close)
		if err := c.WaitForReady(ctx, readiness); err != nil {
			return nil, nil, fmt.Errorf("database not ready: %w", err)
		}
		if err := c.Migrate(ctx, recordpg.Schema...); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		a.logger.Info("Connected to database", zap.String("driver", cfg.Driver))
		return recordpg.New(c.DB()), c, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
