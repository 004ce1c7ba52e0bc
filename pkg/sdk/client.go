package filesearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/filesearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/filesearch/internal/db/redis"
	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
	recordrepo "github.com/kailas-cloud/filesearch/internal/repository/record"
	"github.com/kailas-cloud/filesearch/internal/repository/recordpg"
	"github.com/kailas-cloud/filesearch/internal/repository/upload"
	"github.com/kailas-cloud/filesearch/internal/transport/gemini"
	healthuc "github.com/kailas-cloud/filesearch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/filesearch/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/filesearch/internal/usecase/query"
	recorduc "github.com/kailas-cloud/filesearch/internal/usecase/record"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "filesearch:"
	defaultUploadDir        = "data/uploads"
)

// recordStore is what every record backend provides.
type recordStore interface {
	recorduc.Repository
	LatestReady(ctx context.Context, owner string) (domrec.Record, error)
}

// backend is an opened record store with its lifecycle hooks.
type backend struct {
	records recordStore
	ping    func(ctx context.Context) error
	close   func()
}

// Client is the filesearch SDK entry point.
type Client struct {
	backend   backend
	recordSvc recordUseCase
	querySvc  queryUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client, connects to the record store and waits until it is ready.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix: defaultKeyPrefix,
		uploadDir: defaultUploadDir,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("filesearch: record store required (use WithRedis or WithPostgres)")
	}
	if cfg.geminiKey == "" {
		return nil, errors.New("filesearch: gemini api key required (use WithGemini)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := upload.New(cfg.uploadDir)
	if err != nil {
		be.close()
		return nil, fmt.Errorf("filesearch: upload dir: %w", err)
	}

	gw, err := gemini.New(ctx, &gemini.Config{
		APIKey:  cfg.geminiKey,
		BaseURL: cfg.geminiBaseURL,
		Model:   cfg.model,
	})
	if err != nil {
		be.close()
		return nil, fmt.Errorf("filesearch: gemini client: %w", err)
	}

	return wireClient(be, blobs, gw.WithOpener(blobs.Open), cfg, obs), nil
}

func openBackend(ctx context.Context, cfg *clientConfig) (backend, error) {
	switch cfg.driver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return backend{}, fmt.Errorf("filesearch: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return backend{}, fmt.Errorf("filesearch: database not ready: %w", err)
		}
		return backend{records: recordrepo.New(s, cfg.keyPrefix), ping: s.Ping, close: s.Close}, nil
	case "postgres":
		c, err := postgres.New(postgres.Config{DSN: cfg.dsn})
		if err != nil {
			return backend{}, fmt.Errorf("filesearch: create postgres client: %w", err)
		}
		if err := c.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			c.Close()
			return backend{}, fmt.Errorf("filesearch: database not ready: %w", err)
		}
		if err := c.Migrate(ctx, recordpg.Schema...); err != nil {
			c.Close()
			return backend{}, fmt.Errorf("filesearch: %w", err)
		}
		return backend{records: recordpg.New(c.DB()), ping: c.Ping, close: c.Close}, nil
	default:
		return backend{}, fmt.Errorf("filesearch: unknown driver %q", cfg.driver)
	}
}

func wireClient(be backend, blobs recorduc.BlobStore, gw *gemini.Client, cfg *clientConfig, obs *observer) *Client {
	ingestSvc := ingestuc.New(be.records, gw, zap.NewNop()).
		WithPolling(cfg.pollInterval, cfg.ingestTimeout)
	recordSvc := recorduc.New(be.records, blobs, ingestSvc).
		WithPagination(cfg.defaultPageSize, cfg.maxPageSize)
	querySvc := queryuc.New(be.records, gw, zap.NewNop())
	healthSvc := healthuc.New(pingerFunc(be.ping), gw)

	return &Client{
		backend:   be,
		recordSvc: recordSvc,
		querySvc:  querySvc,
		healthSvc: healthSvc,
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.backend.close != nil {
		c.backend.close()
	}
}

// Ping checks record store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.backend.ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Records returns the record service for owner.
func (c *Client) Records(owner string) *RecordService {
	return &RecordService{owner: owner, svc: c.recordSvc, obs: c.obs.forOwner(owner)}
}

// Queries returns the query service for owner.
func (c *Client) Queries(owner string) *QueryService {
	return &QueryService{owner: owner, svc: c.querySvc, obs: c.obs.forOwner(owner)}
}

// pingerFunc adapts a ping function to healthuc.DBPinger.
type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
