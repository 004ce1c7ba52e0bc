package filesearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "redis" or "postgres"
	addrs    []string
	password string
	dsn      string

	keyPrefix string
	uploadDir string

	geminiKey     string
	geminiBaseURL string
	model         string

	pollInterval    time.Duration
	ingestTimeout   time.Duration
	defaultPageSize int
	maxPageSize     int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores records in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres stores records in Postgres. The schema is created on New.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
	})
}

// WithKeyPrefix namespaces Redis keys. Default: "filesearch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithUploadDir sets where uploaded PDFs are kept. Default: "data/uploads".
func WithUploadDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.uploadDir = dir
	})
}

// WithGemini sets the Gemini API key. Required.
func WithGemini(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.geminiKey = apiKey
	})
}

// WithGeminiBaseURL points the client at another API endpoint.
func WithGeminiBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.geminiBaseURL = url
	})
}

// WithModel sets the generation model. Default: gemini-2.5-flash.
func WithModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = model
	})
}

// WithPolling sets the indexing poll interval and total wait budget.
// Defaults: 3s and 300s.
func WithPolling(interval, timeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.pollInterval = interval
		c.ingestTimeout = timeout
	})
}

// WithPageSize sets the default and maximum List page sizes.
// Defaults: 20 and 100.
func WithPageSize(defaultSize, maxSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
