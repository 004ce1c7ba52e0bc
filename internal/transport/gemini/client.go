// Package gemini adapts the Gemini File Search API (via google.golang.org/genai)
// to the ingestion and query use cases.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/filesearch/internal/domain"
	"github.com/kailas-cloud/filesearch/internal/metrics"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 120 * time.Second
)

// Metric operation labels.
const (
	opCreateStore     = "create_store"
	opUploadFile      = "upload_file"
	opPollOperation   = "poll_operation"
	opGenerateContent = "generate_content"
	opHealth          = "health"
)

// Config holds the Gemini API settings. An empty BaseURL uses the SDK default.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// The subset of the genai services the client calls.
type storesAPI interface {
	Create(ctx context.Context, config *genai.CreateFileSearchStoreConfig) (*genai.FileSearchStore, error)
	UploadToFileSearchStore(ctx context.Context, r io.Reader, storeName string,
		config *genai.UploadToFileSearchStoreConfig) (*genai.UploadToFileSearchStoreOperation, error)
}

type operationsAPI interface {
	GetUploadToFileSearchStoreOperation(ctx context.Context, op *genai.UploadToFileSearchStoreOperation,
		config *genai.GetOperationConfig) (*genai.UploadToFileSearchStoreOperation, error)
}

type modelsAPI interface {
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client is a Gemini File Search client. Safe for concurrent use.
type Client struct {
	stores     storesAPI
	operations operationsAPI
	models     modelsAPI
	model      string
	open       func(path string) (io.ReadCloser, error)
	logger     *zap.Logger
}

// New creates a Gemini client backed by the Gemini Developer API.
func New(ctx context.Context, cfg *Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
			Timeout: &timeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newClient(gc.FileSearchStores, gc.Operations, gc.Models, cfg), nil
}

func newClient(stores storesAPI, operations operationsAPI, models modelsAPI, cfg *Config) *Client {
	model := strings.TrimPrefix(cfg.Model, "models/")
	if model == "" {
		model = DefaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		stores:     stores,
		operations: operations,
		models:     models,
		model:      model,
		open:       openFile,
		logger:     logger,
	}
}

// WithOpener sets how UploadFile reads source files.
func (c *Client) WithOpener(open func(path string) (io.ReadCloser, error)) *Client {
	if open != nil {
		c.open = open
	}
	return c
}

// Model returns the generation model name.
func (c *Client) Model() string {
	return c.model
}

// HealthCheck verifies API availability and the key by fetching the model.
func (c *Client) HealthCheck(ctx context.Context) error {
	start := time.Now()
	_, err := c.models.Get(ctx, c.model, nil)
	return c.observe(opHealth, start, err)
}

// observe records transport metrics for one call and maps err to a gateway error.
func (c *Client) observe(op string, start time.Time, err error) error {
	duration := time.Since(start)
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(op, "error").Inc()
		metrics.GatewayErrorsTotal.WithLabelValues(op, errorKind(err)).Inc()
		c.logger.Debug("Gemini request failed",
			zap.String("operation", op),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return parseAPIError(op, err)
	}

	metrics.GatewayRequestsTotal.WithLabelValues(op, "success").Inc()
	metrics.GatewayRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
	c.logger.Debug("Gemini request",
		zap.String("operation", op),
		zap.Duration("duration", duration),
	)
	return nil
}

// emptyResponse records a successful call whose payload is unusable.
func emptyResponse(op, what string) error {
	metrics.GatewayErrorsTotal.WithLabelValues(op, "empty_response").Inc()
	return fmt.Errorf("gemini %s: empty %s: %w", op, what, domain.ErrGatewayError)
}

func errorKind(err error) string {
	var apiErr genai.APIError
	switch {
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport"
	}
}

// parseAPIError extracts a human-readable error from the SDK error.
// All errors are wrapped with domain.ErrGatewayError for correct 502 mapping.
func parseAPIError(op string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		detail := apiErr.Message
		if detail == "" {
			detail = apiErr.Status
		}
		return fmt.Errorf("gemini API error %d: %s: %w", apiErr.Code, detail, domain.ErrGatewayError)
	}
	return fmt.Errorf("gemini %s: %w: %w", op, err, domain.ErrGatewayError)
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the record store
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	return f, nil
}
