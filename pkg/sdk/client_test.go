package filesearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/filesearch/internal/domain"
	healthuc "github.com/kailas-cloud/filesearch/internal/usecase/health"
)

func TestNew_NoStore(t *testing.T) {
	_, err := New(context.Background(), WithGemini("key"))
	if err == nil {
		t.Fatal("expected error when no record store configured")
	}
}

func TestNew_NoGeminiKey(t *testing.T) {
	_, err := New(context.Background(), WithRedis("localhost:6379", ""))
	if err == nil {
		t.Fatal("expected error when no gemini key configured")
	}
}

func TestOpenBackend_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown"}
	if _, err := openBackend(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenBackend_PostgresNotReady(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	cfg := &clientConfig{driver: "postgres", dsn: "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1"}
	if _, err := openBackend(ctx, cfg); err == nil {
		t.Fatal("expected readiness error")
	}
}

func TestOptions(t *testing.T) {
	cfg := &clientConfig{}
	for _, o := range []Option{
		WithPostgres("postgres://x"),
		WithKeyPrefix("fs:"),
		WithUploadDir("/tmp/up"),
		WithGemini("key"),
		WithGeminiBaseURL("http://localhost:1"),
		WithModel("gemini-2.5-pro"),
		WithPolling(time.Second, time.Minute),
		WithPageSize(10, 50),
	} {
		o.apply(cfg)
	}

	if cfg.driver != "postgres" || cfg.dsn != "postgres://x" {
		t.Errorf("driver = %q, dsn = %q", cfg.driver, cfg.dsn)
	}
	if cfg.keyPrefix != "fs:" || cfg.uploadDir != "/tmp/up" {
		t.Errorf("keyPrefix = %q, uploadDir = %q", cfg.keyPrefix, cfg.uploadDir)
	}
	if cfg.geminiKey != "key" || cfg.geminiBaseURL != "http://localhost:1" || cfg.model != "gemini-2.5-pro" {
		t.Errorf("gemini = %q %q %q", cfg.geminiKey, cfg.geminiBaseURL, cfg.model)
	}
	if cfg.pollInterval != time.Second || cfg.ingestTimeout != time.Minute {
		t.Errorf("polling = %s/%s", cfg.pollInterval, cfg.ingestTimeout)
	}
	if cfg.defaultPageSize != 10 || cfg.maxPageSize != 50 {
		t.Errorf("page sizes = %d/%d", cfg.defaultPageSize, cfg.maxPageSize)
	}

	WithRedis("localhost:6379", "pw").apply(cfg)
	if cfg.driver != "redis" || len(cfg.addrs) != 1 || cfg.password != "pw" {
		t.Errorf("redis option not applied: %+v", cfg)
	}
}

func TestPing(t *testing.T) {
	pingErr := errors.New("down")
	c := &Client{backend: backend{ping: func(context.Context) error { return pingErr }}}

	if err := c.Ping(context.Background()); !errors.Is(err, pingErr) {
		t.Fatalf("expected wrapped ping error, got %v", err)
	}
}

func TestClose_NilBackend(t *testing.T) {
	(&Client{}).Close() // must not panic
}

func TestHealth(t *testing.T) {
	c := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "gateway": healthuc.CheckError},
	}}}

	h := c.Health(context.Background())
	if h.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", h.Status)
	}
	if h.Checks["database"] != "ok" || h.Checks["gateway"] != "error" {
		t.Errorf("Checks = %v", h.Checks)
	}
	if !h.CanRead() || h.CanIngest() {
		t.Errorf("degraded: CanRead=%v CanIngest=%v", h.CanRead(), h.CanIngest())
	}
}

func TestHealthStatus_Capabilities(t *testing.T) {
	tests := []struct {
		status       string
		read, ingest bool
	}{
		{"ok", true, true},
		{"degraded", true, false},
		{"error", false, false},
	}
	for _, tt := range tests {
		h := HealthStatus{Status: tt.status}
		if h.CanRead() != tt.read || h.CanIngest() != tt.ingest {
			t.Errorf("%s: CanRead=%v CanIngest=%v", tt.status, h.CanRead(), h.CanIngest())
		}
	}
}

func TestPingerFunc(t *testing.T) {
	called := false
	var p healthuc.DBPinger = pingerFunc(func(context.Context) error {
		called = true
		return nil
	})
	if err := p.Ping(context.Background()); err != nil || !called {
		t.Fatalf("pingerFunc did not delegate: called=%v err=%v", called, err)
	}
}

// --- observer ---

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs.observe("query", time.Now(), nil)
	obs.observe("query", time.Now(), errors.New("x"))
	obs.observe("query", time.Now(), nil)

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("query", "ok")); got != 2 {
		t.Errorf("ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("query", "error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second client must reuse metrics: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected the same counter vec")
	}
}

func TestObserver_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs, err := newObserver(logger, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs.observe("record_get", time.Now(), errors.New("boom"))
	if !bytes.Contains(buf.Bytes(), []byte("operation failed")) || !bytes.Contains(buf.Bytes(), []byte("record_get")) {
		t.Errorf("unexpected log output: %s", buf.String())
	}
}

func TestObserver_Nil(t *testing.T) {
	var obs *observer
	obs.observe("ping", time.Now(), nil) // must not panic
	if obs.forOwner("alice") != nil {
		t.Error("forOwner on nil observer must stay nil")
	}
}

func TestObserver_ForOwner(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	obs, err := newObserver(logger, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs.forOwner("alice").observe("query", time.Now(), domain.ErrNoReadyDocument)
	if !bytes.Contains(buf.Bytes(), []byte("owner=alice")) || !bytes.Contains(buf.Bytes(), []byte("outcome=not_found")) {
		t.Errorf("unexpected log output: %s", buf.String())
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, outcomeOK},
		{fmt.Errorf("get: %w", domain.ErrRecordNotFound), outcomeNotFound},
		{domain.ErrNoReadyDocument, outcomeNotFound},
		{domain.ErrInvalidFile, outcomeInvalid},
		{domain.ErrInvalidTitle, outcomeInvalid},
		{
			fmt.Errorf("ingest record: %w", &domain.IngestionError{
				RecordID: "r1", Step: domain.StepPoll, Err: domain.ErrIngestionTimeout,
			}),
			outcomeIngestionFailed,
		},
		{fmt.Errorf("query: %w", domain.ErrRemoteQueryFailed), outcomeRemoteFailed},
		{errors.New("connection refused"), outcomeError},
	}
	for _, tt := range tests {
		if got := outcomeOf(tt.err); got != tt.want {
			t.Errorf("outcomeOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
