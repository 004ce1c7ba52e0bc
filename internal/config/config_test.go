package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Gemini:   GeminiConfig{APIKey: "test-key"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"missing redis addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"missing postgres dsn", func(c *Config) { c.Database.Driver = DriverPostgres }, "database.dsn"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "valkey" }, "database.driver"},
		{"missing gemini key", func(c *Config) { c.Gemini.APIKey = "" }, "gemini.api_key"},
		{"page sizes", func(c *Config) { c.HTTP.DefaultPageSize = 200 }, "default_page_size"},
		{"empty api key", func(c *Config) { c.Auth.APIKeys = map[string]string{"alice": ""} }, "auth.api_keys.alice"},
		{"empty owner", func(c *Config) { c.Auth.APIKeys = map[string]string{" ": "k"} }, "empty owner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Postgres(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://localhost/filesearch"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 360 {
		t.Errorf("expected WriteTimeoutSec=360, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.HTTP.MaxUploadBytes != 50<<20 {
		t.Errorf("expected MaxUploadBytes=50MiB, got %d", cfg.HTTP.MaxUploadBytes)
	}
	if cfg.HTTP.DefaultPageSize != 20 || cfg.HTTP.MaxPageSize != 100 {
		t.Errorf("expected page sizes 20/100, got %d/%d", cfg.HTTP.DefaultPageSize, cfg.HTTP.MaxPageSize)
	}
	if cfg.Database.Driver != DriverRedis {
		t.Errorf("expected Driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("expected Model=gemini-2.5-flash, got %q", cfg.Gemini.Model)
	}
	if cfg.Ingestion.PollInterval() != 3*time.Second {
		t.Errorf("expected PollInterval=3s, got %s", cfg.Ingestion.PollInterval())
	}
	if cfg.Ingestion.Timeout() != 300*time.Second {
		t.Errorf("expected Timeout=300s, got %s", cfg.Ingestion.Timeout())
	}
	if cfg.Storage.KeyPrefix != "filesearch:" {
		t.Errorf("expected KeyPrefix='filesearch:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Storage.UploadDir != "data/uploads" {
		t.Errorf("expected UploadDir=data/uploads, got %q", cfg.Storage.UploadDir)
	}
	if cfg.Events.Enabled() {
		t.Error("events must be disabled without brokers")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 5, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{Driver: DriverPostgres, ReadinessTimeout: 15},
		Ingestion: IngestionConfig{PollIntervalSec: 1, TimeoutSec: 30},
		Storage:   StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 5 {
		t.Errorf("expected ReadTimeoutSec=5, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("expected Driver=postgres, got %q", cfg.Database.Driver)
	}
	if cfg.Ingestion.PollInterval() != time.Second || cfg.Ingestion.Timeout() != 30*time.Second {
		t.Errorf("ingestion overridden: %+v", cfg.Ingestion)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestParse(t *testing.T) {
	t.Setenv("FS_TEST_GEMINI_KEY", "from-env")

	data := []byte(`
http:
  port: ${FS_TEST_PORT:-9090}
database:
  driver: redis
  addrs: ["localhost:6379"]
gemini:
  api_key: ${FS_TEST_GEMINI_KEY}
auth:
  api_keys:
    alice: key-a
events:
  brokers: ["localhost:9092"]
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected default port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Errorf("expected api key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Auth.APIKeys["alice"] != "key-a" {
		t.Errorf("unexpected api keys: %v", cfg.Auth.APIKeys)
	}
	if !cfg.Events.Enabled() || cfg.Events.Topic != "filesearch.records" {
		t.Errorf("unexpected events config: %+v", cfg.Events)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FS_TEST_SET", "value")

	tests := []struct {
		in, want string
	}{
		{"${FS_TEST_SET}", "value"},
		{"${FS_TEST_SET:-fallback}", "value"},
		{"${FS_TEST_UNSET:-fallback}", "fallback"},
		{"${FS_TEST_UNSET}", ""},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := string(expandEnvVars([]byte(tt.in))); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
