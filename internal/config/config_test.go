package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.APIBaseURL != "http://localhost:8001" {
		t.Errorf("expected default APIBaseURL http://localhost:8001, got %s", cfg.APIBaseURL)
	}
	if cfg.Tracking.UploadTick() != 500*time.Millisecond {
		t.Errorf("expected 500ms upload tick, got %v", cfg.Tracking.UploadTick())
	}
	if cfg.Tracking.UploadIncrement != 20 {
		t.Errorf("expected increment 20, got %d", cfg.Tracking.UploadIncrement)
	}
	if cfg.Tracking.PollInterval() != 2*time.Second {
		t.Errorf("expected 2s poll interval, got %v", cfg.Tracking.PollInterval())
	}
	if cfg.Tracking.CompletionDelay() != 2*time.Second {
		t.Errorf("expected 2s completion delay, got %v", cfg.Tracking.CompletionDelay())
	}
	if cfg.Tracking.AnalysisSteps != 4 {
		t.Errorf("expected 4 analysis steps, got %d", cfg.Tracking.AnalysisSteps)
	}
	if cfg.RetryMax != 0 {
		t.Errorf("expected RetryMax 0, got %d", cfg.RetryMax)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config")

	cfg := NewConfig()
	cfg.APIBaseURL = "https://api.genefit.test"
	cfg.APIToken = "tok-123"
	cfg.Tracking.PollIntervalSeconds = 5
	cfg.Tracking.PollTimeoutMinutes = 0
	cfg.Tracking.MaxPollErrors = 3
	cfg.ProxyMode = "basic"
	cfg.ProxyHost = "proxy.local"
	cfg.ProxyPort = 3128
	cfg.ProxyPassword = "secret"
	cfg.SessionBackend = "redis"
	cfg.RedisURL = "redis://localhost:6379/0"
	cfg.RequestsPerSecond = 2.5
	cfg.Notify = true

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if info.Mode().Perm() != 0600 && os.PathSeparator == '/' {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.APIBaseURL != cfg.APIBaseURL {
		t.Errorf("APIBaseURL mismatch: expected %s, got %s", cfg.APIBaseURL, loaded.APIBaseURL)
	}
	if loaded.APIToken != cfg.APIToken {
		t.Errorf("APIToken mismatch: expected %s, got %s", cfg.APIToken, loaded.APIToken)
	}
	if loaded.Tracking.PollIntervalSeconds != 5 {
		t.Errorf("PollIntervalSeconds mismatch: got %d", loaded.Tracking.PollIntervalSeconds)
	}
	if loaded.Tracking.PollTimeoutMinutes != 0 {
		t.Errorf("PollTimeoutMinutes mismatch: got %d", loaded.Tracking.PollTimeoutMinutes)
	}
	if loaded.Tracking.MaxPollErrors != 3 {
		t.Errorf("MaxPollErrors mismatch: got %d", loaded.Tracking.MaxPollErrors)
	}
	if loaded.ProxyHost != "proxy.local" || loaded.ProxyPort != 3128 {
		t.Errorf("proxy mismatch: got %s:%d", loaded.ProxyHost, loaded.ProxyPort)
	}
	if loaded.ProxyPassword != "" {
		t.Error("proxy password must not be persisted")
	}
	if loaded.SessionBackend != "redis" || loaded.RedisURL != cfg.RedisURL {
		t.Errorf("session mismatch: got %s %s", loaded.SessionBackend, loaded.RedisURL)
	}
	if loaded.RequestsPerSecond != 2.5 {
		t.Errorf("RequestsPerSecond mismatch: got %v", loaded.RequestsPerSecond)
	}
	if !loaded.Notify {
		t.Error("Notify was not persisted")
	}

	if _, err := os.Stat(configPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be removed after save")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.APIBaseURL != NewConfig().APIBaseURL {
		t.Errorf("expected defaults for missing file, got %s", cfg.APIBaseURL)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	content := "[genefit]\napi_url = https://example.test\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.APIBaseURL != "https://example.test" {
		t.Errorf("APIBaseURL = %s", cfg.APIBaseURL)
	}
	if cfg.Tracking.UploadIncrement != 20 || cfg.Tracking.AnalysisSteps != 4 {
		t.Errorf("tracking defaults lost: %+v", cfg.Tracking)
	}
}

func TestEnvAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("GENEFIT_API_TOKEN=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvAPIURL, "https://env.example.test")
	// Unset so the .env file value is applied; t.Setenv restores it afterwards.
	t.Setenv(EnvAPIToken, "")
	os.Unsetenv(EnvAPIToken)

	if err := LoadEnvFile(envPath); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}

	cfg := NewConfig()
	cfg.ApplyEnv()

	if cfg.APIBaseURL != "https://env.example.test" {
		t.Errorf("env should override file value, got %s", cfg.APIBaseURL)
	}
	if cfg.APIToken != "from-dotenv" {
		t.Errorf("expected token from .env, got %q", cfg.APIToken)
	}

	cfg.MergeWithFlags("https://flag.example.test", "", "")
	if cfg.APIBaseURL != "https://flag.example.test" {
		t.Errorf("flag should override env, got %s", cfg.APIBaseURL)
	}
	if cfg.APIToken != "from-dotenv" {
		t.Errorf("empty flag must not clear token, got %q", cfg.APIToken)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should not be an error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing url", func(c *Config) { c.APIBaseURL = " " }, ErrMissingAPIURL},
		{"bad scheme", func(c *Config) { c.APIBaseURL = "ftp://x" }, ErrInvalidAPIURL},
		{"bad proxy", func(c *Config) { c.ProxyMode = "socks" }, ErrInvalidProxyMode},
		{"zero tick", func(c *Config) { c.Tracking.UploadTickMS = 0 }, ErrInvalidUploadTick},
		{"big increment", func(c *Config) { c.Tracking.UploadIncrement = 101 }, ErrInvalidIncrement},
		{"zero poll", func(c *Config) { c.Tracking.PollIntervalSeconds = 0 }, ErrInvalidPollInterval},
		{"zero steps", func(c *Config) { c.Tracking.AnalysisSteps = 0 }, ErrInvalidAnalysisSteps},
		{"negative timeout", func(c *Config) { c.Tracking.PollTimeoutMinutes = -1 }, ErrNegativeValue},
		{"unknown session", func(c *Config) { c.SessionBackend = "sqlite" }, ErrInvalidSession},
		{"redis without url", func(c *Config) { c.SessionBackend = "redis" }, ErrMissingRedisURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
