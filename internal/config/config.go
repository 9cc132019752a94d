// Package config provides configuration management for genefit-link.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"github.com/genefit/genefit-link/internal/constants"
)

// Config holds every setting read from the INI file, the environment and flags.
//
// Config file location:
//   - Windows: %APPDATA%\GeneFit\config
//   - Unix: ~/.config/genefit/config
//
// INI format:
//
//	[genefit]
//	api_url = http://localhost:8001
//	api_token =
//
//	[tracking]
//	upload_tick_ms = 500
//	upload_increment = 20
//	poll_interval_seconds = 2
//	completion_delay_seconds = 2
//	poll_timeout_minutes = 10
//	max_poll_errors = 0
//	analysis_steps = 4
//
//	[http]
//	proxy_mode = no-proxy
//	retry_max = 0
//	requests_per_second = 5
//
//	[session]
//	backend = file
//	redis_url =
//
//	[sources]
//	aws_region = us-east-1
//	s3_endpoint =
//
//	[notify]
//	enabled = false
//
//	[log]
//	level = info
//	file =
type Config struct {
	// API settings
	APIBaseURL string
	APIToken   string

	Tracking TrackingConfig

	// Proxy settings
	ProxyMode     string // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated list of hosts to bypass proxy

	// RetryMax is the retry budget for idempotent API reads. Uploads are never retried.
	RetryMax          int
	RequestsPerSecond float64

	// Session storage
	SessionBackend string // "file", "redis", "memory"
	RedisURL       string

	// Remote file sources (s3:// and Azure blob URLs)
	Sources SourceConfig

	// Desktop notifications when an analysis finishes
	Notify bool

	// Logging
	LogLevel string
	LogFile  string
}

// SourceConfig holds credentials for reading DNA files from object storage.
// Empty AWS keys fall back to the default AWS credential chain.
type SourceConfig struct {
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	// S3Endpoint targets an S3-compatible store (MinIO, Ceph). Enables path-style addressing.
	S3Endpoint string
}

// TrackingConfig controls the upload/analysis tracking cadence.
type TrackingConfig struct {
	UploadTickMS           int
	UploadIncrement        int
	PollIntervalSeconds    int
	CompletionDelaySeconds int
	// PollTimeoutMinutes bounds the polling phase. 0 disables the bound.
	PollTimeoutMinutes int
	// MaxPollErrors fails the flow after this many consecutive transient poll errors. 0 = unlimited.
	MaxPollErrors int
	AnalysisSteps int
}

// Environment variables that override file values.
const (
	EnvAPIURL    = "GENEFIT_API_URL"
	EnvAPIToken  = "GENEFIT_API_TOKEN"
	EnvLogLevel  = "GENEFIT_LOG_LEVEL"
	EnvRedisURL  = "GENEFIT_REDIS_URL"
	EnvSession   = "GENEFIT_SESSION_BACKEND"
	EnvProxyMode = "GENEFIT_PROXY_MODE"
)

// Validation errors
var (
	ErrMissingAPIURL        = errors.New("api_url is required")
	ErrInvalidAPIURL        = errors.New("api_url must start with http:// or https://")
	ErrInvalidProxyMode     = errors.New("proxy_mode must be one of no-proxy, system, basic, ntlm")
	ErrInvalidUploadTick    = errors.New("upload_tick_ms must be positive")
	ErrInvalidIncrement     = errors.New("upload_increment must be between 1 and 100")
	ErrInvalidPollInterval  = errors.New("poll_interval_seconds must be positive")
	ErrInvalidAnalysisSteps = errors.New("analysis_steps must be at least 1")
	ErrInvalidSession       = errors.New("session backend must be one of file, redis, memory")
	ErrMissingRedisURL      = errors.New("redis_url is required when session backend is redis")
	ErrNegativeValue        = errors.New("poll_timeout_minutes, max_poll_errors and retry_max must not be negative")
)

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		APIBaseURL: "http://localhost:8001",
		Tracking: TrackingConfig{
			UploadTickMS:           int(constants.UploadTickInterval / time.Millisecond),
			UploadIncrement:        constants.UploadIncrement,
			PollIntervalSeconds:    int(constants.StatusPollInterval / time.Second),
			CompletionDelaySeconds: int(constants.CompletionDelay / time.Second),
			PollTimeoutMinutes:     int(constants.DefaultPollTimeout / time.Minute),
			MaxPollErrors:          constants.DefaultMaxPollErrors,
			AnalysisSteps:          constants.DefaultAnalysisSteps,
		},
		ProxyMode:         "no-proxy",
		RequestsPerSecond: constants.DefaultRequestsPerSecond,
		SessionBackend:    "file",
		Sources:           SourceConfig{AWSRegion: "us-east-1"},
		LogLevel:          "info",
	}
}

// LoadConfig loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	apiSection := iniFile.Section("genefit")
	cfg.APIBaseURL = apiSection.Key("api_url").MustString(cfg.APIBaseURL)
	cfg.APIToken = apiSection.Key("api_token").String()

	tr := iniFile.Section("tracking")
	cfg.Tracking.UploadTickMS = tr.Key("upload_tick_ms").MustInt(cfg.Tracking.UploadTickMS)
	cfg.Tracking.UploadIncrement = tr.Key("upload_increment").MustInt(cfg.Tracking.UploadIncrement)
	cfg.Tracking.PollIntervalSeconds = tr.Key("poll_interval_seconds").MustInt(cfg.Tracking.PollIntervalSeconds)
	cfg.Tracking.CompletionDelaySeconds = tr.Key("completion_delay_seconds").MustInt(cfg.Tracking.CompletionDelaySeconds)
	cfg.Tracking.PollTimeoutMinutes = tr.Key("poll_timeout_minutes").MustInt(cfg.Tracking.PollTimeoutMinutes)
	cfg.Tracking.MaxPollErrors = tr.Key("max_poll_errors").MustInt(cfg.Tracking.MaxPollErrors)
	cfg.Tracking.AnalysisSteps = tr.Key("analysis_steps").MustInt(cfg.Tracking.AnalysisSteps)

	httpSection := iniFile.Section("http")
	cfg.ProxyMode = httpSection.Key("proxy_mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = httpSection.Key("proxy_host").String()
	cfg.ProxyPort = httpSection.Key("proxy_port").MustInt(0)
	cfg.ProxyUser = httpSection.Key("proxy_user").String()
	cfg.ProxyPassword = httpSection.Key("proxy_password").String()
	cfg.NoProxy = httpSection.Key("no_proxy").String()
	cfg.RetryMax = httpSection.Key("retry_max").MustInt(cfg.RetryMax)
	cfg.RequestsPerSecond = httpSection.Key("requests_per_second").MustFloat64(cfg.RequestsPerSecond)

	sessionSection := iniFile.Section("session")
	cfg.SessionBackend = sessionSection.Key("backend").MustString(cfg.SessionBackend)
	cfg.RedisURL = sessionSection.Key("redis_url").String()

	src := iniFile.Section("sources")
	cfg.Sources.AWSRegion = src.Key("aws_region").MustString(cfg.Sources.AWSRegion)
	cfg.Sources.AWSAccessKeyID = src.Key("aws_access_key_id").String()
	cfg.Sources.AWSSecretAccessKey = src.Key("aws_secret_access_key").String()
	cfg.Sources.S3Endpoint = src.Key("s3_endpoint").String()

	cfg.Notify = iniFile.Section("notify").Key("enabled").MustBool(cfg.Notify)

	logSection := iniFile.Section("log")
	cfg.LogLevel = logSection.Key("level").MustString(cfg.LogLevel)
	cfg.LogFile = logSection.Key("file").String()

	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process environment.
// Variables already set in the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file values with GENEFIT_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIToken)); v != "" {
		c.APIToken = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisURL)); v != "" {
		c.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSession)); v != "" {
		c.SessionBackend = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvProxyMode)); v != "" {
		c.ProxyMode = v
	}
}

// MergeWithFlags applies command-line overrides. Empty values are ignored.
// Priority (highest to lowest): flags, environment, config file, defaults.
func (c *Config) MergeWithFlags(apiURL, apiToken, logFile string) {
	if apiURL != "" {
		c.APIBaseURL = apiURL
	}
	if apiToken != "" {
		c.APIToken = apiToken
	}
	if logFile != "" {
		c.LogFile = logFile
	}
}

// SaveConfig saves configuration to an INI file.
// Creates parent directories if they don't exist. The proxy password is never written.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	apiSection, err := iniFile.NewSection("genefit")
	if err != nil {
		return fmt.Errorf("failed to create genefit section: %w", err)
	}
	apiSection.Key("api_url").SetValue(cfg.APIBaseURL)
	apiSection.Key("api_token").SetValue(cfg.APIToken)

	tr, err := iniFile.NewSection("tracking")
	if err != nil {
		return fmt.Errorf("failed to create tracking section: %w", err)
	}
	tr.Key("upload_tick_ms").SetValue(strconv.Itoa(cfg.Tracking.UploadTickMS))
	tr.Key("upload_increment").SetValue(strconv.Itoa(cfg.Tracking.UploadIncrement))
	tr.Key("poll_interval_seconds").SetValue(strconv.Itoa(cfg.Tracking.PollIntervalSeconds))
	tr.Key("completion_delay_seconds").SetValue(strconv.Itoa(cfg.Tracking.CompletionDelaySeconds))
	tr.Key("poll_timeout_minutes").SetValue(strconv.Itoa(cfg.Tracking.PollTimeoutMinutes))
	tr.Key("max_poll_errors").SetValue(strconv.Itoa(cfg.Tracking.MaxPollErrors))
	tr.Key("analysis_steps").SetValue(strconv.Itoa(cfg.Tracking.AnalysisSteps))

	httpSection, err := iniFile.NewSection("http")
	if err != nil {
		return fmt.Errorf("failed to create http section: %w", err)
	}
	httpSection.Key("proxy_mode").SetValue(cfg.ProxyMode)
	httpSection.Key("proxy_host").SetValue(cfg.ProxyHost)
	httpSection.Key("proxy_port").SetValue(strconv.Itoa(cfg.ProxyPort))
	httpSection.Key("proxy_user").SetValue(cfg.ProxyUser)
	httpSection.Key("no_proxy").SetValue(cfg.NoProxy)
	httpSection.Key("retry_max").SetValue(strconv.Itoa(cfg.RetryMax))
	httpSection.Key("requests_per_second").SetValue(strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64))

	sessionSection, err := iniFile.NewSection("session")
	if err != nil {
		return fmt.Errorf("failed to create session section: %w", err)
	}
	sessionSection.Key("backend").SetValue(cfg.SessionBackend)
	sessionSection.Key("redis_url").SetValue(cfg.RedisURL)

	srcSection, err := iniFile.NewSection("sources")
	if err != nil {
		return fmt.Errorf("failed to create sources section: %w", err)
	}
	srcSection.Key("aws_region").SetValue(cfg.Sources.AWSRegion)
	srcSection.Key("aws_access_key_id").SetValue(cfg.Sources.AWSAccessKeyID)
	srcSection.Key("aws_secret_access_key").SetValue(cfg.Sources.AWSSecretAccessKey)
	srcSection.Key("s3_endpoint").SetValue(cfg.Sources.S3Endpoint)

	notifySection, err := iniFile.NewSection("notify")
	if err != nil {
		return fmt.Errorf("failed to create notify section: %w", err)
	}
	notifySection.Key("enabled").SetValue(strconv.FormatBool(cfg.Notify))

	logSection, err := iniFile.NewSection("log")
	if err != nil {
		return fmt.Errorf("failed to create log section: %w", err)
	}
	logSection.Key("level").SetValue(cfg.LogLevel)
	logSection.Key("file").SetValue(cfg.LogFile)

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// The API token is sensitive
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is usable.
// Returns nil if valid, or the first sentinel error describing what's wrong.
func (c *Config) Validate() error {
	u := strings.TrimSpace(c.APIBaseURL)
	if u == "" {
		return ErrMissingAPIURL
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return ErrInvalidAPIURL
	}

	switch strings.ToLower(c.ProxyMode) {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return ErrInvalidProxyMode
	}

	if c.Tracking.UploadTickMS <= 0 {
		return ErrInvalidUploadTick
	}
	if c.Tracking.UploadIncrement < 1 || c.Tracking.UploadIncrement > 100 {
		return ErrInvalidIncrement
	}
	if c.Tracking.PollIntervalSeconds <= 0 {
		return ErrInvalidPollInterval
	}
	if c.Tracking.AnalysisSteps < 1 {
		return ErrInvalidAnalysisSteps
	}
	if c.Tracking.PollTimeoutMinutes < 0 || c.Tracking.MaxPollErrors < 0 || c.RetryMax < 0 || c.Tracking.CompletionDelaySeconds < 0 {
		return ErrNegativeValue
	}

	switch c.SessionBackend {
	case "", "file", "memory":
	case "redis":
		if strings.TrimSpace(c.RedisURL) == "" {
			return ErrMissingRedisURL
		}
	default:
		return ErrInvalidSession
	}

	return nil
}

// UploadTick returns the estimator tick interval.
func (t TrackingConfig) UploadTick() time.Duration {
	return time.Duration(t.UploadTickMS) * time.Millisecond
}

// PollInterval returns the status poll cadence.
func (t TrackingConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalSeconds) * time.Second
}

// CompletionDelay returns the pause before the completion callback.
func (t TrackingConfig) CompletionDelay() time.Duration {
	return time.Duration(t.CompletionDelaySeconds) * time.Second
}

// PollTimeout returns the polling bound, or 0 when disabled.
func (t TrackingConfig) PollTimeout() time.Duration {
	return time.Duration(t.PollTimeoutMinutes) * time.Minute
}
