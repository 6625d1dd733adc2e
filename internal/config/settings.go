package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/handiism/bulk-downloader/internal/download"
	"github.com/handiism/bulk-downloader/internal/http"
	"github.com/handiism/bulk-downloader/internal/logging"
)

// EnvRedisAddr overrides the Redis address of the download history.
const EnvRedisAddr = "BULKDL_REDIS_ADDR"

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	DownloadsPath         string  `json:"downloads_path"`
	Concurrency           int     `json:"concurrency"`
	TimeoutSeconds        float64 `json:"timeout_seconds"`
	DownloadMaxRetries    int     `json:"download_max_retries"`
	DownloadRetryCooldown float64 `json:"download_retry_cooldown"`
	DownloadRetryExponent float64 `json:"download_retry_exponent"`
	RequestsPerSecond     float64 `json:"requests_per_second"`
	Strategy              string  `json:"strategy"` // auto, direct, intercepted

	// Saving
	SaveAs             bool    `json:"save_as"`
	PrefixMode         string  `json:"prefix_mode"` // none, prepend
	ArchiveFolder      string  `json:"archive_folder"`
	SaveTimeoutSeconds float64 `json:"save_timeout_seconds"`

	// Request shaping
	Referer   string            `json:"referer"`
	Headers   map[string]string `json:"headers,omitempty"`
	Anonymous bool              `json:"anonymous"`

	// History settings
	HistoryPath    string `json:"history_path"` // file path or redis://host:port/db/key
	SkipDownloaded bool   `json:"skip_downloaded"`
	RedisAddr      string `json:"redis_addr"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogPretty bool   `json:"log_pretty"`

	// Metrics
	MetricsAddr string `json:"metrics_addr"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		DownloadsPath:         filepath.Join(homeDir, "Downloads"),
		Concurrency:           0,
		TimeoutSeconds:        http.DefaultTimeout.Seconds(),
		DownloadMaxRetries:    0,
		DownloadRetryCooldown: 0.2,
		DownloadRetryExponent: 4.0,
		Strategy:              string(download.StrategyAuto),

		SaveAs:             true,
		PrefixMode:         string(download.PrefixNone),
		SaveTimeoutSeconds: download.DefaultSaveTimeout.Seconds(),

		HistoryPath:    filepath.Join(homeDir, ".config", "bulkdl", "history.json"),
		SkipDownloaded: false,

		LogLevel:  string(logging.LevelInfo),
		LogPretty: true,
	}
}

// Load reads settings from a JSON file.
//
// A missing file yields DefaultSettings. The BULKDL_REDIS_ADDR environment
// variable, when set, overrides RedisAddr.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, err
		}
	}

	settings.RedisAddr = getEnv(EnvRedisAddr, settings.RedisAddr)
	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultPath returns the default settings file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "bulkdl", "settings.json")
}

// ToDownloadConfig converts settings to download.Config.
//
// Unknown strategy or prefix names fall back to the defaults.
func (s *Settings) ToDownloadConfig() download.Config {
	cfg := download.DefaultConfig()
	cfg.Concurrency = s.Concurrency
	cfg.SaveAs = s.SaveAs
	cfg.Request = s.ToRequestOptions()
	cfg.Retries = s.DownloadMaxRetries
	cfg.RequestsPerSecond = s.RequestsPerSecond
	cfg.ArchiveFolder = s.ArchiveFolder
	cfg.OutputDir = s.DownloadsPath

	if s.TimeoutSeconds > 0 {
		cfg.Timeout = seconds(s.TimeoutSeconds)
	}
	if s.DownloadRetryCooldown > 0 {
		cfg.RetryCooldown = seconds(s.DownloadRetryCooldown)
	}
	if s.DownloadRetryExponent > 0 {
		cfg.RetryExponent = s.DownloadRetryExponent
	}
	if s.SaveTimeoutSeconds > 0 {
		cfg.SaveTimeout = seconds(s.SaveTimeoutSeconds)
	}
	if strategy, err := download.ParseStrategy(s.Strategy); err == nil {
		cfg.Strategy = strategy
	}
	if mode, err := download.ParsePrefixMode(s.PrefixMode); err == nil {
		cfg.PrefixMode = mode
	}
	return cfg
}

// ToRequestOptions converts settings to http.RequestOptions.
func (s *Settings) ToRequestOptions() http.RequestOptions {
	var headers map[string]string
	if len(s.Headers) > 0 {
		headers = make(map[string]string, len(s.Headers))
		for k, v := range s.Headers {
			headers[k] = v
		}
	}
	return http.RequestOptions{
		Headers:   headers,
		Referer:   s.Referer,
		Anonymous: s.Anonymous,
	}
}

// ToLoggingConfig converts settings to logging.Config.
func (s *Settings) ToLoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(s.LogLevel)
	cfg.Pretty = s.LogPretty
	return cfg
}

// HistoryTarget returns where the download history lives. RedisAddr, when
// set, wins over HistoryPath.
func (s *Settings) HistoryTarget() string {
	if s.RedisAddr == "" {
		return s.HistoryPath
	}
	if strings.HasPrefix(s.RedisAddr, "redis://") {
		return s.RedisAddr
	}
	return "redis://" + s.RedisAddr
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
