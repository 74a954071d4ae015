// Package config provides YAML-based configuration for the dashboard
// server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FeedMode selects where live samples come from.
const (
	FeedModeDemo    = "demo"
	FeedModeGateway = "gateway"
)

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Feed       FeedConfig       `yaml:"feed"`
	Processing ProcessingConfig `yaml:"processing"`
	Advanced   AdvancedConfig   `yaml:"advanced"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	EnableCORS   bool   `yaml:"enableCors"`
	AllowOrigins string `yaml:"allowOrigins"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
}

// StorageConfig contains data directory settings.
type StorageConfig struct {
	DataDirectory      string `yaml:"dataDirectory"`
	ArchiveDirectory   string `yaml:"archiveDirectory"`
	DashboardDirectory string `yaml:"dashboardDirectory"`
}

// FeedConfig contains live/historical feed settings.
type FeedConfig struct {
	Mode                string `yaml:"mode"` // demo or gateway
	GatewayURL          string `yaml:"gatewayUrl"`
	PollIntervalSeconds int    `yaml:"pollIntervalSeconds"`
	LiveWindowSize      int    `yaml:"liveWindowSize"`
}

// ProcessingConfig contains timing for persistence and history.
type ProcessingConfig struct {
	SaveDebounceMS        int `yaml:"saveDebounceMs"`
	HistoryPendingRetryMS int `yaml:"historyPendingRetryMs"`
}

// AdvancedConfig contains logging/tuning options.
type AdvancedConfig struct {
	LogLevel             string `yaml:"logLevel"`
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
}

// Default returns the configuration used when no file exists.
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "4M",
		},
		Storage: StorageConfig{
			DataDirectory:      "./data",
			ArchiveDirectory:   "./data/archive",
			DashboardDirectory: "./data/dashboards",
		},
		Feed: FeedConfig{
			Mode:                FeedModeDemo,
			PollIntervalSeconds: 2,
			LiveWindowSize:      60,
		},
		Processing: ProcessingConfig{
			SaveDebounceMS:        1000,
			HistoryPendingRetryMS: 2000,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig reads a YAML config file, falling back to defaults for
// a missing file and for unset fields.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	d := Default()
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.BindAddress == "" {
		c.Server.BindAddress = d.Server.BindAddress
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = d.Server.IdleTimeout
	}
	if c.Server.BodyLimit == "" {
		c.Server.BodyLimit = d.Server.BodyLimit
	}
	if c.Storage.DataDirectory == "" {
		c.Storage.DataDirectory = d.Storage.DataDirectory
	}
	if c.Storage.ArchiveDirectory == "" {
		c.Storage.ArchiveDirectory = filepath.Join(c.Storage.DataDirectory, "archive")
	}
	if c.Storage.DashboardDirectory == "" {
		c.Storage.DashboardDirectory = filepath.Join(c.Storage.DataDirectory, "dashboards")
	}
	if c.Feed.Mode == "" {
		c.Feed.Mode = FeedModeDemo
	}
	if c.Feed.PollIntervalSeconds == 0 {
		c.Feed.PollIntervalSeconds = d.Feed.PollIntervalSeconds
	}
	if c.Feed.LiveWindowSize == 0 {
		c.Feed.LiveWindowSize = d.Feed.LiveWindowSize
	}
	if c.Processing.SaveDebounceMS == 0 {
		c.Processing.SaveDebounceMS = d.Processing.SaveDebounceMS
	}
	if c.Processing.HistoryPendingRetryMS == 0 {
		c.Processing.HistoryPendingRetryMS = d.Processing.HistoryPendingRetryMS
	}
	if c.Advanced.LogLevel == "" {
		c.Advanced.LogLevel = d.Advanced.LogLevel
	}
}

func (c *AppConfig) validate() error {
	if c.Feed.Mode != FeedModeDemo && c.Feed.Mode != FeedModeGateway {
		return fmt.Errorf("feed.mode must be %q or %q, got %q", FeedModeDemo, FeedModeGateway, c.Feed.Mode)
	}
	if c.Feed.Mode == FeedModeGateway && c.Feed.GatewayURL == "" {
		return fmt.Errorf("feed.gatewayUrl is required in gateway mode")
	}
	return nil
}

// EnsureDirectories creates all configured data directories.
func (c *AppConfig) EnsureDirectories() error {
	for _, dir := range []string{
		c.Storage.DataDirectory,
		c.Storage.ArchiveDirectory,
		c.Storage.DashboardDirectory,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetServerAddr returns the listen address.
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// PollInterval returns the live tick interval.
func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.Feed.PollIntervalSeconds) * time.Second
}

// SaveDebounce returns the persistence quiet window.
func (c *AppConfig) SaveDebounce() time.Duration {
	return time.Duration(c.Processing.SaveDebounceMS) * time.Millisecond
}

// HistoryPendingRetry returns the pending re-poll interval.
func (c *AppConfig) HistoryPendingRetry() time.Duration {
	return time.Duration(c.Processing.HistoryPendingRetryMS) * time.Millisecond
}
