package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Provider    ProviderConfig `toml:"provider"`
	Refresh     RefreshConfig  `toml:"refresh"`
	Tasks       TasksConfig    `toml:"tasks"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// ProviderConfig contains market-data provider API configuration
type ProviderConfig struct {
	BaseURL        string        `toml:"base_url"`        // Provider API base URL
	APIKey         string        `toml:"api_key"`         // User must provide API key in config file
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
	RateLimit      int           `toml:"rate_limit"`      // Max provider requests per second
}

// RefreshConfig contains refresh job behavior and the optional schedule
// for unattended collection refreshes.
type RefreshConfig struct {
	Concurrency int      `toml:"concurrency"` // Max in-flight sub-fetches in a batch refresh
	Enabled     bool     `toml:"enabled"`     // Enable scheduled refreshes
	Schedule    string   `toml:"schedule"`    // Cron schedule format (with seconds)
	Collections []string `toml:"collections"` // Collection names refreshed on schedule
}

// TasksConfig contains task registry retention configuration
type TasksConfig struct {
	TTL           string `toml:"ttl"`            // e.g. "1h" - completed task retention age
	SweepInterval string `toml:"sweep_interval"` // e.g. "5m" - how often the sweeper runs
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in colligo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Provider: ProviderConfig{
			BaseURL:        "https://api.finsrc.io/v1",
			APIKey:         "", // User must provide API key in config file
			RequestTimeout: 30 * time.Second,
			RateLimit:      10,
		},
		Refresh: RefreshConfig{
			Concurrency: 4,
			Enabled:     false,           // Disabled by default - user must explicitly opt-in
			Schedule:    "0 0 */6 * * *", // Every 6 hours (cron format)
			Collections: []string{},
		},
		Tasks: TasksConfig{
			TTL:           "1h",
			SweepInterval: "5m",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: COLLIGO_ENV, fallback: GO_ENV)
	if env := os.Getenv("COLLIGO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("COLLIGO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("COLLIGO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("COLLIGO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("COLLIGO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("COLLIGO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("COLLIGO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Provider configuration
	if baseURL := os.Getenv("COLLIGO_PROVIDER_BASE_URL"); baseURL != "" {
		config.Provider.BaseURL = baseURL
	}
	if apiKey := os.Getenv("COLLIGO_PROVIDER_API_KEY"); apiKey != "" {
		config.Provider.APIKey = apiKey
	}
	if rateLimit := os.Getenv("COLLIGO_PROVIDER_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.Provider.RateLimit = rl
		}
	}

	// Refresh configuration
	if concurrency := os.Getenv("COLLIGO_REFRESH_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Refresh.Concurrency = c
		}
	}
	if schedule := os.Getenv("COLLIGO_REFRESH_SCHEDULE"); schedule != "" {
		config.Refresh.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ValidateRefreshSchedule validates a cron schedule expression (with seconds)
func ValidateRefreshSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule is empty")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// TaskTTL returns the parsed completed-task retention age
func (c *Config) TaskTTL() time.Duration {
	if d, err := time.ParseDuration(c.Tasks.TTL); err == nil && d > 0 {
		return d
	}
	return time.Hour
}

// TaskSweepInterval returns the parsed sweeper interval
func (c *Config) TaskSweepInterval() time.Duration {
	if d, err := time.ParseDuration(c.Tasks.SweepInterval); err == nil && d > 0 {
		return d
	}
	return 5 * time.Minute
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
