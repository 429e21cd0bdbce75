// Package config loads service configuration from environment variables,
// an optional YAML config file, and built-in defaults, in that order of
// precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServiceName     = "awslens"
	defaultServiceVersion  = "1.0.0"
	defaultServerPort      = 8080
	defaultDBHost          = "localhost"
	defaultDBPort          = 5432
	defaultDBUser          = "postgres"
	defaultDBName          = "awslens"
	defaultDBSSLMode       = "disable"
	defaultDBMaxConns      = 25
	defaultDBMaxIdleConns  = 5
	defaultModel           = "claude-sonnet-4-20250514"
	defaultMaxTokens       = 1500
	defaultLLMTimeoutSec   = 120
	defaultBatchSize       = 50
	defaultQualityCutoff   = 0.5
	defaultMaxRetries      = 5
	defaultClaimLeaseMin   = 15
	defaultRequestsPerSec  = 2.0
	defaultFetchTimeoutSec = 30
	defaultUserAgent       = "awslens-crawler/1.0"
	defaultBlogLookback    = 7
	defaultVideoLookback   = 14
	defaultDocsLookback    = 7
	defaultSchedule        = "0 6 * * *"
)

// Config holds all configuration for the service.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Debug   bool   `mapstructure:"debug"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxIdleConns    int           `mapstructure:"max_idle_connections"`
	ConnMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// AnthropicConfig holds Anthropic API configuration.
type AnthropicConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ProcessorConfig holds analysis batch processor configuration.
type ProcessorConfig struct {
	BatchSize        int           `mapstructure:"batch_size"`
	QualityThreshold float64       `mapstructure:"quality_threshold"`
	MaxRetries       int           `mapstructure:"max_retries"`
	ClaimLease       time.Duration `mapstructure:"claim_lease"`
}

// CrawlerConfig holds content crawler configuration.
type CrawlerConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	BlogLookbackDays  int           `mapstructure:"blog_lookback_days"`
	VideoLookbackDays int           `mapstructure:"video_lookback_days"`
	DocsLookbackDays  int           `mapstructure:"docs_lookback_days"`
	YouTubeAPIKey     string        `mapstructure:"youtube_api_key"`
	Schedule          string        `mapstructure:"schedule"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Initialize configures Viper from environment variables and an optional
// config file. Must be called before Load. debug forces debug logging
// regardless of the configured level.
func Initialize(cfgFile string, debug bool) error {
	// .env file is optional; existing environment variables win.
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	setDefaults()

	// Config file is optional; defaults and environment variables cover
	// everything.
	_ = viper.ReadInConfig()

	if err := bindEnvVars(); err != nil {
		return fmt.Errorf("bind environment variables: %w", err)
	}

	if debug {
		viper.Set("service.debug", true)
	}
	if viper.GetBool("service.debug") {
		viper.Set("logging.level", "debug")
	}

	return nil
}

// Load unmarshals the initialized Viper state into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("service", map[string]any{
		"name":    defaultServiceName,
		"version": defaultServiceVersion,
		"debug":   false,
	})

	viper.SetDefault("server", map[string]any{
		"port":          defaultServerPort,
		"read_timeout":  "15s",
		"write_timeout": "15s",
		"idle_timeout":  "60s",
	})

	viper.SetDefault("database", map[string]any{
		"host":                    defaultDBHost,
		"port":                    defaultDBPort,
		"user":                    defaultDBUser,
		"database":                defaultDBName,
		"sslmode":                 defaultDBSSLMode,
		"max_connections":         defaultDBMaxConns,
		"max_idle_connections":    defaultDBMaxIdleConns,
		"connection_max_lifetime": "1h",
	})

	viper.SetDefault("anthropic", map[string]any{
		"model":      defaultModel,
		"max_tokens": defaultMaxTokens,
		"timeout":    fmt.Sprintf("%ds", defaultLLMTimeoutSec),
	})

	viper.SetDefault("processor", map[string]any{
		"batch_size":        defaultBatchSize,
		"quality_threshold": defaultQualityCutoff,
		"max_retries":       defaultMaxRetries,
		"claim_lease":       fmt.Sprintf("%dm", defaultClaimLeaseMin),
	})

	viper.SetDefault("crawler", map[string]any{
		"requests_per_second": defaultRequestsPerSec,
		"fetch_timeout":       fmt.Sprintf("%ds", defaultFetchTimeoutSec),
		"user_agent":          defaultUserAgent,
		"blog_lookback_days":  defaultBlogLookback,
		"video_lookback_days": defaultVideoLookback,
		"docs_lookback_days":  defaultDocsLookback,
		"schedule":            defaultSchedule,
	})

	viper.SetDefault("logging", map[string]any{
		"level":  "info",
		"format": "json",
	})
}

func bindEnvVars() error {
	bindings := map[string][]string{
		"service.debug":           {"APP_DEBUG"},
		"database.host":           {"POSTGRES_HOST"},
		"database.port":           {"POSTGRES_PORT"},
		"database.user":           {"POSTGRES_USER"},
		"database.password":       {"POSTGRES_PASSWORD"},
		"database.database":       {"POSTGRES_DB"},
		"database.sslmode":        {"POSTGRES_SSLMODE"},
		"anthropic.api_key":       {"ANTHROPIC_API_KEY"},
		"anthropic.model":         {"ANTHROPIC_MODEL"},
		"crawler.youtube_api_key": {"YOUTUBE_API_KEY"},
		"logging.level":           {"LOG_LEVEL"},
		"logging.format":          {"LOG_FORMAT"},
	}
	for key, envs := range bindings {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}
