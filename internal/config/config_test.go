package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)

	if err := Initialize("", false); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Processor.BatchSize != 50 {
		t.Errorf("Processor.BatchSize = %d, want 50", cfg.Processor.BatchSize)
	}
	if cfg.Processor.QualityThreshold != 0.5 {
		t.Errorf("Processor.QualityThreshold = %v, want 0.5", cfg.Processor.QualityThreshold)
	}
	if cfg.Processor.MaxRetries != 5 {
		t.Errorf("Processor.MaxRetries = %d, want 5", cfg.Processor.MaxRetries)
	}
	if cfg.Processor.ClaimLease != 15*time.Minute {
		t.Errorf("Processor.ClaimLease = %v, want 15m", cfg.Processor.ClaimLease)
	}
	if cfg.Crawler.BlogLookbackDays != 7 || cfg.Crawler.VideoLookbackDays != 14 {
		t.Errorf("lookbacks = %d/%d, want 7/14",
			cfg.Crawler.BlogLookbackDays, cfg.Crawler.VideoLookbackDays)
	}
	if cfg.Crawler.Schedule != "0 6 * * *" {
		t.Errorf("Crawler.Schedule = %q, want daily at 06:00", cfg.Crawler.Schedule)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestInitialize_EnvOverrides(t *testing.T) {
	resetViper(t)

	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "warn")

	if err := Initialize("", false); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Database.Password != "secret" {
		t.Errorf("Database.Password = %q, want secret", cfg.Database.Password)
	}
	if cfg.Anthropic.APIKey != "sk-test" {
		t.Errorf("Anthropic.APIKey = %q, want sk-test", cfg.Anthropic.APIKey)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestInitialize_DebugFlagForcesDebugLogging(t *testing.T) {
	resetViper(t)

	if err := Initialize("", true); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Service.Debug {
		t.Error("Service.Debug = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dsn := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "pw",
		Database: "awslens",
		SSLMode:  "disable",
	}.DSN()

	want := "host=localhost port=5432 user=postgres password=pw dbname=awslens sslmode=disable"
	if dsn != want {
		t.Errorf("DSN() = %q, want %q", dsn, want)
	}
}
