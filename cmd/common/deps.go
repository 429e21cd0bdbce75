// Package common builds the shared dependency graph for the awslens
// subcommands.
package common

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/awslens/awslens/internal/analyzer"
	"github.com/awslens/awslens/internal/config"
	"github.com/awslens/awslens/internal/crawler"
	"github.com/awslens/awslens/internal/database"
	"github.com/awslens/awslens/internal/llm"
	"github.com/awslens/awslens/internal/logging"
	"github.com/awslens/awslens/internal/orchestrator"
	"github.com/awslens/awslens/internal/processor"
	"github.com/awslens/awslens/internal/telemetry"
)

// Deps holds everything a subcommand needs.
type Deps struct {
	Config  *config.Config
	Logger  logging.Logger
	DB      *sqlx.DB
	Repo    *database.ContentRepository
	Metrics *telemetry.Metrics
}

// NewDeps loads configuration, connects to the database, applies migrations,
// and wires the shared components.
func NewDeps(ctx context.Context) (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Deps{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Repo:    database.NewContentRepository(db),
		Metrics: telemetry.NewMetrics(nil),
	}, nil
}

// Close releases held resources.
func (d *Deps) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
}

// NewFetcher builds the shared rate-limited HTTP fetcher.
func (d *Deps) NewFetcher() *crawler.Fetcher {
	return crawler.NewFetcher(
		d.Config.Crawler.RequestsPerSecond,
		d.Config.Crawler.FetchTimeout,
		d.Config.Crawler.UserAgent,
	)
}

// NewBlogCrawler builds the blog crawler.
func (d *Deps) NewBlogCrawler() *crawler.BlogCrawler {
	return crawler.NewBlogCrawler(d.Repo, d.NewFetcher(), crawler.NewServiceDetector(), d.Logger, d.Metrics)
}

// NewDocsCrawler builds the documentation crawler.
func (d *Deps) NewDocsCrawler() *crawler.DocsCrawler {
	return crawler.NewDocsCrawler(d.Repo, d.NewFetcher(), crawler.NewServiceDetector(), d.Logger, d.Metrics)
}

// NewYouTubeCrawler builds the video crawler.
func (d *Deps) NewYouTubeCrawler() *crawler.YouTubeCrawler {
	return crawler.NewYouTubeCrawler(
		d.Repo, d.NewFetcher(), crawler.NewServiceDetector(),
		d.Config.Crawler.YouTubeAPIKey, d.Logger, d.Metrics,
	)
}

// NewProcessor builds the analysis processor. Zero-valued overrides fall
// back to configuration; a non-empty model overrides the configured model.
func (d *Deps) NewProcessor(overrides processor.Options, model string) (*processor.Processor, error) {
	llmCfg := d.Config.Anthropic
	if model != "" {
		llmCfg.Model = model
	}

	opts := processor.Options{
		BatchSize:         d.Config.Processor.BatchSize,
		QualityThreshold:  d.Config.Processor.QualityThreshold,
		MaxRetries:        d.Config.Processor.MaxRetries,
		ClaimLease:        d.Config.Processor.ClaimLease,
		ContentTypes:      overrides.ContentTypes,
		RequestsPerSecond: d.Config.Crawler.RequestsPerSecond,
	}
	if overrides.BatchSize > 0 {
		opts.BatchSize = overrides.BatchSize
	}
	if overrides.QualityThreshold > 0 {
		opts.QualityThreshold = overrides.QualityThreshold
	}

	client, err := llm.NewClient(llmCfg)
	if err != nil {
		return nil, fmt.Errorf("create analysis client: %w", err)
	}

	az := analyzer.New(client, d.Logger)
	return processor.New(d.Repo, az, opts, d.Logger, d.Metrics), nil
}

// NewOrchestrator builds the orchestrator around the default crawlers and
// processor.
func (d *Deps) NewOrchestrator() (*orchestrator.Orchestrator, error) {
	proc, err := d.NewProcessor(processor.Options{}, "")
	if err != nil {
		return nil, err
	}

	return orchestrator.New(
		d.NewBlogCrawler(),
		d.NewDocsCrawler(),
		d.NewYouTubeCrawler(),
		proc,
		d.Logger,
	), nil
}
