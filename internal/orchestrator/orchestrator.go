// Package orchestrator coordinates the crawlers and the analysis processor
// into the pipeline's composite runs.
package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/awslens/awslens/internal/crawler"
	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/logging"
)

// BlogCrawler is the blog crawl surface the orchestrator drives.
type BlogCrawler interface {
	Crawl(ctx context.Context, opts crawler.BlogOptions) (*domain.RunStats, error)
}

// DocsCrawler is the documentation crawl surface.
type DocsCrawler interface {
	Crawl(ctx context.Context, opts crawler.DocsOptions) (*domain.RunStats, error)
}

// YouTubeCrawler is the video crawl surface.
type YouTubeCrawler interface {
	Crawl(ctx context.Context, opts crawler.YouTubeOptions) (*domain.RunStats, error)
}

// ContentProcessor is the analysis surface.
type ContentProcessor interface {
	ProcessBatch(ctx context.Context) (*domain.RunStats, error)
}

// Results collects per-stage stats from one composite run. A nil stage
// pointer means the stage errored out before producing stats.
type Results struct {
	Blogs      *domain.RunStats `json:"blogs,omitempty"`
	YouTube    *domain.RunStats `json:"youtube,omitempty"`
	Docs       *domain.RunStats `json:"docs,omitempty"`
	Processing *domain.RunStats `json:"processing,omitempty"`
}

// Combined merges the crawl stages into one summary. Processing stats are
// excluded since their counters mean different things.
func (r *Results) Combined() *domain.RunStats {
	total := domain.NewRunStats()
	for _, s := range []*domain.RunStats{r.Blogs, r.YouTube, r.Docs} {
		total.Merge(s)
	}
	return total
}

// Orchestrator chains crawls and processing. Each stage failure is logged
// and the run continues: a broken feed should not stop the video crawl, and
// a broken crawl should not stop processing the backlog.
type Orchestrator struct {
	blogs     BlogCrawler
	docs      DocsCrawler
	youtube   YouTubeCrawler
	processor ContentProcessor
	logger    logging.Logger
}

// New creates an Orchestrator.
func New(blogs BlogCrawler, docs DocsCrawler, youtube YouTubeCrawler, processor ContentProcessor, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		blogs:     blogs,
		docs:      docs,
		youtube:   youtube,
		processor: processor,
		logger:    logger,
	}
}

// DailyUpdate runs the incremental pipeline: recent posts from the core
// blog categories, recent videos from the hands-on playlists, recently
// modified documentation, then one analysis batch over the backlog.
func (o *Orchestrator) DailyUpdate(ctx context.Context, processContent bool) (*Results, error) {
	log := o.logger.With("run_id", uuid.NewString())
	log.Info("starting daily update")
	results := &Results{}

	results.Blogs = o.runBlogs(ctx, log, crawler.BlogOptions{
		Categories:   []string{"devops", "architecture", "containers", "compute"},
		LookbackDays: 7,
	})
	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	results.YouTube = o.runYouTube(ctx, log, crawler.YouTubeOptions{
		Playlists:        []string{"aws-devops", "aws-tutorials"},
		LookbackDays:     14,
		MaxPerPlaylist:   20,
		FetchTranscripts: true,
	})
	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	results.Docs = o.runDocs(ctx, log, crawler.DocsOptions{
		Services:     []string{"ec2", "s3", "lambda", "ecs", "cloudformation"},
		LookbackDays: 7,
		MaxPages:     50,
	})
	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	if processContent {
		results.Processing = o.runProcessing(ctx, log)
	} else {
		log.Info("content processing skipped")
	}

	o.logSummary(log, "daily update", results)
	return results, ctx.Err()
}

// FullCrawl runs every source without a date cutoff, bounded only by
// maxItemsPerSource, then processes the backlog.
func (o *Orchestrator) FullCrawl(ctx context.Context, maxItemsPerSource int, processContent bool) (*Results, error) {
	log := o.logger.With("run_id", uuid.NewString())
	log.Info("starting full crawl", "max_items_per_source", maxItemsPerSource)
	results := &Results{}

	results.Blogs = o.runBlogs(ctx, log, crawler.BlogOptions{})
	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	results.YouTube = o.runYouTube(ctx, log, crawler.YouTubeOptions{
		MaxPerPlaylist:   maxItemsPerSource,
		FetchTranscripts: true,
	})
	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	results.Docs = o.runDocs(ctx, log, crawler.DocsOptions{
		MaxPages: maxItemsPerSource,
	})
	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	if processContent {
		results.Processing = o.runProcessing(ctx, log)
	}

	o.logSummary(log, "full crawl", results)
	return results, ctx.Err()
}

// ProcessContent runs only the analysis stage.
func (o *Orchestrator) ProcessContent(ctx context.Context) (*Results, error) {
	log := o.logger.With("run_id", uuid.NewString())
	log.Info("starting content processing")
	results := &Results{Processing: o.runProcessing(ctx, log)}
	o.logSummary(log, "content processing", results)
	return results, ctx.Err()
}

func (o *Orchestrator) runBlogs(ctx context.Context, log logging.Logger, opts crawler.BlogOptions) *domain.RunStats {
	stats, err := o.blogs.Crawl(ctx, opts)
	if err != nil {
		log.Error("blog crawl failed", "error", err)
	}
	return stats
}

func (o *Orchestrator) runDocs(ctx context.Context, log logging.Logger, opts crawler.DocsOptions) *domain.RunStats {
	stats, err := o.docs.Crawl(ctx, opts)
	if err != nil {
		log.Error("documentation crawl failed", "error", err)
	}
	return stats
}

func (o *Orchestrator) runYouTube(ctx context.Context, log logging.Logger, opts crawler.YouTubeOptions) *domain.RunStats {
	stats, err := o.youtube.Crawl(ctx, opts)
	if err != nil {
		log.Error("youtube crawl failed", "error", err)
	}
	return stats
}

func (o *Orchestrator) runProcessing(ctx context.Context, log logging.Logger) *domain.RunStats {
	stats, err := o.processor.ProcessBatch(ctx)
	if err != nil {
		log.Error("content processing failed", "error", err)
	}
	return stats
}

func (o *Orchestrator) logSummary(log logging.Logger, run string, results *Results) {
	combined := results.Combined()

	fields := []any{
		"crawled_total", combined.TotalProcessed,
		"crawled_stored", combined.Successful,
		"crawled_duplicates", combined.Duplicates,
		"crawled_failed", combined.Failed,
	}
	if results.Processing != nil {
		fields = append(fields,
			"analyzed_total", results.Processing.TotalProcessed,
			"analyzed_successful", results.Processing.Successful,
			"analyzed_failed", results.Processing.Failed,
			"analyzed_below_threshold", results.Processing.BelowThreshold,
		)
	}

	log.Info(run+" complete", fields...)
}
