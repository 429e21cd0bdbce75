package crawler

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/logging"
	"github.com/awslens/awslens/internal/telemetry"
)

// blogFeeds maps blog category names to their RSS feed URLs.
var blogFeeds = map[string]string{
	"architecture":     "https://aws.amazon.com/blogs/architecture/feed/",
	"devops":           "https://aws.amazon.com/blogs/devops/feed/",
	"security":         "https://aws.amazon.com/blogs/security/feed/",
	"containers":       "https://aws.amazon.com/blogs/containers/feed/",
	"database":         "https://aws.amazon.com/blogs/database/feed/",
	"compute":          "https://aws.amazon.com/blogs/compute/feed/",
	"networking":       "https://aws.amazon.com/blogs/networking-and-content-delivery/feed/",
	"storage":          "https://aws.amazon.com/blogs/storage/feed/",
	"big-data":         "https://aws.amazon.com/blogs/big-data/feed/",
	"machine-learning": "https://aws.amazon.com/blogs/machine-learning/feed/",
	"mobile":           "https://aws.amazon.com/blogs/mobile/feed/",
	"developer":        "https://aws.amazon.com/blogs/developer/feed/",
	"opensource":       "https://aws.amazon.com/blogs/opensource/feed/",
	"aws-news":         "https://aws.amazon.com/blogs/aws/feed/",
	"startups":         "https://aws.amazon.com/blogs/startups/feed/",
	"public-sector":    "https://aws.amazon.com/blogs/publicsector/feed/",
	"apn":              "https://aws.amazon.com/blogs/apn/feed/",
	"gametech":         "https://aws.amazon.com/blogs/gametech/feed/",
	"iot":              "https://aws.amazon.com/blogs/iot/feed/",
}

// BlogCategories returns the known category names, sorted.
func BlogCategories() []string {
	names := make([]string, 0, len(blogFeeds))
	for name := range blogFeeds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BlogOptions configures one blog crawl.
type BlogOptions struct {
	// Categories to crawl; empty means all.
	Categories []string
	// LookbackDays limits posts to the last N days; 0 disables the cutoff.
	LookbackDays int
	// FetchFullContent scrapes the article page for each post instead of
	// storing only the feed summary.
	FetchFullContent bool
}

// BlogCrawler ingests AWS blog posts from category RSS feeds.
type BlogCrawler struct {
	store    Store
	fetcher  *Fetcher
	detector *ServiceDetector
	parser   *gofeed.Parser
	logger   logging.Logger
	metrics  *telemetry.Metrics
}

// NewBlogCrawler creates a BlogCrawler. metrics may be nil.
func NewBlogCrawler(store Store, fetcher *Fetcher, detector *ServiceDetector, logger logging.Logger, metrics *telemetry.Metrics) *BlogCrawler {
	return &BlogCrawler{
		store:    store,
		fetcher:  fetcher,
		detector: detector,
		parser:   gofeed.NewParser(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Crawl fetches every selected category feed and stores the discovered
// posts. Per-feed errors are logged and skipped; the crawl continues.
func (c *BlogCrawler) Crawl(ctx context.Context, opts BlogOptions) (*domain.RunStats, error) {
	stats := domain.NewRunStats()
	started := time.Now()

	categories := opts.Categories
	if len(categories) == 0 {
		categories = BlogCategories()
	}

	c.logger.Info("starting blog crawl",
		"categories", len(categories),
		"lookback_days", opts.LookbackDays,
		"fetch_full_content", opts.FetchFullContent,
	)

	var cutoff time.Time
	if opts.LookbackDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -opts.LookbackDays)
	}

	for _, category := range categories {
		feedURL, ok := blogFeeds[category]
		if !ok {
			c.logger.Warn("unknown blog category", "category", category)
			continue
		}

		if err := c.crawlFeed(ctx, category, feedURL, cutoff, opts.FetchFullContent, stats); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			if c.metrics != nil {
				c.metrics.CrawlErrors.WithLabelValues(domain.SourceTypeBlog).Inc()
			}
			c.logger.Error("blog feed crawl failed",
				"category", category,
				"error", err,
			)
		}
	}

	if c.metrics != nil {
		c.metrics.CrawlDuration.WithLabelValues(domain.SourceTypeBlog).Observe(time.Since(started).Seconds())
	}

	c.logger.Info("blog crawl complete",
		"total", stats.TotalProcessed,
		"stored", stats.Successful,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed,
		"duration", domain.FormatDuration(stats.Duration()),
	)
	return stats, nil
}

func (c *BlogCrawler) crawlFeed(
	ctx context.Context,
	category, feedURL string,
	cutoff time.Time,
	fetchFullContent bool,
	stats *domain.RunStats,
) error {
	c.logger.Info("fetching blog feed", "category", category, "url", feedURL)

	body, err := c.fetcher.Get(ctx, feedURL)
	if err != nil {
		return err
	}

	feed, err := c.parser.ParseString(string(body))
	if err != nil {
		return err
	}

	for _, entry := range feed.Items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.Link == "" {
			continue
		}

		published := entryPublished(entry)
		if !cutoff.IsZero() && published != nil && published.Before(cutoff) {
			continue
		}

		item := c.buildPost(ctx, category, entry, published, fetchFullContent)
		storeItem(ctx, c.store, domain.SourceTypeBlog, item, stats, c.logger, c.metrics)
	}
	return nil
}

func (c *BlogCrawler) buildPost(
	ctx context.Context,
	category string,
	entry *gofeed.Item,
	published *time.Time,
	fetchFullContent bool,
) *domain.NewContent {
	title := entry.Title
	if title == "" {
		title = "Untitled"
	}

	author := "AWS Team"
	if len(entry.Authors) > 0 && entry.Authors[0].Name != "" {
		author = entry.Authors[0].Name
	}

	content := entry.Description
	if fetchFullContent {
		if full := c.scrapeArticle(ctx, entry.Link); full != "" {
			content = full
		}
	}

	return &domain.NewContent{
		URL:           entry.Link,
		Title:         title,
		Description:   entry.Description,
		Content:       content,
		Author:        author,
		PublishedDate: published,
		SourceType:    domain.SourceTypeBlog,
		ContentType:   domain.ContentTypeBlogPost,
		Categories:    []string{category},
		Topics:        entry.Categories,
		AWSServices:   c.detector.Detect(title, entry.Description, strings.Join(entry.Categories, " ")),
	}
}

// scrapeArticle fetches a blog post page and extracts the article text.
// Failures degrade to the feed summary.
func (c *BlogCrawler) scrapeArticle(ctx context.Context, url string) string {
	body, err := c.fetcher.Get(ctx, url)
	if err != nil {
		c.logger.Warn("failed to fetch article page", "url", url, "error", err)
		return ""
	}

	page, err := ExtractPage(body)
	if err != nil {
		c.logger.Warn("failed to extract article content", "url", url, "error", err)
		return ""
	}
	return page.Body
}

// entryPublished prefers the published timestamp, falling back to updated.
func entryPublished(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed
	}
	return entry.UpdatedParsed
}
