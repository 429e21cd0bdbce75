package crawler

import (
	"context"
	"strings"
	"time"

	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/logging"
	"github.com/awslens/awslens/internal/telemetry"
)

const (
	docsSitemapIndexURL = "https://docs.aws.amazon.com/sitemap_index.xml"

	// maxChildSitemaps bounds how many child sitemaps one crawl walks.
	// The docs sitemap index lists thousands; a bounded walk plus the
	// lastmod cutoff keeps a scheduled crawl incremental.
	maxChildSitemaps = 10

	defaultMaxDocPages = 100
)

// DocsOptions configures one documentation crawl.
type DocsOptions struct {
	// Services filters child sitemaps by AWS service path segment
	// (e.g. "ec2", "s3"). Empty means no filter.
	Services []string
	// LookbackDays drops pages whose sitemap lastmod is older; 0 disables.
	LookbackDays int
	// MaxPages bounds how many pages are scraped in one crawl.
	MaxPages int
}

// DocsCrawler scrapes AWS documentation pages discovered through the
// docs.aws.amazon.com sitemap index.
type DocsCrawler struct {
	store    Store
	fetcher  *Fetcher
	detector *ServiceDetector
	logger   logging.Logger
	metrics  *telemetry.Metrics
}

// NewDocsCrawler creates a DocsCrawler. metrics may be nil.
func NewDocsCrawler(store Store, fetcher *Fetcher, detector *ServiceDetector, logger logging.Logger, metrics *telemetry.Metrics) *DocsCrawler {
	return &DocsCrawler{
		store:    store,
		fetcher:  fetcher,
		detector: detector,
		logger:   logger,
		metrics:  metrics,
	}
}

// Crawl walks the sitemap index, collects recently modified page URLs, and
// scrapes each page.
func (c *DocsCrawler) Crawl(ctx context.Context, opts DocsOptions) (*domain.RunStats, error) {
	stats := domain.NewRunStats()
	started := time.Now()

	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxDocPages
	}

	c.logger.Info("starting documentation crawl",
		"services", opts.Services,
		"lookback_days", opts.LookbackDays,
		"max_pages", opts.MaxPages,
	)

	entries, err := c.collectPageURLs(ctx, opts)
	if err != nil {
		return stats, err
	}

	c.logger.Info("documentation pages discovered", "count", len(entries))

	for i := range entries {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		item, scrapeErr := c.scrapePage(ctx, &entries[i])
		if scrapeErr != nil {
			stats.TotalProcessed++
			stats.Failed++
			if c.metrics != nil {
				c.metrics.CrawlErrors.WithLabelValues(domain.SourceTypeDocumentation).Inc()
			}
			c.logger.Error("failed to scrape documentation page",
				"url", entries[i].Loc,
				"error", scrapeErr,
			)
			continue
		}

		storeItem(ctx, c.store, domain.SourceTypeDocumentation, item, stats, c.logger, c.metrics)
	}

	if c.metrics != nil {
		c.metrics.CrawlDuration.WithLabelValues(domain.SourceTypeDocumentation).Observe(time.Since(started).Seconds())
	}

	c.logger.Info("documentation crawl complete",
		"total", stats.TotalProcessed,
		"stored", stats.Successful,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed,
		"duration", domain.FormatDuration(stats.Duration()),
	)
	return stats, nil
}

// collectPageURLs fetches the sitemap index and drains child sitemaps until
// MaxPages URLs are collected or the sitemap budget runs out.
func (c *DocsCrawler) collectPageURLs(ctx context.Context, opts DocsOptions) ([]SitemapEntry, error) {
	body, err := c.fetcher.Get(ctx, docsSitemapIndexURL)
	if err != nil {
		return nil, err
	}

	sitemaps, err := ParseSitemapIndex(body)
	if err != nil {
		return nil, err
	}
	sitemaps = filterByService(sitemaps, opts.Services)

	var maxAge time.Duration
	if opts.LookbackDays > 0 {
		maxAge = time.Duration(opts.LookbackDays) * 24 * time.Hour
	}

	var entries []SitemapEntry
	walked := 0
	for _, sitemapURL := range sitemaps {
		if walked >= maxChildSitemaps || len(entries) >= opts.MaxPages {
			break
		}
		walked++

		childBody, fetchErr := c.fetcher.Get(ctx, sitemapURL)
		if fetchErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("failed to fetch child sitemap",
				"url", sitemapURL,
				"error", fetchErr,
			)
			continue
		}

		urls, parseErr := ParseSitemap(childBody, maxAge)
		if parseErr != nil {
			c.logger.Warn("failed to parse child sitemap",
				"url", sitemapURL,
				"error", parseErr,
			)
			continue
		}
		entries = append(entries, urls...)
	}

	if len(entries) > opts.MaxPages {
		entries = entries[:opts.MaxPages]
	}
	return entries, nil
}

func (c *DocsCrawler) scrapePage(ctx context.Context, entry *SitemapEntry) (*domain.NewContent, error) {
	body, err := c.fetcher.Get(ctx, entry.Loc)
	if err != nil {
		return nil, err
	}

	page, err := ExtractPage(body)
	if err != nil {
		return nil, err
	}

	title := page.Title
	if title == "" {
		title = "Untitled"
	}

	// Service mentions come from both the URL path and the page text; the
	// text check only looks at the head of long pages.
	head := page.Body
	if len(head) > 1000 {
		head = head[:1000]
	}
	services := c.detector.Detect(entry.Loc, title, head)

	return &domain.NewContent{
		URL:           entry.Loc,
		Title:         title,
		Description:   page.Description,
		Content:       page.Body,
		Author:        "AWS Documentation",
		PublishedDate: entry.LastMod,
		SourceType:    domain.SourceTypeDocumentation,
		ContentType:   domain.ContentTypeDocumentation,
		Categories:    []string{"documentation"},
		Topics:        page.Keywords,
		AWSServices:   services,
	}, nil
}

// filterByService keeps sitemap URLs whose path contains any of the given
// service segments.
func filterByService(sitemaps, services []string) []string {
	if len(services) == 0 {
		return sitemaps
	}

	filtered := make([]string, 0, len(sitemaps))
	for _, u := range sitemaps {
		lower := strings.ToLower(u)
		for _, svc := range services {
			if strings.Contains(lower, "/"+strings.ToLower(svc)+"/") {
				filtered = append(filtered, u)
				break
			}
		}
	}
	return filtered
}
