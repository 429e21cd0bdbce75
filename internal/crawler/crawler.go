package crawler

import (
	"context"
	"errors"

	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/logging"
	"github.com/awslens/awslens/internal/telemetry"
)

// Store is the repository surface crawlers need. Insert rejects URLs that
// are already stored with domain.ErrDuplicateURL.
type Store interface {
	Insert(ctx context.Context, c *domain.NewContent) (string, error)
}

// storeItem inserts one crawled item and folds the outcome into stats.
// Duplicates are expected and not treated as errors.
func storeItem(
	ctx context.Context,
	store Store,
	source string,
	item *domain.NewContent,
	stats *domain.RunStats,
	logger logging.Logger,
	metrics *telemetry.Metrics,
) {
	stats.TotalProcessed++
	if metrics != nil {
		metrics.ItemsCrawled.WithLabelValues(source).Inc()
	}

	_, err := store.Insert(ctx, item)
	switch {
	case errors.Is(err, domain.ErrDuplicateURL):
		stats.Duplicates++
		if metrics != nil {
			metrics.ItemsDuplicate.WithLabelValues(source).Inc()
		}
		logger.Debug("skipping duplicate URL", "url", item.URL)
	case err != nil:
		stats.Failed++
		if metrics != nil {
			metrics.CrawlErrors.WithLabelValues(source).Inc()
		}
		logger.Error("failed to store crawled item",
			"url", item.URL,
			"error", err,
		)
	default:
		stats.Successful++
		if metrics != nil {
			metrics.ItemsInserted.WithLabelValues(source).Inc()
		}
		logger.Info("stored crawled item",
			"title", item.Title,
			"url", item.URL,
		)
	}
}
