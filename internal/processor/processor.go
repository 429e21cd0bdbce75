// Package processor drives the analysis pass over stored content: it claims
// batches of unprocessed records, runs each through the analyzer, applies
// the quality threshold policy, and persists the outcome.
package processor

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/logging"
	"github.com/awslens/awslens/internal/telemetry"
)

// ContentStore is the repository surface the processor needs.
type ContentStore interface {
	ClaimUnprocessed(ctx context.Context, limit int, contentTypes []string, lease time.Duration) ([]domain.ContentRecord, error)
	SelectProcessedBelow(ctx context.Context, threshold float64, limit int) ([]domain.ContentRecord, error)
	UpdateAnalysis(ctx context.Context, id string, a *domain.Analysis) error
	MarkProcessedLowQuality(ctx context.Context, id string, score float64) error
	RecordFailure(ctx context.Context, id string, maxRetries int) (bool, error)
	ReleaseClaim(ctx context.Context, ids []string) error
}

// Analyzer produces an analysis for a single record.
type Analyzer interface {
	Analyze(ctx context.Context, rec *domain.ContentRecord) (*domain.Analysis, error)
}

// Options configures a Processor.
type Options struct {
	BatchSize        int
	QualityThreshold float64
	MaxRetries       int
	ClaimLease       time.Duration
	// ContentTypes narrows processing to the given content_type values.
	// Empty means all types.
	ContentTypes []string
	// RequestsPerSecond throttles analyzer calls. Zero disables throttling.
	RequestsPerSecond float64
}

// Processor runs analysis batches sequentially. Records are claimed with a
// lease so concurrent processor instances never analyze the same record
// twice; within one instance items are processed one at a time to keep the
// model call rate predictable.
type Processor struct {
	store    ContentStore
	analyzer Analyzer
	opts     Options
	limiter  *rate.Limiter
	logger   logging.Logger
	metrics  *telemetry.Metrics
}

// New creates a Processor. metrics may be nil.
func New(store ContentStore, analyzer Analyzer, opts Options, logger logging.Logger, metrics *telemetry.Metrics) *Processor {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.ClaimLease <= 0 {
		opts.ClaimLease = 15 * time.Minute
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Processor{
		store:    store,
		analyzer: analyzer,
		opts:     opts,
		limiter:  limiter,
		logger:   logger,
		metrics:  metrics,
	}
}

// ProcessBatch claims one batch of unprocessed records and analyzes them.
// A record below the quality threshold is still marked processed, with only
// its aggregate score persisted; it counts toward both Failed and
// BelowThreshold in the returned stats. Records whose analysis failed are
// never marked processed; their retry count is incremented and, past the
// retry limit, they are flagged unprocessable.
func (p *Processor) ProcessBatch(ctx context.Context) (*domain.RunStats, error) {
	stats := domain.NewRunStats()

	batch, err := p.store.ClaimUnprocessed(ctx, p.opts.BatchSize, p.opts.ContentTypes, p.opts.ClaimLease)
	if err != nil {
		return stats, err
	}
	if len(batch) == 0 {
		p.logger.Info("no unprocessed content to analyze")
		return stats, nil
	}

	p.logger.Info("processing batch",
		"batch_size", len(batch),
		"quality_threshold", p.opts.QualityThreshold,
	)

	for i := range batch {
		rec := &batch[i]

		if ctx.Err() != nil {
			p.releaseRemaining(batch[i:])
			return stats, ctx.Err()
		}

		stats.TotalProcessed++
		p.processOne(ctx, rec, stats)
	}

	p.logger.Info("batch complete",
		"total", stats.TotalProcessed,
		"successful", stats.Successful,
		"failed", stats.Failed,
		"below_threshold", stats.BelowThreshold,
		"duration", domain.FormatDuration(stats.Duration()),
	)
	return stats, nil
}

func (p *Processor) processOne(ctx context.Context, rec *domain.ContentRecord, stats *domain.RunStats) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.releaseRemaining([]domain.ContentRecord{*rec})
			return
		}
	}

	started := time.Now()
	analysis, err := p.analyzer.Analyze(ctx, rec)
	if p.metrics != nil {
		p.metrics.AnalysisDuration.Observe(time.Since(started).Seconds())
	}

	if err != nil {
		p.handleFailure(ctx, rec, err, stats)
		return
	}

	if analysis.OverallQualityScore < p.opts.QualityThreshold {
		p.handleBelowThreshold(ctx, rec, analysis, stats)
		return
	}

	if updateErr := p.store.UpdateAnalysis(ctx, rec.ID, analysis); updateErr != nil {
		p.logger.Error("failed to persist analysis",
			"content_id", rec.ID,
			"error", updateErr,
		)
		stats.Failed++
		p.countOutcome("error")
		return
	}

	stats.Successful++
	p.countOutcome("successful")
	p.logger.Debug("content analyzed",
		"content_id", rec.ID,
		"quality_score", analysis.OverallQualityScore,
		"difficulty", analysis.DifficultyLevel,
	)
}

func (p *Processor) handleFailure(ctx context.Context, rec *domain.ContentRecord, err error, stats *domain.RunStats) {
	stats.Failed++

	outcome := "client_error"
	if errors.Is(err, domain.ErrInvalidResponse) {
		outcome = "invalid_response"
	}
	p.countOutcome(outcome)

	unprocessable, failErr := p.store.RecordFailure(ctx, rec.ID, p.opts.MaxRetries)
	if failErr != nil {
		p.logger.Error("failed to record analysis failure",
			"content_id", rec.ID,
			"error", failErr,
		)
		return
	}

	if unprocessable {
		p.countOutcome("unprocessable")
		p.logger.Warn("content flagged unprocessable after repeated failures",
			"content_id", rec.ID,
			"url", rec.URL,
			"max_retries", p.opts.MaxRetries,
			"error", err,
		)
		return
	}

	p.logger.Warn("analysis failed, will retry",
		"content_id", rec.ID,
		"retry_count", rec.RetryCount+1,
		"error", err,
	)
}

func (p *Processor) handleBelowThreshold(ctx context.Context, rec *domain.ContentRecord, analysis *domain.Analysis, stats *domain.RunStats) {
	if err := p.store.MarkProcessedLowQuality(ctx, rec.ID, analysis.OverallQualityScore); err != nil {
		p.logger.Error("failed to mark low-quality content",
			"content_id", rec.ID,
			"error", err,
		)
		stats.Failed++
		p.countOutcome("error")
		return
	}

	// Below-threshold items count as failed in the run summary even though
	// the record is marked processed; BelowThreshold keeps the two
	// interpretations separable.
	stats.Failed++
	stats.BelowThreshold++
	p.countOutcome("below_threshold")

	p.logger.Info("content below quality threshold",
		"content_id", rec.ID,
		"url", rec.URL,
		"quality_score", analysis.OverallQualityScore,
		"threshold", p.opts.QualityThreshold,
	)
}

// ReprocessLowQuality re-analyzes records already processed whose stored
// quality score fell below threshold. Any successful re-analysis fully
// replaces the prior analysis fields (aws_services still merges as a
// union), even when the new score is still below the threshold. Only a
// failed analysis leaves the record untouched.
func (p *Processor) ReprocessLowQuality(ctx context.Context, threshold float64) (*domain.RunStats, error) {
	stats := domain.NewRunStats()

	batch, err := p.store.SelectProcessedBelow(ctx, threshold, p.opts.BatchSize)
	if err != nil {
		return stats, err
	}
	if len(batch) == 0 {
		p.logger.Info("no low-quality content to reprocess", "threshold", threshold)
		return stats, nil
	}

	p.logger.Info("reprocessing low-quality content",
		"batch_size", len(batch),
		"threshold", threshold,
	)

	for i := range batch {
		rec := &batch[i]

		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		if p.limiter != nil {
			if waitErr := p.limiter.Wait(ctx); waitErr != nil {
				return stats, waitErr
			}
		}

		stats.TotalProcessed++

		analysis, analyzeErr := p.analyzer.Analyze(ctx, rec)
		if analyzeErr != nil {
			stats.Failed++
			p.logger.Warn("reprocess analysis failed",
				"content_id", rec.ID,
				"error", analyzeErr,
			)
			continue
		}

		if updateErr := p.store.UpdateAnalysis(ctx, rec.ID, analysis); updateErr != nil {
			stats.Failed++
			p.logger.Error("failed to persist reprocessed analysis",
				"content_id", rec.ID,
				"error", updateErr,
			)
			continue
		}
		stats.Successful++
		p.logger.Debug("content reprocessed",
			"content_id", rec.ID,
			"quality_score", analysis.OverallQualityScore,
		)
	}

	p.logger.Info("reprocess complete",
		"total", stats.TotalProcessed,
		"successful", stats.Successful,
		"failed", stats.Failed,
	)
	return stats, nil
}

func (p *Processor) releaseRemaining(remaining []domain.ContentRecord) {
	if len(remaining) == 0 {
		return
	}
	ids := make([]string, 0, len(remaining))
	for i := range remaining {
		ids = append(ids, remaining[i].ID)
	}

	// Fresh context: the batch context is already canceled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.ReleaseClaim(ctx, ids); err != nil {
		p.logger.Error("failed to release claims on shutdown",
			"count", len(ids),
			"error", err,
		)
	}
}

func (p *Processor) countOutcome(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordsProcessed.WithLabelValues(outcome).Inc()
	}
}
