package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/awslens/awslens/internal/domain"
)

// contentColumns is the full column list scanned into domain.ContentRecord.
const contentColumns = `
	id, url, title, description, content, author, published_date,
	source_type, content_type, categories, topics, aws_services,
	video_duration_seconds, video_views,
	crawled_at, is_processed, processed_at, claimed_at, retry_count, is_unprocessable,
	ai_summary, difficulty_level, technical_depth, practical_value,
	clarity_score, up_to_dateness, quality_score, key_takeaways,
	target_audience, estimated_reading_time`

// ContentRepository manages content records in PostgreSQL.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a new repository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Insert stores a newly crawled item and returns its generated ID.
// Duplicate URLs are rejected with domain.ErrDuplicateURL; the existing
// record is left untouched.
func (r *ContentRepository) Insert(ctx context.Context, c *domain.NewContent) (string, error) {
	query := `
		INSERT INTO content
			(url, title, description, content, author, published_date,
			 source_type, content_type, categories, topics, aws_services,
			 video_duration_seconds, video_views)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (url) DO NOTHING
		RETURNING id`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		c.URL, c.Title, c.Description, c.Content, c.Author, c.PublishedDate,
		c.SourceType, c.ContentType,
		pq.Array(c.Categories), pq.Array(c.Topics), pq.Array(c.AWSServices),
		c.VideoDurationSeconds, c.VideoViews,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrDuplicateURL
	}
	if err != nil {
		return "", fmt.Errorf("insert content: %w", err)
	}
	return id, nil
}

// GetByID retrieves a single record.
func (r *ContentRepository) GetByID(ctx context.Context, id string) (*domain.ContentRecord, error) {
	query := `SELECT ` + contentColumns + ` FROM content WHERE id = $1`

	var rec domain.ContentRecord
	err := r.db.GetContext(ctx, &rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content by id: %w", err)
	}
	return &rec, nil
}

// ClaimUnprocessed atomically claims up to limit unprocessed records for
// analysis. Claimed rows carry a lease: rows whose claim is older than the
// lease are considered abandoned and eligible again. FOR UPDATE SKIP LOCKED
// keeps concurrent claimers from blocking each other.
//
// contentTypes narrows the claim to the given content_type values; nil or
// empty means no filter.
func (r *ContentRepository) ClaimUnprocessed(
	ctx context.Context,
	limit int,
	contentTypes []string,
	lease time.Duration,
) ([]domain.ContentRecord, error) {
	query := `
		UPDATE content SET claimed_at = NOW()
		WHERE id IN (
			SELECT id FROM content
			WHERE is_processed = FALSE
			  AND is_unprocessable = FALSE
			  AND (claimed_at IS NULL OR claimed_at < NOW() - ($1 * INTERVAL '1 minute'))
			  AND (cardinality($2::text[]) = 0 OR content_type = ANY($2::text[]))
			ORDER BY crawled_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + contentColumns

	if contentTypes == nil {
		contentTypes = []string{}
	}

	var records []domain.ContentRecord
	err := r.db.SelectContext(ctx, &records, query,
		lease.Minutes(), pq.Array(contentTypes), limit)
	if err != nil {
		return nil, fmt.Errorf("claim unprocessed: %w", err)
	}
	return records, nil
}

// SelectProcessedBelow returns processed records whose aggregate quality
// score is below threshold, oldest first. Used by the low-quality requeue.
func (r *ContentRepository) SelectProcessedBelow(
	ctx context.Context,
	threshold float64,
	limit int,
) ([]domain.ContentRecord, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM content
		WHERE is_processed = TRUE
		  AND quality_score IS NOT NULL
		  AND quality_score < $1
		ORDER BY processed_at ASC
		LIMIT $2`

	var records []domain.ContentRecord
	err := r.db.SelectContext(ctx, &records, query, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("select processed below threshold: %w", err)
	}
	return records, nil
}

// UpdateAnalysis persists a full analysis result and marks the record
// processed. aws_services is merged as a set union with whatever the crawler
// already stored; every other analysis field is overwritten. The claim is
// released and the retry count reset.
func (r *ContentRepository) UpdateAnalysis(ctx context.Context, id string, a *domain.Analysis) error {
	query := `
		UPDATE content SET
			ai_summary = $2,
			difficulty_level = $3,
			technical_depth = $4,
			practical_value = $5,
			clarity_score = $6,
			up_to_dateness = $7,
			quality_score = $8,
			aws_services = ARRAY(
				SELECT DISTINCT unnest(aws_services || $9::text[])
			),
			topics = $10,
			categories = $11,
			key_takeaways = $12,
			target_audience = $13,
			estimated_reading_time = $14,
			is_processed = TRUE,
			processed_at = NOW(),
			claimed_at = NULL,
			retry_count = 0
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		id,
		a.Summary,
		a.DifficultyLevel,
		a.QualityScores.TechnicalDepth,
		a.QualityScores.PracticalValue,
		a.QualityScores.ClarityScore,
		a.QualityScores.UpToDateness,
		a.OverallQualityScore,
		pq.Array(a.AWSServices),
		pq.Array(a.Topics),
		pq.Array(a.Categories),
		pq.Array(a.KeyTakeaways),
		a.TargetAudience,
		a.EstimatedReadingTime,
	)
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkProcessedLowQuality marks a record processed with only its aggregate
// score persisted. The rest of the analysis is deliberately discarded so the
// stored score documents why the record was rejected.
func (r *ContentRepository) MarkProcessedLowQuality(ctx context.Context, id string, score float64) error {
	query := `
		UPDATE content SET
			is_processed = TRUE,
			quality_score = $2,
			processed_at = NOW(),
			claimed_at = NULL,
			retry_count = 0
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, score)
	if err != nil {
		return fmt.Errorf("mark processed low quality: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordFailure increments the retry count after a failed analysis and
// releases the claim so the record becomes eligible again. Once the retry
// count reaches maxRetries the record is flagged unprocessable and no longer
// selected. Returns whether the record is now unprocessable.
func (r *ContentRepository) RecordFailure(ctx context.Context, id string, maxRetries int) (bool, error) {
	query := `
		UPDATE content SET
			retry_count = retry_count + 1,
			is_unprocessable = (retry_count + 1 >= $2),
			claimed_at = NULL
		WHERE id = $1
		RETURNING is_unprocessable`

	var unprocessable bool
	err := r.db.QueryRowContext(ctx, query, id, maxRetries).Scan(&unprocessable)
	if errors.Is(err, sql.ErrNoRows) {
		return false, domain.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("record failure: %w", err)
	}
	return unprocessable, nil
}

// ReleaseClaim clears the claim on the given records without touching any
// other state. Used on shutdown so abandoned work is retried immediately.
func (r *ContentRepository) ReleaseClaim(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE content SET claimed_at = NULL WHERE id = ANY($1::uuid[])`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}

// Stats summarizes the state of the content table for monitoring.
type Stats struct {
	Total         int64   `db:"total"          json:"total"`
	Processed     int64   `db:"processed"      json:"processed"`
	Unprocessed   int64   `db:"unprocessed"    json:"unprocessed"`
	Unprocessable int64   `db:"unprocessable"  json:"unprocessable"`
	Claimed       int64   `db:"claimed"        json:"claimed"`
	AvgQuality    float64 `db:"avg_quality"    json:"avg_quality"`
}

// GetStats returns content table statistics.
func (r *ContentRepository) GetStats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE is_processed) AS processed,
			COUNT(*) FILTER (WHERE NOT is_processed AND NOT is_unprocessable) AS unprocessed,
			COUNT(*) FILTER (WHERE is_unprocessable) AS unprocessable,
			COUNT(*) FILTER (WHERE claimed_at IS NOT NULL) AS claimed,
			COALESCE(AVG(quality_score), 0) AS avg_quality
		FROM content`

	var stats Stats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("get content stats: %w", err)
	}
	return &stats, nil
}

// CountBySource returns per-source-type record counts.
func (r *ContentRepository) CountBySource(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT source_type, COUNT(*) FROM content GROUP BY source_type`)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var source string
		var n int64
		if scanErr := rows.Scan(&source, &n); scanErr != nil {
			return nil, scanErr
		}
		counts[source] = n
	}
	return counts, rows.Err()
}

// ListRecent returns the most recently crawled records.
func (r *ContentRepository) ListRecent(ctx context.Context, limit int) ([]domain.ContentRecord, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM content
		ORDER BY crawled_at DESC
		LIMIT $1`

	var records []domain.ContentRecord
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("list recent content: %w", err)
	}
	return records, nil
}
