// Package domain defines the core data model shared by the crawlers,
// the content repository, and the analysis pipeline.
package domain

import (
	"time"

	"github.com/lib/pq"
)

// ContentType values stored in the content_type column.
const (
	ContentTypeBlogPost      = "blog_post"
	ContentTypeDocumentation = "documentation"
	ContentTypeVideo         = "video"
)

// SourceType values stored in the source_type column.
const (
	SourceTypeBlog          = "blog"
	SourceTypeDocumentation = "documentation"
	SourceTypeVideo         = "video"
)

// DifficultyLevel values produced by the analysis pass.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// ValidContentType reports whether t is a known content type.
func ValidContentType(t string) bool {
	switch t {
	case ContentTypeBlogPost, ContentTypeDocumentation, ContentTypeVideo:
		return true
	}
	return false
}

// ValidDifficultyLevel reports whether level is a known difficulty level.
func ValidDifficultyLevel(level string) bool {
	switch level {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// ContentRecord is one crawled content item (blog post, doc page, or video).
// A record is created exactly once by a crawler in the unprocessed state and
// transitioned to processed by the batch processor. Analysis output fields are
// nil until the record has been processed.
type ContentRecord struct {
	ID  string `db:"id"  json:"id"`
	URL string `db:"url" json:"url"`

	Title         string         `db:"title"          json:"title"`
	Description   string         `db:"description"    json:"description"`
	Content       string         `db:"content"        json:"content"`
	Author        string         `db:"author"         json:"author"`
	PublishedDate *time.Time     `db:"published_date" json:"published_date,omitempty"`
	SourceType    string         `db:"source_type"    json:"source_type"`
	ContentType   string         `db:"content_type"   json:"content_type"`
	Categories    pq.StringArray `db:"categories"     json:"categories"`
	Topics        pq.StringArray `db:"topics"         json:"topics"`
	AWSServices   pq.StringArray `db:"aws_services"   json:"aws_services"`

	VideoDurationSeconds *int   `db:"video_duration_seconds" json:"video_duration_seconds,omitempty"`
	VideoViews           *int64 `db:"video_views"            json:"video_views,omitempty"`

	CrawledAt       time.Time  `db:"crawled_at"       json:"crawled_at"`
	IsProcessed     bool       `db:"is_processed"     json:"is_processed"`
	ProcessedAt     *time.Time `db:"processed_at"     json:"processed_at,omitempty"`
	ClaimedAt       *time.Time `db:"claimed_at"       json:"claimed_at,omitempty"`
	RetryCount      int        `db:"retry_count"      json:"retry_count"`
	IsUnprocessable bool       `db:"is_unprocessable" json:"is_unprocessable"`

	AISummary            *string        `db:"ai_summary"             json:"ai_summary,omitempty"`
	DifficultyLevel      *string        `db:"difficulty_level"       json:"difficulty_level,omitempty"`
	TechnicalDepth       *float64       `db:"technical_depth"        json:"technical_depth,omitempty"`
	PracticalValue       *float64       `db:"practical_value"        json:"practical_value,omitempty"`
	ClarityScore         *float64       `db:"clarity_score"          json:"clarity_score,omitempty"`
	UpToDateness         *float64       `db:"up_to_dateness"         json:"up_to_dateness,omitempty"`
	QualityScore         *float64       `db:"quality_score"          json:"quality_score,omitempty"`
	KeyTakeaways         pq.StringArray `db:"key_takeaways"          json:"key_takeaways,omitempty"`
	TargetAudience       *string        `db:"target_audience"        json:"target_audience,omitempty"`
	EstimatedReadingTime *int           `db:"estimated_reading_time" json:"estimated_reading_time,omitempty"`
}

// NewContent is the crawler-side view of a record: everything known at
// ingestion time, before any analysis has run.
type NewContent struct {
	URL           string
	Title         string
	Description   string
	Content       string
	Author        string
	PublishedDate *time.Time
	SourceType    string
	ContentType   string
	Categories    []string
	Topics        []string
	AWSServices   []string

	VideoDurationSeconds *int
	VideoViews           *int64
}
