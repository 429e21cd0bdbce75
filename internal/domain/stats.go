package domain

import (
	"fmt"
	"strings"
	"time"
)

// RunStats accumulates counters for one crawl or processing run.
// Crawlers use Duplicates for URL dedup skips; the processor uses
// BelowThreshold for records whose analysis scored under the quality bar.
// Below-threshold records are counted in both Failed and BelowThreshold so
// the combined "needs attention" total and the policy-rejection count are
// each recoverable from the summary.
type RunStats struct {
	TotalProcessed int `json:"total_processed"`
	Successful     int `json:"successful"`
	Failed         int `json:"failed"`
	Duplicates     int `json:"duplicates"`
	BelowThreshold int `json:"below_threshold"`

	StartTime time.Time `json:"start_time"`
}

// NewRunStats returns stats with the clock started.
func NewRunStats() *RunStats {
	return &RunStats{StartTime: time.Now()}
}

// Duration returns the elapsed wall-clock time since the run started.
func (s *RunStats) Duration() time.Duration {
	return time.Since(s.StartTime)
}

// ItemsPerSecond returns the processing rate over the run so far.
func (s *RunStats) ItemsPerSecond() float64 {
	secs := s.Duration().Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.TotalProcessed) / secs
}

// Merge adds the counters of other into s. Start times keep the earlier of
// the two so merged durations cover the whole span.
func (s *RunStats) Merge(other *RunStats) {
	if other == nil {
		return
	}
	s.TotalProcessed += other.TotalProcessed
	s.Successful += other.Successful
	s.Failed += other.Failed
	s.Duplicates += other.Duplicates
	s.BelowThreshold += other.BelowThreshold
	if !other.StartTime.IsZero() && other.StartTime.Before(s.StartTime) {
		s.StartTime = other.StartTime
	}
}

// FormatDuration renders d as a compact human-readable string, e.g. "1h 23m 45s".
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}
	return strings.Join(parts, " ")
}
