package domain

import (
	"testing"
	"time"
)

func TestRunStats_Merge(t *testing.T) {
	earlier := time.Now().Add(-time.Hour)

	s := NewRunStats()
	s.TotalProcessed = 3
	s.Successful = 2
	s.Failed = 1

	other := &RunStats{
		TotalProcessed: 5,
		Successful:     3,
		Failed:         2,
		Duplicates:     4,
		BelowThreshold: 1,
		StartTime:      earlier,
	}

	s.Merge(other)

	if s.TotalProcessed != 8 || s.Successful != 5 || s.Failed != 3 {
		t.Errorf("merged counters = %d/%d/%d, want 8/5/3",
			s.TotalProcessed, s.Successful, s.Failed)
	}
	if s.Duplicates != 4 || s.BelowThreshold != 1 {
		t.Errorf("duplicates/below = %d/%d, want 4/1", s.Duplicates, s.BelowThreshold)
	}
	if !s.StartTime.Equal(earlier) {
		t.Errorf("StartTime = %v, want earlier start %v", s.StartTime, earlier)
	}
}

func TestRunStats_MergeNil(t *testing.T) {
	s := NewRunStats()
	s.Successful = 1

	s.Merge(nil)

	if s.Successful != 1 {
		t.Errorf("Successful = %d after nil merge, want 1", s.Successful)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{3 * time.Minute, "3m"},
		{3*time.Minute + 45*time.Second, "3m 45s"},
		{time.Hour + 23*time.Minute + 45*time.Second, "1h 23m 45s"},
		{2 * time.Hour, "2h"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
