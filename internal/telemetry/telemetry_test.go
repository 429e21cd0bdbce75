package telemetry_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/awslens/awslens/internal/telemetry"
)

func TestNewMetrics_RegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)

	m.RecordsProcessed.WithLabelValues("successful").Inc()
	m.ItemsCrawled.WithLabelValues("blog").Add(3)
	m.UnprocessedBacklog.Set(42)
	m.AnalysisDuration.Observe(1.5)
	m.CrawlDuration.WithLabelValues("blog").Observe(10)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	got := map[string]bool{}
	for _, mf := range families {
		got[mf.GetName()] = true
	}

	for _, name := range []string{
		"awslens_processor_records_processed_total",
		"awslens_crawler_items_crawled_total",
		"awslens_processor_unprocessed_backlog",
		"awslens_processor_analysis_duration_seconds",
		"awslens_crawler_crawl_duration_seconds",
	} {
		if !got[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}
