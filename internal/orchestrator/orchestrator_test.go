package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/awslens/awslens/internal/crawler"
	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/logging"
	"github.com/awslens/awslens/internal/orchestrator"
)

type fakeBlogCrawler struct {
	opts  crawler.BlogOptions
	stats *domain.RunStats
	err   error
	calls int
}

func (f *fakeBlogCrawler) Crawl(_ context.Context, opts crawler.BlogOptions) (*domain.RunStats, error) {
	f.calls++
	f.opts = opts
	return f.stats, f.err
}

type fakeDocsCrawler struct {
	opts  crawler.DocsOptions
	stats *domain.RunStats
	calls int
}

func (f *fakeDocsCrawler) Crawl(_ context.Context, opts crawler.DocsOptions) (*domain.RunStats, error) {
	f.calls++
	f.opts = opts
	return f.stats, nil
}

type fakeYouTubeCrawler struct {
	opts  crawler.YouTubeOptions
	stats *domain.RunStats
	calls int
}

func (f *fakeYouTubeCrawler) Crawl(_ context.Context, opts crawler.YouTubeOptions) (*domain.RunStats, error) {
	f.calls++
	f.opts = opts
	return f.stats, nil
}

type fakeProcessor struct {
	stats *domain.RunStats
	calls int
}

func (f *fakeProcessor) ProcessBatch(context.Context) (*domain.RunStats, error) {
	f.calls++
	return f.stats, nil
}

func statsWith(stored int) *domain.RunStats {
	s := domain.NewRunStats()
	s.TotalProcessed = stored
	s.Successful = stored
	return s
}

func TestOrchestrator_DailyUpdate(t *testing.T) {
	blogs := &fakeBlogCrawler{stats: statsWith(4)}
	docs := &fakeDocsCrawler{stats: statsWith(2)}
	youtube := &fakeYouTubeCrawler{stats: statsWith(3)}
	proc := &fakeProcessor{stats: statsWith(9)}

	o := orchestrator.New(blogs, docs, youtube, proc, logging.NewNop())

	results, err := o.DailyUpdate(context.Background(), true)
	if err != nil {
		t.Fatalf("DailyUpdate() error = %v", err)
	}

	if blogs.calls != 1 || docs.calls != 1 || youtube.calls != 1 || proc.calls != 1 {
		t.Errorf("stage calls = %d/%d/%d/%d, want each stage run once",
			blogs.calls, docs.calls, youtube.calls, proc.calls)
	}

	if blogs.opts.LookbackDays != 7 || len(blogs.opts.Categories) != 4 {
		t.Errorf("blog opts = %+v, want 4 categories over 7 days", blogs.opts)
	}
	if youtube.opts.LookbackDays != 14 || youtube.opts.MaxPerPlaylist != 20 || !youtube.opts.FetchTranscripts {
		t.Errorf("youtube opts = %+v, want 14 days, 20 per playlist, transcripts on", youtube.opts)
	}
	if docs.opts.LookbackDays != 7 || docs.opts.MaxPages != 50 || len(docs.opts.Services) != 5 {
		t.Errorf("docs opts = %+v, want 5 services, 7 days, 50 pages", docs.opts)
	}

	combined := results.Combined()
	if combined.Successful != 9 {
		t.Errorf("combined crawl Successful = %d, want 9", combined.Successful)
	}
	if results.Processing == nil || results.Processing.TotalProcessed != 9 {
		t.Errorf("Processing = %+v, want processor stats", results.Processing)
	}
}

func TestOrchestrator_DailyUpdate_SkipProcessing(t *testing.T) {
	proc := &fakeProcessor{stats: statsWith(0)}
	o := orchestrator.New(
		&fakeBlogCrawler{stats: statsWith(1)},
		&fakeDocsCrawler{stats: statsWith(1)},
		&fakeYouTubeCrawler{stats: statsWith(1)},
		proc, logging.NewNop())

	results, err := o.DailyUpdate(context.Background(), false)
	if err != nil {
		t.Fatalf("DailyUpdate() error = %v", err)
	}
	if proc.calls != 0 {
		t.Errorf("processor calls = %d, want 0 when processing is skipped", proc.calls)
	}
	if results.Processing != nil {
		t.Error("Processing stats present, want nil when skipped")
	}
}

func TestOrchestrator_DailyUpdate_StageFailureContinues(t *testing.T) {
	blogs := &fakeBlogCrawler{err: errors.New("feed unreachable")}
	docs := &fakeDocsCrawler{stats: statsWith(2)}
	youtube := &fakeYouTubeCrawler{stats: statsWith(3)}
	proc := &fakeProcessor{stats: statsWith(5)}

	o := orchestrator.New(blogs, docs, youtube, proc, logging.NewNop())

	results, err := o.DailyUpdate(context.Background(), true)
	if err != nil {
		t.Fatalf("DailyUpdate() error = %v, want stage failures swallowed", err)
	}

	if docs.calls != 1 || youtube.calls != 1 || proc.calls != 1 {
		t.Error("later stages must run after an earlier stage fails")
	}
	if results.Blogs != nil {
		t.Error("failed stage should report nil stats")
	}
	if results.Combined().Successful != 5 {
		t.Errorf("combined Successful = %d, want 5", results.Combined().Successful)
	}
}

func TestOrchestrator_FullCrawl_NoCutoffs(t *testing.T) {
	blogs := &fakeBlogCrawler{stats: statsWith(1)}
	docs := &fakeDocsCrawler{stats: statsWith(1)}
	youtube := &fakeYouTubeCrawler{stats: statsWith(1)}

	o := orchestrator.New(blogs, docs, youtube, &fakeProcessor{stats: statsWith(0)}, logging.NewNop())

	if _, err := o.FullCrawl(context.Background(), 500, true); err != nil {
		t.Fatalf("FullCrawl() error = %v", err)
	}

	if blogs.opts.LookbackDays != 0 || len(blogs.opts.Categories) != 0 {
		t.Errorf("blog opts = %+v, want no cutoff and all categories", blogs.opts)
	}
	if youtube.opts.MaxPerPlaylist != 500 || youtube.opts.LookbackDays != 0 {
		t.Errorf("youtube opts = %+v, want max 500 and no cutoff", youtube.opts)
	}
	if docs.opts.MaxPages != 500 {
		t.Errorf("docs MaxPages = %d, want 500", docs.opts.MaxPages)
	}
}

func TestOrchestrator_ProcessContent(t *testing.T) {
	proc := &fakeProcessor{stats: statsWith(7)}
	o := orchestrator.New(
		&fakeBlogCrawler{}, &fakeDocsCrawler{}, &fakeYouTubeCrawler{},
		proc, logging.NewNop())

	results, err := o.ProcessContent(context.Background())
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	if proc.calls != 1 {
		t.Errorf("processor calls = %d, want 1", proc.calls)
	}
	if results.Processing.Successful != 7 {
		t.Errorf("Processing.Successful = %d, want 7", results.Processing.Successful)
	}
}

func TestOrchestrator_DailyUpdate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	youtube := &fakeYouTubeCrawler{stats: statsWith(0)}
	o := orchestrator.New(
		&fakeBlogCrawler{stats: statsWith(0)},
		&fakeDocsCrawler{stats: statsWith(0)},
		youtube, &fakeProcessor{}, logging.NewNop())

	_, err := o.DailyUpdate(ctx, true)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("DailyUpdate() error = %v, want context.Canceled", err)
	}
	if youtube.calls != 0 {
		t.Error("later stages must not run after cancellation")
	}
}
