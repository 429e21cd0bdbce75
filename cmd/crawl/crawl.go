// Package crawl implements the crawl subcommands for each content source.
package crawl

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/awslens/awslens/cmd/common"
	"github.com/awslens/awslens/internal/crawler"
)

var (
	categories       []string
	playlists        []string
	services         []string
	lookbackDays     int
	maxPages         int
	maxPerPlaylist   int
	fetchFullContent bool
	skipTranscripts  bool
)

// Command returns the crawl command tree.
func Command() *cobra.Command {
	crawlCmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a content source",
	}

	blogsCmd := &cobra.Command{
		Use:   "blogs",
		Short: "Crawl AWS blog RSS feeds",
		RunE:  runBlogs,
	}
	blogsCmd.Flags().StringSliceVar(&categories, "categories", nil,
		"blog categories to crawl (default all)")
	blogsCmd.Flags().BoolVar(&fetchFullContent, "full-content", false,
		"scrape full article content instead of feed summaries")

	docsCmd := &cobra.Command{
		Use:   "docs",
		Short: "Crawl AWS documentation via sitemaps",
		RunE:  runDocs,
	}
	docsCmd.Flags().StringSliceVar(&services, "services", nil,
		"AWS services to crawl (default all)")
	docsCmd.Flags().IntVar(&maxPages, "max-pages", 100,
		"maximum pages to crawl")

	youtubeCmd := &cobra.Command{
		Use:   "youtube",
		Short: "Crawl AWS YouTube playlists",
		RunE:  runYouTube,
	}
	youtubeCmd.Flags().StringSliceVar(&playlists, "playlists", nil,
		"playlist keys to crawl (default all)")
	youtubeCmd.Flags().IntVar(&maxPerPlaylist, "max-videos", 50,
		"maximum videos per playlist")
	youtubeCmd.Flags().BoolVar(&skipTranscripts, "skip-transcripts", false,
		"do not fetch video transcripts")

	for _, c := range []*cobra.Command{blogsCmd, docsCmd, youtubeCmd} {
		c.Flags().IntVar(&lookbackDays, "days-back", 0,
			"only crawl items from the last N days (0 = all)")
		crawlCmd.AddCommand(c)
	}

	return crawlCmd
}

func runBlogs(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := cmdcommon.NewDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	_, err = deps.NewBlogCrawler().Crawl(ctx, crawler.BlogOptions{
		Categories:       categories,
		LookbackDays:     lookback(cmd, deps.Config.Crawler.BlogLookbackDays),
		FetchFullContent: fetchFullContent,
	})
	return err
}

func runDocs(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := cmdcommon.NewDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	_, err = deps.NewDocsCrawler().Crawl(ctx, crawler.DocsOptions{
		Services:     services,
		LookbackDays: lookback(cmd, deps.Config.Crawler.DocsLookbackDays),
		MaxPages:     maxPages,
	})
	return err
}

func runYouTube(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := cmdcommon.NewDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	_, err = deps.NewYouTubeCrawler().Crawl(ctx, crawler.YouTubeOptions{
		Playlists:        playlists,
		LookbackDays:     lookback(cmd, deps.Config.Crawler.VideoLookbackDays),
		MaxPerPlaylist:   maxPerPlaylist,
		FetchTranscripts: !skipTranscripts,
	})
	return err
}

// lookback prefers an explicit --days-back flag over the configured
// default, so --days-back=0 still means "no cutoff".
func lookback(cmd *cobra.Command, configured int) int {
	if cmd.Flags().Changed("days-back") {
		return lookbackDays
	}
	return configured
}
