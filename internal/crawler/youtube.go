package crawler

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/logging"
	"github.com/awslens/awslens/internal/telemetry"
)

const (
	youtubeAPIBase   = "https://www.googleapis.com/youtube/v3"
	timedTextBase    = "https://video.google.com/timedtext"
	watchURLPrefix   = "https://www.youtube.com/watch?v="
	apiPageSize      = 50
	defaultMaxVideos = 50

	// maxTranscriptChars caps the transcript portion of stored content.
	maxTranscriptChars = 45000
)

// youtubePlaylists maps playlist keys to AWS playlist IDs.
var youtubePlaylists = map[string]string{
	"reinvent":                "PL2yQDdvlhXf9OtR_NyZCrWrzh_LXlXXEg",
	"this-is-my-architecture": "PLhr1KZpdzukcOr_6j_zmePaH9cX_lMl_H",
	"aws-training":            "PLhr1KZpdzukf1ERxT2lJNIkXm1DF3NlHa",
	"aws-online-tech-talks":   "PLhr1KZpdzukeH9gDWNDnm_V_Vp6cqfp1K",
	"aws-tutorials":           "PLhr1KZpdzukf0TF2bh4B_k3_OT3FPvr7K",
	"aws-devops":              "PLhr1KZpdzukfqGLTAy0Cg23wVFN5JOqHh",
	"aws-containers":          "PLhr1KZpdzukdRxs_pGJm-qSy5LayL6W_Y",
}

// durationPattern matches ISO 8601 durations as returned by the Data API,
// e.g. "PT1H23M45S".
var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// PlaylistKeys returns the known playlist keys, sorted.
func PlaylistKeys() []string {
	keys := make([]string, 0, len(youtubePlaylists))
	for k := range youtubePlaylists {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// YouTubeOptions configures one video crawl.
type YouTubeOptions struct {
	// Playlists selects playlist keys; empty means all.
	Playlists []string
	// LookbackDays drops videos published earlier; 0 disables the cutoff.
	LookbackDays int
	// MaxPerPlaylist bounds videos fetched from each playlist.
	MaxPerPlaylist int
	// FetchTranscripts appends the English transcript to stored content
	// when one is available.
	FetchTranscripts bool
}

// YouTubeCrawler ingests AWS videos through the YouTube Data API v3.
type YouTubeCrawler struct {
	store    Store
	fetcher  *Fetcher
	detector *ServiceDetector
	apiKey   string
	logger   logging.Logger
	metrics  *telemetry.Metrics
}

// NewYouTubeCrawler creates a YouTubeCrawler. metrics may be nil.
func NewYouTubeCrawler(store Store, fetcher *Fetcher, detector *ServiceDetector, apiKey string, logger logging.Logger, metrics *telemetry.Metrics) *YouTubeCrawler {
	return &YouTubeCrawler{
		store:    store,
		fetcher:  fetcher,
		detector: detector,
		apiKey:   apiKey,
		logger:   logger,
		metrics:  metrics,
	}
}

// playlistItemsResponse is the subset of the playlistItems.list response the
// crawler reads.
type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			ResourceID  struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

// videosResponse is the subset of the videos.list response the crawler reads.
type videosResponse struct {
	Items []struct {
		Snippet struct {
			Title        string   `json:"title"`
			Description  string   `json:"description"`
			PublishedAt  string   `json:"publishedAt"`
			ChannelTitle string   `json:"channelTitle"`
			Tags         []string `json:"tags"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// timedTextResponse is the timedtext caption XML.
type timedTextResponse struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []string `xml:"text"`
}

// Crawl fetches the selected playlists and stores every recent video.
func (c *YouTubeCrawler) Crawl(ctx context.Context, opts YouTubeOptions) (*domain.RunStats, error) {
	stats := domain.NewRunStats()
	started := time.Now()

	if c.apiKey == "" {
		return stats, fmt.Errorf("youtube API key is not set")
	}
	if opts.MaxPerPlaylist <= 0 {
		opts.MaxPerPlaylist = defaultMaxVideos
	}

	keys := opts.Playlists
	if len(keys) == 0 {
		keys = PlaylistKeys()
	}

	c.logger.Info("starting youtube crawl",
		"playlists", keys,
		"lookback_days", opts.LookbackDays,
		"fetch_transcripts", opts.FetchTranscripts,
	)

	var cutoff time.Time
	if opts.LookbackDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -opts.LookbackDays)
	}

	for _, key := range keys {
		playlistID, ok := youtubePlaylists[key]
		if !ok {
			c.logger.Warn("unknown playlist key", "playlist", key)
			continue
		}

		videoIDs, err := c.listPlaylistVideos(ctx, playlistID, opts.MaxPerPlaylist, cutoff)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			if c.metrics != nil {
				c.metrics.CrawlErrors.WithLabelValues(domain.SourceTypeVideo).Inc()
			}
			c.logger.Error("failed to list playlist videos",
				"playlist", key,
				"error", err,
			)
			continue
		}

		c.logger.Info("playlist videos discovered", "playlist", key, "count", len(videoIDs))

		for _, videoID := range videoIDs {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			c.crawlVideo(ctx, videoID, opts.FetchTranscripts, stats)
		}
	}

	if c.metrics != nil {
		c.metrics.CrawlDuration.WithLabelValues(domain.SourceTypeVideo).Observe(time.Since(started).Seconds())
	}

	c.logger.Info("youtube crawl complete",
		"total", stats.TotalProcessed,
		"stored", stats.Successful,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed,
		"duration", domain.FormatDuration(stats.Duration()),
	)
	return stats, nil
}

// listPlaylistVideos pages through playlistItems.list and returns video IDs
// published after cutoff, up to max.
func (c *YouTubeCrawler) listPlaylistVideos(ctx context.Context, playlistID string, max int, cutoff time.Time) ([]string, error) {
	var ids []string
	pageToken := ""

	for len(ids) < max {
		params := url.Values{
			"part":       {"snippet,contentDetails"},
			"playlistId": {playlistID},
			"maxResults": {strconv.Itoa(apiPageSize)},
			"key":        {c.apiKey},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		body, err := c.fetcher.Get(ctx, youtubeAPIBase+"/playlistItems?"+params.Encode())
		if err != nil {
			return nil, err
		}

		var resp playlistItemsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode playlistItems response: %w", err)
		}

		for _, item := range resp.Items {
			if len(ids) >= max {
				break
			}
			if item.Snippet.ResourceID.VideoID == "" {
				continue
			}
			if !cutoff.IsZero() {
				published, parseErr := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
				if parseErr == nil && published.Before(cutoff) {
					continue
				}
			}
			ids = append(ids, item.Snippet.ResourceID.VideoID)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return ids, nil
}

func (c *YouTubeCrawler) crawlVideo(ctx context.Context, videoID string, fetchTranscript bool, stats *domain.RunStats) {
	item, err := c.fetchVideo(ctx, videoID, fetchTranscript)
	if err != nil {
		stats.TotalProcessed++
		stats.Failed++
		if c.metrics != nil {
			c.metrics.CrawlErrors.WithLabelValues(domain.SourceTypeVideo).Inc()
		}
		c.logger.Error("failed to fetch video details",
			"video_id", videoID,
			"error", err,
		)
		return
	}

	storeItem(ctx, c.store, domain.SourceTypeVideo, item, stats, c.logger, c.metrics)
}

// fetchVideo pulls full details for one video and builds the content item.
func (c *YouTubeCrawler) fetchVideo(ctx context.Context, videoID string, fetchTranscript bool) (*domain.NewContent, error) {
	params := url.Values{
		"part": {"snippet,contentDetails,statistics"},
		"id":   {videoID},
		"key":  {c.apiKey},
	}

	body, err := c.fetcher.Get(ctx, youtubeAPIBase+"/videos?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp videosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode videos response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	video := resp.Items[0]

	var published *time.Time
	if t, parseErr := time.Parse(time.RFC3339, video.Snippet.PublishedAt); parseErr == nil {
		published = &t
	}

	duration := parseISODuration(video.ContentDetails.Duration)
	views, _ := strconv.ParseInt(video.Statistics.ViewCount, 10, 64)

	author := video.Snippet.ChannelTitle
	if author == "" {
		author = "AWS"
	}

	content := video.Snippet.Description
	if fetchTranscript {
		if transcript := c.fetchTranscript(ctx, videoID); transcript != "" {
			content = content + "\n\nTranscript:\n" + truncate(transcript, maxTranscriptChars)
		}
	}

	return &domain.NewContent{
		URL:         watchURLPrefix + videoID,
		Title:       video.Snippet.Title,
		Description: video.Snippet.Description,
		Content:     content,
		Author:      author,

		PublishedDate: published,
		SourceType:    domain.SourceTypeVideo,
		ContentType:   domain.ContentTypeVideo,
		Categories:    []string{"video", "tutorial"},
		Topics:        video.Snippet.Tags,
		AWSServices: c.detector.Detect(
			video.Snippet.Title,
			video.Snippet.Description,
			strings.Join(video.Snippet.Tags, " "),
		),

		VideoDurationSeconds: &duration,
		VideoViews:           &views,
	}, nil
}

// fetchTranscript pulls the English caption track via the timedtext
// endpoint. Videos without captions return an empty body; that is not an
// error.
func (c *YouTubeCrawler) fetchTranscript(ctx context.Context, videoID string) string {
	params := url.Values{
		"lang": {"en"},
		"v":    {videoID},
	}

	body, err := c.fetcher.Get(ctx, timedTextBase+"?"+params.Encode())
	if err != nil {
		c.logger.Debug("transcript fetch failed", "video_id", videoID, "error", err)
		return ""
	}
	if len(body) == 0 {
		return ""
	}

	var transcript timedTextResponse
	if err := xml.Unmarshal(body, &transcript); err != nil {
		c.logger.Debug("transcript parse failed", "video_id", videoID, "error", err)
		return ""
	}
	return collapseWhitespace(strings.Join(transcript.Texts, " "))
}

// parseISODuration converts an ISO 8601 duration to seconds. Malformed
// input yields 0.
func parseISODuration(raw string) int {
	m := durationPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}

	toInt := func(s string) int {
		if s == "" {
			return 0
		}
		n, _ := strconv.Atoi(s)
		return n
	}
	return toInt(m[1])*3600 + toInt(m[2])*60 + toInt(m[3])
}
