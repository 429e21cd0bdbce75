package crawler

import (
	"encoding/xml"
	"fmt"
	"time"
)

// dateOnlyFormat is the date-only layout some sitemaps use for lastmod.
const dateOnlyFormat = "2006-01-02"

// SitemapEntry is a single URL extracted from a sitemap.
type SitemapEntry struct {
	Loc     string
	LastMod *time.Time
}

type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type xmlSitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []xmlSitemap `xml:"sitemap"`
}

type xmlSitemap struct {
	Loc string `xml:"loc"`
}

// ParseSitemap parses sitemap XML and returns the contained URLs. When
// maxAge is positive, entries whose lastmod is older than maxAge are
// dropped; entries without a lastmod are always kept.
func ParseSitemap(body []byte, maxAge time.Duration) ([]SitemapEntry, error) {
	var urlset xmlURLSet
	if err := xml.Unmarshal(body, &urlset); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	var cutoff time.Time
	if maxAge > 0 {
		cutoff = time.Now().Add(-maxAge)
	}

	entries := make([]SitemapEntry, 0, len(urlset.URLs))
	for i := range urlset.URLs {
		entry := SitemapEntry{Loc: urlset.URLs[i].Loc}
		if raw := urlset.URLs[i].LastMod; raw != "" {
			if t, err := parseLastMod(raw); err == nil {
				entry.LastMod = &t
			}
		}

		if !cutoff.IsZero() && entry.LastMod != nil && entry.LastMod.Before(cutoff) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseSitemapIndex parses a sitemap index and returns the child sitemap
// URLs.
func ParseSitemapIndex(body []byte) ([]string, error) {
	var index xmlSitemapIndex
	if err := xml.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("parse sitemap index: %w", err)
	}

	urls := make([]string, 0, len(index.Sitemaps))
	for _, sm := range index.Sitemaps {
		if sm.Loc != "" {
			urls = append(urls, sm.Loc)
		}
	}
	return urls, nil
}

// parseLastMod accepts the common lastmod layouts: RFC3339 or a bare date.
func parseLastMod(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(dateOnlyFormat, raw)
}
