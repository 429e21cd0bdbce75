package crawler

import (
	"testing"
	"time"
)

func TestParseSitemap(t *testing.T) {
	recent := time.Now().AddDate(0, 0, -2).Format(time.RFC3339)
	stale := time.Now().AddDate(0, 0, -30).Format("2006-01-02")

	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>https://docs.aws.amazon.com/ec2/latest/guide/instances.html</loc>
    <lastmod>` + recent + `</lastmod>
  </url>
  <url>
    <loc>https://docs.aws.amazon.com/ec2/latest/guide/old-page.html</loc>
    <lastmod>` + stale + `</lastmod>
  </url>
  <url>
    <loc>https://docs.aws.amazon.com/ec2/latest/guide/no-lastmod.html</loc>
  </url>
</urlset>`)

	t.Run("no age filter", func(t *testing.T) {
		entries, err := ParseSitemap(body, 0)
		if err != nil {
			t.Fatalf("ParseSitemap() error = %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("ParseSitemap() returned %d entries, want 3", len(entries))
		}
		if entries[0].LastMod == nil {
			t.Error("expected parsed lastmod on first entry")
		}
		if entries[2].LastMod != nil {
			t.Error("expected nil lastmod on entry without one")
		}
	})

	t.Run("age filter drops stale entries", func(t *testing.T) {
		entries, err := ParseSitemap(body, 7*24*time.Hour)
		if err != nil {
			t.Fatalf("ParseSitemap() error = %v", err)
		}
		// The stale entry is dropped; the entry without lastmod is kept.
		if len(entries) != 2 {
			t.Fatalf("ParseSitemap() returned %d entries, want 2", len(entries))
		}
		for _, e := range entries {
			if e.Loc == "https://docs.aws.amazon.com/ec2/latest/guide/old-page.html" {
				t.Error("stale entry survived the age filter")
			}
		}
	})
}

func TestParseSitemap_InvalidXML(t *testing.T) {
	if _, err := ParseSitemap([]byte("not xml at all <"), 0); err == nil {
		t.Fatal("ParseSitemap() error = nil, want parse error")
	}
}

func TestParseSitemapIndex(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://docs.aws.amazon.com/ec2/sitemap.xml</loc></sitemap>
  <sitemap><loc>https://docs.aws.amazon.com/s3/sitemap.xml</loc></sitemap>
  <sitemap><loc></loc></sitemap>
</sitemapindex>`)

	urls, err := ParseSitemapIndex(body)
	if err != nil {
		t.Fatalf("ParseSitemapIndex() error = %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("ParseSitemapIndex() returned %d urls, want 2", len(urls))
	}
	if urls[0] != "https://docs.aws.amazon.com/ec2/sitemap.xml" {
		t.Errorf("urls[0] = %q", urls[0])
	}
}

func TestParseLastMod_Formats(t *testing.T) {
	if _, err := parseLastMod("2026-08-15T10:30:00Z"); err != nil {
		t.Errorf("parseLastMod(RFC3339) error = %v", err)
	}
	if _, err := parseLastMod("2026-08-15"); err != nil {
		t.Errorf("parseLastMod(date only) error = %v", err)
	}
	if _, err := parseLastMod("yesterday"); err == nil {
		t.Error("parseLastMod(garbage) error = nil, want error")
	}
}

func TestFilterByService(t *testing.T) {
	sitemaps := []string{
		"https://docs.aws.amazon.com/ec2/latest/sitemap.xml",
		"https://docs.aws.amazon.com/s3/latest/sitemap.xml",
		"https://docs.aws.amazon.com/lambda/latest/sitemap.xml",
	}

	got := filterByService(sitemaps, []string{"EC2", "lambda"})
	if len(got) != 2 {
		t.Fatalf("filterByService() returned %d urls, want 2", len(got))
	}

	if all := filterByService(sitemaps, nil); len(all) != 3 {
		t.Errorf("filterByService(no filter) returned %d urls, want 3", len(all))
	}
}
