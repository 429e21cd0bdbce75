package crawler

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxContentChars caps stored page content. The analyzer only embeds an
// excerpt, but the full text is kept for audit and future reprocessing.
const maxContentChars = 50000

// strippedSelectors lists elements removed before extracting page text.
const strippedSelectors = "script, style, nav, footer, aside"

// PageContent is text extracted from one HTML page.
type PageContent struct {
	Title       string
	Description string
	Body        string
	Keywords    []string
}

// ExtractPage parses HTML and pulls out the title, meta description,
// meta keywords, and main body text.
func ExtractPage(body []byte) (*PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return &PageContent{
		Title:       extractTitle(doc),
		Description: extractMetaContent(doc, "description"),
		Body:        truncate(extractBody(doc), maxContentChars),
		Keywords:    splitKeywords(extractMetaContent(doc, "keywords")),
	}, nil
}

// extractTitle prefers the first <h1>, then <title>.
func extractTitle(doc *goquery.Document) string {
	if h1 := collapseWhitespace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return collapseWhitespace(doc.Find("title").First().Text())
}

func extractMetaContent(doc *goquery.Document, name string) string {
	if v, exists := doc.Find("meta[name='" + name + "']").Attr("content"); exists {
		return strings.TrimSpace(v)
	}
	return ""
}

// extractBody returns the text of the main content region. AWS pages use a
// handful of containers; the first match wins, falling back to <main> and
// then <body>.
func extractBody(doc *goquery.Document) string {
	for _, selector := range []string{
		"article",
		"div.blog-post-content",
		"div#main-content",
		"div#post-body",
		"main",
		"body",
	} {
		section := doc.Find(selector).First()
		if section.Length() == 0 {
			continue
		}
		section.Find(strippedSelectors).Remove()
		return collapseWhitespace(section.Text())
	}
	return ""
}

func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// collapseWhitespace trims the text and squeezes all whitespace runs into
// single spaces so extracted page text stores compactly.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
