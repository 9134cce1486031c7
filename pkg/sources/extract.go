package sources

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kerbaras/novels/pkg/data"
)

// DefaultSelector matches paragraphs and images inside the chapter body.
const DefaultSelector = ".chapter-card p, .chapter-card img"

// Extract walks the nodes matching selector in document order and turns them
// into content items. Image sources are resolved against pageURL.
func Extract(html, pageURL, selector string) ([]data.ContentItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse chapter page: %w", err)
	}

	base, _ := url.Parse(pageURL)

	var items []data.ContentItem
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "img" {
			if src := strings.TrimSpace(s.AttrOr("src", "")); src != "" {
				items = append(items, data.Image{SourceURL: resolve(base, src)})
				return
			}
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			items = append(items, data.Text{Body: text})
		}
	})
	return items, nil
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// HasSelector reports whether html contains at least one node matching selector.
func HasSelector(html, selector string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return doc.Find(selector).Length() > 0
}
