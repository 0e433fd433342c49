// Package crawl provides input discovery for biocpipe: archive links from
// the archive server's HTML index and document identifiers from
// newline-delimited files. It keeps discovery separate from the fetch and
// split pipelines.
package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/biocpipe/core"
)

// ListArchives fetches the archive server's directory listing at indexURL
// and returns the absolute URLs of every .tar.gz/.tgz link on the page,
// deduplicated and in page order.
func ListArchives(ctx context.Context, client *http.Client, indexURL string) ([]string, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	base, err := url.Parse(ensureTrailingSlash(indexURL))
	if err != nil {
		return nil, fmt.Errorf("parsing index URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &core.StatusError{URL: base.String(), Code: resp.StatusCode}
	}

	return extractArchiveLinks(resp.Body, base)
}

// extractArchiveLinks collects archive hrefs from an HTML listing,
// resolving relative URLs against base.
func extractArchiveLinks(r io.Reader, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing index HTML: %w", err)
	}

	queue := NewQueue()
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}
		resolved := resolveURL(href, base)
		if resolved != "" && IsArchiveLink(resolved) {
			queue.Add(NormalizeURL(resolved))
		}
	})
	return queue.All(), nil
}

// resolveURL resolves a potentially relative URL against a base.
func resolveURL(href string, base *url.URL) string {
	// Skip mailto, javascript, etc.
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "#") || strings.HasPrefix(href, "?") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	resolved.Fragment = ""
	return resolved.String()
}

// ensureTrailingSlash makes a directory URL resolve relative links inside
// the directory rather than next to it.
func ensureTrailingSlash(raw string) string {
	if strings.HasSuffix(raw, "/") {
		return raw
	}
	return raw + "/"
}
