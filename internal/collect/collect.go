// Package collect builds request lists from web pages.
//
// A Collector fetches a page, finds every href and src attribute, resolves
// the links against the page URL and keeps those matching a pattern:
//
//	c := collect.NewCollector(client, http.RequestOptions{})
//	reqs, err := c.Collect(ctx, "https://example.com/gallery", regexp.MustCompile(`\.jpe?g$`))
//	if errors.Is(err, collect.ErrNoLinksFound) {
//	    fmt.Println("Nothing to download")
//	}
package collect

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/handiism/bulk-downloader/internal/http"
	"github.com/handiism/bulk-downloader/internal/model"
)

// ErrNoLinksFound is returned when a page has no matching links.
var ErrNoLinksFound = errors.New("no links found on page")

// Match attribute values like: href="/a.png" or src='https://cdn/b.jpg'
var linkAttr = regexp.MustCompile(`(?i)\b(?:href|src)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// Collector harvests download links from pages.
type Collector struct {
	client *http.Client
	opts   http.RequestOptions
}

// NewCollector creates a Collector that fetches pages with client.
func NewCollector(client *http.Client, opts http.RequestOptions) *Collector {
	return &Collector{client: client, opts: opts}
}

// Collect fetches pageURL and returns one request per matching link, in
// page order. A nil pattern keeps every http(s) link.
func (c *Collector) Collect(ctx context.Context, pageURL string, pattern *regexp.Regexp) ([]model.Request, error) {
	page, err := c.client.GetString(ctx, pageURL, c.opts)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	links, err := ExtractLinks(page, pageURL, pattern)
	if err != nil {
		return nil, err
	}
	return model.NewRequests(links...), nil
}

// ExtractLinks returns the absolute http(s) links of a page that match
// pattern.
//
// Relative links are resolved against baseURL, HTML entities are decoded
// and fragments are dropped. Duplicates are removed, keeping the first
// occurrence. Returns ErrNoLinksFound when nothing matches.
//
// Example:
//
//	links, _ := ExtractLinks(`<img src="/a.png">`, "https://example.com/page", nil)
//	// links == []string{"https://example.com/a.png"}
func ExtractLinks(page, baseURL string, pattern *regexp.Regexp) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string
	for _, match := range linkAttr.FindAllStringSubmatch(page, -1) {
		raw := match[1]
		if raw == "" {
			raw = match[2]
		}
		raw = strings.TrimSpace(html.UnescapeString(raw))
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		ref, err := url.Parse(raw)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		abs.Fragment = ""

		link := abs.String()
		if pattern != nil && !pattern.MatchString(link) {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}

	if len(links) == 0 {
		return nil, ErrNoLinksFound
	}
	return links, nil
}
