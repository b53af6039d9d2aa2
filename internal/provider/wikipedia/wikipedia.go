// Package wikipedia implements the encyclopedia provider over the Wikipedia
// REST API, falling back to the Action API for full-text search.
package wikipedia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/sydlexius/cadence/internal/provider"
	"github.com/sydlexius/cadence/internal/version"
)

const defaultBaseURL = "https://en.wikipedia.org"

// Adapter implements provider.Encyclopedia.
type Adapter struct {
	client  *http.Client
	limiter *provider.RateLimiterMap
	logger  *slog.Logger
	baseURL string
}

// New creates a Wikipedia adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, logger, defaultBaseURL)
}

// NewWithBaseURL creates a Wikipedia adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("provider", string(provider.NameWikipedia))),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GetPage looks up a page by exact title. Disambiguation pages yield
// *provider.ErrDisambiguation carrying the titles they link to.
func (a *Adapter) GetPage(ctx context.Context, title string) (*provider.Page, error) {
	path := pathTitle(title)
	body, err := a.doRequest(ctx, a.baseURL+"/api/rest_v1/page/summary/"+path, title)
	if err != nil {
		return nil, err
	}

	var s Summary
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("parsing summary: %w", err)
	}

	links, err := a.pageLinks(ctx, pathTitle(s.Title))
	if provider.IsRateLimited(err) {
		return nil, err
	}
	if err != nil {
		a.logger.Debug("fetching page links failed",
			slog.String("title", s.Title), slog.String("error", err.Error()))
	}

	if s.Type == typeDisambiguation {
		return nil, &provider.ErrDisambiguation{
			Provider:   provider.NameWikipedia,
			Title:      s.Title,
			Candidates: links,
		}
	}

	page := &provider.Page{
		Title:   s.Title,
		Summary: s.Extract,
		URL:     s.ContentURLs.Desktop.Page,
		Links:   links,
	}
	switch {
	case s.OriginalImage != nil:
		page.ImageURL = s.OriginalImage.Source
	case s.Thumbnail != nil:
		page.ImageURL = s.Thumbnail.Source
	}
	return page, nil
}

// SearchPage runs a full-text search and resolves the best hit.
func (a *Adapter) SearchPage(ctx context.Context, term string) (*provider.Page, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {term},
		"srlimit":  {"1"},
		"format":   {"json"},
	}
	body, err := a.doRequest(ctx, a.baseURL+"/w/api.php?"+params.Encode(), term)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	if len(resp.Query.Search) == 0 {
		return nil, &provider.ErrNotFound{Provider: provider.NameWikipedia, ID: term}
	}
	return a.GetPage(ctx, resp.Query.Search[0].Title)
}

func (a *Adapter) pageLinks(ctx context.Context, path string) ([]string, error) {
	body, err := a.doRequest(ctx, a.baseURL+"/api/rest_v1/page/html/"+path, path)
	if err != nil {
		return nil, err
	}
	return extractLinks(bytes.NewReader(body))
}

func (a *Adapter) doRequest(ctx context.Context, reqURL, id string) ([]byte, error) {
	if err := a.limiter.Wait(ctx, provider.NameWikipedia); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameWikipedia,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req) //nolint:gosec // URL constructed from trusted base + escaped title
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{Provider: provider.NameWikipedia, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	case http.StatusNotFound:
		return nil, &provider.ErrNotFound{Provider: provider.NameWikipedia, ID: id}
	case http.StatusTooManyRequests:
		return nil, &provider.ErrRateLimited{Provider: provider.NameWikipedia}
	default:
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameWikipedia,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}
}

// pathTitle converts a display title to its URL path form.
func pathTitle(title string) string {
	return url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// TitleFromURL decodes the page title from an article URL such as
// https://en.wikipedia.org/wiki/Band_A_(band).
func TitleFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || !strings.HasSuffix(u.Hostname(), "wikipedia.org") {
		return "", false
	}
	rest, ok := strings.CutPrefix(u.EscapedPath(), "/wiki/")
	if !ok || rest == "" {
		return "", false
	}
	title, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return strings.ReplaceAll(title, "_", " "), true
}

var skippedNamespaces = []string{
	"File:", "Category:", "Help:", "Wikipedia:", "Template:", "Special:",
	"Portal:", "Talk:", "Template talk:", "Module:", "Draft:",
}

// extractLinks returns the article titles linked from Parsoid HTML, in
// document order and without duplicates.
func extractLinks(r io.Reader) ([]string, error) {
	z := html.NewTokenizer(r)
	seen := make(map[string]bool)
	var titles []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return titles, nil
			}
			return titles, z.Err()
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			var rel, href string
			for {
				key, val, more := z.TagAttr()
				switch string(key) {
				case "rel":
					rel = string(val)
				case "href":
					href = string(val)
				}
				if !more {
					break
				}
			}
			if title, ok := linkTitle(rel, href); ok && !seen[title] {
				seen[title] = true
				titles = append(titles, title)
			}
		}
	}
}

func linkTitle(rel, href string) (string, bool) {
	if !strings.Contains(rel, "mw:WikiLink") {
		return "", false
	}
	target, ok := strings.CutPrefix(href, "./")
	if !ok {
		return "", false
	}
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	title, err := url.PathUnescape(target)
	if err != nil || title == "" {
		return "", false
	}
	title = strings.ReplaceAll(title, "_", " ")
	for _, ns := range skippedNamespaces {
		if strings.HasPrefix(title, ns) {
			return "", false
		}
	}
	return title, true
}
