// Package discogs implements the tag provider over the Discogs database API.
// Tags are the union of a master's or release's genres and styles.
package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sydlexius/cadence/internal/provider"
	"github.com/sydlexius/cadence/internal/version"
)

const defaultBaseURL = "https://api.discogs.com"

// Adapter implements provider.TagSource for Discogs.
type Adapter struct {
	client  *http.Client
	limiter *provider.RateLimiterMap
	logger  *slog.Logger
	baseURL string
	token   string
}

// New creates a Discogs adapter with the default base URL. The token is
// optional; anonymous requests get a lower allowance.
func New(limiter *provider.RateLimiterMap, token string, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, token, logger, defaultBaseURL)
}

// NewWithBaseURL creates a Discogs adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, token string, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("provider", string(provider.NameDiscogs))),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// GetTags returns the de-duplicated genres and styles of a master or release.
func (a *Adapter) GetTags(ctx context.Context, ref provider.TagRef) ([]string, error) {
	var path string
	switch ref.Kind {
	case provider.TagMaster:
		path = "/masters/"
	case provider.TagRelease:
		path = "/releases/"
	default:
		return nil, fmt.Errorf("unknown tag ref kind: %s", ref.Kind)
	}

	if err := a.limiter.Wait(ctx, provider.NameDiscogs); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDiscogs,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	body, err := a.doRequest(ctx, a.baseURL+path+url.PathEscape(ref.ID))
	if err != nil {
		return nil, err
	}

	var e Entity
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", ref.Kind, err)
	}

	seen := make(map[string]bool, len(e.Genres)+len(e.Styles))
	var tags []string
	for _, name := range append(e.Genres, e.Styles...) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}
	return tags, nil
}

func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Discogs token="+a.token)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req) //nolint:gosec // URL constructed from trusted base + numeric id
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{Provider: provider.NameDiscogs, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	case http.StatusNotFound:
		return nil, &provider.ErrNotFound{Provider: provider.NameDiscogs, ID: reqURL}
	case http.StatusTooManyRequests:
		return nil, &provider.ErrRateLimited{Provider: provider.NameDiscogs}
	default:
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDiscogs,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}
}

// RefFromURL extracts a tag reference from a Discogs master or release URL
// such as https://www.discogs.com/master/1234 or
// https://www.discogs.com/release/99-Some-Title.
func RefFromURL(raw string) (provider.TagRef, bool) {
	u, err := url.Parse(raw)
	if err != nil || !strings.HasSuffix(u.Hostname(), "discogs.com") {
		return provider.TagRef{}, false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return provider.TagRef{}, false
	}
	// Localized paths carry a language prefix, e.g. /de/master/1234.
	kind, id := parts[len(parts)-2], parts[len(parts)-1]
	if i := strings.IndexByte(id, '-'); i > 0 {
		id = id[:i]
	}
	if id == "" || strings.Trim(id, "0123456789") != "" {
		return provider.TagRef{}, false
	}
	switch kind {
	case "master":
		return provider.TagRef{Kind: provider.TagMaster, ID: id}, true
	case "release":
		return provider.TagRef{Kind: provider.TagRelease, ID: id}, true
	}
	return provider.TagRef{}, false
}
