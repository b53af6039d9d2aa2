// Package coverart implements the cover-art provider over the Cover Art Archive.
package coverart

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

const defaultBaseURL = "https://coverartarchive.org"

// Adapter implements provider.CoverArtSource.
type Adapter struct {
	client  *http.Client
	limiter *provider.RateLimiterMap
	logger  *slog.Logger
	baseURL string
}

// New creates a Cover Art Archive adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, logger, defaultBaseURL)
}

// NewWithBaseURL creates a Cover Art Archive adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("provider", string(provider.NameCoverArt))),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GetImages lists the archived images for a release or release group.
// A release with no archived art yields a not-found error.
func (a *Adapter) GetImages(ctx context.Context, entity provider.CoverEntity, id string) ([]provider.CoverImage, error) {
	if err := a.limiter.Wait(ctx, provider.NameCoverArt); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameCoverArt,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	reqURL := fmt.Sprintf("%s/%s/%s", a.baseURL, entity, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req) //nolint:gosec // URL constructed from trusted base + MBID
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{Provider: provider.NameCoverArt, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &provider.ErrNotFound{Provider: provider.NameCoverArt, ID: id}
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return nil, &provider.ErrRateLimited{Provider: provider.NameCoverArt}
	default:
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameCoverArt,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("parsing cover art response: %w", err)
	}

	images := make([]provider.CoverImage, 0, len(r.Images))
	for _, img := range r.Images {
		images = append(images, provider.CoverImage{
			Front:      img.Front,
			Image:      img.Image,
			Thumbnails: img.Thumbnails,
		})
	}
	return images, nil
}
