package selector

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sydlexius/cadence/internal/provider"
	"github.com/sydlexius/cadence/internal/version"
)

// Cover holds the canonical cover image at three resolutions.
type Cover struct {
	Max   string `json:"max"`
	Large string `json:"large"` // 500px edge
	Small string `json:"small"` // 250px edge
}

// URLResolver maps a URL to the final URL after following redirects.
type URLResolver interface {
	Resolve(ctx context.Context, rawURL string) string
}

// CanonicalCover picks the front image (or the first image when none is
// flagged) and resolves its three resolutions through redirects. Missing
// named thumbnails fall back to the legacy "large"/"small" keys.
func CanonicalCover(ctx context.Context, images []provider.CoverImage, resolver URLResolver) (*Cover, bool) {
	if len(images) == 0 {
		return nil, false
	}

	chosen := images[0]
	for _, img := range images {
		if img.Front {
			chosen = img
			break
		}
	}

	cover := &Cover{
		Max:   chosen.Image,
		Large: thumbnail(chosen, "500", "large"),
		Small: thumbnail(chosen, "250", "small"),
	}
	if resolver != nil {
		cover.Max = resolveNonEmpty(ctx, resolver, cover.Max)
		cover.Large = resolveNonEmpty(ctx, resolver, cover.Large)
		cover.Small = resolveNonEmpty(ctx, resolver, cover.Small)
	}
	return cover, true
}

func thumbnail(img provider.CoverImage, named, legacy string) string {
	if u := img.Thumbnails[named]; u != "" {
		return u
	}
	return img.Thumbnails[legacy]
}

func resolveNonEmpty(ctx context.Context, r URLResolver, u string) string {
	if u == "" {
		return ""
	}
	return r.Resolve(ctx, u)
}

// HTTPResolver resolves URLs with HEAD requests, following redirects.
type HTTPResolver struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPResolver creates a resolver with a bounded timeout.
func NewHTTPResolver(logger *slog.Logger) *HTTPResolver {
	return &HTTPResolver{
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.With(slog.String("component", "url-resolver")),
	}
}

// Resolve returns the final URL, or rawURL unchanged when resolution fails.
func (h *HTTPResolver) Resolve(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := h.client.Do(req) //nolint:gosec // URL comes from trusted provider API
	if err != nil {
		h.logger.Debug("resolving url failed", slog.String("url", rawURL), slog.String("error", err.Error()))
		return rawURL
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return rawURL
	}
	return resp.Request.URL.String()
}
