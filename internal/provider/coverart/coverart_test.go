package coverart

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sydlexius/cadence/internal/provider"
)

const releaseJSON = `{
  "release": "https://musicbrainz.org/release/rel-1",
  "images": [
    {"id": 1, "front": false, "back": true, "types": ["Back"], "image": "http://caa.test/back.jpg", "thumbnails": {"small": "http://caa.test/back-250.jpg"}},
    {"id": "2", "front": true, "types": ["Front"], "image": "http://caa.test/front.jpg",
     "thumbnails": {"250": "http://caa.test/front-250.jpg", "500": "http://caa.test/front-500.jpg", "large": "http://caa.test/front-large.jpg"}}
  ]
}`

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/release/rel-1":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(releaseJSON)) //nolint:errcheck
		case "/release-group/busy":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/release-group/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewWithBaseURL(provider.NewUnlimitedRateLimiterMap(), logger, srv.URL)
}

func TestGetImages(t *testing.T) {
	a := newTestAdapter(t)

	images, err := a.GetImages(context.Background(), provider.CoverRelease, "rel-1")
	if err != nil {
		t.Fatalf("GetImages: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2", len(images))
	}
	if images[0].Front {
		t.Error("first image should not be front")
	}
	front := images[1]
	if !front.Front || front.Image != "http://caa.test/front.jpg" {
		t.Errorf("front = %+v", front)
	}
	if front.Thumbnails["500"] != "http://caa.test/front-500.jpg" {
		t.Errorf("thumbnails = %v", front.Thumbnails)
	}
}

func TestGetImages_Errors(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if _, err := a.GetImages(ctx, provider.CoverReleaseGroup, "missing"); !provider.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := a.GetImages(ctx, provider.CoverReleaseGroup, "busy"); !provider.IsRateLimited(err) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	_, err := a.GetImages(ctx, provider.CoverReleaseGroup, "broken")
	if err == nil || provider.IsRateLimited(err) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}
