package discogs

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sydlexius/cadence/internal/provider"
)

func newTestAdapter(t *testing.T, token string) (*Adapter, *[]string) {
	t.Helper()
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/masters/1234":
			w.Write([]byte(`{"id":1234,"title":"Album X","genres":["Rock","Electronic"],"styles":["Shoegaze","Rock",""]}`)) //nolint:errcheck
		case "/releases/99":
			w.Write([]byte(`{"id":99,"genres":["Jazz"]}`)) //nolint:errcheck
		case "/releases/429":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/releases/500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewWithBaseURL(provider.NewUnlimitedRateLimiterMap(), token, logger, srv.URL), &auth
}

func TestGetTags_Master(t *testing.T) {
	a, auth := newTestAdapter(t, "tok")

	tags, err := a.GetTags(context.Background(), provider.TagRef{Kind: provider.TagMaster, ID: "1234"})
	if err != nil {
		t.Fatalf("GetTags: %v", err)
	}
	want := []string{"Rock", "Electronic", "Shoegaze"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
	if (*auth)[0] != "Discogs token=tok" {
		t.Errorf("Authorization = %q", (*auth)[0])
	}
}

func TestGetTags_AnonymousRelease(t *testing.T) {
	a, auth := newTestAdapter(t, "")

	tags, err := a.GetTags(context.Background(), provider.TagRef{Kind: provider.TagRelease, ID: "99"})
	if err != nil {
		t.Fatalf("GetTags: %v", err)
	}
	if len(tags) != 1 || tags[0] != "Jazz" {
		t.Errorf("tags = %v", tags)
	}
	if (*auth)[0] != "" {
		t.Errorf("expected no Authorization header, got %q", (*auth)[0])
	}
}

func TestGetTags_Errors(t *testing.T) {
	a, _ := newTestAdapter(t, "")
	ctx := context.Background()

	if _, err := a.GetTags(ctx, provider.TagRef{Kind: provider.TagRelease, ID: "429"}); !provider.IsRateLimited(err) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	_, err := a.GetTags(ctx, provider.TagRef{Kind: provider.TagRelease, ID: "500"})
	if err == nil || provider.IsRateLimited(err) {
		t.Errorf("expected non-rate-limit error, got %v", err)
	}
	if _, err := a.GetTags(ctx, provider.TagRef{Kind: provider.TagRelease, ID: "0"}); !provider.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := a.GetTags(ctx, provider.TagRef{Kind: "label", ID: "1"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRefFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want provider.TagRef
		ok   bool
	}{
		{"https://www.discogs.com/master/1234", provider.TagRef{Kind: provider.TagMaster, ID: "1234"}, true},
		{"https://www.discogs.com/release/99-Band-A-Album-X", provider.TagRef{Kind: provider.TagRelease, ID: "99"}, true},
		{"https://www.discogs.com/de/master/55", provider.TagRef{Kind: provider.TagMaster, ID: "55"}, true},
		{"https://www.discogs.com/artist/42", provider.TagRef{}, false},
		{"https://www.discogs.com/master/abc", provider.TagRef{}, false},
		{"https://example.com/master/1", provider.TagRef{}, false},
		{"::bad", provider.TagRef{}, false},
	}
	for _, tt := range tests {
		got, ok := RefFromURL(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("RefFromURL(%q) = %+v, %v; want %+v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
