package wikipedia

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sydlexius/cadence/internal/provider"
)

const disambigHTML = `<html><body>
<p><b>Band A</b> may refer to:</p>
<ul>
<li><a rel="mw:WikiLink" href="./Band_A_(river)" title="Band A (river)">Band A (river)</a>, a river</li>
<li><a rel="mw:WikiLink" href="./Band_A_(band)#History" title="Band A (band)">Band A (band)</a>, a rock band</li>
<li><a rel="mw:WikiLink" href="./Band_A_(band)">again</a></li>
<li><a rel="mw:WikiLink" href="./Category:Disambiguation_pages">cat</a></li>
<li><a rel="mw:ExtLink" href="https://example.com">external</a></li>
</ul></body></html>`

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/rest_v1/page/summary/Band_A":
			w.Write([]byte(`{"type":"disambiguation","title":"Band A","extract":"Band A may refer to:"}`)) //nolint:errcheck
		case "/api/rest_v1/page/html/Band_A":
			w.Write([]byte(disambigHTML)) //nolint:errcheck
		case "/api/rest_v1/page/summary/Band_A_(band)":
			w.Write([]byte(`{"type":"standard","title":"Band A (band)","extract":"Band A is an English rock band.",
				"thumbnail":{"source":"https://upload.test/thumb.jpg"},"originalimage":{"source":"https://upload.test/full.jpg"},
				"content_urls":{"desktop":{"page":"https://en.wikipedia.org/wiki/Band_A_(band)"}}}`)) //nolint:errcheck
		case "/api/rest_v1/page/html/Band_A_(band)":
			w.Write([]byte(`<a rel="mw:WikiLink" href="./Album_X">Album X</a>`)) //nolint:errcheck
		case "/api/rest_v1/page/summary/Throttled_Links":
			w.Write([]byte(`{"type":"disambiguation","title":"Throttled Links","extract":"may refer to:"}`)) //nolint:errcheck
		case "/api/rest_v1/page/html/Throttled_Links":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/api/rest_v1/page/summary/No_Links":
			w.Write([]byte(`{"type":"standard","title":"No Links","extract":"A rock band."}`)) //nolint:errcheck
		case "/api/rest_v1/page/summary/Busy":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/w/api.php":
			if r.URL.Query().Get("srsearch") == "nothing at all" {
				w.Write([]byte(`{"query":{"search":[]}}`)) //nolint:errcheck
				return
			}
			w.Write([]byte(`{"query":{"search":[{"title":"Band A (band)"}]}}`)) //nolint:errcheck
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewWithBaseURL(provider.NewUnlimitedRateLimiterMap(), logger, srv.URL)
}

func TestGetPage_Standard(t *testing.T) {
	a := newTestAdapter(t)

	page, err := a.GetPage(context.Background(), "Band A (band)")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if page.Summary != "Band A is an English rock band." {
		t.Errorf("Summary = %q", page.Summary)
	}
	if page.ImageURL != "https://upload.test/full.jpg" {
		t.Errorf("ImageURL = %q, want original image preferred", page.ImageURL)
	}
	if page.URL != "https://en.wikipedia.org/wiki/Band_A_(band)" {
		t.Errorf("URL = %q", page.URL)
	}
	if len(page.Links) != 1 || page.Links[0] != "Album X" {
		t.Errorf("Links = %v", page.Links)
	}
}

func TestGetPage_Disambiguation(t *testing.T) {
	a := newTestAdapter(t)

	_, err := a.GetPage(context.Background(), "Band A")
	d, ok := provider.AsDisambiguation(err)
	if !ok {
		t.Fatalf("expected ErrDisambiguation, got %v", err)
	}
	want := []string{"Band A (river)", "Band A (band)"}
	if strings.Join(d.Candidates, "|") != strings.Join(want, "|") {
		t.Errorf("Candidates = %v, want %v", d.Candidates, want)
	}
}

func TestGetPage_Errors(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if _, err := a.GetPage(ctx, "Nope"); !provider.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := a.GetPage(ctx, "Busy"); !provider.IsRateLimited(err) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestGetPage_LinkFetchRateLimited(t *testing.T) {
	a := newTestAdapter(t)

	_, err := a.GetPage(context.Background(), "Throttled Links")
	if !provider.IsRateLimited(err) {
		t.Fatalf("err = %v, want rate limited", err)
	}
	if _, ok := provider.AsDisambiguation(err); ok {
		t.Error("rate-limited link fetch must not surface as a disambiguation")
	}
}

func TestGetPage_LinkFetchOtherErrorMeansNoLinks(t *testing.T) {
	a := newTestAdapter(t)

	page, err := a.GetPage(context.Background(), "No Links")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if page.Summary != "A rock band." || page.Links != nil {
		t.Errorf("page = %+v, want summary without links", page)
	}
}

func TestSearchPage(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	page, err := a.SearchPage(ctx, "Band A")
	if err != nil {
		t.Fatalf("SearchPage: %v", err)
	}
	if page.Title != "Band A (band)" {
		t.Errorf("Title = %q", page.Title)
	}

	if _, err := a.SearchPage(ctx, "nothing at all"); !provider.IsNotFound(err) {
		t.Errorf("expected ErrNotFound for empty search, got %v", err)
	}
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"https://en.wikipedia.org/wiki/Band_A_(band)", "Band A (band)", true},
		{"https://en.wikipedia.org/wiki/Sigur_R%C3%B3s", "Sigur Rós", true},
		{"https://en.wikipedia.org/w/index.php?title=X", "", false},
		{"https://example.org/wiki/X", "", false},
		{"https://en.wikipedia.org/wiki/", "", false},
	}
	for _, tt := range tests {
		got, ok := TitleFromURL(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TitleFromURL(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
