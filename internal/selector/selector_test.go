package selector

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sydlexius/cadence/internal/provider"
	"github.com/sydlexius/cadence/internal/provider/fixture"
)

func TestCanonicalRelease_PrefersPreciseDate(t *testing.T) {
	got, ok := CanonicalRelease([]provider.Release{
		{ID: "a", Date: "1995", TrackCount: 10},
		{ID: "b", Date: "1995-03-02", TrackCount: 10},
	})
	if !ok {
		t.Fatal("expected a release")
	}
	if got.Date != "1995-03-02" {
		t.Errorf("date = %q, want 1995-03-02", got.Date)
	}
}

func TestCanonicalRelease_ModalTrackCount(t *testing.T) {
	got, ok := CanonicalRelease([]provider.Release{
		{ID: "deluxe", Date: "1990-01-01", TrackCount: 18},
		{ID: "std-1", Date: "1994", TrackCount: 10},
		{ID: "std-2", Date: "1993-06", TrackCount: 10},
	})
	if !ok {
		t.Fatal("expected a release")
	}
	if got.ID != "std-2" {
		t.Errorf("id = %q, want std-2", got.ID)
	}
}

func TestCanonicalRelease_Ordering(t *testing.T) {
	tests := []struct {
		name       string
		candidates []provider.Release
		want       string
	}{
		{
			name: "earliest year wins",
			candidates: []provider.Release{
				{ID: "late", Date: "2001-01-01", TrackCount: 1},
				{ID: "early", Date: "1999", TrackCount: 1},
			},
			want: "early",
		},
		{
			name: "same precision lexicographic",
			candidates: []provider.Release{
				{ID: "june", Date: "1999-06-01", TrackCount: 1},
				{ID: "march", Date: "1999-03-01", TrackCount: 1},
			},
			want: "march",
		},
		{
			name: "undated ignored when dated exists",
			candidates: []provider.Release{
				{ID: "undated", TrackCount: 1},
				{ID: "dated", Date: "2010", TrackCount: 1},
			},
			want: "dated",
		},
		{
			name: "all undated",
			candidates: []provider.Release{
				{ID: "first", TrackCount: 1},
				{ID: "second", Date: "unknown", TrackCount: 1},
			},
			want: "first",
		},
		{
			name: "count tie goes to first seen",
			candidates: []provider.Release{
				{ID: "a", Date: "2005", TrackCount: 12},
				{ID: "b", Date: "2000", TrackCount: 9},
			},
			want: "a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalRelease(tt.candidates)
			if !ok {
				t.Fatal("expected a release")
			}
			if got.ID != tt.want {
				t.Errorf("id = %q, want %q", got.ID, tt.want)
			}
		})
	}
}

func TestCanonicalRelease_Empty(t *testing.T) {
	if _, ok := CanonicalRelease(nil); ok {
		t.Error("expected no release for empty input")
	}
}

type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, u string) string {
	if r, ok := m[u]; ok {
		return r
	}
	return u
}

func TestCanonicalCover(t *testing.T) {
	images := []provider.CoverImage{
		{Image: "back.jpg", Thumbnails: map[string]string{"500": "back-500.jpg"}},
		{Front: true, Image: "front.jpg", Thumbnails: map[string]string{"large": "front-l.jpg", "250": "front-250.jpg", "small": "front-s.jpg"}},
	}
	resolver := mapResolver{"front.jpg": "https://cdn.example/front.jpg"}

	cover, ok := CanonicalCover(context.Background(), images, resolver)
	if !ok {
		t.Fatal("expected a cover")
	}
	if cover.Max != "https://cdn.example/front.jpg" {
		t.Errorf("Max = %q", cover.Max)
	}
	if cover.Large != "front-l.jpg" {
		t.Errorf("Large = %q, want legacy fallback front-l.jpg", cover.Large)
	}
	if cover.Small != "front-250.jpg" {
		t.Errorf("Small = %q, want front-250.jpg", cover.Small)
	}
}

func TestCanonicalCover_NoFrontUsesFirst(t *testing.T) {
	cover, ok := CanonicalCover(context.Background(), []provider.CoverImage{{Image: "a.jpg"}, {Image: "b.jpg"}}, nil)
	if !ok {
		t.Fatal("expected a cover")
	}
	if cover.Max != "a.jpg" {
		t.Errorf("Max = %q, want a.jpg", cover.Max)
	}
}

func TestCanonicalCover_Empty(t *testing.T) {
	if _, ok := CanonicalCover(context.Background(), nil, nil); ok {
		t.Error("expected no cover")
	}
}

func TestHTTPResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/redirect":
			http.Redirect(w, r, "/final", http.StatusFound)
		case "/final":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r := NewHTTPResolver(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	if got := r.Resolve(ctx, srv.URL+"/redirect"); got != srv.URL+"/final" {
		t.Errorf("Resolve(redirect) = %q, want %q", got, srv.URL+"/final")
	}
	if got := r.Resolve(ctx, srv.URL+"/missing"); got != srv.URL+"/missing" {
		t.Errorf("Resolve(missing) = %q, want original", got)
	}
	if got := r.Resolve(ctx, "http://127.0.0.1:1/unreachable"); got != "http://127.0.0.1:1/unreachable" {
		t.Errorf("Resolve(unreachable) = %q, want original", got)
	}
}

func TestCanonicalArtistPage(t *testing.T) {
	rec := fixture.Recording{
		Pages: map[string]provider.Page{
			"Band A (band)":  {Title: "Band A (band)", Summary: "Band A is an English rock band."},
			"Band A (river)": {Title: "Band A (river)", Summary: "Band A is a river in Norway."},
			"Solo Artist":    {Title: "Solo Artist", Summary: "Solo Artist is an American singer."},
		},
		Disambiguations: map[string][]string{
			"Band A": {"Band A (river)", "Band A (band)"},
		},
		Searches: map[string]string{
			"Band A":      "Band A",
			"Solo Artist": "Solo Artist",
			"River Only":  "Band A (river)",
		},
	}
	enc := fixture.New(rec)
	ctx := context.Background()

	tests := []struct {
		name      string
		artist    string
		link      string
		wantTitle string
		wantOK    bool
	}{
		{"known link", "Band A", "https://en.wikipedia.org/wiki/Band_A_(band)", "Band A (band)", true},
		{"disambiguation narrowed", "Band A", "", "Band A (band)", true},
		{"direct search", "Solo Artist", "", "Solo Artist", true},
		{"non-music page rejected", "River Only", "", "", false},
		{"not found", "Nobody", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, ok := CanonicalArtistPage(ctx, enc, tt.artist, tt.link)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && page.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", page.Title, tt.wantTitle)
			}
		})
	}
}

func TestMentionsMusic_IgnoresName(t *testing.T) {
	if mentionsMusic("The Band (river)", "The Band") {
		t.Error("artist name alone should not count as music vocabulary")
	}
	if !mentionsMusic("The Band (band)", "The Band") {
		t.Error("qualifier should count as music vocabulary")
	}
}
