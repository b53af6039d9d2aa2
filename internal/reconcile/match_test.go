package reconcile

import (
	"testing"

	"github.com/sydlexius/cadence/internal/catalog"
)

func tracks(prefix string, titles ...string) []catalog.Track {
	out := make([]catalog.Track, len(titles))
	for i, title := range titles {
		out[i] = catalog.Track{ID: prefix + title + string(rune('0'+i)), Title: title, Side: 1, Position: i + 1}
	}
	return out
}

func TestMatchTracks(t *testing.T) {
	tests := []struct {
		name     string
		existing []catalog.Track
		fresh    []catalog.Track
		wantOK   bool
		wantPair map[string]string
	}{
		{
			name:     "bonus track added",
			existing: tracks("old-", "One", "Two"),
			fresh:    tracks("new-", "One", "Two", "Three"),
			wantOK:   true,
			wantPair: map[string]string{"old-One0": "new-One0", "old-Two1": "new-Two1"},
		},
		{
			name:     "reordered",
			existing: tracks("old-", "One", "Two"),
			fresh:    tracks("new-", "Two", "One"),
			wantOK:   true,
			wantPair: map[string]string{"old-One0": "new-One1", "old-Two1": "new-Two0"},
		},
		{
			name:     "retitled",
			existing: tracks("old-", "One"),
			fresh:    tracks("new-", "Uno", "Two"),
			wantOK:   false,
		},
		{
			name:     "duplicate titles claim distinct tracks",
			existing: tracks("old-", "Intro", "Intro"),
			fresh:    tracks("new-", "Intro", "Intro"),
			wantOK:   true,
			wantPair: map[string]string{"old-Intro0": "new-Intro0", "old-Intro1": "new-Intro1"},
		},
		{
			name:     "fresh track claimable once",
			existing: tracks("old-", "Intro", "Intro"),
			fresh:    tracks("new-", "Intro"),
			wantOK:   false,
		},
		{
			name:     "case sensitive",
			existing: tracks("old-", "one"),
			fresh:    tracks("new-", "One"),
			wantOK:   false,
		},
		{
			name:     "nothing to match",
			existing: nil,
			fresh:    tracks("new-", "One"),
			wantOK:   true,
			wantPair: map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchTracks(tt.existing, tt.fresh)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if len(got) != len(tt.wantPair) {
				t.Fatalf("mapping = %v, want %v", got, tt.wantPair)
			}
			for k, v := range tt.wantPair {
				if got[k] != v {
					t.Errorf("mapping[%s] = %s, want %s", k, got[k], v)
				}
			}
			seen := make(map[string]bool)
			for _, v := range got {
				if seen[v] {
					t.Errorf("fresh track %s claimed twice", v)
				}
				seen[v] = true
			}
		})
	}
}

func TestSameTrackList(t *testing.T) {
	a := tracks("a-", "One", "Two")
	b := tracks("b-", "One", "Two")
	if !sameTrackList(a, b) {
		t.Error("identical lists should match regardless of ids")
	}
	if sameTrackList(a, tracks("b-", "One", "Dos")) {
		t.Error("retitled list should not match")
	}
	if sameTrackList(a, tracks("b-", "One")) {
		t.Error("shorter list should not match")
	}
}
