package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorClassification(t *testing.T) {
	rl := fmt.Errorf("fetching tags: %w", &ErrRateLimited{Provider: NameDiscogs})
	nf := fmt.Errorf("fetching page: %w", &ErrNotFound{Provider: NameWikipedia, ID: "X"})
	un := &ErrProviderUnavailable{Provider: NameMusicBrainz, Cause: errors.New("timeout")}
	dis := fmt.Errorf("lookup: %w", &ErrDisambiguation{Provider: NameWikipedia, Title: "X", Candidates: []string{"X (band)"}})

	if !IsRateLimited(rl) || IsRateLimited(nf) || IsRateLimited(un) {
		t.Error("IsRateLimited misclassified")
	}
	if !IsNotFound(nf) || IsNotFound(rl) {
		t.Error("IsNotFound misclassified")
	}
	d, ok := AsDisambiguation(dis)
	if !ok || d.Candidates[0] != "X (band)" {
		t.Errorf("AsDisambiguation = %+v, %v", d, ok)
	}
	if _, ok := AsDisambiguation(nf); ok {
		t.Error("not-found is not a disambiguation")
	}
	if !errors.Is(un, un.Cause) {
		t.Error("ErrProviderUnavailable should unwrap to its cause")
	}
}

func TestDisplayName(t *testing.T) {
	if NameCoverArt.DisplayName() != "Cover Art Archive" {
		t.Errorf("DisplayName = %q", NameCoverArt.DisplayName())
	}
	if ProviderName("other").DisplayName() != "other" {
		t.Error("unknown names should display as-is")
	}
}

func TestRateLimiterMap_Wait(t *testing.T) {
	m := NewUnlimitedRateLimiterMap()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for range 10 {
		if err := m.Wait(ctx, NameMusicBrainz); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if err := m.Wait(ctx, "unknown"); err != nil {
		t.Errorf("unknown provider should not block: %v", err)
	}
}

func TestRateLimiterMap_CanceledContext(t *testing.T) {
	m := NewRateLimiterMap()
	ctx, cancel := context.WithCancel(context.Background())

	// Consume the single burst token, then cancel: the next wait must fail.
	if err := m.Wait(ctx, NameMusicBrainz); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	cancel()
	if err := m.Wait(ctx, NameMusicBrainz); err == nil {
		t.Error("expected error from canceled context")
	}
}
