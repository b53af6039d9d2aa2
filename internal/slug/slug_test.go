package slug

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Album X", "album-x"},
		{"Sigur Rós", "sigur-ros"},
		{"  AC/DC  ", "ac-dc"},
		{"Guns N' Roses", "guns-n-roses"},
		{"Beyoncé – Lemonade!", "beyonce-lemonade"},
		{"1999", "1999"},
		{"***", "untitled"},
		{"", "untitled"},
	}
	for _, tt := range tests {
		if got := Make(tt.in); got != tt.want {
			t.Errorf("Make(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTemporary(t *testing.T) {
	a, b := Temporary("Album X"), Temporary("Album X")
	if a == b {
		t.Errorf("temporary slugs collided: %q", a)
	}
	if !strings.HasPrefix(a, "album-x-tmp-") {
		t.Errorf("Temporary = %q, want album-x-tmp- prefix", a)
	}
}

type setChecker map[string]bool

func (s setChecker) SlugTaken(_ context.Context, _ Namespace, slug string) (bool, error) {
	return s[slug], nil
}

func TestAllocate_StrictlyIncreasingSuffixes(t *testing.T) {
	a := NewAllocator(Releases)
	ctx := context.Background()
	checker := setChecker{}

	want := []string{"album-x", "album-x-2", "album-x-3", "album-x-4"}
	for i, w := range want {
		got, err := a.Allocate(ctx, checker, "Album X")
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if got != w {
			t.Errorf("Allocate #%d = %q, want %q", i, got, w)
		}
	}
}

func TestAllocate_SkipsPersisted(t *testing.T) {
	a := NewAllocator(Releases)
	checker := setChecker{"album-x": true, "album-x-2": true}

	got, err := a.Allocate(context.Background(), checker, "Album X")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "album-x-3" {
		t.Errorf("Allocate = %q, want album-x-3", got)
	}
}

func TestAllocate_ReservedAndDistinctBases(t *testing.T) {
	a := NewAllocator(Artists)
	a.Reserve("band-a")
	ctx := context.Background()

	got, err := a.Allocate(ctx, setChecker{}, "Band A")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "band-a-2" {
		t.Errorf("Allocate = %q, want band-a-2", got)
	}

	got, err = a.Allocate(ctx, setChecker{}, "Band B")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "band-b" {
		t.Errorf("Allocate = %q, want band-b", got)
	}
}

type failingChecker struct{}

func (failingChecker) SlugTaken(context.Context, Namespace, string) (bool, error) {
	return false, errors.New("db closed")
}

func TestAllocate_CheckerError(t *testing.T) {
	a := NewAllocator(Tags)
	if _, err := a.Allocate(context.Background(), failingChecker{}, "Rock"); err == nil {
		t.Fatal("expected error")
	}
	got, err := a.Allocate(context.Background(), setChecker{}, "Rock")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "rock" {
		t.Errorf("Allocate after failure = %q, want rock", got)
	}
}
