package palette

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

var (
	red   = color.RGBA{R: 200, G: 16, B: 16, A: 255}
	green = color.RGBA{R: 16, G: 160, B: 32, A: 255}
	blue  = color.RGBA{R: 16, G: 32, B: 200, A: 255}
)

// makeBands returns a 10x10 image: 5 rows red, 3 rows green, 2 rows blue.
func makeBands() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := range 10 {
		c := red
		switch {
		case y >= 8:
			c = blue
		case y >= 5:
			c = green
		}
		for x := range 10 {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

func assertColor(t *testing.T, got *Color, want color.RGBA) {
	t.Helper()
	if got == nil {
		t.Fatalf("color = nil, want %v", want)
	}
	if got.R != want.R || got.G != want.G || got.B != want.B {
		t.Errorf("color = %s, want %v", got.Hex(), want)
	}
}

func TestFromImage_RanksByArea(t *testing.T) {
	p := FromImage(makeBands())
	assertColor(t, p[0], red)
	assertColor(t, p[1], green)
	assertColor(t, p[2], blue)
}

func TestFromImage_SingleColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.Set(x, y, red)
		}
	}
	p := FromImage(img)
	assertColor(t, p[0], red)
	if p[1] != nil || p[2] != nil {
		t.Errorf("expected empty trailing slots, got %v %v", p[1], p[2])
	}
}

func TestFromImage_Downscales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for y := range 200 {
		for x := range 400 {
			img.Set(x, y, blue)
		}
	}
	p := FromImage(img)
	assertColor(t, p[0], blue)
}

func TestExtract(t *testing.T) {
	data := encodePNG(t, makeBands())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cover.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data) //nolint:errcheck
	}))
	defer ts.Close()

	e := NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)))

	p := e.Extract(context.Background(), ts.URL+"/cover.png")
	assertColor(t, p[0], red)

	empty := e.Extract(context.Background(), ts.URL+"/missing.png")
	if empty != (Palette{}) {
		t.Errorf("expected empty palette for 404, got %v", empty)
	}
}

func TestHex(t *testing.T) {
	if got := (Color{R: 255, G: 8, B: 0}).Hex(); got != "#ff0800" {
		t.Errorf("Hex = %q, want #ff0800", got)
	}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		w, h, wantW, wantH int
	}{
		{10, 10, 10, 10},
		{400, 200, 64, 32},
		{100, 1000, 6, 64},
	}
	for _, tt := range tests {
		gotW, gotH := fitDimensions(tt.w, tt.h, 64, 64)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("fitDimensions(%d, %d) = %dx%d, want %dx%d", tt.w, tt.h, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}
