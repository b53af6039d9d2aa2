// Package palette extracts the dominant colors of a cover image.
package palette

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/sydlexius/cadence/internal/version"
)

// sampleEdge bounds the longest edge of the image that gets quantized.
const sampleEdge = 64

// maxImageBytes limits how much of a remote image is read.
const maxImageBytes = 10 << 20

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette holds up to three dominant colors, most dominant first. Slots
// without a color are nil.
type Palette [3]*Color

// Extractor downloads images and computes their palettes.
type Extractor struct {
	client *http.Client
	logger *slog.Logger
}

// NewExtractor creates an Extractor with a bounded HTTP timeout.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: 20 * time.Second},
		logger: logger.With(slog.String("component", "palette")),
	}
}

// Extract returns the palette of the image at rawURL. It never fails: any
// fetch or decode problem yields an empty palette.
func (e *Extractor) Extract(ctx context.Context, rawURL string) Palette {
	img, err := e.fetch(ctx, rawURL)
	if err != nil {
		e.logger.Warn("palette extraction failed", slog.String("url", rawURL), slog.String("error", err.Error()))
		return Palette{}
	}
	return FromImage(img)
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := e.client.Do(req) //nolint:gosec // URL comes from trusted provider API
	if err != nil {
		return nil, fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

type bucket struct {
	key              uint16
	count            int
	sumR, sumG, sumB int
}

// FromImage quantizes img into 4-bit-per-channel buckets and returns the
// averages of the three most populated ones. Mostly transparent pixels are
// ignored.
func FromImage(img image.Image) Palette {
	img = downscale(img)
	b := img.Bounds()

	buckets := make(map[uint16]*bucket)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			r8, g8, b8 := int(r>>8), int(g>>8), int(bl>>8)
			key := uint16(r8>>4)<<8 | uint16(g8>>4)<<4 | uint16(b8>>4)
			bk, ok := buckets[key]
			if !ok {
				bk = &bucket{key: key}
				buckets[key] = bk
			}
			bk.count++
			bk.sumR += r8
			bk.sumG += g8
			bk.sumB += b8
		}
	}

	ranked := make([]*bucket, 0, len(buckets))
	for _, bk := range buckets {
		ranked = append(ranked, bk)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})

	var p Palette
	for i := 0; i < len(p) && i < len(ranked); i++ {
		bk := ranked[i]
		p[i] = &Color{
			R: uint8(bk.sumR / bk.count), //nolint:gosec // average of uint8 values
			G: uint8(bk.sumG / bk.count), //nolint:gosec
			B: uint8(bk.sumB / bk.count), //nolint:gosec
		}
	}
	return p
}

func downscale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := fitDimensions(b.Dx(), b.Dy(), sampleEdge, sampleEdge)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// fitDimensions scales origW x origH to fit within maxW x maxH, preserving
// the aspect ratio. Images that already fit keep their size.
func fitDimensions(origW, origH, maxW, maxH int) (int, int) {
	if origW <= maxW && origH <= maxH {
		return origW, origH
	}
	ratio := math.Min(float64(maxW)/float64(origW), float64(maxH)/float64(origH))
	newW := max(int(math.Round(float64(origW)*ratio)), 1)
	newH := max(int(math.Round(float64(origH)*ratio)), 1)
	return newW, newH
}
