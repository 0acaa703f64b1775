package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

const (
	// logoScale is the logo's longer side relative to the photo's shorter side.
	logoScale = 0.30
	// logoOpacity is the alpha applied to the logo when compositing.
	logoOpacity = 0.25
	// JPEGQuality is the encoder quality for watermarked output.
	JPEGQuality = 92
	// DefaultMaxPixels caps width*height of any decoded source or logo.
	DefaultMaxPixels = 50_000_000

	defaultArchiveBaseName = "photos"
)

var logoMask = image.NewUniform(color.Alpha16{A: uint16(math.Round(logoOpacity * 0xffff))})

// WatermarkService overlays the brand logo on listing photos and bundles them
// into ZIP archives. The decoded logo is cached after the first successful load.
type WatermarkService struct {
	fetcher   ports.ImageFetcher
	logoURL   string
	maxPixels int
	log       zerolog.Logger

	mu   sync.Mutex
	logo image.Image
}

// WatermarkOption customises a WatermarkService.
type WatermarkOption func(*WatermarkService)

// WithMaxPixels overrides DefaultMaxPixels.
func WithMaxPixels(n int) WatermarkOption {
	return func(s *WatermarkService) { s.maxPixels = n }
}

func NewWatermarkService(fetcher ports.ImageFetcher, logoURL string, log zerolog.Logger, opts ...WatermarkOption) *WatermarkService {
	s := &WatermarkService{fetcher: fetcher, logoURL: logoURL, maxPixels: DefaultMaxPixels, log: log}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxPixels <= 0 {
		s.maxPixels = DefaultMaxPixels
	}
	return s
}

// WatermarkOne fetches sourceURL, centers the logo over it at 25% opacity and
// returns the result encoded as JPEG. Output is deterministic for identical inputs.
func (s *WatermarkService) WatermarkOne(ctx context.Context, sourceURL string) ([]byte, error) {
	logo, err := s.loadLogo(ctx)
	if err != nil {
		return nil, err
	}

	src, err := s.fetchImage(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Watermark(src, logo), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildArchive watermarks sourceURLs one at a time, in order, and returns a ZIP
// with entries "<baseName>-<n>.jpg". onProgress runs before each image's work.
// Any failure discards the whole archive.
func (s *WatermarkService) BuildArchive(ctx context.Context, sourceURLs []string, baseName string, onProgress ports.ProgressFunc) ([]byte, error) {
	total := len(sourceURLs)
	if total == 0 {
		return nil, domain.NewValidationError("at least one image URL is required")
	}
	baseName = ArchiveBaseName(baseName)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, u := range sourceURLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if onProgress != nil {
			onProgress(i+1, total)
		}

		data, err := s.WatermarkOne(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("archive entry %d of %d: %w", i+1, total, err)
		}

		entry, err := zw.Create(fmt.Sprintf("%s-%d.jpg", baseName, i+1))
		if err != nil {
			return nil, fmt.Errorf("create zip entry: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			return nil, fmt.Errorf("write zip entry: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}

	s.log.Debug().Int("images", total).Int("bytes", buf.Len()).Str("archive", baseName).Msg("archive built")
	return buf.Bytes(), nil
}

// Watermark draws src unmodified on a canvas of the same size and composites
// logo over its center. The logo's longer side is scaled to 30% of the
// canvas' shorter side, keeping its aspect ratio.
func Watermark(src, logo image.Image) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), src, b.Min, draw.Src)

	lb := logo.Bounds()
	lw, lh := LogoSize(lb.Dx(), lb.Dy(), w, h)
	if lw == 0 || lh == 0 {
		return canvas
	}

	scaled := image.NewRGBA(image.Rect(0, 0, lw, lh))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), logo, lb, draw.Src, nil)

	x := (w - lw) / 2
	y := (h - lh) / 2
	draw.DrawMask(canvas, image.Rect(x, y, x+lw, y+lh), scaled, image.Point{}, logoMask, image.Point{}, draw.Over)
	return canvas
}

// LogoSize returns the drawn logo dimensions for a canvas of canvasW x canvasH.
func LogoSize(logoW, logoH, canvasW, canvasH int) (int, int) {
	if logoW <= 0 || logoH <= 0 || canvasW <= 0 || canvasH <= 0 {
		return 0, 0
	}
	target := math.Round(logoScale * float64(min(canvasW, canvasH)))
	if target < 1 {
		return 0, 0
	}

	var w, h float64
	if logoW >= logoH {
		w = target
		h = target * float64(logoH) / float64(logoW)
	} else {
		h = target
		w = target * float64(logoW) / float64(logoH)
	}
	return max(1, int(math.Round(w))), max(1, int(math.Round(h)))
}

// ArchiveBaseName cleans name with domain.SanitizeFilename and drops a
// trailing ".zip" so it can prefix archive entries.
func ArchiveBaseName(name string) string {
	name = strings.TrimSuffix(domain.SanitizeFilename(name), ".zip")
	if name == "" {
		return defaultArchiveBaseName
	}
	return name
}

func (s *WatermarkService) loadLogo(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	cached := s.logo
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	logo, err := s.fetchImage(ctx, s.logoURL)
	if err != nil {
		return nil, fmt.Errorf("load logo: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logo == nil {
		s.logo = logo
		s.log.Debug().Str("url", s.logoURL).Msg("watermark logo cached")
	}
	return s.logo, nil
}

func (s *WatermarkService) fetchImage(ctx context.Context, url string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: fetch %s: %w", domain.ErrMediaFetch, url, err)
	}
	// Dimensions come from the header alone; the pixel buffer is only
	// allocated once they are within the cap.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrMediaFetch, url, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(s.maxPixels) {
		return nil, fmt.Errorf("%w: %s is %dx%d, above the %d pixel limit", domain.ErrMediaFetch, url, cfg.Width, cfg.Height, s.maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrMediaFetch, url, err)
	}
	return img, nil
}
