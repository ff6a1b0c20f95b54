// Package ocr orchestrates optical character recognition. It normalizes
// language sets, consults a content-addressed cache and collapses
// concurrent identical requests so each image is recognized once.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
)

// DefaultTimeout bounds each external rasterizer or OCR invocation.
const DefaultTimeout = 2 * time.Minute

// DefaultLanguage is used when no requested language is recognized.
const DefaultLanguage = "eng"

var _ harvest.PageRenderer = (*Extractor)(nil)

// Extractor recognizes text in images and PDF pages.
type Extractor struct {
	Engine     harvest.OCREngine
	Cache      harvest.OCRCache
	Rasterizer harvest.Rasterizer

	// TessdataPrefix is the OCR engine's data directory. Required.
	TessdataPrefix string

	// Timeout bounds each external process call. Defaults to DefaultTimeout.
	Timeout time.Duration

	Logger *slog.Logger

	group singleflight.Group
}

// Validate returns ECONFIG when the extractor cannot run.
func (e *Extractor) Validate() error {
	if e.TessdataPrefix == "" {
		return harvest.Errorf(harvest.ECONFIG, "OCR data prefix is not configured (set TESSDATA_PREFIX)")
	}
	if e.Engine == nil {
		return harvest.Errorf(harvest.ECONFIG, "OCR engine is not configured")
	}
	return nil
}

// ExtractImage returns the text in an image. Results are cached by image
// content and normalized languages; concurrent calls for the same key share
// one recognition.
func (e *Extractor) ExtractImage(ctx context.Context, data []byte, languages []string) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	langs := NormalizeLanguages(languages)

	if e.Cache != nil {
		text, ok, err := e.Cache.GetOCR(ctx, data, langs)
		if err != nil {
			e.logger().Warn("ocr cache read", "err", err)
		} else if ok {
			return text, nil
		}
	}

	// The shared recognition outlives any single caller; each caller stops
	// waiting when its own context ends.
	key := harvest.OCRCacheKey(data, langs)
	flight := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (any, error) {
		return e.recognize(flight, data, langs)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (e *Extractor) recognize(ctx context.Context, data []byte, langs []string) (string, error) {
	if e.Cache != nil {
		// A concurrent caller may have filled the cache meanwhile.
		if text, ok, err := e.Cache.GetOCR(ctx, data, langs); err == nil && ok {
			return text, nil
		}
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", harvest.WrapError(harvest.EINVALID, err, "decode image")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	begin := time.Now()
	text, err := e.Engine.Recognize(ctx, data, langs)
	if err != nil {
		return "", err
	}
	e.logger().Debug("ocr", "languages", strings.Join(langs, "+"), "bytes", len(data), "duration", time.Since(begin))

	if e.Cache != nil {
		if err := e.Cache.SetOCR(ctx, data, langs, text); err != nil {
			e.logger().Warn("ocr cache write", "err", err)
		}
	}
	return text, nil
}

// RenderPDFPage rasterizes the 1-based page of the PDF at path and
// recognizes its text.
func (e *Extractor) RenderPDFPage(ctx context.Context, path string, page int, languages []string) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.Rasterizer == nil {
		return "", harvest.Errorf(harvest.ECONFIG, "PDF rasterizer is not configured")
	}

	rctx, cancel := context.WithTimeout(ctx, e.timeout())
	img, err := e.Rasterizer.RasterizePage(rctx, path, page)
	cancel()
	if err != nil {
		return "", fmt.Errorf("rasterize page %d: %w", page, err)
	}

	return e.ExtractImage(ctx, img, languages)
}

// NormalizeLanguages converts language identifiers to the three-letter
// codes the OCR engine expects. Unknown identifiers are dropped, duplicates
// removed and order kept. Engine script variants such as "chi_sim" pass
// through unchanged. An empty result becomes DefaultLanguage.
func NormalizeLanguages(languages []string) []string {
	seen := make(map[string]bool, len(languages))
	out := make([]string, 0, len(languages))
	for _, l := range languages {
		code := normalizeLanguage(l)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	if len(out) == 0 {
		return []string{DefaultLanguage}
	}
	return out
}

func normalizeLanguage(l string) string {
	l = strings.TrimSpace(l)
	if l == "" {
		return ""
	}
	if strings.Contains(l, "_") {
		return strings.ToLower(l)
	}
	tag, err := language.Parse(l)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.ISO3()
}

func (e *Extractor) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
