package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.OCRCache = (*OCRCache)(nil)

// OCRCache is a mock implementation of harvest.OCRCache.
type OCRCache struct {
	GetOCRFn func(ctx context.Context, data []byte, languages []string) (string, bool, error)
	SetOCRFn func(ctx context.Context, data []byte, languages []string, text string) error
}

func (c *OCRCache) GetOCR(ctx context.Context, data []byte, languages []string) (string, bool, error) {
	return c.GetOCRFn(ctx, data, languages)
}

func (c *OCRCache) SetOCR(ctx context.Context, data []byte, languages []string, text string) error {
	return c.SetOCRFn(ctx, data, languages, text)
}

var _ harvest.OCREngine = (*OCREngine)(nil)

// OCREngine is a mock implementation of harvest.OCREngine.
type OCREngine struct {
	RecognizeFn func(ctx context.Context, image []byte, languages []string) (string, error)
}

func (e *OCREngine) Recognize(ctx context.Context, image []byte, languages []string) (string, error) {
	return e.RecognizeFn(ctx, image, languages)
}

var _ harvest.Rasterizer = (*Rasterizer)(nil)

// Rasterizer is a mock implementation of harvest.Rasterizer.
type Rasterizer struct {
	RasterizePageFn func(ctx context.Context, path string, page int) ([]byte, error)
}

func (r *Rasterizer) RasterizePage(ctx context.Context, path string, page int) ([]byte, error) {
	return r.RasterizePageFn(ctx, path, page)
}

var _ harvest.PageRenderer = (*PageRenderer)(nil)

// PageRenderer is a mock implementation of harvest.PageRenderer.
type PageRenderer struct {
	RenderPDFPageFn func(ctx context.Context, path string, page int, languages []string) (string, error)
}

func (r *PageRenderer) RenderPDFPage(ctx context.Context, path string, page int, languages []string) (string, error) {
	return r.RenderPDFPageFn(ctx, path, page, languages)
}

var _ harvest.PDFExtractor = (*PDFExtractor)(nil)

// PDFExtractor is a mock implementation of harvest.PDFExtractor.
type PDFExtractor struct {
	ExtractPDFFn func(ctx context.Context, path string) (*harvest.PDFData, error)
}

func (e *PDFExtractor) ExtractPDF(ctx context.Context, path string) (*harvest.PDFData, error) {
	return e.ExtractPDFFn(ctx, path)
}
