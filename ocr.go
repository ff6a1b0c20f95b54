package harvest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// OCRCache stores recognized text keyed by image content and languages.
type OCRCache interface {
	// GetOCR returns cached text. The bool is false on a miss.
	GetOCR(ctx context.Context, data []byte, languages []string) (string, bool, error)

	// SetOCR stores text for the given content and languages.
	SetOCR(ctx context.Context, data []byte, languages []string, text string) error
}

// OCRCacheKey returns the content address of an OCR request.
func OCRCacheKey(data []byte, languages []string) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(languages, "+")))
	return hex.EncodeToString(h.Sum(nil))
}

// OCREngine recognizes text in an image.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte, languages []string) (string, error)
}

// Rasterizer renders one page of a PDF to a PNG image.
type Rasterizer interface {
	// RasterizePage renders the 1-based page of the PDF at path.
	RasterizePage(ctx context.Context, path string, page int) ([]byte, error)
}

// PageRenderer produces text for a PDF page through OCR.
type PageRenderer interface {
	RenderPDFPage(ctx context.Context, path string, page int, languages []string) (string, error)
}

// PDFData is the direct extraction result of a PDF.
type PDFData struct {
	Title  string
	Author string

	// Pages holds the text of each page, first page first.
	Pages []string
}

// PDFExtractor reads embedded text and metadata from a PDF.
type PDFExtractor interface {
	ExtractPDF(ctx context.Context, path string) (*PDFData, error)
}
