// Package pdf reads embedded text and document information from PDF files.
package pdf

import (
	"context"
	"strings"

	"github.com/fwojciec/harvest"
	"github.com/ledongthuc/pdf"
)

var _ harvest.PDFExtractor = (*Extractor)(nil)

// Extractor extracts per-page text with ledongthuc/pdf.
type Extractor struct{}

// NewExtractor returns a new PDF extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPDF returns the title, author and text of every page. A page whose
// text cannot be read yields an empty string so callers can fall back to OCR.
func (e *Extractor) ExtractPDF(ctx context.Context, path string) (data *harvest.PDFData, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = harvest.Errorf(harvest.EINVALID, "malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, harvest.WrapError(harvest.EINVALID, err, "open pdf: %v", err)
	}
	defer f.Close()

	info := r.Trailer().Key("Info")
	data = &harvest.PDFData{
		Title:  strings.TrimSpace(info.Key("Title").Text()),
		Author: strings.TrimSpace(info.Key("Author").Text()),
	}

	n := r.NumPage()
	data.Pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data.Pages = append(data.Pages, pageText(r.Page(i)))
	}
	return data, nil
}

func pageText(p pdf.Page) string {
	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

