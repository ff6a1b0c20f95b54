package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/fwojciec/harvest"
)

var _ harvest.Ingestor = (*PDFIngestor)(nil)

// pdfMarker identifies a PDF file within the header.
var pdfMarker = []byte("%PDF-1.")

// PDFIngestor extracts PDF pages, falling back to OCR for pages without
// usable embedded text.
type PDFIngestor struct {
	PDF harvest.PDFExtractor

	// OCR renders pages whose embedded text is unusable. When nil such
	// pages are stored as failed.
	OCR harvest.PageRenderer

	Store  *Store
	Logger *slog.Logger
}

// Name implements harvest.Ingestor.
func (i *PDFIngestor) Name() string { return "pdf" }

// Match returns 15 when the header contains the PDF marker, -1 otherwise.
func (i *PDFIngestor) Match(header []byte) int {
	if bytes.Contains(header, pdfMarker) {
		return 15
	}
	return -1
}

// Ingest implements harvest.Ingestor. A page whose OCR fails in the
// external process is stored as failed and the remaining pages continue;
// any other error aborts the document.
func (i *PDFIngestor) Ingest(ctx context.Context, meta *harvest.Meta, localPath string) error {
	data, err := i.PDF.ExtractPDF(ctx, localPath)
	if err != nil {
		return fmt.Errorf("extract pdf: %w", err)
	}

	meta = meta.Clone()
	if !meta.Has(harvest.MetaAuthor) && data.Author != "" {
		meta.Author = data.Author
	}
	// Title back-fill from PDF metadata stays disabled.

	pages := make([]*harvest.Page, len(data.Pages))
	for n, text := range data.Pages {
		page := &harvest.Page{Number: n + 1, Text: text, Status: harvest.PageExtracted}
		pages[n] = page

		if UsableText(text) {
			continue
		}
		if i.OCR == nil {
			i.logger().Warn("page failed", "file", meta.FileName, "page", n+1, "err", errOCRNotConfigured)
			page.Text = ""
			page.Status = harvest.PageFailed
			page.Error = errOCRNotConfigured
			continue
		}

		ocrText, err := i.OCR.RenderPDFPage(ctx, localPath, n+1, meta.Languages)
		if err == nil {
			page.Text = ocrText
			page.Status = harvest.PageOCR
			continue
		}
		if ctx.Err() != nil || harvest.ErrorCode(err) != harvest.EEXTERNAL {
			return fmt.Errorf("page %d: %w", n+1, err)
		}

		i.logger().Warn("page failed", "file", meta.FileName, "page", n+1, "err", err)
		page.Text = ""
		page.Status = harvest.PageFailed
		page.Error = err.Error()
	}

	doc := harvest.NewDocument(meta, harvest.DocumentText)
	return i.Store.Save(ctx, doc, pages, meta, localPath)
}

const errOCRNotConfigured = "OCR not configured"

func (i *PDFIngestor) logger() *slog.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return slog.Default()
}
