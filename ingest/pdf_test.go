package ingest_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/ingest"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractor(data *harvest.PDFData) *mock.PDFExtractor {
	return &mock.PDFExtractor{
		ExtractPDFFn: func(context.Context, string) (*harvest.PDFData, error) { return data, nil },
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestPDFIngestor_Ingest(t *testing.T) {
	t.Parallel()

	t.Run("stores direct text and archives a copy", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		i := &ingest.PDFIngestor{
			PDF:   extractor(&harvest.PDFData{Pages: []string{"first page", "second page"}}),
			Store: rec.store(),
		}
		path := writeFile(t, "report.pdf", "%PDF-1.4")
		meta := &harvest.Meta{CollectionID: "c1", FileName: "report.pdf", ContentHash: "abcdef0123456789"}

		err := i.Ingest(context.Background(), meta, path)

		require.NoError(t, err)
		assert.Equal(t, []string{"upsert", "replace:doc-1", "archive", "emit"}, rec.calls)
		require.Len(t, rec.pages, 2)
		assert.Equal(t, 1, rec.pages[0].Number)
		assert.Equal(t, "first page", rec.pages[0].Text)
		assert.Equal(t, harvest.PageExtracted, rec.pages[0].Status)
		assert.Equal(t, 2, rec.pages[1].Number)
		assert.Equal(t, "doc-1", rec.pages[1].DocumentID)
		assert.Equal(t, []string{"ab/cd/abcdef0123456789/report.pdf"}, rec.archived)
		require.Len(t, rec.emitted, 1)
		assert.Equal(t, harvest.DocumentText, rec.emitted[0].Type)
		assert.Equal(t, 2, rec.emitted[0].PageCount)
	})

	t.Run("back-fills author only when absent", func(t *testing.T) {
		t.Parallel()

		data := &harvest.PDFData{Author: "Embedded Author", Title: "Embedded Title", Pages: []string{"text"}}

		rec := &recorder{}
		i := &ingest.PDFIngestor{PDF: extractor(data), Store: rec.store()}
		err := i.Ingest(context.Background(), &harvest.Meta{CollectionID: "c1"}, writeFile(t, "a.pdf", ""))
		require.NoError(t, err)
		assert.Equal(t, "Embedded Author", rec.docs[0].Author)
		assert.Empty(t, rec.docs[0].Title, "title is never back-filled")

		rec = &recorder{}
		i = &ingest.PDFIngestor{PDF: extractor(data), Store: rec.store()}
		err = i.Ingest(context.Background(), &harvest.Meta{CollectionID: "c1", Author: "Registrar"}, writeFile(t, "b.pdf", ""))
		require.NoError(t, err)
		assert.Equal(t, "Registrar", rec.docs[0].Author)
	})

	t.Run("falls back to ocr for unusable pages", func(t *testing.T) {
		t.Parallel()

		var rendered []int
		var langs []string
		rec := &recorder{}
		i := &ingest.PDFIngestor{
			PDF: extractor(&harvest.PDFData{Pages: []string{"good text", "", "\x01\x02\x03\ufffd"}}),
			OCR: &mock.PageRenderer{
				RenderPDFPageFn: func(_ context.Context, _ string, page int, languages []string) (string, error) {
					rendered = append(rendered, page)
					langs = languages
					return "scanned text", nil
				},
			},
			Store: rec.store(),
		}

		err := i.Ingest(context.Background(), &harvest.Meta{CollectionID: "c1", Languages: []string{"sw"}}, writeFile(t, "a.pdf", ""))

		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, rendered)
		assert.Equal(t, []string{"sw"}, langs)
		assert.Equal(t, harvest.PageExtracted, rec.pages[0].Status)
		assert.Equal(t, harvest.PageOCR, rec.pages[1].Status)
		assert.Equal(t, "scanned text", rec.pages[1].Text)
		assert.Equal(t, harvest.PageOCR, rec.pages[2].Status)
	})

	t.Run("external failure marks the page and continues", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		i := &ingest.PDFIngestor{
			PDF: extractor(&harvest.PDFData{Pages: []string{"", "", "ok"}}),
			OCR: &mock.PageRenderer{
				RenderPDFPageFn: func(_ context.Context, _ string, page int, _ []string) (string, error) {
					if page == 1 {
						return "", harvest.Errorf(harvest.EEXTERNAL, "pdftoppm exited with status 1")
					}
					return "", nil
				},
			},
			Store:  rec.store(),
			Logger: quietLogger(),
		}

		err := i.Ingest(context.Background(), &harvest.Meta{CollectionID: "c1"}, writeFile(t, "a.pdf", ""))

		require.NoError(t, err)
		require.Len(t, rec.pages, 3)
		assert.Equal(t, harvest.PageFailed, rec.pages[0].Status)
		assert.Equal(t, "pdftoppm exited with status 1", rec.pages[0].Error)
		assert.Equal(t, harvest.PageOCR, rec.pages[1].Status)
		assert.Empty(t, rec.pages[1].Text, "successfully empty page")
		assert.Empty(t, rec.pages[1].Error)
		assert.Equal(t, harvest.PageExtracted, rec.pages[2].Status)
		assert.Len(t, rec.emitted, 1)
	})

	t.Run("unusable page without ocr is failed", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		i := &ingest.PDFIngestor{
			PDF:    extractor(&harvest.PDFData{Pages: []string{"Readable page text here.", "  \x0c "}}),
			Store:  rec.store(),
			Logger: quietLogger(),
		}

		err := i.Ingest(context.Background(), &harvest.Meta{CollectionID: "c1"}, writeFile(t, "a.pdf", ""))

		require.NoError(t, err)
		require.Len(t, rec.pages, 2)
		assert.Equal(t, harvest.PageExtracted, rec.pages[0].Status)
		assert.Equal(t, harvest.PageFailed, rec.pages[1].Status)
		assert.Empty(t, rec.pages[1].Text)
		assert.Equal(t, "OCR not configured", rec.pages[1].Error)
		assert.Len(t, rec.emitted, 1)
	})

	t.Run("configuration error aborts the document", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		i := &ingest.PDFIngestor{
			PDF: extractor(&harvest.PDFData{Pages: []string{""}}),
			OCR: &mock.PageRenderer{
				RenderPDFPageFn: func(context.Context, string, int, []string) (string, error) {
					return "", harvest.Errorf(harvest.ECONFIG, "TESSDATA_PREFIX is not set")
				},
			},
			Store: rec.store(),
		}

		err := i.Ingest(context.Background(), &harvest.Meta{CollectionID: "c1"}, writeFile(t, "a.pdf", ""))

		assert.Equal(t, harvest.ECONFIG, harvest.ErrorCode(err))
		assert.Empty(t, rec.calls)
	})

	t.Run("extraction failure aborts", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		i := &ingest.PDFIngestor{
			PDF: &mock.PDFExtractor{
				ExtractPDFFn: func(context.Context, string) (*harvest.PDFData, error) {
					return nil, errors.New("malformed xref")
				},
			},
			Store: rec.store(),
		}

		err := i.Ingest(context.Background(), &harvest.Meta{CollectionID: "c1"}, writeFile(t, "a.pdf", ""))

		assert.EqualError(t, err, "extract pdf: malformed xref")
		assert.Empty(t, rec.calls)
	})
}

func TestUsableText(t *testing.T) {
	t.Parallel()

	assert.True(t, ingest.UsableText("An ordinary sentence."))
	assert.True(t, ingest.UsableText("line one\nline two\ttabbed"))
	assert.False(t, ingest.UsableText(""))
	assert.False(t, ingest.UsableText("  \n\t "))
	assert.False(t, ingest.UsableText("\uf000\uf001\uf002abc"))
}
