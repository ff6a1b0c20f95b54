package ingest

import (
	"bytes"
	"context"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
)

var _ harvest.Ingestor = (*HTMLIngestor)(nil)

// HTMLIngestor stores the visible text of an HTML page as one page.
type HTMLIngestor struct {
	Store *Store
}

// Name implements harvest.Ingestor.
func (i *HTMLIngestor) Name() string { return "html" }

// Match returns 10 when the header looks like an HTML document, -1 otherwise.
func (i *HTMLIngestor) Match(header []byte) int {
	lower := bytes.ToLower(header)
	if bytes.Contains(lower, []byte("<!doctype html")) || bytes.Contains(lower, []byte("<html")) {
		return 10
	}
	return -1
}

// Ingest implements harvest.Ingestor. The page's <title> fills the document
// title when meta has none.
func (i *HTMLIngestor) Ingest(ctx context.Context, meta *harvest.Meta, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return harvest.WrapError(harvest.EINVALID, err, "parse html")
	}

	meta = meta.Clone()
	if !meta.Has(harvest.MetaTitle) {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find("script, style, noscript, template").Remove()
	text := collapseWhitespace(doc.Find("body").Text())

	d := harvest.NewDocument(meta, harvest.DocumentHTML)
	pages := []*harvest.Page{{Text: text, Status: harvest.PageExtracted}}
	return i.Store.Save(ctx, d, pages, meta, localPath)
}

// collapseWhitespace trims every line, collapses runs of blanks and drops
// empty lines.
func collapseWhitespace(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}
