package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/harvest"
)

var _ harvest.Ingestor = (*CSVIngestor)(nil)

// DefaultRowsPerPage is the number of CSV rows stored per page.
const DefaultRowsPerPage = 1000

// CSVIngestor stores delimited files as tabular documents.
type CSVIngestor struct {
	// RowsPerPage defaults to DefaultRowsPerPage.
	RowsPerPage int

	Store *Store
}

// Name implements harvest.Ingestor.
func (i *CSVIngestor) Name() string { return "csv" }

// Match returns 5 for text whose first line is a CSV record with several
// fields or a quoted field, -1 otherwise. A first line cut off by the
// header limit only needs to parse up to the cut.
func (i *CSVIngestor) Match(header []byte) int {
	if len(header) == 0 || bytes.IndexByte(header, 0) >= 0 || !validUTF8Prefix(header) {
		return -1
	}

	line, _, complete := bytes.Cut(header, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return -1
	}

	r := csv.NewReader(bytes.NewReader(line))
	// A header row longer than the header prefix ends inside a field.
	r.LazyQuotes = !complete
	record, err := r.Read()
	if err != nil {
		return -1
	}
	if len(record) < 2 && line[0] != '"' {
		return -1
	}
	return 5
}

// Ingest implements harvest.Ingestor. Rows are streamed into pages; each
// page starts with the header row and renders fields tab-separated.
func (i *CSVIngestor) Ingest(ctx context.Context, meta *harvest.Meta, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	per := i.RowsPerPage
	if per <= 0 {
		per = DefaultRowsPerPage
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return harvest.Errorf(harvest.EINVALID, "empty csv file")
	} else if err != nil {
		return harvest.WrapError(harvest.EINVALID, err, "read csv header")
	}
	headerLine := strings.Join(header, "\t")

	var pages []*harvest.Page
	var buf strings.Builder
	rows := 0
	flush := func() {
		pages = append(pages, &harvest.Page{Text: buf.String(), Status: harvest.PageExtracted})
		buf.Reset()
		rows = 0
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return harvest.WrapError(harvest.EINVALID, err, "read csv")
		}
		if rows == 0 {
			buf.WriteString(headerLine)
		}
		buf.WriteByte('\n')
		buf.WriteString(strings.Join(record, "\t"))
		rows++
		if rows == per {
			flush()
		}
	}
	if rows > 0 || len(pages) == 0 {
		if rows == 0 {
			buf.WriteString(headerLine)
		}
		flush()
	}

	doc := harvest.NewDocument(meta, harvest.DocumentTabular)
	if err := i.Store.Save(ctx, doc, pages, meta, localPath); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	return nil
}

// validUTF8Prefix reports whether b is valid UTF-8, allowing a rune cut
// off at the end.
func validUTF8Prefix(b []byte) bool {
	for k := 0; k < utf8.UTFMax && len(b) > 0; k++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}
