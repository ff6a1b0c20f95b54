package export

import (
	"bufio"
	"io"
	"strings"
)

// csvWriter writes records with every field quoted, as the export format
// requires. encoding/csv only quotes fields that need it.
type csvWriter struct {
	w *bufio.Writer
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{w: bufio.NewWriterSize(w, 64*1024)}
}

// Write writes one record terminated by a newline.
func (c *csvWriter) Write(record []string) error {
	for i, field := range record {
		if i > 0 {
			if err := c.w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := c.w.WriteByte('"'); err != nil {
			return err
		}
		if _, err := c.w.WriteString(strings.ReplaceAll(field, `"`, `""`)); err != nil {
			return err
		}
		if err := c.w.WriteByte('"'); err != nil {
			return err
		}
	}
	return c.w.WriteByte('\n')
}

// Flush writes buffered data to the underlying writer.
func (c *csvWriter) Flush() error {
	return c.w.Flush()
}
