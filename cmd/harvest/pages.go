package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/harvest"
)

// previewLen is the number of characters shown per page without --full.
const previewLen = 80

// Run executes the pages command.
func (c *PagesCmd) Run(deps *Dependencies) error {
	doc, err := deps.Documents.FindDocumentByID(deps.Ctx, c.Document)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	pages, err := deps.Documents.FindPages(deps.Ctx, doc.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	for _, p := range pages {
		fmt.Fprintf(deps.Stdout, "--- page %d (%s)\n", p.Number, p.Status)
		if p.Status == harvest.PageFailed {
			fmt.Fprintf(deps.Stdout, "error: %s\n", p.Error)
			continue
		}
		if c.Full {
			fmt.Fprintln(deps.Stdout, p.Text)
			continue
		}
		fmt.Fprintln(deps.Stdout, preview(p.Text))
	}

	return nil
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= previewLen {
		return text
	}
	return string(r[:previewLen-3]) + "..."
}
