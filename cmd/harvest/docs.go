package main

import (
	"fmt"

	"github.com/fwojciec/harvest"
)

// Run executes the docs command.
func (c *DocsCmd) Run(deps *Dependencies) error {
	coll, err := findCollection(deps.Ctx, deps.Collections, c.Collection)
	if err != nil {
		if harvest.ErrorCode(err) == harvest.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: collection %q not found. Use 'harvest collections' to see available collections.\n", c.Collection)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		}
		return err
	}

	docs, err := deps.Documents.FindDocuments(deps.Ctx, harvest.DocumentFilter{CollectionID: &coll.ID})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	if len(docs) == 0 {
		fmt.Fprintf(deps.Stdout, "Collection %s has no documents.\n", coll.ForeignID)
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Documents for %s (%d total):\n\n", coll.Label, len(docs))
	for i, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.FileName
		}
		fmt.Fprintf(deps.Stdout, "  %d. %s\n     %s  %s  %d pages\n", i+1, title, doc.ID, doc.Type, doc.PageCount)
	}

	return nil
}
