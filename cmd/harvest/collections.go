package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/harvest"
)

// Run executes the collections command.
func (c *CollectionsCmd) Run(deps *Dependencies) error {
	filter := harvest.CollectionFilter{IncludeDeleted: c.All}
	if c.Category != "" {
		filter.Category = &c.Category
	}

	collections, err := deps.Collections.FindCollections(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	if len(collections) == 0 {
		fmt.Fprintln(deps.Stdout, "No collections found. Use 'harvest crawl' or 'harvest ingest' to create one.")
		return nil
	}

	for _, coll := range collections {
		line := fmt.Sprintf("%s  %s  %s", coll.ID, coll.ForeignID, coll.Label)
		if coll.Category != "" {
			line += "  [" + coll.Category + "]"
		}
		if coll.Deleted() {
			line += "  (deleted)"
		}
		fmt.Fprintln(deps.Stdout, line)
	}

	return nil
}

// findCollection resolves a collection by foreign id, then by crawl name.
func findCollection(ctx context.Context, svc harvest.CollectionService, ref string) (*harvest.Collection, error) {
	coll, err := svc.FindCollectionByForeignID(ctx, ref)
	if harvest.ErrorCode(err) != harvest.ENOTFOUND {
		return coll, err
	}
	coll, err = svc.FindCollectionByForeignID(ctx, harvest.CollectionForeignID(ref))
	if harvest.ErrorCode(err) == harvest.ENOTFOUND {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "collection %q not found", ref)
	}
	return coll, err
}
