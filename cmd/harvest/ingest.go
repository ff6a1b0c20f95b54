package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/harvest"
)

// Run executes the ingest command. Each file is ingested independently;
// failures are reported and the remaining files still run.
func (c *IngestCmd) Run(deps *Dependencies) error {
	label := c.Label
	if label == "" {
		label = c.Collection
	}

	coll, err := deps.Collections.CreateOrReuseCollection(deps.Ctx, &harvest.Collection{
		ForeignID: c.Collection,
		Label:     label,
		Category:  c.Category,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	var failed int
	for _, path := range c.Paths {
		meta := &harvest.Meta{
			CollectionID: coll.ID,
			ForeignID:    filepath.Base(path),
			FileName:     filepath.Base(path),
			Title:        c.Title,
			Author:       c.Author,
			Languages:    c.Languages,
		}

		var size int64
		if fi, err := os.Stat(path); err == nil {
			size = fi.Size()
		}

		if err := deps.Ingest.IngestFile(deps.Ctx, meta, path, false); err != nil {
			failed++
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(deps.Stdout, "  Ingested %s (%s)\n", path, formatBytes(size))
	}

	if failed > 0 {
		return harvest.Errorf(harvest.EINTERNAL, "%d of %d files failed", failed, len(c.Paths))
	}
	return nil
}

// formatBytes formats bytes in human-readable form.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
