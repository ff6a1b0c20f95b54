package main

import (
	"fmt"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	cfg, err := harvest.LoadJobConfig(c.Config)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Crawling %d queries\n", event.Total)
		case crawl.ProgressCompleted:
			fmt.Fprintf(deps.Stdout, "  [%d/%d] %s/%s: %d rows\n",
				event.Completed, event.Total, event.Collection, event.Query, event.Rows)
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  [%d/%d] %s/%s failed: %v\n",
				event.Completed, event.Total, event.Collection, event.Query, event.Error)
		}
	}

	result, err := deps.Crawler.Crawl(deps.Ctx, cfg, progress)
	if result != nil {
		fmt.Fprintf(deps.Stdout, "Exported %d queries (%d rows), %d failed\n",
			result.Exported, result.Rows, result.Failed)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error crawling: %v\n", err)
		return err
	}
	if result.Failed > 0 {
		return harvest.Errorf(harvest.EINTERNAL, "%d queries failed", result.Failed)
	}
	return nil
}
