// Package crawl drives database crawls. It ensures a collection exists for
// every configured collection and exports each of its queries.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/query"
	"golang.org/x/sync/errgroup"
)

// FailurePolicy decides what happens to a crawl when one query fails.
type FailurePolicy int

const (
	// AbortOnError stops the crawl at the first failed query.
	AbortOnError FailurePolicy = iota
	// ContinueOnError records the failure and moves on to the next query.
	ContinueOnError
)

// Crawler orchestrates crawls of external databases.
type Crawler struct {
	Opener      harvest.EngineOpener
	Collections harvest.CollectionService
	Exporter    harvest.Exporter
	Policy      FailurePolicy
	Concurrency int
	RetryDelays []time.Duration
	Logger      *slog.Logger
}

// Result holds the outcome of a crawl operation.
type Result struct {
	Exported int
	Failed   int
	Rows     int
	Failures []*QueryError
}

// QueryError reports a failed query by collection and query name.
type QueryError struct {
	Collection string
	Query      string
	Err        error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("collection %q, query %q: %v", e.Collection, e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ProgressEvent reports progress during a crawl operation.
type ProgressEvent struct {
	Type       ProgressType
	Completed  int
	Total      int
	Collection string
	Query      string
	Rows       int
	Error      error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// tracker serializes progress reporting across concurrent queries.
type tracker struct {
	mu        sync.Mutex
	progress  ProgressFunc
	completed int
	total     int
	result    Result
}

func (t *tracker) emit(ev ProgressEvent) {
	if t.progress == nil {
		return
	}
	ev.Total = t.total
	t.progress(ev)
}

func (t *tracker) done(collection, queryName string, rows int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completed++
	ev := ProgressEvent{
		Type:       ProgressCompleted,
		Completed:  t.completed,
		Collection: collection,
		Query:      queryName,
		Rows:       rows,
	}
	if err != nil {
		t.result.Failed++
		t.result.Failures = append(t.result.Failures, &QueryError{Collection: collection, Query: queryName, Err: err})
		ev.Type = ProgressFailed
		ev.Error = err
	} else {
		t.result.Exported++
		t.result.Rows += rows
	}
	t.emit(ev)
}

// Crawl connects to the configured database once and crawls every
// collection in order. With AbortOnError the first failed query ends the
// crawl and is returned as a *QueryError alongside the partial result.
func (c *Crawler) Crawl(ctx context.Context, cfg *harvest.JobConfig, progress ProgressFunc) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	engine, err := OpenWithRetryDelays(ctx, cfg.URL, c.Opener, c.logger(), delays)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer engine.Close()

	t := &tracker{progress: progress}
	for _, cc := range cfg.Collections {
		t.total += len(cc.Queries)
	}
	t.emit(ProgressEvent{Type: ProgressStarted})

	source := SourceKey(cfg.URL)
	for _, cc := range cfg.Collections {
		if err := c.crawlCollection(ctx, engine, source, cc, t); err != nil {
			return &t.result, err
		}
	}

	t.emit(ProgressEvent{Type: ProgressFinished, Completed: t.completed})
	return &t.result, nil
}

// CrawlCollection creates or reuses the collection described by cc and
// exports each of its queries through engine. Fetches are rate limited
// under source.
func (c *Crawler) CrawlCollection(ctx context.Context, engine harvest.Engine, source string, cc *harvest.CollectionConfig, progress ProgressFunc) (*Result, error) {
	t := &tracker{progress: progress, total: len(cc.Queries)}
	err := c.crawlCollection(ctx, engine, source, cc, t)
	return &t.result, err
}

func (c *Crawler) crawlCollection(ctx context.Context, engine harvest.Engine, source string, cc *harvest.CollectionConfig, t *tracker) error {
	coll, err := c.Collections.CreateOrReuseCollection(ctx, &harvest.Collection{
		ForeignID: harvest.CollectionForeignID(cc.Name),
		Label:     cc.Label,
		Category:  cc.Category,
	})
	if err != nil {
		return fmt.Errorf("collection %q: %w", cc.Name, err)
	}

	base, err := harvest.NewMeta(cc.Meta)
	if err != nil {
		return fmt.Errorf("collection %q: %w", cc.Name, err)
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, q := range cc.Queries {
		q := q
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				// An earlier query aborted the crawl.
				return nil
			}
			rows, err := c.crawlQuery(gctx, engine, source, coll, base, q)
			t.done(cc.Name, q.Name, rows, err)
			if err != nil {
				c.logger().Error("query failed", "collection", cc.Name, "query", q.Name, "err", err)
				if c.Policy == AbortOnError {
					return &QueryError{Collection: cc.Name, Query: q.Name, Err: err}
				}
			}
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	var qerr *QueryError
	if err != nil && !errors.As(err, &qerr) {
		return fmt.Errorf("collection %q: %w", cc.Name, err)
	}
	return err
}

func (c *Crawler) crawlQuery(ctx context.Context, engine harvest.Engine, source string, coll *harvest.Collection, base *harvest.Meta, q *harvest.NamedQuery) (int, error) {
	override, err := harvest.NewMeta(q.Spec.Meta)
	if err != nil {
		return 0, err
	}

	meta := base.Merge(override)
	meta.ForeignID = coll.ForeignID + ":" + q.Name
	meta.MimeType = "text/csv"
	if meta.FileName == "" {
		meta.FileName = q.Name + ".csv"
	}

	resolved, err := query.Build(ctx, engine, &q.Spec)
	if err != nil {
		return 0, err
	}

	return c.Exporter.Export(ctx, engine, &harvest.ExportJob{
		CollectionID: coll.ID,
		Name:         q.Name,
		Meta:         meta,
		Query:        resolved,
		Source:       source,
	})
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
