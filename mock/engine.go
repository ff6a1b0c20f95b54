package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.SchemaInspector = (*SchemaInspector)(nil)

// SchemaInspector is a mock implementation of harvest.SchemaInspector.
type SchemaInspector struct {
	InspectTableFn func(ctx context.Context, name string) (*harvest.TableSpec, error)
}

func (s *SchemaInspector) InspectTable(ctx context.Context, name string) (*harvest.TableSpec, error) {
	return s.InspectTableFn(ctx, name)
}

var _ harvest.Engine = (*Engine)(nil)

// Engine is a mock implementation of harvest.Engine.
type Engine struct {
	InspectTableFn func(ctx context.Context, name string) (*harvest.TableSpec, error)
	ExecuteFn      func(ctx context.Context, q *harvest.ResolvedQuery) (harvest.Cursor, error)
	CloseFn        func() error
}

func (e *Engine) InspectTable(ctx context.Context, name string) (*harvest.TableSpec, error) {
	return e.InspectTableFn(ctx, name)
}

func (e *Engine) Execute(ctx context.Context, q *harvest.ResolvedQuery) (harvest.Cursor, error) {
	return e.ExecuteFn(ctx, q)
}

func (e *Engine) Close() error {
	return e.CloseFn()
}

var _ harvest.Cursor = (*Cursor)(nil)

// Cursor is a mock implementation of harvest.Cursor.
type Cursor struct {
	ColumnsFn   func() []string
	FetchManyFn func(ctx context.Context, n int) ([]harvest.Row, error)
	CloseFn     func() error
}

func (c *Cursor) Columns() []string {
	return c.ColumnsFn()
}

func (c *Cursor) FetchMany(ctx context.Context, n int) ([]harvest.Row, error) {
	return c.FetchManyFn(ctx, n)
}

func (c *Cursor) Close() error {
	return c.CloseFn()
}

var _ harvest.EngineOpener = (*EngineOpener)(nil)

// EngineOpener is a mock implementation of harvest.EngineOpener.
type EngineOpener struct {
	OpenEngineFn func(ctx context.Context, url string) (harvest.Engine, error)
}

func (o *EngineOpener) OpenEngine(ctx context.Context, url string) (harvest.Engine, error) {
	return o.OpenEngineFn(ctx, url)
}

var _ harvest.Exporter = (*Exporter)(nil)

// Exporter is a mock implementation of harvest.Exporter.
type Exporter struct {
	ExportFn func(ctx context.Context, engine harvest.Engine, job *harvest.ExportJob) (int, error)
}

func (e *Exporter) Export(ctx context.Context, engine harvest.Engine, job *harvest.ExportJob) (int, error) {
	return e.ExportFn(ctx, engine, job)
}

var _ harvest.FetchLimiter = (*FetchLimiter)(nil)

// FetchLimiter is a mock implementation of harvest.FetchLimiter.
type FetchLimiter struct {
	WaitFn func(ctx context.Context, source string) error
}

func (l *FetchLimiter) Wait(ctx context.Context, source string) error {
	return l.WaitFn(ctx, source)
}
