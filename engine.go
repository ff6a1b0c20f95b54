package harvest

import "context"

// SchemaInspector introspects tables of an external database.
type SchemaInspector interface {
	// InspectTable returns the table's columns in declaration order.
	// Returns ESCHEMA if the table does not exist.
	InspectTable(ctx context.Context, name string) (*TableSpec, error)
}

// Row is one result row, values in cursor column order.
type Row []any

// Cursor streams the rows of an executed query.
type Cursor interface {
	// Columns returns the result column names.
	Columns() []string

	// FetchMany returns up to n rows. An empty result means the cursor
	// is exhausted.
	FetchMany(ctx context.Context, n int) ([]Row, error)

	Close() error
}

// Engine is a connection to an externally owned database.
type Engine interface {
	SchemaInspector

	// Execute runs the query and returns a cursor over its rows.
	Execute(ctx context.Context, q *ResolvedQuery) (Cursor, error)

	Close() error
}

// EngineOpener connects to a database given its URL.
type EngineOpener interface {
	OpenEngine(ctx context.Context, url string) (Engine, error)
}

// FetchLimiter throttles batch fetches per source database.
type FetchLimiter interface {
	// Wait blocks until a fetch from source is allowed.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, source string) error
}

// Exporter writes the result of an export job to a file and hands the file
// to ingestion. It returns the number of rows exported.
type Exporter interface {
	Export(ctx context.Context, engine Engine, job *ExportJob) (int, error)
}
