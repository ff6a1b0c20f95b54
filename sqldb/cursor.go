package sqldb

import (
	"context"
	"database/sql"

	"github.com/fwojciec/harvest"
)

var _ harvest.Cursor = (*Cursor)(nil)

// Cursor streams rows from an executed query.
type Cursor struct {
	rows    *sql.Rows
	columns []string
	done    bool
}

// Columns returns the result column names.
func (c *Cursor) Columns() []string {
	return c.columns
}

// FetchMany reads up to n rows. It never buffers more than n rows.
func (c *Cursor) FetchMany(ctx context.Context, n int) ([]harvest.Row, error) {
	if c.done {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var batch []harvest.Row
	for len(batch) < n {
		if !c.rows.Next() {
			c.done = true
			break
		}
		values := make(harvest.Row, len(c.columns))
		ptrs := make([]any, len(c.columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := c.rows.Scan(ptrs...); err != nil {
			return nil, harvest.WrapError(harvest.ESTORAGE, err, "scan row")
		}
		batch = append(batch, values)
	}

	if c.done {
		if err := c.rows.Err(); err != nil {
			return nil, harvest.WrapError(harvest.ESTORAGE, err, "iterate rows")
		}
	}
	return batch, nil
}

// Close releases the underlying result set.
func (c *Cursor) Close() error {
	return c.rows.Close()
}
