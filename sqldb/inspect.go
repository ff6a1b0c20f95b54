package sqldb

import (
	"context"

	"github.com/fwojciec/harvest"
)

// InspectTable implements harvest.SchemaInspector.
func (e *Engine) InspectTable(ctx context.Context, name string) (*harvest.TableSpec, error) {
	var query string
	switch e.dialect {
	case SQLite:
		query = `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`
	case Postgres:
		query = `SELECT column_name, data_type FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1
			ORDER BY ordinal_position`
	default:
		query = `SELECT column_name, data_type FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ?
			ORDER BY ordinal_position`
	}

	rows, err := e.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, harvest.WrapError(harvest.ESTORAGE, err, "inspect table %s", name)
	}
	defer rows.Close()

	spec := &harvest.TableSpec{Name: name}
	for rows.Next() {
		c := harvest.Column{Table: name}
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, harvest.WrapError(harvest.ESTORAGE, err, "inspect table %s", name)
		}
		spec.Columns = append(spec.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, harvest.WrapError(harvest.ESTORAGE, err, "inspect table %s", name)
	}

	if len(spec.Columns) == 0 {
		return nil, harvest.Errorf(harvest.ESCHEMA, "table not found: %s", name)
	}
	return spec, nil
}
