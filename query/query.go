// Package query resolves declarative query specs against introspected
// table schemas and composes them into dialect-neutral SELECT statements.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/harvest"
)

// Resolver resolves column references against a fixed set of tables.
type Resolver struct {
	tables []*harvest.TableSpec
}

// NewResolver introspects each named table once. Duplicate names collapse
// to one table; first-seen order is kept.
func NewResolver(ctx context.Context, inspector harvest.SchemaInspector, names []string) (*Resolver, error) {
	if len(names) == 0 {
		return nil, harvest.Errorf(harvest.EINVALID, "query requires at least one table")
	}

	seen := make(map[string]bool, len(names))
	r := &Resolver{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		spec, err := inspector.InspectTable(ctx, name)
		if err != nil {
			return nil, err
		}
		r.tables = append(r.tables, spec)
	}
	return r, nil
}

// Tables returns the in-scope tables in order.
func (r *Resolver) Tables() []*harvest.TableSpec {
	return r.tables
}

// Column resolves a "[table.]column" reference to exactly one column.
func (r *Resolver) Column(ref string) (harvest.Column, error) {
	qualifier, name := harvest.SplitColumnRef(ref)

	var matches []harvest.Column
	for _, t := range r.tables {
		if qualifier != "" && t.Name != qualifier {
			continue
		}
		for _, c := range t.Columns {
			if c.Name == name {
				matches = append(matches, c)
			}
		}
	}

	switch len(matches) {
	case 0:
		return harvest.Column{}, harvest.Errorf(harvest.ENOTFOUND, "column not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return harvest.Column{}, harvest.Errorf(harvest.EAMBIGUOUS, "ambiguous column %s: found in %s", ref, tableList(matches))
	}
}

// Projection returns the columns to select. Explicit columns are resolved
// in order; otherwise every column of every table is selected except the
// skipped ones, compared by resolved identity.
func (r *Resolver) Projection(spec *harvest.QuerySpec) ([]harvest.Column, error) {
	if len(spec.Columns) > 0 {
		cols := make([]harvest.Column, 0, len(spec.Columns))
		for _, ref := range spec.Columns {
			c, err := r.Column(ref)
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
		}
		return cols, nil
	}

	skip := make(map[harvest.Column]bool, len(spec.Skip))
	for _, ref := range spec.Skip {
		c, err := r.Column(ref)
		if err != nil {
			return nil, err
		}
		skip[identity(c)] = true
	}

	var cols []harvest.Column
	for _, t := range r.tables {
		for _, c := range t.Columns {
			if skip[identity(c)] {
				continue
			}
			cols = append(cols, c)
		}
	}
	return cols, nil
}

// Alias returns the output name of a column: the bare column name when a
// single table is in scope, "<table>.<column>" otherwise.
func (r *Resolver) Alias(c harvest.Column) string {
	if len(r.tables) > 1 {
		return c.Table + "." + c.Name
	}
	return c.Name
}

func identity(c harvest.Column) harvest.Column {
	return harvest.Column{Table: c.Table, Name: c.Name}
}

func tableList(cols []harvest.Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Table
	}
	return strings.Join(names, ", ")
}

// Build resolves spec into a ResolvedQuery. Predicates are the filters in
// order followed by the joins in order.
func Build(ctx context.Context, inspector harvest.SchemaInspector, spec *harvest.QuerySpec) (*harvest.ResolvedQuery, error) {
	r, err := NewResolver(ctx, inspector, spec.TableNames())
	if err != nil {
		return nil, err
	}

	cols, err := r.Projection(spec)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, harvest.Errorf(harvest.EINVALID, "query selects no columns")
	}

	q := &harvest.ResolvedQuery{}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		alias := r.Alias(c)
		if seen[alias] {
			return nil, harvest.Errorf(harvest.EINVALID, "duplicate column alias: %s", alias)
		}
		seen[alias] = true
		q.Projections = append(q.Projections, harvest.Projection{Column: c, Alias: alias})
	}

	for _, t := range r.tables {
		q.Tables = append(q.Tables, t.Name)
	}

	for _, f := range spec.Filters {
		c, err := r.Column(f.Column)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		q.Predicates = append(q.Predicates, harvest.Predicate{Column: c, Value: f.Value})
	}

	for _, j := range spec.Joins {
		left, err := r.Column(j.Left)
		if err != nil {
			return nil, fmt.Errorf("join: %w", err)
		}
		right, err := r.Column(j.Right)
		if err != nil {
			return nil, fmt.Errorf("join: %w", err)
		}
		q.Predicates = append(q.Predicates, harvest.Predicate{Column: left, Right: &right})
	}

	return q, nil
}
