package harvest

import (
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Column is a physical column of an introspected table.
// Identity is the (Table, Name) pair.
type Column struct {
	Table string
	Name  string
	Type  string
}

// TableSpec is a table name bound to its introspected columns.
type TableSpec struct {
	Name    string
	Columns []Column
}

// SplitColumnRef splits a "[table.]column" reference on the first dot.
func SplitColumnRef(ref string) (table, name string) {
	if t, n, ok := strings.Cut(ref, "."); ok {
		return t, n
	}
	return "", ref
}

// QuerySpec is the declarative description of one export query.
type QuerySpec struct {
	Table   string         `yaml:"table"`
	Tables  []string       `yaml:"tables"`
	Columns []string       `yaml:"columns"`
	Skip    []string       `yaml:"skip"`
	Filters Filters        `yaml:"filters"`
	Joins   []Join         `yaml:"joins"`
	Meta    map[string]any `yaml:"meta"`
}

// TableNames returns the tables named by the query, table before tables.
// Duplicates are kept; the resolver collapses them.
func (q *QuerySpec) TableNames() []string {
	var names []string
	if q.Table != "" {
		names = append(names, q.Table)
	}
	return append(names, q.Tables...)
}

// UnmarshalYAML rejects unknown keys before decoding.
func (q *QuerySpec) UnmarshalYAML(node *yaml.Node) error {
	if err := checkKeys(node, "query", "table", "tables", "columns", "skip", "filters", "joins", "meta"); err != nil {
		return err
	}
	type plain QuerySpec
	return node.Decode((*plain)(q))
}

// Filter asserts that a column equals a literal value.
type Filter struct {
	Column string
	Value  any
}

// Filters is an ordered list of filters decoded from a YAML mapping.
type Filters []Filter

// UnmarshalYAML decodes a mapping while keeping its key order.
func (f *Filters) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return Errorf(EINVALID, "filters: expected a mapping (line %d)", node.Line)
	}
	out := make(Filters, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return Errorf(EINVALID, "filter %q: value must be a scalar (line %d)", k.Value, v.Line)
		}
		var value any
		if err := v.Decode(&value); err != nil {
			return err
		}
		out = append(out, Filter{Column: k.Value, Value: value})
	}
	*f = out
	return nil
}

// Join asserts that two columns are equal.
type Join struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// UnmarshalYAML rejects unknown keys and requires both sides.
func (j *Join) UnmarshalYAML(node *yaml.Node) error {
	if err := checkKeys(node, "join", "left", "right"); err != nil {
		return err
	}
	type plain Join
	if err := node.Decode((*plain)(j)); err != nil {
		return err
	}
	if j.Left == "" || j.Right == "" {
		return Errorf(EINVALID, "join requires left and right (line %d)", node.Line)
	}
	return nil
}

// Projection is a selected column with its output alias.
type Projection struct {
	Column Column
	Alias  string
}

// Predicate is an equality condition. Join predicates set Right;
// filter predicates compare Column against Value.
type Predicate struct {
	Column Column
	Right  *Column
	Value  any
}

// ResolvedQuery is a fully resolved, dialect-neutral SELECT.
type ResolvedQuery struct {
	Projections []Projection
	Tables      []string
	Predicates  []Predicate
}

// Aliases returns the projection aliases in order.
func (q *ResolvedQuery) Aliases() []string {
	aliases := make([]string, len(q.Projections))
	for i, p := range q.Projections {
		aliases[i] = p.Alias
	}
	return aliases
}

// ExportJob is one query of one collection, ready to export.
type ExportJob struct {
	CollectionID string
	Name         string
	Meta         *Meta
	Query        *ResolvedQuery

	// Source identifies the database the query runs against. Fetches from
	// the same source share a rate limit.
	Source string
}

func checkKeys(node *yaml.Node, what string, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return Errorf(EINVALID, "%s: expected a mapping (line %d)", what, node.Line)
	}
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		k := node.Content[i]
		if !slices.Contains(allowed, k.Value) {
			return Errorf(EINVALID, "%s: unknown key %q (line %d)", what, k.Value, k.Line)
		}
		if seen[k.Value] {
			return Errorf(EINVALID, "%s: duplicate key %q (line %d)", what, k.Value, k.Line)
		}
		seen[k.Value] = true
	}
	return nil
}
