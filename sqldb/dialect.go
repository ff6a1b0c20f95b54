package sqldb

import (
	"strconv"
	"strings"

	"github.com/fwojciec/harvest"
)

// Dialect holds the SQL syntax differences between supported databases.
type Dialect struct {
	Name     string
	driver   string
	quote    string
	numbered bool
}

// Supported dialects.
var (
	Postgres = Dialect{Name: "postgres", driver: "pgx", quote: `"`, numbered: true}
	MySQL    = Dialect{Name: "mysql", driver: "mysql", quote: "`"}
	SQLite   = Dialect{Name: "sqlite", driver: "sqlite3", quote: `"`}
)

// QuoteIdent quotes an identifier, doubling embedded quote characters.
func (d Dialect) QuoteIdent(name string) string {
	return d.quote + strings.ReplaceAll(name, d.quote, d.quote+d.quote) + d.quote
}

// Placeholder returns the bind parameter marker for the n-th argument (1-based).
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (d Dialect) column(c harvest.Column) string {
	return d.QuoteIdent(c.Table) + "." + d.QuoteIdent(c.Name)
}

// Render produces the SQL text and bind arguments of q. Filter literals are
// always bound, never interpolated; a nil literal renders as IS NULL.
func Render(d Dialect, q *harvest.ResolvedQuery) (string, []any) {
	var b strings.Builder
	var args []any

	b.WriteString("SELECT ")
	for i, p := range q.Projections {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.column(p.Column))
		b.WriteString(" AS ")
		b.WriteString(d.QuoteIdent(p.Alias))
	}

	b.WriteString(" FROM ")
	for i, t := range q.Tables {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdent(t))
	}

	for i, p := range q.Predicates {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(d.column(p.Column))
		if p.Right != nil {
			b.WriteString(" = ")
			b.WriteString(d.column(*p.Right))
			continue
		}
		if p.Value == nil {
			b.WriteString(" IS NULL")
			continue
		}
		b.WriteString(" = ")
		args = append(args, p.Value)
		b.WriteString(d.Placeholder(len(args)))
	}

	return b.String(), args
}
