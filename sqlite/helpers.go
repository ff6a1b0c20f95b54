package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// parseRFC3339 parses an RFC3339 formatted timestamp string.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// parseNullRFC3339 parses an optional timestamp column.
func parseNullRFC3339(value sql.NullString, fieldName string) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseRFC3339(value.String, fieldName)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullString maps an empty string to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// appendPagination appends LIMIT and OFFSET clauses to a query builder if values are > 0.
// SQLite requires a LIMIT before OFFSET, so an offset alone uses LIMIT -1.
func appendPagination(query *strings.Builder, args *[]any, limit, offset int) {
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	} else if offset > 0 {
		query.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}

// now returns the current time truncated to the stored precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
