package sqldb_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/sqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupSourceDB creates a SQLite database file populated by stmts and
// returns its harvest URL.
func setupSourceDB(t *testing.T, stmts ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return "sqlite://" + path
}

func openEngine(t *testing.T, url string) *sqldb.Engine {
	t.Helper()

	e, err := sqldb.Open(context.Background(), url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestParseURL(t *testing.T) {
	t.Parallel()

	t.Run("postgres keeps the url", func(t *testing.T) {
		t.Parallel()

		d, dsn, err := sqldb.ParseURL("postgres://u:p@db:5432/registry?sslmode=disable")

		require.NoError(t, err)
		assert.Equal(t, sqldb.Postgres, d)
		assert.Equal(t, "postgres://u:p@db:5432/registry?sslmode=disable", dsn)
	})

	t.Run("postgresql alias", func(t *testing.T) {
		t.Parallel()

		d, _, err := sqldb.ParseURL("postgresql://db/registry")

		require.NoError(t, err)
		assert.Equal(t, sqldb.Postgres, d)
	})

	t.Run("mysql url becomes a driver dsn", func(t *testing.T) {
		t.Parallel()

		d, dsn, err := sqldb.ParseURL("mysql://u:p@db/registry")

		require.NoError(t, err)
		assert.Equal(t, sqldb.MySQL, d)
		assert.Contains(t, dsn, "u:p@tcp(db:3306)/registry")
		assert.Contains(t, dsn, "parseTime=true")
	})

	t.Run("mysql requires a database", func(t *testing.T) {
		t.Parallel()

		_, _, err := sqldb.ParseURL("mysql://u:p@db:3306")

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("sqlite path", func(t *testing.T) {
		t.Parallel()

		d, dsn, err := sqldb.ParseURL("sqlite:///var/data/people.db")

		require.NoError(t, err)
		assert.Equal(t, sqldb.SQLite, d)
		assert.Equal(t, "/var/data/people.db", dsn)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		t.Parallel()

		_, _, err := sqldb.ParseURL("oracle://db/registry")

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		assert.Equal(t, "unsupported database scheme: oracle", harvest.ErrorMessage(err))
	})

	t.Run("missing scheme", func(t *testing.T) {
		t.Parallel()

		_, _, err := sqldb.ParseURL("people.db")

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}

func TestDialect_QuoteIdent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"people"`, sqldb.Postgres.QuoteIdent("people"))
	assert.Equal(t, `"we""ird"`, sqldb.SQLite.QuoteIdent(`we"ird`))
	assert.Equal(t, "`we``ird`", sqldb.MySQL.QuoteIdent("we`ird"))
}

func TestRender(t *testing.T) {
	t.Parallel()

	id := harvest.Column{Table: "orders", Name: "id"}
	customerID := harvest.Column{Table: "orders", Name: "customer_id"}
	custID := harvest.Column{Table: "customers", Name: "id"}
	name := harvest.Column{Table: "customers", Name: "name"}

	q := &harvest.ResolvedQuery{
		Projections: []harvest.Projection{
			{Column: id, Alias: "orders.id"},
			{Column: name, Alias: "customers.name"},
		},
		Tables: []string{"orders", "customers"},
		Predicates: []harvest.Predicate{
			{Column: name, Value: "Amina"},
			{Column: customerID, Right: &custID},
			{Column: id, Value: 7},
		},
	}

	t.Run("postgres numbers placeholders", func(t *testing.T) {
		t.Parallel()

		got, args := sqldb.Render(sqldb.Postgres, q)

		assert.Equal(t, `SELECT "orders"."id" AS "orders.id", "customers"."name" AS "customers.name" `+
			`FROM "orders", "customers" `+
			`WHERE "customers"."name" = $1 AND "orders"."customer_id" = "customers"."id" AND "orders"."id" = $2`, got)
		assert.Equal(t, []any{"Amina", 7}, args)
	})

	t.Run("mysql uses backticks", func(t *testing.T) {
		t.Parallel()

		got, args := sqldb.Render(sqldb.MySQL, q)

		assert.Equal(t, "SELECT `orders`.`id` AS `orders.id`, `customers`.`name` AS `customers.name` "+
			"FROM `orders`, `customers` "+
			"WHERE `customers`.`name` = ? AND `orders`.`customer_id` = `customers`.`id` AND `orders`.`id` = ?", got)
		assert.Equal(t, []any{"Amina", 7}, args)
	})

	t.Run("no predicates omits where", func(t *testing.T) {
		t.Parallel()

		got, args := sqldb.Render(sqldb.SQLite, &harvest.ResolvedQuery{
			Projections: []harvest.Projection{{Column: id, Alias: "id"}},
			Tables:      []string{"orders"},
		})

		assert.Equal(t, `SELECT "orders"."id" AS "id" FROM "orders"`, got)
		assert.Empty(t, args)
	})

	t.Run("literals are never interpolated", func(t *testing.T) {
		t.Parallel()

		got, args := sqldb.Render(sqldb.SQLite, &harvest.ResolvedQuery{
			Projections: []harvest.Projection{{Column: id, Alias: "id"}},
			Tables:      []string{"orders"},
			Predicates:  []harvest.Predicate{{Column: id, Value: "1' OR '1'='1"}},
		})

		assert.NotContains(t, got, "OR")
		assert.Equal(t, []any{"1' OR '1'='1"}, args)
	})

	t.Run("null literal renders IS NULL", func(t *testing.T) {
		t.Parallel()

		deletedAt := harvest.Column{Table: "orders", Name: "deleted_at"}
		got, args := sqldb.Render(sqldb.Postgres, &harvest.ResolvedQuery{
			Projections: []harvest.Projection{{Column: id, Alias: "id"}},
			Tables:      []string{"orders"},
			Predicates:  []harvest.Predicate{{Column: deletedAt, Value: nil}, {Column: id, Value: 7}},
		})

		assert.Equal(t, `SELECT "orders"."id" AS "id" FROM "orders" WHERE "orders"."deleted_at" IS NULL AND "orders"."id" = $1`, got)
		assert.Equal(t, []any{7}, args)
	})
}

func TestEngine_InspectTable(t *testing.T) {
	t.Parallel()

	url := setupSourceDB(t, `CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, country TEXT)`)
	e := openEngine(t, url)
	ctx := context.Background()

	t.Run("returns columns in declaration order", func(t *testing.T) {
		spec, err := e.InspectTable(ctx, "people")

		require.NoError(t, err)
		assert.Equal(t, "people", spec.Name)
		assert.Equal(t, []harvest.Column{
			{Table: "people", Name: "id", Type: "INTEGER"},
			{Table: "people", Name: "name", Type: "TEXT"},
			{Table: "people", Name: "country", Type: "TEXT"},
		}, spec.Columns)
	})

	t.Run("unknown table is a schema error", func(t *testing.T) {
		_, err := e.InspectTable(ctx, "persons")

		assert.Equal(t, harvest.ESCHEMA, harvest.ErrorCode(err))
	})
}

func TestEngine_Execute(t *testing.T) {
	t.Parallel()

	url := setupSourceDB(t,
		`CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, country TEXT)`,
		`INSERT INTO people VALUES (1, 'Amina', 'KE'), (2, 'Otieno', 'KE'), (3, 'Li', 'CN')`,
	)
	e := openEngine(t, url)
	ctx := context.Background()

	idCol := harvest.Column{Table: "people", Name: "id"}
	q := &harvest.ResolvedQuery{
		Projections: []harvest.Projection{{Column: idCol, Alias: "id"}},
		Tables:      []string{"people"},
		Predicates:  []harvest.Predicate{{Column: harvest.Column{Table: "people", Name: "country"}, Value: "KE"}},
	}

	cur, err := e.Execute(ctx, q)
	require.NoError(t, err)
	defer cur.Close()

	assert.Equal(t, []string{"id"}, cur.Columns())

	first, err := cur.FetchMany(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []harvest.Row{{int64(1)}}, first)

	second, err := cur.FetchMany(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []harvest.Row{{int64(2)}}, second)

	rest, err := cur.FetchMany(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestEngine_Execute_Failure(t *testing.T) {
	t.Parallel()

	e := openEngine(t, setupSourceDB(t, `CREATE TABLE people (id INTEGER)`))

	_, err := e.Execute(context.Background(), &harvest.ResolvedQuery{
		Projections: []harvest.Projection{{Column: harvest.Column{Table: "people", Name: "missing"}, Alias: "missing"}},
		Tables:      []string{"people"},
	})

	assert.Equal(t, harvest.ESTORAGE, harvest.ErrorCode(err))
}
