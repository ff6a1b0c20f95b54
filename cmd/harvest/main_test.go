package main_test

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/harvest"
	main "github.com/fwojciec/harvest/cmd/harvest"
	"github.com/fwojciec/harvest/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var commands = []string{"crawl", "ingest", "collections", "docs", "pages", "delete"}

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	for _, cmd := range commands {
		assert.Contains(t, stdout.String(), cmd, "Help should mention %s command", cmd)
	}
}

func TestCLI_S3Flags(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	parser, err := kong.New(cli, kong.Writers(&bytes.Buffer{}, &bytes.Buffer{}), kong.Exit(func(int) {}))
	require.NoError(t, err)

	_, err = parser.Parse([]string{
		"--s3-bucket", "archive",
		"--s3-prefix", "originals",
		"--s3-endpoint", "http://localhost:9000",
		"--s3-access-key", "minio",
		"--s3-secret-key", "minio123",
		"collections",
	})
	require.NoError(t, err)

	assert.Equal(t, "archive", cli.S3Bucket)
	assert.Equal(t, "originals", cli.S3Prefix)
	assert.Equal(t, "http://localhost:9000", cli.S3Endpoint)
	assert.Equal(t, "minio", cli.S3AccessKey)
	assert.Equal(t, "minio123", cli.S3SecretKey)
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	err := main.NewMain().Run(context.Background(), []string{"--help"}, stdout, &bytes.Buffer{})
	require.NoError(t, err)

	out := stdout.String()
	for _, cmd := range commands {
		assert.Contains(t, out, cmd)
	}
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "Flags:")
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	err := main.NewMain().Run(context.Background(), nil, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
}

func TestMain_Run_Crawl(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "people.db")
	seedSource(t, source)

	job := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(job, []byte(`
url: sqlite://`+source+`
collections:
  registry:
    label: Civil registry
    queries:
      everyone:
        table: people
        columns: [id, name]
      kenya:
        table: people
        columns: [name]
        filters:
          country: KE
`), 0o644))

	dbPath := filepath.Join(dir, "harvest.db")
	tmp := filepath.Join(dir, "tmp")
	require.NoError(t, os.Mkdir(tmp, 0o755))

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	err := main.NewMain().Run(context.Background(),
		[]string{"--db", dbPath, "--tmpdir", tmp, "crawl", job}, stdout, stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "Exported 2 queries (4 rows), 0 failed")

	db := sqlite.NewDB(dbPath)
	require.NoError(t, db.Open())
	defer db.Close()
	ctx := context.Background()

	coll, err := sqlite.NewCollectionService(db).FindCollectionByForeignID(ctx, "sql:registry")
	require.NoError(t, err)
	assert.Equal(t, "Civil registry", coll.Label)

	docs := sqlite.NewDocumentService(db)
	fid := "sql:registry:kenya"
	found, err := docs.FindDocuments(ctx, harvest.DocumentFilter{ForeignID: &fid})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, harvest.DocumentTabular, found[0].Type)
	assert.Equal(t, "kenya.csv", found[0].FileName)
	assert.Equal(t, "text/csv", found[0].MimeType)

	pages, err := docs.FindPages(ctx, found[0].ID)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "name\nAmina", pages[0].Text)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary files must not outlive the crawl")

	// A second crawl reuses the collection and documents.
	require.NoError(t, main.NewMain().Run(context.Background(),
		[]string{"--db", dbPath, "--tmpdir", tmp, "crawl", job}, &bytes.Buffer{}, &bytes.Buffer{}))
	all, err := docs.FindDocuments(ctx, harvest.DocumentFilter{CollectionID: &coll.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMain_Run_Ingest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	page := filepath.Join(dir, "report.html")
	require.NoError(t, os.WriteFile(page, []byte(
		"<!DOCTYPE html><html><head><title>Report</title></head><body><p>Revenue grew.</p></body></html>"), 0o644))
	archive := filepath.Join(dir, "archive")

	dbPath := filepath.Join(dir, "harvest.db")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	err := main.NewMain().Run(context.Background(), []string{
		"--db", dbPath,
		"--archive-dir", archive,
		"--tessdata-prefix", dir,
		"ingest", "reports", page,
	}, stdout, stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "Ingested")
	assert.FileExists(t, page, "ingest copies, the caller keeps the file")

	stdout.Reset()
	err = main.NewMain().Run(context.Background(), []string{"--db", dbPath, "docs", "reports"}, stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Report")
	assert.Contains(t, stdout.String(), "html")

	var archived int
	require.NoError(t, filepath.WalkDir(archive, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			archived++
		}
		return err
	}))
	assert.Equal(t, 1, archived)
}

func TestMain_Run_IngestRequiresOCRConfig(t *testing.T) {
	t.Setenv("TESSDATA_PREFIX", "")

	dir := t.TempDir()
	page := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(page, []byte("a,b\n1,2\n"), 0o644))

	err := main.NewMain().Run(context.Background(), []string{
		"--db", filepath.Join(dir, "harvest.db"),
		"ingest", "reports", page,
	}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, harvest.ECONFIG, harvest.ErrorCode(err))
}

func seedSource(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, country TEXT);
		INSERT INTO people VALUES (1, 'Amina', 'KE'), (2, 'Otieno', 'UG'), (3, 'Wanjiru', 'TZ');
	`)
	require.NoError(t, err)
}
