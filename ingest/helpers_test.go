package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/ingest"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/require"
)

// recorder captures what an ingestor stores.
type recorder struct {
	docs     []*harvest.Document
	pages    []*harvest.Page
	archived []string
	emitted  []*harvest.Document
	calls    []string
}

func (r *recorder) store() *ingest.Store {
	return &ingest.Store{
		Documents: &mock.DocumentService{
			UpsertDocumentFn: func(_ context.Context, doc *harvest.Document) error {
				r.calls = append(r.calls, "upsert")
				doc.ID = "doc-1"
				r.docs = append(r.docs, doc)
				return nil
			},
			ReplacePagesFn: func(_ context.Context, id string, pages []*harvest.Page) error {
				r.calls = append(r.calls, "replace:"+id)
				r.pages = pages
				return nil
			},
		},
		Archive: &mock.Archive{
			ArchiveFileFn: func(_ context.Context, path, key string, move bool) error {
				r.calls = append(r.calls, "archive")
				if move {
					panic("archive must copy")
				}
				if _, err := os.Stat(path); err != nil {
					return err
				}
				r.archived = append(r.archived, key)
				return nil
			},
		},
		Emitter: &mock.DocumentEmitter{
			EmitDocumentFn: func(_ context.Context, doc *harvest.Document) error {
				r.calls = append(r.calls, "emit")
				r.emitted = append(r.emitted, doc)
				return nil
			},
		},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
