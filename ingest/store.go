package ingest

import (
	"context"
	"fmt"

	"github.com/fwojciec/harvest"
)

// Store persists what an ingestor extracted. It upserts the document,
// replaces its pages, archives the original file and emits the document.
type Store struct {
	Documents harvest.DocumentService

	// Archive is optional.
	Archive harvest.Archive

	// Emitter is optional.
	Emitter harvest.DocumentEmitter
}

// Save stores doc and pages. The file at path is archived as a copy, since
// the caller still owns it.
func (s *Store) Save(ctx context.Context, doc *harvest.Document, pages []*harvest.Page, meta *harvest.Meta, path string) error {
	if err := s.Documents.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("store document: %w", err)
	}

	for i, p := range pages {
		p.DocumentID = doc.ID
		p.Number = i + 1
	}
	if err := s.Documents.ReplacePages(ctx, doc.ID, pages); err != nil {
		return fmt.Errorf("store pages: %w", err)
	}
	doc.PageCount = len(pages)

	if s.Archive != nil {
		if err := s.Archive.ArchiveFile(ctx, path, harvest.ArchiveKey(meta), false); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
	}

	if s.Emitter != nil {
		if err := s.Emitter.EmitDocument(ctx, doc); err != nil {
			return fmt.Errorf("emit document: %w", err)
		}
	}
	return nil
}
