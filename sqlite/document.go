package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ harvest.DocumentService = (*DocumentService)(nil)

// DocumentService implements harvest.DocumentService using SQLite.
type DocumentService struct {
	db *DB
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(db *DB) *DocumentService {
	return &DocumentService{db: db}
}

const documentColumns = "id, collection_id, foreign_id, type, title, author, file_name, mime_type, " +
	"content_hash, languages, extra, page_count, created_at, updated_at"

func scanDocument(row rowScanner) (*harvest.Document, error) {
	var doc harvest.Document
	var foreignID sql.NullString
	var languages, extra, createdAt, updatedAt string

	if err := row.Scan(&doc.ID, &doc.CollectionID, &foreignID, &doc.Type, &doc.Title, &doc.Author,
		&doc.FileName, &doc.MimeType, &doc.ContentHash, &languages, &extra, &doc.PageCount,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc.ForeignID = foreignID.String

	if languages != "" {
		doc.Languages = strings.Split(languages, ",")
	}
	if err := json.Unmarshal([]byte(extra), &doc.Extra); err != nil {
		return nil, fmt.Errorf("failed to parse extra: %w", err)
	}

	var err error
	if doc.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if doc.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpsertDocument inserts a document or updates the one with the same
// collection and foreign id. Documents without a foreign id are always
// inserted.
func (s *DocumentService) UpsertDocument(ctx context.Context, doc *harvest.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	extra, err := json.Marshal(doc.Extra)
	if err != nil {
		return harvest.WrapError(harvest.EINVALID, err, "document extra: %v", err)
	}
	if doc.Extra == nil {
		extra = []byte("{}")
	}
	languages := strings.Join(doc.Languages, ",")

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existingID, createdAt string
	if doc.ForeignID != "" {
		err = tx.QueryRowContext(ctx,
			"SELECT id, created_at FROM documents WHERE collection_id = ? AND foreign_id = ?",
			doc.CollectionID, doc.ForeignID).Scan(&existingID, &createdAt)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}

	ts := now()
	if existingID == "" {
		doc.ID = uuid.New().String()
		doc.CreatedAt = ts
		doc.UpdatedAt = ts
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (id, collection_id, foreign_id, type, title, author, file_name, mime_type,
				content_hash, languages, extra, page_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, doc.ID, doc.CollectionID, nullString(doc.ForeignID), string(doc.Type), doc.Title, doc.Author,
			doc.FileName, doc.MimeType, doc.ContentHash, languages, string(extra), doc.PageCount,
			ts.Format(time.RFC3339), ts.Format(time.RFC3339))
		if err != nil {
			return err
		}
		return tx.Commit()
	}

	doc.ID = existingID
	if doc.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return err
	}
	doc.UpdatedAt = ts
	_, err = tx.ExecContext(ctx, `
		UPDATE documents
		SET type = ?, title = ?, author = ?, file_name = ?, mime_type = ?, content_hash = ?,
			languages = ?, extra = ?, page_count = ?, updated_at = ?
		WHERE id = ?
	`, string(doc.Type), doc.Title, doc.Author, doc.FileName, doc.MimeType, doc.ContentHash,
		languages, string(extra), doc.PageCount, ts.Format(time.RFC3339), doc.ID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// FindDocumentByID retrieves a document by ID.
func (s *DocumentService) FindDocumentByID(ctx context.Context, id string) (*harvest.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "document not found")
	}
	return doc, err
}

// FindDocuments retrieves documents matching the filter.
func (s *DocumentService) FindDocuments(ctx context.Context, filter harvest.DocumentFilter) ([]*harvest.Document, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + documentColumns + " FROM documents WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.CollectionID != nil {
		query.WriteString(" AND collection_id = ?")
		args = append(args, *filter.CollectionID)
	}
	if filter.ForeignID != nil {
		query.WriteString(" AND foreign_id = ?")
		args = append(args, *filter.ForeignID)
	}
	if filter.Type != nil {
		query.WriteString(" AND type = ?")
		args = append(args, string(*filter.Type))
	}

	query.WriteString(" ORDER BY created_at ASC, rowid ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*harvest.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// ReplacePages swaps the document's pages for the given ones in one
// transaction. Page IDs, document IDs and numbers are set on the pages.
func (s *DocumentService) ReplacePages(ctx context.Context, documentID string, pages []*harvest.Page) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", documentID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return harvest.Errorf(harvest.ENOTFOUND, "document not found")
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE document_id = ?", documentID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO pages (id, document_id, number, text, status, error) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range pages {
		if p.Status == "" {
			p.Status = harvest.PageExtracted
		}
		p.ID = uuid.New().String()
		p.DocumentID = documentID
		p.Number = i + 1
		if _, err := stmt.ExecContext(ctx, p.ID, p.DocumentID, p.Number, p.Text, string(p.Status), p.Error); err != nil {
			return fmt.Errorf("page %d: %w", p.Number, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET page_count = ?, updated_at = ? WHERE id = ?",
		len(pages), now().Format(time.RFC3339), documentID); err != nil {
		return err
	}

	return tx.Commit()
}

// FindPages returns the pages of a document ordered by number.
func (s *DocumentService) FindPages(ctx context.Context, documentID string) ([]*harvest.Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, number, text, status, error
		FROM pages
		WHERE document_id = ?
		ORDER BY number ASC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*harvest.Page
	for rows.Next() {
		var p harvest.Page
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Number, &p.Text, &p.Status, &p.Error); err != nil {
			return nil, err
		}
		pages = append(pages, &p)
	}

	return pages, rows.Err()
}

// DeleteDocument permanently removes a document and its pages.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return harvest.Errorf(harvest.ENOTFOUND, "document not found")
	}

	return nil
}
