package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ harvest.CollectionService = (*CollectionService)(nil)

// CollectionService implements harvest.CollectionService using SQLite.
type CollectionService struct {
	db *DB
}

// NewCollectionService creates a new CollectionService.
func NewCollectionService(db *DB) *CollectionService {
	return &CollectionService{db: db}
}

const collectionColumns = "id, foreign_id, label, category, created_at, updated_at, deleted_at"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(row rowScanner) (*harvest.Collection, error) {
	var c harvest.Collection
	var createdAt, updatedAt string
	var deletedAt sql.NullString

	if err := row.Scan(&c.ID, &c.ForeignID, &c.Label, &c.Category, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	var err error
	if c.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	if c.DeletedAt, err = parseNullRFC3339(deletedAt, "deleted_at"); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateOrReuseCollection returns the collection with the given foreign id,
// creating it if needed and restoring it if it was soft-deleted.
func (s *CollectionService) CreateOrReuseCollection(ctx context.Context, collection *harvest.Collection) (*harvest.Collection, error) {
	if err := collection.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ts := now()
	existing, err := scanCollection(tx.QueryRowContext(ctx,
		"SELECT "+collectionColumns+" FROM collections WHERE foreign_id = ?", collection.ForeignID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		c := &harvest.Collection{
			ID:        uuid.New().String(),
			ForeignID: collection.ForeignID,
			Label:     collection.Label,
			Category:  collection.Category,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO collections (id, foreign_id, label, category, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.ID, c.ForeignID, c.Label, c.Category, ts.Format(time.RFC3339), ts.Format(time.RFC3339)); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return c, nil
	case err != nil:
		return nil, err
	}

	existing.Label = collection.Label
	existing.Category = collection.Category
	existing.UpdatedAt = ts
	existing.DeletedAt = nil
	if _, err := tx.ExecContext(ctx, `
		UPDATE collections
		SET label = ?, category = ?, updated_at = ?, deleted_at = NULL
		WHERE id = ?
	`, existing.Label, existing.Category, ts.Format(time.RFC3339), existing.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return existing, nil
}

// FindCollectionByID retrieves a collection by ID, including deleted ones.
func (s *CollectionService) FindCollectionByID(ctx context.Context, id string) (*harvest.Collection, error) {
	c, err := scanCollection(s.db.QueryRowContext(ctx,
		"SELECT "+collectionColumns+" FROM collections WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "collection not found")
	}
	return c, err
}

// FindCollectionByForeignID retrieves a live collection by foreign id.
func (s *CollectionService) FindCollectionByForeignID(ctx context.Context, foreignID string) (*harvest.Collection, error) {
	c, err := scanCollection(s.db.QueryRowContext(ctx,
		"SELECT "+collectionColumns+" FROM collections WHERE foreign_id = ? AND deleted_at IS NULL", foreignID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "collection not found")
	}
	return c, err
}

// FindCollections retrieves collections matching the filter.
func (s *CollectionService) FindCollections(ctx context.Context, filter harvest.CollectionFilter) ([]*harvest.Collection, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + collectionColumns + " FROM collections WHERE 1=1")

	if filter.ForeignID != nil {
		query.WriteString(" AND foreign_id = ?")
		args = append(args, *filter.ForeignID)
	}
	if filter.Category != nil {
		query.WriteString(" AND category = ?")
		args = append(args, *filter.Category)
	}
	if !filter.IncludeDeleted {
		query.WriteString(" AND deleted_at IS NULL")
	}

	query.WriteString(" ORDER BY created_at ASC, rowid ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*harvest.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}

	return collections, rows.Err()
}

// DeleteCollection soft-deletes a collection. Deleting an already deleted
// collection is a no-op.
func (s *CollectionService) DeleteCollection(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE collections SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		now().Format(time.RFC3339), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	_, err = s.FindCollectionByID(ctx, id)
	return err
}
