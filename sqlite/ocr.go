package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
)

var _ harvest.OCRCache = (*OCRCache)(nil)

// OCRCache implements harvest.OCRCache using SQLite.
type OCRCache struct {
	db *DB
}

// NewOCRCache creates a new OCRCache.
func NewOCRCache(db *DB) *OCRCache {
	return &OCRCache{db: db}
}

// GetOCR returns the cached text for the content and languages.
func (c *OCRCache) GetOCR(ctx context.Context, data []byte, languages []string) (string, bool, error) {
	var text string
	err := c.db.QueryRowContext(ctx, "SELECT text FROM ocr_cache WHERE key = ?",
		harvest.OCRCacheKey(data, languages)).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, harvest.WrapError(harvest.ESTORAGE, err, "read ocr cache: %v", err)
	}
	return text, true, nil
}

// SetOCR stores text, replacing any earlier entry for the same key.
func (c *OCRCache) SetOCR(ctx context.Context, data []byte, languages []string, text string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO ocr_cache (key, languages, text, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET text = excluded.text, created_at = excluded.created_at
	`, harvest.OCRCacheKey(data, languages), strings.Join(languages, "+"), text, now().Format(time.RFC3339))
	if err != nil {
		return harvest.WrapError(harvest.ESTORAGE, err, "write ocr cache: %v", err)
	}
	return nil
}
