package slog

import (
	"context"
	"log/slog"

	"github.com/fwojciec/harvest"
)

// Ensure DocumentEmitter implements harvest.DocumentEmitter.
var _ harvest.DocumentEmitter = (*DocumentEmitter)(nil)

// DocumentEmitter reports finished documents to the log.
type DocumentEmitter struct {
	logger *slog.Logger
}

// NewDocumentEmitter creates a new DocumentEmitter.
func NewDocumentEmitter(logger *slog.Logger) *DocumentEmitter {
	return &DocumentEmitter{logger: logger}
}

func (e *DocumentEmitter) EmitDocument(_ context.Context, doc *harvest.Document) error {
	e.logger.Info("document ready",
		"id", doc.ID,
		"collection_id", doc.CollectionID,
		"foreign_id", doc.ForeignID,
		"type", string(doc.Type),
		"pages", doc.PageCount,
	)
	return nil
}
