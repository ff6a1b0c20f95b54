package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.DocumentService = (*DocumentService)(nil)

// DocumentService is a mock implementation of harvest.DocumentService.
type DocumentService struct {
	UpsertDocumentFn   func(ctx context.Context, doc *harvest.Document) error
	FindDocumentByIDFn func(ctx context.Context, id string) (*harvest.Document, error)
	FindDocumentsFn    func(ctx context.Context, filter harvest.DocumentFilter) ([]*harvest.Document, error)
	ReplacePagesFn     func(ctx context.Context, documentID string, pages []*harvest.Page) error
	FindPagesFn        func(ctx context.Context, documentID string) ([]*harvest.Page, error)
	DeleteDocumentFn   func(ctx context.Context, id string) error
}

func (s *DocumentService) UpsertDocument(ctx context.Context, doc *harvest.Document) error {
	return s.UpsertDocumentFn(ctx, doc)
}

func (s *DocumentService) FindDocumentByID(ctx context.Context, id string) (*harvest.Document, error) {
	return s.FindDocumentByIDFn(ctx, id)
}

func (s *DocumentService) FindDocuments(ctx context.Context, filter harvest.DocumentFilter) ([]*harvest.Document, error) {
	return s.FindDocumentsFn(ctx, filter)
}

func (s *DocumentService) ReplacePages(ctx context.Context, documentID string, pages []*harvest.Page) error {
	return s.ReplacePagesFn(ctx, documentID, pages)
}

func (s *DocumentService) FindPages(ctx context.Context, documentID string) ([]*harvest.Page, error) {
	return s.FindPagesFn(ctx, documentID)
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	return s.DeleteDocumentFn(ctx, id)
}

var _ harvest.DocumentEmitter = (*DocumentEmitter)(nil)

// DocumentEmitter is a mock implementation of harvest.DocumentEmitter.
type DocumentEmitter struct {
	EmitDocumentFn func(ctx context.Context, doc *harvest.Document) error
}

func (e *DocumentEmitter) EmitDocument(ctx context.Context, doc *harvest.Document) error {
	return e.EmitDocumentFn(ctx, doc)
}
