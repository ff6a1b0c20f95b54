package harvest

import (
	"context"
	"time"
)

// DocumentType classifies how a document's pages should be read.
type DocumentType string

// DocumentType constants, one per ingestor family.
const (
	DocumentText    DocumentType = "text"
	DocumentTabular DocumentType = "tabular"
	DocumentHTML    DocumentType = "html"
)

// Document represents one ingested file.
type Document struct {
	ID           string            `json:"id"`
	CollectionID string            `json:"collectionId"`
	ForeignID    string            `json:"foreignId"`
	Type         DocumentType      `json:"type"`
	Title        string            `json:"title"`
	Author       string            `json:"author"`
	FileName     string            `json:"fileName"`
	MimeType     string            `json:"mimeType"`
	ContentHash  string            `json:"contentHash"`
	Languages    []string          `json:"languages"`
	Extra        map[string]string `json:"extra"`
	PageCount    int               `json:"pageCount"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.CollectionID == "" {
		return Errorf(EINVALID, "document collection ID required")
	}
	switch d.Type {
	case DocumentText, DocumentTabular, DocumentHTML:
	default:
		return Errorf(EINVALID, "document type %q not supported", d.Type)
	}
	return nil
}

// NewDocument returns a document of the given type populated from meta.
func NewDocument(meta *Meta, typ DocumentType) *Document {
	return &Document{
		CollectionID: meta.CollectionID,
		ForeignID:    meta.ForeignID,
		Type:         typ,
		Title:        meta.Title,
		Author:       meta.Author,
		FileName:     meta.FileName,
		MimeType:     meta.MimeType,
		ContentHash:  meta.ContentHash,
		Languages:    append([]string(nil), meta.Languages...),
		Extra:        meta.Clone().Extra,
	}
}

// DocumentService represents a service for managing documents and their pages.
type DocumentService interface {
	// UpsertDocument creates a document or, when one with the same
	// collection and foreign id exists, updates it in place. The
	// document's ID and timestamps are set on return.
	UpsertDocument(ctx context.Context, doc *Document) error

	// FindDocumentByID retrieves a document by ID.
	// Returns ENOTFOUND if document does not exist.
	FindDocumentByID(ctx context.Context, id string) (*Document, error)

	// FindDocuments retrieves documents matching the filter.
	FindDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error)

	// ReplacePages deletes all pages of the document and inserts the given
	// pages numbered from 1, in one transaction. The document's page count
	// is updated to match.
	ReplacePages(ctx context.Context, documentID string, pages []*Page) error

	// FindPages returns the pages of a document ordered by number.
	FindPages(ctx context.Context, documentID string) ([]*Page, error)

	// DeleteDocument permanently removes a document and its pages.
	// Returns ENOTFOUND if document does not exist.
	DeleteDocument(ctx context.Context, id string) error
}

// DocumentFilter represents a filter for FindDocuments.
type DocumentFilter struct {
	ID           *string       `json:"id"`
	CollectionID *string       `json:"collectionId"`
	ForeignID    *string       `json:"foreignId"`
	Type         *DocumentType `json:"type"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// DocumentEmitter is notified once a document is fully processed.
type DocumentEmitter interface {
	EmitDocument(ctx context.Context, doc *Document) error
}
