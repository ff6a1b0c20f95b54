package harvest

import (
	"context"
	"time"
)

// Collection groups documents that came from the same external source.
// A crawled database collection is identified by the foreign id
// "sql:<name>" so repeated crawls land in the same collection.
type Collection struct {
	ID        string     `json:"id"`
	ForeignID string     `json:"foreignId"`
	Label     string     `json:"label"`
	Category  string     `json:"category"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Validate returns an error if the collection contains invalid fields.
func (c *Collection) Validate() error {
	if c.ForeignID == "" {
		return Errorf(EINVALID, "collection foreign id required")
	}
	if c.Label == "" {
		return Errorf(EINVALID, "collection label required")
	}
	return nil
}

// Deleted reports whether the collection has been soft-deleted.
func (c *Collection) Deleted() bool {
	return c.DeletedAt != nil
}

// CollectionService represents a service for managing collections.
type CollectionService interface {
	// CreateOrReuseCollection returns the collection with the given foreign
	// id, creating it when absent. A soft-deleted collection with the same
	// foreign id is restored rather than duplicated. Label and category of
	// an existing collection are updated to the supplied values.
	CreateOrReuseCollection(ctx context.Context, collection *Collection) (*Collection, error)

	// FindCollectionByID retrieves a collection by ID.
	// Returns ENOTFOUND if the collection does not exist.
	FindCollectionByID(ctx context.Context, id string) (*Collection, error)

	// FindCollectionByForeignID retrieves a live collection by foreign id.
	// Returns ENOTFOUND if it does not exist or was deleted.
	FindCollectionByForeignID(ctx context.Context, foreignID string) (*Collection, error)

	// FindCollections retrieves collections matching the filter.
	FindCollections(ctx context.Context, filter CollectionFilter) ([]*Collection, error)

	// DeleteCollection soft-deletes a collection.
	// Returns ENOTFOUND if the collection does not exist.
	DeleteCollection(ctx context.Context, id string) error
}

// CollectionFilter represents a filter for FindCollections.
type CollectionFilter struct {
	ForeignID *string `json:"foreignId"`
	Category  *string `json:"category"`

	// IncludeDeleted also returns soft-deleted collections.
	IncludeDeleted bool `json:"includeDeleted"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// CollectionForeignID returns the foreign id of a crawled database collection.
func CollectionForeignID(name string) string {
	return "sql:" + name
}
