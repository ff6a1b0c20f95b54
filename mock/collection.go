package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.CollectionService = (*CollectionService)(nil)

// CollectionService is a mock implementation of harvest.CollectionService.
type CollectionService struct {
	CreateOrReuseCollectionFn   func(ctx context.Context, collection *harvest.Collection) (*harvest.Collection, error)
	FindCollectionByIDFn        func(ctx context.Context, id string) (*harvest.Collection, error)
	FindCollectionByForeignIDFn func(ctx context.Context, foreignID string) (*harvest.Collection, error)
	FindCollectionsFn           func(ctx context.Context, filter harvest.CollectionFilter) ([]*harvest.Collection, error)
	DeleteCollectionFn          func(ctx context.Context, id string) error
}

func (s *CollectionService) CreateOrReuseCollection(ctx context.Context, collection *harvest.Collection) (*harvest.Collection, error) {
	return s.CreateOrReuseCollectionFn(ctx, collection)
}

func (s *CollectionService) FindCollectionByID(ctx context.Context, id string) (*harvest.Collection, error) {
	return s.FindCollectionByIDFn(ctx, id)
}

func (s *CollectionService) FindCollectionByForeignID(ctx context.Context, foreignID string) (*harvest.Collection, error) {
	return s.FindCollectionByForeignIDFn(ctx, foreignID)
}

func (s *CollectionService) FindCollections(ctx context.Context, filter harvest.CollectionFilter) ([]*harvest.Collection, error) {
	return s.FindCollectionsFn(ctx, filter)
}

func (s *CollectionService) DeleteCollection(ctx context.Context, id string) error {
	return s.DeleteCollectionFn(ctx, id)
}
