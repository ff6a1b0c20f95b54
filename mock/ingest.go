package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.Ingestor = (*Ingestor)(nil)

// Ingestor is a mock implementation of harvest.Ingestor.
type Ingestor struct {
	NameFn   func() string
	MatchFn  func(header []byte) int
	IngestFn func(ctx context.Context, meta *harvest.Meta, localPath string) error
}

func (i *Ingestor) Name() string {
	return i.NameFn()
}

func (i *Ingestor) Match(header []byte) int {
	return i.MatchFn(header)
}

func (i *Ingestor) Ingest(ctx context.Context, meta *harvest.Meta, localPath string) error {
	return i.IngestFn(ctx, meta, localPath)
}

var _ harvest.IngestService = (*IngestService)(nil)

// IngestService is a mock implementation of harvest.IngestService.
type IngestService struct {
	IngestFileFn func(ctx context.Context, meta *harvest.Meta, path string, move bool) error
}

func (s *IngestService) IngestFile(ctx context.Context, meta *harvest.Meta, path string, move bool) error {
	return s.IngestFileFn(ctx, meta, path, move)
}

var _ harvest.Archive = (*Archive)(nil)

// Archive is a mock implementation of harvest.Archive.
type Archive struct {
	ArchiveFileFn func(ctx context.Context, path, key string, move bool) error
}

func (a *Archive) ArchiveFile(ctx context.Context, path, key string, move bool) error {
	return a.ArchiveFileFn(ctx, path, key, move)
}
