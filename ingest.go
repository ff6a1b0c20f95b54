package harvest

import (
	"context"
	"path"
)

// HeaderSize is the number of leading file bytes ingestors match on.
const HeaderSize = 1024

// Ingestor extracts documents from files of one format.
type Ingestor interface {
	// Name identifies the ingestor in logs.
	Name() string

	// Match scores how well the ingestor handles a file starting with
	// header. Negative means it cannot handle the file.
	Match(header []byte) int

	// Ingest extracts the file at localPath into a document.
	Ingest(ctx context.Context, meta *Meta, localPath string) error
}

// IngestService accepts files for ingestion into a collection.
type IngestService interface {
	// IngestFile ingests the file at path. With move set the service takes
	// ownership of the file and the caller must not use it afterwards.
	IngestFile(ctx context.Context, meta *Meta, path string, move bool) error
}

// Archive stores original file bytes.
type Archive interface {
	// ArchiveFile stores the file at path under key. With move set the
	// source file is consumed; otherwise it is copied.
	ArchiveFile(ctx context.Context, path, key string, move bool) error
}

// ArchiveKey derives the archive key of a file from its metadata:
// the content hash fanned out into two directory levels, then the file name.
func ArchiveKey(meta *Meta) string {
	name := meta.FileName
	if name == "" {
		name = "data"
	}
	name = path.Base(name)
	h := meta.ContentHash
	if len(h) < 4 {
		return path.Join("misc", h, name)
	}
	return path.Join(h[:2], h[2:4], h, name)
}
