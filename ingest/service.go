// Package ingest turns local files into documents. A Registry picks the
// ingestor for each file by scoring its first bytes; ingestors extract
// pages, store them and archive the original file.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/harvest"
)

var _ harvest.IngestService = (*Service)(nil)

// Service implements harvest.IngestService on top of a Registry.
type Service struct {
	Registry *Registry

	// WorkDir receives files the service takes ownership of.
	// Empty means os.TempDir.
	WorkDir string

	Logger *slog.Logger
}

// IngestFile hashes the file, selects an ingestor from its header and runs
// it. With move set the file is first moved into WorkDir and removed once
// ingestion finishes, whatever the outcome.
func (s *Service) IngestFile(ctx context.Context, meta *harvest.Meta, path string, move bool) error {
	meta = meta.Clone()
	if meta.FileName == "" {
		meta.FileName = filepath.Base(path)
	}

	if move {
		owned, err := s.takeOwnership(path)
		if err != nil {
			return err
		}
		defer os.Remove(owned)
		path = owned
	}

	hash, header, err := scanFile(path)
	if err != nil {
		return err
	}
	meta.ContentHash = hash

	ingestor, err := s.Registry.Select(header)
	if err != nil {
		s.logger().Error("ingest failed", "foreign_id", meta.ForeignID, "file", meta.FileName, "err", err)
		return err
	}

	if err := ingestor.Ingest(ctx, meta, path); err != nil {
		s.logger().Error("ingest failed",
			"foreign_id", meta.ForeignID,
			"file", meta.FileName,
			"ingestor", ingestor.Name(),
			"err", err,
		)
		return fmt.Errorf("%s %s: %w", ingestor.Name(), meta.FileName, err)
	}
	return nil
}

// takeOwnership moves path into the work directory, copying across devices.
func (s *Service) takeOwnership(path string) (string, error) {
	f, err := os.CreateTemp(s.WorkDir, "harvest-ingest-*"+filepath.Ext(path))
	if err != nil {
		return "", fmt.Errorf("create work file: %w", err)
	}
	owned := f.Name()
	f.Close()

	if err := os.Rename(path, owned); err == nil {
		return owned, nil
	}

	if err := copyFile(path, owned); err != nil {
		os.Remove(owned)
		return "", fmt.Errorf("move %s: %w", filepath.Base(path), err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger().Warn("remove moved file", "path", path, "err", err)
	}
	return owned, nil
}

// scanFile returns the xxhash of the file and its first HeaderSize bytes.
func scanFile(path string) (string, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	header := make([]byte, harvest.HeaderSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read header: %w", err)
	}
	header = header[:n]

	h := xxhash.New()
	h.Write(header)
	if _, err := io.Copy(h, f); err != nil {
		return "", nil, fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), header, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
