// Package slog provides logging decorators for harvest services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// Ensure LoggingIngestService implements harvest.IngestService.
var _ harvest.IngestService = (*LoggingIngestService)(nil)

// LoggingIngestService wraps an IngestService with logging.
type LoggingIngestService struct {
	next   harvest.IngestService
	logger *slog.Logger
}

// NewLoggingIngestService creates a new LoggingIngestService.
func NewLoggingIngestService(next harvest.IngestService, logger *slog.Logger) *LoggingIngestService {
	return &LoggingIngestService{next: next, logger: logger}
}

// IngestFile delegates to the wrapped service and logs the operation.
func (s *LoggingIngestService) IngestFile(ctx context.Context, meta *harvest.Meta, path string, move bool) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("ingest",
			"foreign_id", meta.ForeignID,
			"file", meta.FileName,
			"move", move,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.IngestFile(ctx, meta, path, move)
}

// Ensure LoggingArchive implements harvest.Archive.
var _ harvest.Archive = (*LoggingArchive)(nil)

// LoggingArchive wraps an Archive with debug logging.
type LoggingArchive struct {
	next   harvest.Archive
	logger *slog.Logger
}

// NewLoggingArchive creates a new LoggingArchive.
func NewLoggingArchive(next harvest.Archive, logger *slog.Logger) *LoggingArchive {
	return &LoggingArchive{next: next, logger: logger}
}

func (a *LoggingArchive) ArchiveFile(ctx context.Context, path, key string, move bool) (err error) {
	defer func(begin time.Time) {
		a.logger.Debug("archive",
			"key", key,
			"move", move,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.ArchiveFile(ctx, path, key, move)
}
