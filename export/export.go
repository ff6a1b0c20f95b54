// Package export streams resolved queries into quote-all CSV files and
// hands them to ingestion.
package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/spf13/cast"
)

// DefaultBatchSize is the number of rows fetched per round trip.
const DefaultBatchSize = 10000

// Exporter writes export jobs to temporary files and ingests them.
type Exporter struct {
	Ingest harvest.IngestService

	// BatchSize bounds the rows held in memory. Defaults to DefaultBatchSize.
	BatchSize int

	// TempDir is where export files are created. Empty means os.TempDir.
	TempDir string

	// Limiter, when set, throttles batch fetches per job source.
	Limiter harvest.FetchLimiter

	Logger *slog.Logger
}

// Export runs the job's query on engine, writes the result to a temporary
// CSV file and hands it to ingestion with move semantics. The temporary
// file never outlives the call. It returns the number of rows written.
func (e *Exporter) Export(ctx context.Context, engine harvest.Engine, job *harvest.ExportJob) (rows int, err error) {
	begin := time.Now()
	logger := e.logger()

	f, err := os.CreateTemp(e.TempDir, "harvest-export-*.csv")
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	path := f.Name()
	closed := false
	defer func() {
		if !closed {
			f.Close()
		}
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logger.Warn("remove export file", "path", path, "err", rmErr)
		}
	}()

	rows, err = e.write(ctx, engine, job, f)
	if err != nil {
		return rows, err
	}

	closed = true
	if err := f.Close(); err != nil {
		return rows, fmt.Errorf("close export file: %w", err)
	}

	meta := &harvest.Meta{}
	if job.Meta != nil {
		meta = job.Meta.Clone()
	}
	meta.CollectionID = job.CollectionID
	if err := e.Ingest.IngestFile(ctx, meta, path, true); err != nil {
		return rows, fmt.Errorf("ingest export: %w", err)
	}

	logger.Info("exported", "query", job.Name, "rows", rows, "duration", time.Since(begin))
	return rows, nil
}

func (e *Exporter) write(ctx context.Context, engine harvest.Engine, job *harvest.ExportJob, f *os.File) (int, error) {
	aliases := job.Query.Aliases()
	w := newCSVWriter(f)
	if err := w.Write(aliases); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	cur, err := engine.Execute(ctx, job.Query)
	if err != nil {
		return 0, err
	}
	defer cur.Close()

	index, err := columnIndex(aliases, cur.Columns())
	if err != nil {
		return 0, err
	}

	size := e.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	rows := 0
	record := make([]string, len(aliases))
	for {
		if e.Limiter != nil {
			if err := e.Limiter.Wait(ctx, job.Source); err != nil {
				return rows, err
			}
		}

		batch, err := cur.FetchMany(ctx, size)
		if err != nil {
			return rows, err
		}
		if len(batch) == 0 {
			break
		}

		for _, row := range batch {
			for i, pos := range index {
				record[i] = stringify(row[pos])
			}
			if err := w.Write(record); err != nil {
				return rows, fmt.Errorf("write row: %w", err)
			}
			rows++
		}
	}

	if err := w.Flush(); err != nil {
		return rows, fmt.Errorf("write rows: %w", err)
	}
	return rows, nil
}

// columnIndex maps each alias to its position in the cursor's columns.
func columnIndex(aliases, columns []string) ([]int, error) {
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		pos[c] = i
	}
	index := make([]int, len(aliases))
	for i, a := range aliases {
		p, ok := pos[a]
		if !ok {
			return nil, harvest.Errorf(harvest.ESTORAGE, "result has no column %q", a)
		}
		index[i] = p
	}
	return index, nil
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
