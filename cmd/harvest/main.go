package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
	"github.com/fwojciec/harvest/export"
	"github.com/fwojciec/harvest/fs"
	"github.com/fwojciec/harvest/ingest"
	"github.com/fwojciec/harvest/lru"
	"github.com/fwojciec/harvest/ocr"
	"github.com/fwojciec/harvest/pdf"
	"github.com/fwojciec/harvest/poppler"
	"github.com/fwojciec/harvest/s3"
	hslog "github.com/fwojciec/harvest/slog"
	"github.com/fwojciec/harvest/sqldb"
	"github.com/fwojciec/harvest/sqlite"
	"github.com/fwojciec/harvest/tesseract"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	CollectionService harvest.CollectionService
	DocumentService   harvest.DocumentService
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("harvest"),
		kong.Description("Crawl databases and ingest documents into searchable collections"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'harvest --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	dbPath := cli.DB
	if dbPath == "" {
		dbPath = defaultDBPath()
	}
	m.DB = sqlite.NewDB(dbPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set HARVEST_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", dbPath, err)
	}
	defer m.Close()

	m.CollectionService = sqlite.NewCollectionService(m.DB)
	m.DocumentService = sqlite.NewDocumentService(m.DB)
	deps.Collections = m.CollectionService
	deps.Documents = m.DocumentService

	switch cmd {
	case "crawl", "ingest":
		svc, err := m.ingestService(ctx, cli, cmd == "ingest", logger)
		if err != nil {
			return err
		}
		deps.Ingest = hslog.NewLoggingIngestService(svc, logger)
	}

	if cmd == "crawl" {
		var limiter harvest.FetchLimiter
		if cli.Crawl.RPS > 0 {
			limiter = crawl.NewSourceLimiter(cli.Crawl.RPS)
		}
		policy := crawl.AbortOnError
		if cli.Crawl.ContinueOnError {
			policy = crawl.ContinueOnError
		}
		deps.Crawler = &crawl.Crawler{
			Opener:      &sqldb.Opener{Logger: logger},
			Collections: m.CollectionService,
			Exporter: &export.Exporter{
				Ingest:    deps.Ingest,
				BatchSize: cli.Crawl.BatchSize,
				TempDir:   cli.TmpDir,
				Limiter:   limiter,
				Logger:    logger,
			},
			Policy:      policy,
			Concurrency: cli.Crawl.Concurrency,
			Logger:      logger,
		}
	}

	return kongCtx.Run(deps)
}

// ingestService wires the ingestion pipeline. When requireOCR is set a
// missing OCR configuration is an error; otherwise it is reported and PDF
// pages without usable text are stored as failed.
func (m *Main) ingestService(ctx context.Context, cli *CLI, requireOCR bool, logger *slog.Logger) (*ingest.Service, error) {
	archive, err := newArchive(ctx, cli)
	if err != nil {
		return nil, err
	}
	if archive != nil {
		archive = hslog.NewLoggingArchive(archive, logger)
	}

	store := &ingest.Store{
		Documents: m.DocumentService,
		Archive:   archive,
		Emitter:   hslog.NewDocumentEmitter(logger),
	}

	extractor := &ocr.Extractor{
		Engine: hslog.NewLoggingOCREngine(&tesseract.Engine{
			Bin:            cli.TesseractBin,
			TessdataPrefix: cli.TessdataPrefix,
		}, logger),
		Cache:          lru.NewOCRCache(sqlite.NewOCRCache(m.DB), lru.DefaultSize, 0),
		Rasterizer:     &poppler.Rasterizer{Bin: cli.PdftoppmBin},
		TessdataPrefix: cli.TessdataPrefix,
		Timeout:        cli.OCRTimeout,
		Logger:         logger,
	}

	pdfIngestor := &ingest.PDFIngestor{
		PDF:    pdf.NewExtractor(),
		OCR:    extractor,
		Store:  store,
		Logger: logger,
	}
	if err := extractor.Validate(); err != nil {
		if requireOCR {
			return nil, err
		}
		logger.Warn("OCR disabled", "err", harvest.ErrorMessage(err))
		pdfIngestor.OCR = nil
	}

	registry := ingest.NewRegistry(
		pdfIngestor,
		&ingest.HTMLIngestor{Store: store},
		&ingest.CSVIngestor{Store: store},
	)
	logger.Debug("ingestors registered", "names", registry.Names())

	return &ingest.Service{
		Registry: registry,
		WorkDir:  cli.TmpDir,
		Logger:   logger,
	}, nil
}

// newArchive returns the configured archive, or nil when archiving is off.
func newArchive(ctx context.Context, cli *CLI) (harvest.Archive, error) {
	switch {
	case cli.S3Bucket != "":
		a, err := s3.NewArchive(ctx, s3.Config{
			Bucket:    cli.S3Bucket,
			Region:    cli.AWSRegion,
			Prefix:    cli.S3Prefix,
			Endpoint:  cli.S3Endpoint,
			AccessKey: cli.S3AccessKey,
			SecretKey: cli.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case cli.ArchiveDir != "":
		return fs.NewArchive(cli.ArchiveDir), nil
	}
	return nil, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "harvest.db"
	}
	dir := filepath.Join(home, ".harvest")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "harvest.db")
}
