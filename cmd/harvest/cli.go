package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx         context.Context
	Stdout      io.Writer
	Stderr      io.Writer
	Logger      *slog.Logger
	Collections harvest.CollectionService
	Documents   harvest.DocumentService
	Crawler     *crawl.Crawler
	Ingest      harvest.IngestService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB             string        `name:"db" env:"HARVEST_DB" help:"Path to the harvest database"`
	ArchiveDir     string        `name:"archive-dir" env:"HARVEST_ARCHIVE_DIR" help:"Directory for archived originals"`
	S3Bucket       string        `name:"s3-bucket" env:"HARVEST_S3_BUCKET" help:"S3 bucket for archived originals"`
	S3Prefix       string        `name:"s3-prefix" env:"HARVEST_S3_PREFIX" help:"Key prefix for archived originals in S3"`
	S3Endpoint     string        `name:"s3-endpoint" env:"HARVEST_S3_ENDPOINT" help:"Endpoint of an S3-compatible store"`
	S3AccessKey    string        `name:"s3-access-key" env:"HARVEST_S3_ACCESS_KEY" help:"Static S3 access key (default credential chain when empty)"`
	S3SecretKey    string        `name:"s3-secret-key" env:"HARVEST_S3_SECRET_KEY" help:"Static S3 secret key"`
	AWSRegion      string        `name:"aws-region" env:"AWS_REGION" help:"AWS region of the S3 bucket"`
	TessdataPrefix string        `name:"tessdata-prefix" env:"TESSDATA_PREFIX" help:"Tesseract language data directory"`
	PdftoppmBin    string        `name:"pdftoppm" env:"PDFTOPPM_BIN" default:"pdftoppm" help:"pdftoppm executable"`
	TesseractBin   string        `name:"tesseract" env:"TESSERACT_BIN" default:"tesseract" help:"tesseract executable"`
	TmpDir         string        `name:"tmpdir" env:"HARVEST_TMPDIR" help:"Directory for temporary files"`
	OCRTimeout     time.Duration `name:"ocr-timeout" env:"HARVEST_OCR_TIMEOUT" default:"2m" help:"Time limit for each external OCR process"`
	Verbose        bool          `short:"v" help:"Enable debug logging"`

	Crawl       CrawlCmd       `cmd:"" help:"Crawl a database as described by a job file"`
	Ingest      IngestCmd      `cmd:"" help:"Ingest local files into a collection"`
	Collections CollectionsCmd `cmd:"" help:"List collections"`
	Docs        DocsCmd        `cmd:"" help:"List documents of a collection"`
	Pages       PagesCmd       `cmd:"" help:"Show the pages of a document"`
	Delete      DeleteCmd      `cmd:"" help:"Delete a collection"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Config          string  `arg:"" type:"existingfile" help:"Job configuration file (YAML)"`
	ContinueOnError bool    `name:"continue-on-error" help:"Keep crawling after a query fails"`
	Concurrency     int     `short:"c" default:"1" help:"Queries exported concurrently per collection"`
	BatchSize       int     `default:"10000" help:"Rows fetched per round trip"`
	RPS             float64 `name:"rps" help:"Maximum batch fetches per second (0 for unlimited)"`
}

// IngestCmd is the "ingest" subcommand.
type IngestCmd struct {
	Collection string   `arg:"" help:"Collection name"`
	Paths      []string `arg:"" help:"Files to ingest"`
	Label      string   `help:"Collection label (defaults to the name)"`
	Category   string   `help:"Collection category"`
	Languages  []string `short:"l" name:"language" help:"Document language (repeatable)"`
	Title      string   `help:"Document title"`
	Author     string   `help:"Document author"`
}

// CollectionsCmd is the "collections" subcommand.
type CollectionsCmd struct {
	All      bool   `short:"a" help:"Include deleted collections"`
	Category string `help:"Only list collections of this category"`
}

// DocsCmd is the "docs" subcommand.
type DocsCmd struct {
	Collection string `arg:"" help:"Collection foreign id (for example sql:people) or name"`
}

// PagesCmd is the "pages" subcommand.
type PagesCmd struct {
	Document string `arg:"" help:"Document ID"`
	Full     bool   `help:"Show full page text"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	Collection string `arg:"" help:"Collection foreign id or name"`
	Force      bool   `help:"Confirm deletion"`
}
