package slog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
)

// Ensure LoggingOCREngine implements harvest.OCREngine.
var _ harvest.OCREngine = (*LoggingOCREngine)(nil)

// LoggingOCREngine wraps an OCREngine with logging.
type LoggingOCREngine struct {
	next   harvest.OCREngine
	logger *slog.Logger
}

// NewLoggingOCREngine creates a new LoggingOCREngine.
func NewLoggingOCREngine(next harvest.OCREngine, logger *slog.Logger) *LoggingOCREngine {
	return &LoggingOCREngine{next: next, logger: logger}
}

// Recognize delegates to the wrapped engine and logs the characters found.
func (e *LoggingOCREngine) Recognize(ctx context.Context, image []byte, languages []string) (text string, err error) {
	defer func(begin time.Time) {
		e.logger.Info("ocr",
			"languages", strings.Join(languages, "+"),
			"bytes", len(image),
			"chars", len(text),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Recognize(ctx, image, languages)
}
