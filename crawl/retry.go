package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/harvest"
)

// DefaultRetryDelays returns the backoff delays for connection retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// OpenWithRetryDelays connects to a database, retrying failed attempts
// after each of delays in turn. Invalid URLs are not retried.
func OpenWithRetryDelays(ctx context.Context, rawURL string, opener harvest.EngineOpener, logger *slog.Logger, delays []time.Duration) (harvest.Engine, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		engine, err := opener.OpenEngine(ctx, rawURL)
		if err == nil {
			return engine, nil
		}
		lastErr = err

		if harvest.ErrorCode(err) == harvest.EINVALID {
			break
		}

		// Don't retry after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if logger != nil {
			logger.Warn("retry connect", "url", redact(rawURL), "attempt", attempt+2, "err", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}

// redact hides the password of a database URL.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "(unparseable url)"
	}
	return u.Redacted()
}
