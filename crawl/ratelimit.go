package crawl

import (
	"context"
	"net/url"
	"sync"

	"github.com/fwojciec/harvest"
	"golang.org/x/time/rate"
)

var _ harvest.FetchLimiter = (*SourceLimiter)(nil)

// SourceLimiter rate limits batch fetches with one token bucket per source
// database, so crawls of different databases never wait on each other.
type SourceLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewSourceLimiter creates a SourceLimiter allowing rps fetches per second
// per source, with a burst of 1.
func NewSourceLimiter(rps float64) *SourceLimiter {
	return &SourceLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the source's bucket allows another fetch.
func (l *SourceLimiter) Wait(ctx context.Context, source string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[source]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rps), 1)
		l.limiters[source] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}

// SourceKey reduces a connection URL to the host it targets. URLs without
// a host (file databases) are keyed by their path.
func SourceKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Host != "" {
		return u.Host
	}
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Path
}
