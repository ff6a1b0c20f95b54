package ingest

import (
	"sync"

	"github.com/fwojciec/harvest"
)

// Registry selects the ingestor that best matches a file header.
type Registry struct {
	mu        sync.RWMutex
	ingestors []harvest.Ingestor
}

// NewRegistry creates a Registry with the given ingestors registered in order.
func NewRegistry(ingestors ...harvest.Ingestor) *Registry {
	r := &Registry{}
	for _, i := range ingestors {
		r.Register(i)
	}
	return r
}

// Register adds an ingestor. On equal scores, earlier registrations win.
func (r *Registry) Register(i harvest.Ingestor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingestors = append(r.ingestors, i)
}

// Select returns the ingestor with the highest non-negative score for header.
// Returns EUNSUPPORTED when no ingestor accepts the file.
func (r *Registry) Select(header []byte) (harvest.Ingestor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best harvest.Ingestor
	bestScore := -1
	for _, i := range r.ingestors {
		score := i.Match(header)
		if score < 0 || score <= bestScore {
			continue
		}
		best, bestScore = i, score
	}
	if best == nil {
		return nil, harvest.Errorf(harvest.EUNSUPPORTED, "no ingestor accepts this file format")
	}
	return best, nil
}

// Names returns the registered ingestor names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.ingestors))
	for i, ing := range r.ingestors {
		names[i] = ing.Name()
	}
	return names
}
