// Package store keeps the history of finished scrape jobs.
package store

import (
	"context"
	"sync"

	"github.com/use-agent/scrapeconsole/models"
)

// JobStore persists job records.
type JobStore interface {
	// Save records a finished job.
	Save(ctx context.Context, job models.JobRecord) error

	// Recent returns up to limit jobs, newest first.
	Recent(ctx context.Context, limit int) ([]models.JobRecord, error)

	Close()
}

// MemoryStore is a bounded in-process JobStore.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs []models.JobRecord // oldest first
	max  int
}

// NewMemoryStore keeps at most max jobs. A non-positive max keeps 100.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 100
	}
	return &MemoryStore{max: max}
}

func (s *MemoryStore) Save(_ context.Context, job models.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, job)
	if over := len(s.jobs) - s.max; over > 0 {
		s.jobs = append([]models.JobRecord(nil), s.jobs[over:]...)
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]models.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.jobs) {
		limit = len(s.jobs)
	}
	out := make([]models.JobRecord, 0, limit)
	for i := len(s.jobs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.jobs[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() {}
