package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocktruck/doc-validator/constants"
	"github.com/rocktruck/doc-validator/internal/common"
	"github.com/rocktruck/doc-validator/internal/entity"
)

// MemoryJobStore implements JobRepository in memory for tests and local
// development.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]entity.ProcessingJob
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[uuid.UUID]entity.ProcessingJob)}
}

func (s *MemoryJobStore) Create(ctx context.Context, job *entity.ProcessingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *MemoryJobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return common.ErrNotFound
	}
	job.Status = status
	s.jobs[id] = job
	return nil
}

func (s *MemoryJobStore) Get(ctx context.Context, id uuid.UUID) (*entity.ProcessingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := job
	return &out, nil
}

func (s *MemoryJobStore) GetByDocumentID(ctx context.Context, documentID string) (*entity.ProcessingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *entity.ProcessingJob
	for _, job := range s.jobs {
		if job.DocumentID != documentID {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			out := job
			latest = &out
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	return latest, nil
}

// MemoryDecisionStore implements DecisionRepository in memory. Rows are
// append-only, matching the Postgres store.
type MemoryDecisionStore struct {
	mu        sync.RWMutex
	decisions []entity.Decision
}

func NewMemoryDecisionStore() *MemoryDecisionStore {
	return &MemoryDecisionStore{}
}

func (s *MemoryDecisionStore) Save(ctx context.Context, decision *entity.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, *decision)
	return nil
}

func (s *MemoryDecisionStore) GetByDocumentID(ctx context.Context, documentID string) (*entity.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *entity.Decision
	for i := range s.decisions {
		d := s.decisions[i]
		if d.DocumentID != documentID {
			continue
		}
		if latest == nil || !d.ProcessedAt.Before(latest.ProcessedAt) {
			out := d
			latest = &out
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	return latest, nil
}

func (s *MemoryDecisionStore) List(ctx context.Context, from, to time.Time, limit int) ([]*entity.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[string]entity.Decision)
	for _, d := range s.decisions {
		if d.ProcessedAt.Before(from) || d.ProcessedAt.After(to) {
			continue
		}
		if prev, ok := latest[d.DocumentID]; !ok || !d.ProcessedAt.Before(prev.ProcessedAt) {
			latest[d.DocumentID] = d
		}
	}
	out := make([]*entity.Decision, 0, len(latest))
	for id := range latest {
		d := latest[id]
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProcessedAt.After(out[j].ProcessedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
