package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// Update records one write made through a MemoryStore.
type Update struct {
	JobID          string
	Status         Status
	ResultAssetID  string
	PreviewAssetID string
	ErrorMessage   string
}

// MemoryStore is an in-memory Store for tests and local runs.
// It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	updates []Update
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

// Put inserts or replaces a job record.
func (s *MemoryStore) Put(j *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *j
	if cp.Status == "" {
		cp.Status = StatusPending
	}
	s.jobs[j.ID] = &cp
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("get job %s: %w", id, ErrNotFound)
	}
	cp := *j
	return &cp, nil
}

func (s *MemoryStore) MarkProcessing(ctx context.Context, id string) error {
	return s.update(ctx, Update{JobID: id, Status: StatusProcessing}, func(j *Job) {
		j.Status = StatusProcessing
	})
}

func (s *MemoryStore) Complete(ctx context.Context, id, resultID, previewID string) error {
	u := Update{JobID: id, Status: StatusCompleted, ResultAssetID: resultID, PreviewAssetID: previewID}
	return s.update(ctx, u, func(j *Job) {
		j.Status = StatusCompleted
		j.ResultAssetID = resultID
		j.PreviewAssetID = previewID
		j.ErrorMessage = ""
	})
}

func (s *MemoryStore) Fail(ctx context.Context, id, message string) error {
	return s.update(ctx, Update{JobID: id, Status: StatusFailed, ErrorMessage: message}, func(j *Job) {
		j.Status = StatusFailed
		j.ErrorMessage = message
		j.ResultAssetID = ""
		j.PreviewAssetID = ""
	})
}

func (s *MemoryStore) update(ctx context.Context, u Update, apply func(*Job)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[u.JobID]
	if !ok {
		return fmt.Errorf("update job %s: %w", u.JobID, ErrNotFound)
	}
	apply(j)
	j.UpdatedAt = time.Now()
	s.updates = append(s.updates, u)
	return nil
}

// Updates returns every write made so far, in order.
func (s *MemoryStore) Updates() []Update {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Update, len(s.updates))
	copy(out, s.updates)
	return out
}
