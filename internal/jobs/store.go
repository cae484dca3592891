package jobs

import (
	"context"
	"sync"

	"docintel/internal/entity"
)

// Store is the shared state store for analysis jobs.
//
// NOTE: uploaded file bytes never enter the store; it only tracks
// status/progress/results so that polling stays consistent across restarts
// when a Redis backend is configured.
type Store interface {
	Create(ctx context.Context, job *entity.Job) error
	Get(ctx context.Context, id string) (*entity.Job, bool, error)
	Update(ctx context.Context, id string, fn func(j *entity.Job)) (*entity.Job, bool, error)
}

type InMemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*entity.Job
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{jobs: make(map[string]*entity.Job)}
}

func (s *InMemoryStore) Create(_ context.Context, job *entity.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = copyJob(job)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*entity.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j == nil {
		return nil, false, nil
	}
	// Return a copy to avoid accidental mutation/data races outside the lock.
	return copyJob(j), true, nil
}

func (s *InMemoryStore) Update(_ context.Context, id string, fn func(j *entity.Job)) (*entity.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, false, nil
	}
	fn(j)
	return copyJob(j), true, nil
}

// copyJob deep-copies a job so callers can never mutate shared state.
func copyJob(j *entity.Job) *entity.Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	cp.Files = make([]entity.FileProgress, len(j.Files))
	for i, f := range j.Files {
		fc := f
		if f.Result != nil {
			rc := *f.Result
			rc.Fields = append([]entity.ExtractedField(nil), f.Result.Fields...)
			for k, fld := range rc.Fields {
				if fld.Confidence != nil {
					c := *fld.Confidence
					rc.Fields[k].Confidence = &c
				}
			}
			fc.Result = &rc
		}
		cp.Files[i] = fc
	}
	return &cp
}
