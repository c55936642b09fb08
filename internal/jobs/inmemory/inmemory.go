package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohammad-safakhou/agentd/internal/jobs"
)

// Store keeps jobs in a process-local map. The map is the only shared
// mutable resource between submitters, loops, pollers and the sweeper, so
// every access goes through the mutex; individual jobs still have a single
// writer and need no locking of their own.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]jobs.Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]jobs.Job)}
}

func (s *Store) Create(_ context.Context, job jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *Store) Update(_ context.Context, job jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return nil // evicted while the loop was still running
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (jobs.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return jobs.Job{}, jobs.ErrNotFound
	}
	return cloneJob(job), nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func (s *Store) Sweep(_ context.Context, retention time.Duration) int {
	cutoff := time.Now().Add(-retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// cloneJob copies the slices a loop keeps appending to, so a snapshot handed
// to a poller cannot alias the writer's backing arrays.
func cloneJob(job jobs.Job) jobs.Job {
	out := job
	if job.VisitedURLs != nil {
		out.VisitedURLs = append([]string(nil), job.VisitedURLs...)
	}
	if job.Message != nil {
		m := *job.Message
		out.Message = &m
	}
	if job.Debug != nil {
		d := *job.Debug
		out.Debug = &d
	}
	return out
}
