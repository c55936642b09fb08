package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/agentd/internal/jobs"
)

// Store keeps jobs in Redis so multiple replicas can serve polls for jobs
// submitted elsewhere. Keys carry the retention window as their TTL, which
// makes eviction Redis's problem; Sweep is a no-op. Updates use SET XX with
// KEEPTTL so a late write from a still-running loop cannot resurrect an
// evicted job.
type Store struct {
	client    *redis.Client
	retention time.Duration
}

func NewStore(addr, password string, db int, retention time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: rdb, retention: retention}
}

// Ping verifies the connection at startup.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func key(id string) string { return "agentd:job:" + id }

func (s *Store) Create(ctx context.Context, job jobs.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	ok, err := s.client.SetNX(ctx, key(job.ID), data, s.retention).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, job jobs.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	err = s.client.SetArgs(ctx, key(job.ID), data, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if err == redis.Nil {
		return nil // evicted; the write becomes unobservable
	}
	return err
}

func (s *Store) Get(ctx context.Context, id string) (jobs.Job, error) {
	val, err := s.client.Get(ctx, key(id)).Result()
	if err == redis.Nil {
		return jobs.Job{}, jobs.ErrNotFound
	}
	if err != nil {
		return jobs.Job{}, err
	}
	var job jobs.Job
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return jobs.Job{}, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return job, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, key(id)).Err()
}

// Sweep is a no-op; key TTLs carry the retention window.
func (s *Store) Sweep(context.Context, time.Duration) int { return 0 }
