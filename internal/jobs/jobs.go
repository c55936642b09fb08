package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mohammad-safakhou/agentd/provider"
)

// Status is the lifecycle state of a job
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// ErrNotFound is returned when a job id is unknown, either because it never
// existed or because the sweep evicted it. Callers cannot distinguish the
// two, which is intentional.
var ErrNotFound = errors.New("job not found")

// DebugPayload captures the exact request sent to the inference backend
type DebugPayload struct {
	Model    string             `json:"model"`
	Messages []provider.Message `json:"messages"`
	Tools    []provider.Tool    `json:"tools,omitempty"`
}

// Job is the unit of asynchronous work and the single source of truth the
// client polls. It has exactly one writer (its agent loop); pollers only
// ever read snapshots through the store.
type Job struct {
	ID              string            `json:"id"`
	Status          Status            `json:"status"`
	PartialContent  string            `json:"partialContent"`
	CurrentActivity string            `json:"currentActivity,omitempty"`
	VisitedURLs     []string          `json:"visitedUrls"`
	Message         *provider.Message `json:"message,omitempty"`
	Error           string            `json:"error,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	Debug           *DebugPayload     `json:"debugPayload,omitempty"`
}

// Store is a process-wide registry of in-flight and completed jobs
type Store interface {
	// Create registers a new job.
	Create(ctx context.Context, job Job) error
	// Update replaces the stored job. Updating an evicted id is a silent
	// no-op: a late write from a still-running loop must not recreate the
	// entry or fail.
	Update(ctx context.Context, job Job) error
	// Get returns a snapshot of the job or ErrNotFound.
	Get(ctx context.Context, id string) (Job, error)
	// Delete removes a job.
	Delete(ctx context.Context, id string) error
	// Sweep evicts jobs older than the retention window and reports how
	// many were removed.
	Sweep(ctx context.Context, retention time.Duration) int
}

// StartSweeper runs the eviction sweep on a fixed timer until ctx is done.
func StartSweeper(ctx context.Context, store Store, interval, retention time.Duration, logger *log.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := store.Sweep(ctx, retention); n > 0 {
					logger.Printf("evicted %d expired jobs", n)
				}
			}
		}
	}()
}
