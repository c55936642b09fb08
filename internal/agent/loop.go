package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mohammad-safakhou/agentd/internal/jobs"
	"github.com/mohammad-safakhou/agentd/internal/telemetry"
	"github.com/mohammad-safakhou/agentd/provider"
)

// ErrMaxIterations is the fixed terminal message for a tool-calling chain
// that never produced a final answer.
const ErrMaxIterations = "max agent iterations reached"

// Request is one submitted chat request after validation
type Request struct {
	Model    string
	Messages []provider.Message
	Tools    []provider.Tool
}

// Runner drives the bounded agent loop for submitted jobs. One Run per job;
// the runner itself is shared and stateless across jobs.
type Runner struct {
	Provider  provider.Provider
	Executor  ToolExecutor
	Store     jobs.Store
	Telemetry *telemetry.Telemetry
	Logger    *log.Logger

	MaxRounds int
	Language  string
	// MaxProcessingTime bounds one whole job including tool round-trips.
	MaxProcessingTime time.Duration
}

// Launch starts the loop for job in a detached goroutine. Whatever happens
// inside, panics included, ends up in the job's terminal fields; nothing
// escapes to crash the process.
func (r *Runner) Launch(ctx context.Context, job jobs.Job, req Request) {
	go func() {
		if r.MaxProcessingTime > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.MaxProcessingTime)
			defer cancel()
		}
		defer func() {
			if rec := recover(); rec != nil {
				r.Logger.Printf("job %s panicked: %v", job.ID, rec)
				r.fail(ctx, &job, fmt.Sprintf("internal error: %v", rec))
			}
		}()
		if err := r.run(ctx, &job, req); err != nil {
			r.fail(ctx, &job, err.Error())
		}
	}()
}

func (r *Runner) run(ctx context.Context, job *jobs.Job, req Request) error {
	messages := req.Messages
	if len(messages) == 0 || messages[0].Role != "system" {
		sys := provider.Message{Role: "system", Content: systemPrompt(r.Language, len(req.Tools) > 0)}
		messages = append([]provider.Message{sys}, messages...)
	}

	job.Debug = &jobs.DebugPayload{Model: req.Model, Messages: messages, Tools: req.Tools}

	maxRounds := r.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 10
	}

	for i := 0; i < maxRounds; i++ {
		job.Status = jobs.StatusRunning
		job.PartialContent = ""
		r.publish(ctx, job)

		start := time.Now()
		res, err := r.Provider.ChatStream(ctx, provider.ChatRequest{
			Model:    req.Model,
			Messages: messages,
			Tools:    req.Tools,
		}, func(delta string) {
			job.PartialContent += delta
			r.publish(ctx, job)
		})
		r.Telemetry.InferenceRound(time.Since(start))
		if err != nil {
			return fmt.Errorf("inference failed: %w", err)
		}

		if len(res.ToolCalls) == 0 {
			// final answer
			job.Message = &provider.Message{Role: "assistant", Content: res.Content}
			job.Status = jobs.StatusDone
			job.PartialContent = ""
			job.CurrentActivity = ""
			r.publish(ctx, job)
			r.Telemetry.JobFinished(string(jobs.StatusDone))
			r.Logger.Printf("job %s done after %d round(s)", job.ID, i+1)
			return nil
		}

		messages = append(messages, provider.Message{
			Role:      "assistant",
			Content:   res.Content,
			ToolCalls: res.ToolCalls,
		})
		for _, call := range res.ToolCalls {
			// announce the side action before it runs; a tool call can
			// take many seconds and pollers watch it live
			action := r.Executor.Describe(call)
			job.CurrentActivity = action.Activity
			if action.VisitedURL != "" {
				job.VisitedURLs = append(job.VisitedURLs, action.VisitedURL)
			}
			r.publish(ctx, job)

			result := r.Executor.Execute(ctx, call)
			r.Telemetry.ToolCalled(call.Function.Name)
			messages = append(messages, provider.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}

		// tool round done; next inference call starts a fresh partial
		job.PartialContent = ""
		job.CurrentActivity = ""
		r.publish(ctx, job)
	}

	return errors.New(ErrMaxIterations)
}

func (r *Runner) fail(ctx context.Context, job *jobs.Job, msg string) {
	// the terminal write must land even when ctx itself is what expired
	ctx = context.WithoutCancel(ctx)
	job.Status = jobs.StatusError
	job.Error = msg
	job.Message = nil
	job.PartialContent = ""
	job.CurrentActivity = ""
	r.publish(ctx, job)
	r.Telemetry.JobFinished(string(jobs.StatusError))
	r.Logger.Printf("job %s failed: %s", job.ID, msg)
}

// publish pushes the loop's working copy into the store. After eviction the
// update is silently dropped, which is exactly what we want for a poller
// that disappeared long ago.
func (r *Runner) publish(ctx context.Context, job *jobs.Job) {
	if err := r.Store.Update(ctx, *job); err != nil {
		r.Logger.Printf("job %s: store update failed: %v", job.ID, err)
	}
}
