package archive

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Orchestrator fans a batch of jobs out over a bounded worker pool and
// collects every terminal Result.
type Orchestrator struct {
	launcher   Launcher
	maxWorkers int
	log        *slog.Logger
	onResult   func(Result)
}

// OrchestratorOption adjusts an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOnResult registers a callback invoked once per finished job, as
// results arrive. Callbacks are serialized; they never run concurrently.
func WithOnResult(fn func(Result)) OrchestratorOption {
	return func(o *Orchestrator) { o.onResult = fn }
}

// NewOrchestrator creates an Orchestrator running at most maxWorkers jobs
// at once.
func NewOrchestrator(launcher Launcher, maxWorkers int, log *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	o := &Orchestrator{
		launcher:   launcher,
		maxWorkers: maxWorkers,
		log:        log.With("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Archive runs every job and returns one Result per job, in job order.
// A failed launch is folded into an error Result for that channel; it
// never aborts the remaining jobs.
func (o *Orchestrator) Archive(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxWorkers)

	for i, job := range jobs {
		g.Go(func() error {
			o.log.InfoContext(ctx, "archiving channel",
				"channel", job.Channel.Name, "channel_id", job.Channel.ID)

			res, err := o.launcher.Launch(ctx, job)
			if err != nil {
				o.log.ErrorContext(ctx, "worker launch failed",
					"channel", job.Channel.Name, "error", err)
				res = Result{
					ChannelID:   job.Channel.ID,
					ChannelName: job.Channel.Name,
					Category:    job.Channel.Category,
					Status:      StatusError,
					Detail:      "worker failed: " + err.Error(),
				}
			}
			results[i] = res

			if o.onResult != nil {
				mu.Lock()
				o.onResult(res)
				mu.Unlock()
			}
			return nil
		})
	}

	// Goroutines only ever return nil; launch failures become Results.
	_ = g.Wait()

	return results
}
