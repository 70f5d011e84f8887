package simulation

import (
	"context"
	"fmt"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/timeline"
	"golang.org/x/sync/errgroup"
)

// Job is one independent run in a batch. Each job must own its brain.
type Job struct {
	Name     string
	Brain    *brain.Brain
	Timeline timeline.Timeline
	Steps    int
	Options  Options
}

// BatchResult pairs a job name with its result.
type BatchResult struct {
	Name   string `json:"name"`
	Result Result `json:"result"`
}

// RunBatch runs jobs with at most workers in flight. Results keep job order.
// The first failure cancels the remaining jobs and is returned.
func RunBatch(ctx context.Context, jobs []Job, workers int) ([]BatchResult, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: workers must be at least 1, got %d", brain.ErrRange, workers)
	}
	seen := make(map[*brain.Brain]string, len(jobs))
	for _, j := range jobs {
		if other, dup := seen[j.Brain]; dup {
			return nil, fmt.Errorf("%w: jobs %q and %q share a brain", brain.ErrConfig, other, j.Name)
		}
		seen[j.Brain] = j.Name
	}

	results := make([]BatchResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		g.Go(func() error {
			res, err := NewRunner(j.Brain, j.Timeline, j.Options).Run(ctx, j.Steps)
			if err != nil {
				return fmt.Errorf("job %q: %w", j.Name, err)
			}
			results[i] = BatchResult{Name: j.Name, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
