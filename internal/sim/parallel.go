package sim

import (
	"context"
	"runtime"
	"sync"
)

// Job builds an independent simulator for one member of a batch.
type Job struct {
	Name  string
	Build func() (*Simulator, error)
	Cfg   Config
}

type BatchResult struct {
	Name   string
	Result *Result
	Err    error
}

// RunBatch runs jobs concurrently, at most workers at a time, and returns
// results in job order. workers <= 0 uses GOMAXPROCS.
func RunBatch(ctx context.Context, jobs []Job, workers int) []BatchResult {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]BatchResult, len(jobs))
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			job := jobs[idx]
			results[idx].Name = job.Name

			sim, err := job.Build()
			if err != nil {
				results[idx].Err = err
				return
			}
			results[idx].Result, results[idx].Err = sim.Run(ctx, job.Cfg)
		}(i)
	}

	wg.Wait()
	return results
}
