package pipeline

import (
	"context"
	"sync"
)

// ParallelConfig holds configuration for multi-image processing.
type ParallelConfig struct {
	MaxWorkers       int              // number of workers, 0 or 1 processes sequentially
	ProgressCallback ProgressCallback // optional progress reporting
}

// DefaultParallelConfig processes one image at a time.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{MaxWorkers: 1}
}

type fileJob struct {
	index int
	path  string
	name  string
}

// ProcessFiles processes every path and returns one Outcome per path in
// input order. A failed image does not stop the others. When ctx is
// cancelled the remaining paths carry the context error. Images sharing a
// base name get distinct output files, see outputNames.
func (p *Pipeline) ProcessFiles(ctx context.Context, paths []string) []Outcome {
	out := make([]Outcome, len(paths))
	for i, path := range paths {
		out[i].Path = path
	}
	if len(paths) == 0 {
		return out
	}

	cb := p.cfg.Parallel.ProgressCallback
	if cb == nil {
		cb = NoOpProgressCallback{}
	}
	cb.OnStart(len(paths))
	defer cb.OnComplete()

	workers := min(max(p.cfg.Parallel.MaxWorkers, 1), len(paths))
	jobs := make(chan fileJob)
	done := make(chan int, len(paths))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res, err := p.processFileNamed(ctx, job.path, job.name)
				out[job.index].Result = res
				out[job.index].Err = err
				done <- job.index
			}
		}()
	}

	names := outputNames(paths)
	go func() {
		defer close(jobs)
		for i, path := range paths {
			select {
			case jobs <- fileJob{index: i, path: path, name: names[i]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	processed := 0
	for idx := range done {
		processed++
		if err := out[idx].Err; err != nil {
			cb.OnError(out[idx].Path, err)
		}
		cb.OnProgress(processed, len(paths))
	}

	if err := ctx.Err(); err != nil {
		for i := range out {
			if out[i].Result == nil && out[i].Err == nil {
				out[i].Err = err
			}
		}
	}
	return out
}
