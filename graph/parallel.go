package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/tracegraph/trace"
)

// Job is one trace to build, with the roots to start from
type Job struct {
	// Name identifies the job in errors
	Name  string
	Trace *trace.Trace
	Roots []trace.NodeID
}

// BuildAll builds every job concurrently and returns the records in job
// order. Jobs must not share a trace that is still being recorded. When any
// job fails the first error in job order is returned along with the
// records of the jobs that succeeded.
func (b *Builder) BuildAll(ctx context.Context, jobs ...Job) ([]*GraphRecord, error) {
	type result struct {
		index  int
		record *GraphRecord
		err    error
	}

	results := make(chan result, len(jobs))
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, j Job) {
			defer wg.Done()

			// trace construction panics on programmer errors; keep one bad
			// job from taking down the batch
			defer func() {
				if r := recover(); r != nil {
					results <- result{
						index: idx,
						err:   fmt.Errorf("panic in build %s[%d]: %v", j.Name, idx, r),
					}
				}
			}()

			rec, err := b.Build(ctx, j.Trace, j.Roots...)
			if err != nil {
				err = fmt.Errorf("build %s[%d]: %w", j.Name, idx, err)
			}
			results <- result{index: idx, record: rec, err: err}
		}(i, job)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	records := make([]*GraphRecord, len(jobs))
	errs := make([]error, len(jobs))
	for res := range results {
		records[res.index] = res.record
		errs[res.index] = res.err
	}

	for _, err := range errs {
		if err != nil {
			return records, err
		}
	}
	return records, nil
}
