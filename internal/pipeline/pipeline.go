// Package pipeline runs many bid comparisons over a bounded worker pool.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/abner20953/bidding-data/internal/forensics"
)

// Job is one pair of bids, optionally with their tender.
type Job struct {
	ID     string `json:"id"`
	A      string `json:"file_a"`
	B      string `json:"file_b"`
	Tender string `json:"tender,omitempty"`
}

type Outcome struct {
	Job    Job               `json:"job"`
	Result *forensics.Result `json:"result,omitempty"`
	Err    error             `json:"-"`
}

type CompareFunc func(ctx context.Context, job Job) (*forensics.Result, error)

// Pairs returns every unordered pair of paths, each compared against
// tender. Paths equal to tender are skipped.
func Pairs(paths []string, tender string) []Job {
	bids := make([]string, 0, len(paths))
	for _, p := range paths {
		if tender != "" && filepath.Clean(p) == filepath.Clean(tender) {
			continue
		}
		bids = append(bids, p)
	}
	var jobs []Job
	for i := 0; i < len(bids); i++ {
		for j := i + 1; j < len(bids); j++ {
			jobs = append(jobs, Job{
				ID:     fmt.Sprintf("%s|%s", filepath.Base(bids[i]), filepath.Base(bids[j])),
				A:      bids[i],
				B:      bids[j],
				Tender: tender,
			})
		}
	}
	return jobs
}

// CompareAll runs fn for every job with at most workers in flight. A failed
// job does not stop the others; outcomes keep the order of jobs. Jobs not
// started before ctx is cancelled report ctx.Err().
func CompareAll(ctx context.Context, jobs []Job, workers int, fn CompareFunc) []Outcome {
	if len(jobs) == 0 || fn == nil {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}

	out := make([]Outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		out[i].Job = job
		if err := ctx.Err(); err != nil {
			out[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Result, out[i].Err = fn(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Failed counts outcomes with an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
