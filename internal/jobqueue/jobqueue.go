// Package jobqueue drains a fixed set of checking/elaboration jobs across a
// bounded pool of workers. Concurrency here is strictly job-level: each
// worker owns a private *alethe.Pool for the whole run of its job and
// never shares term-pool state with any other worker (spec.md §5) — the
// bounded channel is Go's idiomatic stand-in for the crossbeam MPMC queue
// the original reaches for, matching the style of
// gitrdm-gokando/internal/parallel's fixed-size worker pool, adapted here
// to use golang.org/x/sync/errgroup for run/error propagation and
// hashicorp/go-multierror for commutative result aggregation.
package jobqueue

import (
	"context"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// JobDescriptor names one checking/elaboration run: a problem/proof pair
// plus which repetition of a benchmark sweep this is (spec.md §5, field
// names mirroring the original's cli/src/benchmarking.rs::JobDescriptor).
type JobDescriptor struct {
	ProblemFile string
	ProofFile   string
	RunIndex    int
}

// Result accumulates the outcome of one or more jobs. Combine is the only
// way results are ever merged, so Result's zero value plus repeated
// Combine calls is always well-formed regardless of arrival order.
type Result struct {
	Checked int
	Failed  int
	Errors  *multierror.Error
}

// Combine merges any number of Results into one, commutatively: summing
// counters and concatenating errors never depends on the order results
// arrive in, satisfying spec.md §5's "independent of completion order"
// requirement by construction rather than by locking or sequencing.
func Combine(results ...*Result) *Result {
	out := &Result{}
	for _, r := range results {
		if r == nil {
			continue
		}
		out.Checked += r.Checked
		out.Failed += r.Failed
		if r.Errors != nil {
			out.Errors = multierror.Append(out.Errors, r.Errors.Errors...)
		}
	}
	return out
}

// Queue is a bounded multi-producer multi-consumer channel of jobs. A
// buffered Go channel is the idiomatic queue here — unlike the original's
// Rust source, which reaches for crossbeam::ArrayQueue because the Rust
// stdlib has no MPMC primitive of its own.
type Queue struct {
	jobs chan JobDescriptor
}

// NewQueue creates a Queue with room for capacity pending jobs before a
// Push blocks.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{jobs: make(chan JobDescriptor, capacity)}
}

// Push enqueues a job, blocking if the queue is full.
func (q *Queue) Push(job JobDescriptor) { q.jobs <- job }

// Close signals that no further jobs will be pushed. Workers drain
// whatever remains buffered before observing the channel as closed.
func (q *Queue) Close() { close(q.jobs) }

// JobFunc runs a single job against a worker-private *alethe.Pool-backed
// environment and reports its outcome. Workers never share state across
// calls to different JobFuncs, so JobFunc implementations are free to
// allocate per-call resources without synchronization.
type JobFunc func(ctx context.Context, job JobDescriptor) (*Result, error)

// Pool runs N workers draining a Queue concurrently, each invoking run for
// every job it pops.
type Pool struct {
	size   int
	logger hclog.Logger
}

// NewPool creates a worker pool of the given size. A non-positive size is
// rejected by Run, not silently clamped, since "how many workers" is a
// caller-visible CLI flag (`--num-threads`) and silently ignoring a bad
// value would hide a configuration mistake.
func NewPool(size int, logger hclog.Logger) *Pool {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Pool{size: size, logger: logger.Named("jobqueue")}
}

// Run starts the pool's workers against queue, invoking run for every job
// popped, and returns the Combine of every worker's accumulated Result once
// the queue is closed and drained. ctx only gates starting new jobs — once
// a job has begun, it runs to completion (spec.md §5: "timeouts are
// external... not part of the core contract").
func (p *Pool) Run(ctx context.Context, queue *Queue, run JobFunc) (*Result, error) {
	if p.size <= 0 {
		return nil, &PoolSizeError{Size: p.size}
	}

	results := make([]*Result, p.size)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.size; i++ {
		i := i
		g.Go(func() error {
			acc := &Result{}
			results[i] = acc
			for {
				select {
				case job, ok := <-queue.jobs:
					if !ok {
						return nil
					}
					r, err := run(gctx, job)
					if err != nil {
						p.logger.Error("job failed", "problem", job.ProblemFile, "proof", job.ProofFile, "run", job.RunIndex, "error", err)
						acc.Failed++
						acc.Errors = multierror.Append(acc.Errors, err)
						continue
					}
					merged := Combine(acc, r)
					*acc = *merged
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return Combine(results...), err
	}
	return Combine(results...), nil
}

// PoolSizeError is returned when a Pool is run with a non-positive worker
// count.
type PoolSizeError struct{ Size int }

func (e *PoolSizeError) Error() string {
	return "jobqueue: pool size must be positive, got " + strconv.Itoa(e.Size)
}
