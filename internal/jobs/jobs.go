// Package jobs runs short-lived work items on a bounded set of goroutines.
package jobs

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// Func is the body of a job. ctx is done when the job's cancel group is
// cancelled; a job that could not get a worker before cancellation still
// runs, with ctx already done, so bookkeeping in the body always executes.
type Func func(ctx context.Context)

// Job is a created but not yet started unit of work.
type Job interface {
	Start()
}

// Executor creates jobs. Jobs run once started.
type Executor interface {
	NewJob(fn Func, group *CancelGroup) Job
	NumWorkers() int
}

// CancelGroup cancels every job created with it, and every child group.
type CancelGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCancelGroup returns a group. A nil parent creates a root group.
func NewCancelGroup(parent *CancelGroup) *CancelGroup {
	base := context.Background()
	if parent != nil {
		base = parent.ctx
	}
	ctx, cancel := context.WithCancel(base)
	return &CancelGroup{ctx: ctx, cancel: cancel}
}

// Cancel cancels the group. Safe to call more than once.
func (g *CancelGroup) Cancel() {
	g.cancel()
}

// Cancelled reports whether the group or one of its parents was cancelled.
func (g *CancelGroup) Cancelled() bool {
	return g.ctx.Err() != nil
}

// Pool is a fixed-size executor.
type Pool struct {
	sem     *semaphore.Weighted
	workers int
}

// NewPool creates a pool running at most workers jobs at once.
// workers <= 0 uses one worker per CPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger.Debug("job pool created", zap.Int("workers", workers))
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
	}
}

// NumWorkers returns the concurrency bound.
func (p *Pool) NumWorkers() int {
	return p.workers
}

// NewJob creates a job bound to group. A nil group never cancels.
func (p *Pool) NewJob(fn Func, group *CancelGroup) Job {
	return &poolJob{pool: p, fn: fn, group: group}
}

type poolJob struct {
	pool  *Pool
	fn    Func
	group *CancelGroup
	once  sync.Once
}

// Start schedules the job. Only the first call has an effect.
func (j *poolJob) Start() {
	j.once.Do(func() {
		ctx := context.Background()
		if j.group != nil {
			ctx = j.group.ctx
		}

		p := j.pool
		go func() {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				// Cancelled while waiting for a worker.
				j.fn(ctx)
				return
			}
			defer p.sem.Release(1)
			j.fn(ctx)
		}()
	})
}
