package terrain

import (
	"context"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/jobs"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// NumJobsDefault lets the dispatcher pick the job count.
const NumJobsDefault = 0

// JobContext is the cancellation handle of one async request.
// Jobs poll it between positions.
type JobContext struct {
	cancelled atomic.Bool
	group     *jobs.CancelGroup
}

// Cancel stops the request. Positions already being processed finish,
// the remaining ones are skipped and the completion callback still fires.
func (jc *JobContext) Cancel() {
	jc.cancelled.Store(true)
	if jc.group != nil {
		jc.group.Cancel()
	}
}

// IsCancelled reports whether the request was cancelled directly or by
// the system deactivating.
func (jc *JobContext) IsCancelled() bool {
	return jc.cancelled.Load() || (jc.group != nil && jc.group.Cancelled())
}

// NewJobContext returns a context tied to the system lifetime. It can be
// shared between requests to cancel them together.
func (s *System) NewJobContext() *JobContext {
	s.lifecycleMu.RLock()
	parent := s.rootGroup
	s.lifecycleMu.RUnlock()
	return &JobContext{group: jobs.NewCancelGroup(parent)}
}

// QueryAsyncParams configures an async request.
type QueryAsyncParams struct {
	// DesiredNumberOfJobs caps the number of jobs. NumJobsDefault uses the
	// system default.
	DesiredNumberOfJobs int

	// CompletionCallback runs once, on a worker, after every job finished.
	CompletionCallback func(jc *JobContext)

	// JobContext is used for cancellation. A new one is created when nil.
	JobContext *JobContext
}

// numJobsFor splits n positions over the workers, honouring the request
// and system caps.
func (s *System) numJobsFor(n int, params *QueryAsyncParams) int {
	numJobs := s.executor.NumWorkers()
	desired := NumJobsDefault
	if params != nil {
		desired = params.DesiredNumberOfJobs
	}
	if desired <= 0 {
		desired = int(s.defaultJobsPerRequest.Load())
	}
	if desired > 0 {
		numJobs = min(numJobs, desired)
	}
	return max(min(numJobs, n), 1)
}

// dispatchAsync runs process over [0, n) split into contiguous chunks.
// The last chunk takes the remainder.
func (s *System) dispatchAsync(n int, params *QueryAsyncParams, process func(i int, st *Settings)) *JobContext {
	if n == 0 {
		logger.Warn("async terrain query with no positions")
		return nil
	}
	if params == nil {
		params = &QueryAsyncParams{}
	}

	s.lifecycleMu.RLock()
	defer s.lifecycleMu.RUnlock()
	if !s.active {
		logger.Warn("async terrain query on inactive system", zap.Int("positions", n))
		return nil
	}

	jc := params.JobContext
	if jc == nil {
		jc = &JobContext{group: jobs.NewCancelGroup(s.rootGroup)}
	}
	root := s.rootGroup
	st := s.current.Load()
	onComplete := params.CompletionCallback

	numJobs := s.numJobsFor(n, params)
	chunk := n / numJobs

	var remaining atomic.Int32
	remaining.Store(int32(numJobs))
	s.inflight.Add(1)

	logger.Debug("dispatching async terrain query",
		zap.Int("positions", n),
		zap.Int("jobs", numJobs))

	created := make([]jobs.Job, 0, numJobs)
	for j := 0; j < numJobs; j++ {
		start := j * chunk
		end := start + chunk
		if j == numJobs-1 {
			end = n
		}

		created = append(created, s.executor.NewJob(func(ctx context.Context) {
			for i := start; i < end; i++ {
				if ctx.Err() != nil || jc.IsCancelled() || root.Cancelled() {
					break
				}
				process(i, st)
			}

			if remaining.Add(-1) == 0 {
				if onComplete != nil {
					onComplete(jc)
				}
				s.inflight.Done()
			}
		}, jc.group))
	}

	for _, job := range created {
		job.Start()
	}
	return jc
}

// QueryListAsync is the async form of QueryList. cb is called from worker
// goroutines and must be safe for concurrent use. The returned context is nil
// when nothing was scheduled.
func (s *System) QueryListAsync(positions []mgl32.Vec3, mask DataMask, cb PointCallback, sampler Sampler, params *QueryAsyncParams) *JobContext {
	if cb == nil {
		logger.Warn("async terrain list query without callback")
		return nil
	}
	return s.dispatchAsync(len(positions), params, func(i int, st *Settings) {
		var point SurfacePoint
		exists := s.surfacePointAt(positions[i], mask, sampler, st, &point)
		cb(point, exists)
	})
}

// QueryRegionAsync is the async form of QueryRegion.
func (s *System) QueryRegionAsync(region QueryRegion, mask DataMask, cb RegionCallback, sampler Sampler, params *QueryAsyncParams) *JobContext {
	if cb == nil {
		logger.Warn("async terrain region query without callback")
		return nil
	}
	nx := region.NumPointsX
	return s.dispatchAsync(region.NumPoints(), params, func(i int, st *Settings) {
		x, y := i%nx, i/nx
		var point SurfacePoint
		exists := s.surfacePointAt(region.Position(x, y), mask, sampler, st, &point)
		cb(x, y, point, exists)
	})
}

// ProcessHeightsFromListAsync is ProcessHeightsFromList on the job pool.
func (s *System) ProcessHeightsFromListAsync(positions []mgl32.Vec3, cb PointCallback, sampler Sampler, params *QueryAsyncParams) *JobContext {
	return s.QueryListAsync(positions, DataHeights, cb, sampler, params)
}

// ProcessNormalsFromListAsync is ProcessNormalsFromList on the job pool.
func (s *System) ProcessNormalsFromListAsync(positions []mgl32.Vec3, cb PointCallback, sampler Sampler, params *QueryAsyncParams) *JobContext {
	return s.QueryListAsync(positions, DataNormals, cb, sampler, params)
}

// ProcessSurfaceWeightsFromListAsync is ProcessSurfaceWeightsFromList on the job pool.
func (s *System) ProcessSurfaceWeightsFromListAsync(positions []mgl32.Vec3, cb PointCallback, sampler Sampler, params *QueryAsyncParams) *JobContext {
	return s.QueryListAsync(positions, DataSurfaceWeights, cb, sampler, params)
}

// ProcessSurfacePointsFromListAsync is ProcessSurfacePointsFromList on the job pool.
func (s *System) ProcessSurfacePointsFromListAsync(positions []mgl32.Vec3, cb PointCallback, sampler Sampler, params *QueryAsyncParams) *JobContext {
	return s.QueryListAsync(positions, DataAll, cb, sampler, params)
}

// ProcessHeightsFromRegionAsync is ProcessHeightsFromRegion on the job pool.
func (s *System) ProcessHeightsFromRegionAsync(bounds mathx.Aabb, step mgl32.Vec2, cb RegionCallback, sampler Sampler, params *QueryAsyncParams) *JobContext {
	return s.QueryRegionAsync(NewQueryRegionFromAabb(bounds, step), DataHeights, cb, sampler, params)
}

// ProcessNormalsFromRegionAsync is ProcessNormalsFromRegion on the job pool.
func (s *System) ProcessNormalsFromRegionAsync(bounds mathx.Aabb, step mgl32.Vec2, cb RegionCallback, sampler Sampler, params *QueryAsyncParams) *JobContext {
	return s.QueryRegionAsync(NewQueryRegionFromAabb(bounds, step), DataNormals, cb, sampler, params)
}

// ProcessSurfaceWeightsFromRegionAsync is ProcessSurfaceWeightsFromRegion on the job pool.
func (s *System) ProcessSurfaceWeightsFromRegionAsync(bounds mathx.Aabb, step mgl32.Vec2, cb RegionCallback, sampler Sampler, params *QueryAsyncParams) *JobContext {
	return s.QueryRegionAsync(NewQueryRegionFromAabb(bounds, step), DataSurfaceWeights, cb, sampler, params)
}

// ProcessSurfacePointsFromRegionAsync is ProcessSurfacePointsFromRegion on the job pool.
func (s *System) ProcessSurfacePointsFromRegionAsync(bounds mathx.Aabb, step mgl32.Vec2, cb RegionCallback, sampler Sampler, params *QueryAsyncParams) *JobContext {
	return s.QueryRegionAsync(NewQueryRegionFromAabb(bounds, step), DataAll, cb, sampler, params)
}
