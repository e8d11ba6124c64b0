package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// GetNumSamplesFromRegion returns how many samples spaced by step cover
// bounds in x and y. A non-positive step yields 0, 0.
func GetNumSamplesFromRegion(bounds mathx.Aabb, step mgl32.Vec2) (int, int) {
	if step.X() <= 0 || step.Y() <= 0 {
		logger.Warn("invalid region step size", zap.Float32("x", step.X()), zap.Float32("y", step.Y()))
		return 0, 0
	}
	if !bounds.IsValid() {
		return 0, 0
	}
	ext := bounds.Extents()
	nx := int(math.Ceil(float64(ext.X() / step.X())))
	ny := int(math.Ceil(float64(ext.Y() / step.Y())))
	return nx, ny
}

// QueryList runs a point query for every position and calls cb with each
// result, in order. The SurfacePoint passed to cb is reused between calls.
func (s *System) QueryList(positions []mgl32.Vec3, mask DataMask, cb PointCallback, sampler Sampler) {
	if cb == nil {
		logger.Warn("terrain list query without callback")
		return
	}
	st := s.current.Load()

	var point SurfacePoint
	for _, pos := range positions {
		exists := s.surfacePointAt(pos, mask, sampler, st, &point)
		cb(point, exists)
	}
}

// QueryRegion runs a point query for every grid position of region, x fastest.
func (s *System) QueryRegion(region QueryRegion, mask DataMask, cb RegionCallback, sampler Sampler) {
	if cb == nil {
		logger.Warn("terrain region query without callback")
		return
	}
	st := s.current.Load()

	var point SurfacePoint
	for y := 0; y < region.NumPointsY; y++ {
		for x := 0; x < region.NumPointsX; x++ {
			exists := s.surfacePointAt(region.Position(x, y), mask, sampler, st, &point)
			cb(x, y, point, exists)
		}
	}
}

// ProcessHeightsFromList fills only Position.Z.
func (s *System) ProcessHeightsFromList(positions []mgl32.Vec3, cb PointCallback, sampler Sampler) {
	s.QueryList(positions, DataHeights, cb, sampler)
}

// ProcessNormalsFromList fills only Normal.
func (s *System) ProcessNormalsFromList(positions []mgl32.Vec3, cb PointCallback, sampler Sampler) {
	s.QueryList(positions, DataNormals, cb, sampler)
}

// ProcessSurfaceWeightsFromList fills only SurfaceTags.
func (s *System) ProcessSurfaceWeightsFromList(positions []mgl32.Vec3, cb PointCallback, sampler Sampler) {
	s.QueryList(positions, DataSurfaceWeights, cb, sampler)
}

// ProcessSurfacePointsFromList fills everything.
func (s *System) ProcessSurfacePointsFromList(positions []mgl32.Vec3, cb PointCallback, sampler Sampler) {
	s.QueryList(positions, DataAll, cb, sampler)
}

// ProcessHeightsFromRegion fills only Position.Z over a region grid.
func (s *System) ProcessHeightsFromRegion(bounds mathx.Aabb, step mgl32.Vec2, cb RegionCallback, sampler Sampler) {
	s.QueryRegion(NewQueryRegionFromAabb(bounds, step), DataHeights, cb, sampler)
}

// ProcessNormalsFromRegion fills only Normal over a region grid.
func (s *System) ProcessNormalsFromRegion(bounds mathx.Aabb, step mgl32.Vec2, cb RegionCallback, sampler Sampler) {
	s.QueryRegion(NewQueryRegionFromAabb(bounds, step), DataNormals, cb, sampler)
}

// ProcessSurfaceWeightsFromRegion fills only SurfaceTags over a region grid.
func (s *System) ProcessSurfaceWeightsFromRegion(bounds mathx.Aabb, step mgl32.Vec2, cb RegionCallback, sampler Sampler) {
	s.QueryRegion(NewQueryRegionFromAabb(bounds, step), DataSurfaceWeights, cb, sampler)
}

// ProcessSurfacePointsFromRegion fills everything over a region grid.
func (s *System) ProcessSurfacePointsFromRegion(bounds mathx.Aabb, step mgl32.Vec2, cb RegionCallback, sampler Sampler) {
	s.QueryRegion(NewQueryRegionFromAabb(bounds, step), DataAll, cb, sampler)
}
