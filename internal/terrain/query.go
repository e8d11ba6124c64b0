package terrain

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

var upNormal = mgl32.Vec3{0, 0, 1}

// heightAt resolves a height under sampler. Missing terrain reports the
// world floor.
func (s *System) heightAt(x, y float32, sampler Sampler, st *Settings) (float32, bool) {
	floor := st.WorldBounds.Min.Z()

	plan := planSamples(x, y, sampler, st)
	if !plan.inWorld || plan.n == 0 {
		return floor, false
	}

	var height float32
	for i := 0; i < plan.n; i++ {
		tap := &plan.taps[i]
		info, ok := s.registry.FindBestAreaAtPosition(tap.x, tap.y)
		if !ok {
			return floor, false
		}
		h, exists := info.sample(tap.x, tap.y)
		if !exists {
			return floor, false
		}
		height += h * tap.weight
	}
	return height, true
}

// normalAt derives a normal from four heights around (x, y).
func (s *System) normalAt(x, y float32, sampler Sampler, st *Settings) (mgl32.Vec3, bool) {
	sampler = sampler.resolve()
	world := st.WorldBounds
	offset := st.HeightQueryResolution / 2

	if sampler == SamplerClamp {
		// Work on the snapped grid point and its grid neighbours.
		plan := planSamples(x, y, SamplerClamp, st)
		x, y = plan.taps[0].x, plan.taps[0].y
		offset = st.HeightQueryResolution
		sampler = SamplerExact
	} else if !world.ContainsXY(x, y) {
		return upNormal, false
	}

	left, up := world.ClampXY(x-offset, y-offset)
	right, down := world.ClampXY(x+offset, y+offset)
	if right == left || down == up {
		return upNormal, false
	}

	hLeft, ok1 := s.heightAt(left, y, sampler, st)
	hRight, ok2 := s.heightAt(right, y, sampler, st)
	hUp, ok3 := s.heightAt(x, up, sampler, st)
	hDown, ok4 := s.heightAt(x, down, sampler, st)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return upNormal, false
	}

	v1 := mgl32.Vec3{right - left, 0, hRight - hLeft}
	v2 := mgl32.Vec3{0, down - up, hDown - hUp}
	return v1.Cross(v2).Normalize(), true
}

// surfaceWeightsAt appends the blended, descending-sorted weights to out.
func (s *System) surfaceWeightsAt(x, y float32, sampler Sampler, st *Settings, out []SurfaceTagWeight) ([]SurfaceTagWeight, bool) {
	out = out[:0]

	plan := planSamples(x, y, sampler, st)
	if !plan.inWorld || plan.n == 0 {
		return out, false
	}

	var scratch []SurfaceTagWeight
	for i := 0; i < plan.n; i++ {
		tap := &plan.taps[i]
		info, ok := s.registry.FindBestAreaAtPosition(tap.x, tap.y)
		if !ok {
			return out[:0], false
		}
		if _, exists := info.sample(tap.x, tap.y); !exists {
			return out[:0], false
		}

		if plan.n == 1 {
			out = info.Area.SurfaceWeights(tap.x, tap.y, out)
			break
		}
		scratch = info.Area.SurfaceWeights(tap.x, tap.y, scratch[:0])
		out = mergeWeights(out, scratch, tap.weight)
	}

	sortWeights(out)
	return out, true
}

// mergeWeights adds src scaled by factor into dst, combining equal tags.
func mergeWeights(dst, src []SurfaceTagWeight, factor float32) []SurfaceTagWeight {
	for _, w := range src {
		idx := slices.IndexFunc(dst, func(d SurfaceTagWeight) bool { return d.Tag == w.Tag })
		if idx >= 0 {
			dst[idx].Weight += w.Weight * factor
		} else {
			dst = append(dst, SurfaceTagWeight{Tag: w.Tag, Weight: w.Weight * factor})
		}
	}
	return dst
}

func sortWeights(weights []SurfaceTagWeight) {
	slices.SortStableFunc(weights, func(a, b SurfaceTagWeight) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
}

// surfacePointAt fills the parts of a SurfacePoint selected by mask.
// Position keeps the input z unless heights are requested.
func (s *System) surfacePointAt(pos mgl32.Vec3, mask DataMask, sampler Sampler, st *Settings, point *SurfacePoint) bool {
	point.Position = pos
	point.Normal = upNormal
	point.SurfaceTags = point.SurfaceTags[:0]

	if mask == 0 {
		mask = DataAll
	}

	exists := true
	if mask&DataHeights != 0 {
		h, ok := s.heightAt(pos.X(), pos.Y(), sampler, st)
		point.Position[2] = h
		exists = exists && ok
	}
	if mask&DataNormals != 0 {
		n, ok := s.normalAt(pos.X(), pos.Y(), sampler, st)
		point.Normal = n
		exists = exists && ok
	}
	if mask&DataSurfaceWeights != 0 {
		var ok bool
		point.SurfaceTags, ok = s.surfaceWeightsAt(pos.X(), pos.Y(), sampler, st, point.SurfaceTags)
		exists = exists && ok
	}
	return exists
}

// GetHeight returns the terrain height below position.
// When terrain does not exist the world floor is returned with false.
func (s *System) GetHeight(position mgl32.Vec3, sampler Sampler) (float32, bool) {
	return s.heightAt(position.X(), position.Y(), sampler, s.current.Load())
}

// GetHeightFromVector2 is GetHeight for a 2D position.
func (s *System) GetHeightFromVector2(position mgl32.Vec2, sampler Sampler) (float32, bool) {
	return s.heightAt(position.X(), position.Y(), sampler, s.current.Load())
}

// GetHeightFromFloats is GetHeight for separate coordinates.
func (s *System) GetHeightFromFloats(x, y float32, sampler Sampler) (float32, bool) {
	return s.heightAt(x, y, sampler, s.current.Load())
}

// GetIsHole reports whether there is no terrain at position, either because
// no area covers it or because the covering area has a hole there.
func (s *System) GetIsHole(position mgl32.Vec3, sampler Sampler) bool {
	return s.GetIsHoleFromFloats(position.X(), position.Y(), sampler)
}

// GetIsHoleFromFloats is GetIsHole for separate coordinates.
func (s *System) GetIsHoleFromFloats(x, y float32, sampler Sampler) bool {
	_, exists := s.heightAt(x, y, sampler, s.current.Load())
	return !exists
}

// GetNormal returns the surface normal at position, +Z if there is no terrain.
func (s *System) GetNormal(position mgl32.Vec3, sampler Sampler) (mgl32.Vec3, bool) {
	return s.normalAt(position.X(), position.Y(), sampler, s.current.Load())
}

// GetNormalFromFloats is GetNormal for separate coordinates.
func (s *System) GetNormalFromFloats(x, y float32, sampler Sampler) (mgl32.Vec3, bool) {
	return s.normalAt(x, y, sampler, s.current.Load())
}

// GetSurfaceWeights returns every surface weight at position, highest first.
func (s *System) GetSurfaceWeights(position mgl32.Vec3, sampler Sampler) ([]SurfaceTagWeight, bool) {
	return s.surfaceWeightsAt(position.X(), position.Y(), sampler, s.current.Load(), nil)
}

// GetSurfaceWeightsFromFloats is GetSurfaceWeights for separate coordinates.
func (s *System) GetSurfaceWeightsFromFloats(x, y float32, sampler Sampler) ([]SurfaceTagWeight, bool) {
	return s.surfaceWeightsAt(x, y, sampler, s.current.Load(), nil)
}

// GetMaxSurfaceWeight returns the highest weighted surface at position,
// or UnassignedTag with weight 0.
func (s *System) GetMaxSurfaceWeight(position mgl32.Vec3, sampler Sampler) (SurfaceTagWeight, bool) {
	return s.GetMaxSurfaceWeightFromFloats(position.X(), position.Y(), sampler)
}

// GetMaxSurfaceWeightFromFloats is GetMaxSurfaceWeight for separate coordinates.
func (s *System) GetMaxSurfaceWeightFromFloats(x, y float32, sampler Sampler) (SurfaceTagWeight, bool) {
	weights, exists := s.surfaceWeightsAt(x, y, sampler, s.current.Load(), nil)
	if len(weights) == 0 {
		return SurfaceTagWeight{Tag: UnassignedTag}, exists
	}
	return weights[0], exists
}

// GetSurfacePoint returns height, normal and surface weights at position.
func (s *System) GetSurfacePoint(position mgl32.Vec3, sampler Sampler) (SurfacePoint, bool) {
	var point SurfacePoint
	exists := s.surfacePointAt(position, DataAll, sampler, s.current.Load(), &point)
	return point, exists
}

// GetSurfacePointFromFloats is GetSurfacePoint for separate coordinates.
func (s *System) GetSurfacePointFromFloats(x, y float32, sampler Sampler) (SurfacePoint, bool) {
	return s.GetSurfacePoint(mgl32.Vec3{x, y, 0}, sampler)
}
