package terrain

import (
	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// Area provides terrain data for a region of the world.
//
// Height and SurfaceWeights are called concurrently from query workers and
// must be safe for concurrent reads. Bounds, Priority and UsesGroundPlane are
// only read on registration and RefreshArea; the registry caches them.
type Area interface {
	ID() AreaID
	Bounds() mathx.Aabb
	Priority() Priority
	UsesGroundPlane() bool

	// Height returns the height at (x, y). exists is false for holes.
	Height(x, y float32) (height float32, exists bool)

	// SurfaceWeights appends the surface weights at (x, y) to out and returns it.
	SurfaceWeights(x, y float32, out []SurfaceTagWeight) []SurfaceTagWeight
}

// AreaInfo is a registry snapshot of one area.
type AreaInfo struct {
	ID              AreaID
	Area            Area
	Bounds          mathx.Aabb
	Priority        Priority
	UsesGroundPlane bool
}

func snapshotArea(a Area) AreaInfo {
	return AreaInfo{
		ID:              a.ID(),
		Area:            a,
		Bounds:          a.Bounds(),
		Priority:        a.Priority(),
		UsesGroundPlane: a.UsesGroundPlane(),
	}
}

// sample returns the area height at (x, y) with the ground plane applied.
func (info *AreaInfo) sample(x, y float32) (float32, bool) {
	h, exists := info.Area.Height(x, y)
	if info.UsesGroundPlane {
		floor := info.Bounds.Min.Z()
		if !exists {
			return floor, true
		}
		return max(h, floor), true
	}
	return h, exists
}
