// Package terrain answers height, normal and surface queries over a layered
// set of registered terrain areas.
package terrain

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// Sampler selects how a query position maps onto terrain samples.
type Sampler int

const (
	// SamplerDefault resolves to SamplerBilinear.
	SamplerDefault Sampler = iota
	// SamplerExact samples exactly at the requested position.
	SamplerExact
	// SamplerBilinear blends the four surrounding height-query grid points.
	SamplerBilinear
	// SamplerClamp clamps into the world and snaps down onto the height-query grid.
	SamplerClamp
)

// String returns the sampler name.
func (s Sampler) String() string {
	switch s {
	case SamplerDefault:
		return "default"
	case SamplerExact:
		return "exact"
	case SamplerBilinear:
		return "bilinear"
	case SamplerClamp:
		return "clamp"
	default:
		return fmt.Sprintf("Sampler(%d)", int(s))
	}
}

// ParseSampler converts a name into a Sampler.
func ParseSampler(name string) (Sampler, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return SamplerDefault, nil
	case "exact":
		return SamplerExact, nil
	case "bilinear":
		return SamplerBilinear, nil
	case "clamp":
		return SamplerClamp, nil
	default:
		return SamplerDefault, fmt.Errorf("unknown sampler %q", name)
	}
}

func (s Sampler) resolve() Sampler {
	if s == SamplerDefault {
		return SamplerBilinear
	}
	return s
}

// DataMask selects which parts of a SurfacePoint a batch query fills in.
type DataMask uint8

const (
	DataHeights DataMask = 1 << iota
	DataNormals
	DataSurfaceWeights

	DataAll = DataHeights | DataNormals | DataSurfaceWeights
)

// ChangeMask describes what kind of terrain data changed.
type ChangeMask uint8

const (
	ChangeHeightData ChangeMask = 1 << iota
	ChangeSurfaceData
	ChangeSettings

	ChangeAll = ChangeHeightData | ChangeSurfaceData | ChangeSettings
)

// String lists the set flags, e.g. "height|surface".
func (m ChangeMask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m&ChangeHeightData != 0 {
		parts = append(parts, "height")
	}
	if m&ChangeSurfaceData != 0 {
		parts = append(parts, "surface")
	}
	if m&ChangeSettings != 0 {
		parts = append(parts, "settings")
	}
	return strings.Join(parts, "|")
}

// SurfaceTag names a surface type such as "grass" or "rock".
type SurfaceTag string

// UnassignedTag is reported when no surface data exists at a point.
const UnassignedTag SurfaceTag = "unassigned"

// SurfaceTagWeight pairs a surface tag with its weight at a point.
type SurfaceTagWeight struct {
	Tag    SurfaceTag
	Weight float32
}

// SurfacePoint is the combined result of a point query.
type SurfacePoint struct {
	Position    mgl32.Vec3
	Normal      mgl32.Vec3
	SurfaceTags []SurfaceTagWeight
}

// AreaID identifies a registered area.
type AreaID string

// InvalidAreaID is returned when no area matches.
const InvalidAreaID AreaID = ""

// NewAreaID returns a fresh random area id.
func NewAreaID() AreaID {
	return AreaID(uuid.NewString())
}

// Priority orders overlapping areas. Higher layers win, then higher sub-priorities.
type Priority struct {
	Layer int
	Sub   int
}

// Less reports whether p should be checked after o.
func (p Priority) Less(o Priority) bool {
	if p.Layer != o.Layer {
		return p.Layer < o.Layer
	}
	return p.Sub < o.Sub
}

// QueryRegion is a grid of sample positions starting at StartPoint.
type QueryRegion struct {
	StartPoint mgl32.Vec3
	NumPointsX int
	NumPointsY int
	StepSize   mgl32.Vec2
}

// NewQueryRegionFromAabb covers bounds with samples spaced by step.
func NewQueryRegionFromAabb(bounds mathx.Aabb, step mgl32.Vec2) QueryRegion {
	nx, ny := GetNumSamplesFromRegion(bounds, step)
	return QueryRegion{
		StartPoint: bounds.Min,
		NumPointsX: nx,
		NumPointsY: ny,
		StepSize:   step,
	}
}

// NumPoints returns the total sample count.
func (r QueryRegion) NumPoints() int {
	if r.NumPointsX <= 0 || r.NumPointsY <= 0 {
		return 0
	}
	return r.NumPointsX * r.NumPointsY
}

// Position returns the sample position for grid index (x, y).
func (r QueryRegion) Position(x, y int) mgl32.Vec3 {
	return mgl32.Vec3{
		r.StartPoint.X() + float32(x)*r.StepSize.X(),
		r.StartPoint.Y() + float32(y)*r.StepSize.Y(),
		r.StartPoint.Z(),
	}
}

// PointCallback receives one result of a list query.
type PointCallback func(point SurfacePoint, terrainExists bool)

// RegionCallback receives one result of a region query with its grid index.
type RegionCallback func(xIndex, yIndex int, point SurfacePoint, terrainExists bool)
