// Package areas provides terrain.Area implementations: flat, sloped and
// procedural areas plus areas backed by heightfield files.
package areas

import (
	"math"
	"sync"

	"github.com/Faultbox/midgard-terrain/internal/terrain"
	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// Options holds the properties shared by every area kind.
type Options struct {
	// ID defaults to a fresh random id.
	ID          terrain.AreaID
	Bounds      mathx.Aabb
	Priority    terrain.Priority
	GroundPlane bool

	// Surfaces are reported at every non-hole position.
	Surfaces []terrain.SurfaceTagWeight

	// Holes are XY rectangles without terrain. Z is ignored.
	Holes []mathx.Aabb
}

// base implements the bookkeeping half of terrain.Area.
// Bounds and priority may change at runtime; call System.RefreshArea after.
type base struct {
	id       terrain.AreaID
	surfaces []terrain.SurfaceTagWeight
	holes    []mathx.Aabb

	mu          sync.RWMutex
	bounds      mathx.Aabb
	priority    terrain.Priority
	groundPlane bool
}

func (b *base) init(opts Options) {
	b.id = opts.ID
	if b.id == terrain.InvalidAreaID {
		b.id = terrain.NewAreaID()
	}
	b.surfaces = opts.Surfaces
	b.holes = opts.Holes
	b.bounds = opts.Bounds
	b.priority = opts.Priority
	b.groundPlane = opts.GroundPlane
}

func (b *base) ID() terrain.AreaID { return b.id }

func (b *base) Bounds() mathx.Aabb {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bounds
}

func (b *base) Priority() terrain.Priority {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.priority
}

func (b *base) UsesGroundPlane() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.groundPlane
}

// SetBounds moves or resizes the area.
func (b *base) SetBounds(bounds mathx.Aabb) {
	b.mu.Lock()
	b.bounds = bounds
	b.mu.Unlock()
}

// SetPriority changes the area priority.
func (b *base) SetPriority(p terrain.Priority) {
	b.mu.Lock()
	b.priority = p
	b.mu.Unlock()
}

// SetGroundPlane toggles the ground plane.
func (b *base) SetGroundPlane(on bool) {
	b.mu.Lock()
	b.groundPlane = on
	b.mu.Unlock()
}

func (b *base) inHole(x, y float32) bool {
	for i := range b.holes {
		if b.holes[i].ContainsXY(x, y) {
			return true
		}
	}
	return false
}

func (b *base) SurfaceWeights(x, y float32, out []terrain.SurfaceTagWeight) []terrain.SurfaceTagWeight {
	if b.inHole(x, y) {
		return out
	}
	return append(out, b.surfaces...)
}

// ConstantArea is flat terrain at a fixed height.
type ConstantArea struct {
	base
	height float32
}

// NewConstant returns a flat area at height.
func NewConstant(opts Options, height float32) *ConstantArea {
	a := &ConstantArea{height: height}
	a.init(opts)
	return a
}

func (a *ConstantArea) Height(x, y float32) (float32, bool) {
	if a.inHole(x, y) {
		return 0, false
	}
	return a.height, true
}

// PlaneArea is a sloped plane anchored at the bounds min corner.
type PlaneArea struct {
	base
	originX, originY float32
	baseHeight       float32
	slopeX, slopeY   float32
}

// NewPlane returns a plane with height baseHeight at the bounds min corner,
// rising slopeX per unit x and slopeY per unit y.
func NewPlane(opts Options, baseHeight, slopeX, slopeY float32) *PlaneArea {
	a := &PlaneArea{
		originX:    opts.Bounds.Min.X(),
		originY:    opts.Bounds.Min.Y(),
		baseHeight: baseHeight,
		slopeX:     slopeX,
		slopeY:     slopeY,
	}
	a.init(opts)
	return a
}

func (a *PlaneArea) Height(x, y float32) (float32, bool) {
	if a.inHole(x, y) {
		return 0, false
	}
	return a.baseHeight + (x-a.originX)*a.slopeX + (y-a.originY)*a.slopeY, true
}

// WaveArea is rolling terrain: baseHeight + amplitude*sin(kx)*cos(ky).
type WaveArea struct {
	base
	baseHeight float32
	amplitude  float32
	k          float64
}

// NewWave returns a wave area. wavelength must be positive.
func NewWave(opts Options, baseHeight, amplitude, wavelength float32) *WaveArea {
	k := 0.0
	if wavelength > 0 {
		k = 2 * math.Pi / float64(wavelength)
	}
	a := &WaveArea{baseHeight: baseHeight, amplitude: amplitude, k: k}
	a.init(opts)
	return a
}

func (a *WaveArea) Height(x, y float32) (float32, bool) {
	if a.inHole(x, y) {
		return 0, false
	}
	wave := math.Sin(a.k*float64(x)) * math.Cos(a.k*float64(y))
	return a.baseHeight + a.amplitude*float32(wave), true
}
