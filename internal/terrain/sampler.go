package terrain

import (
	"math"
)

// sampleTap is one weighted lookup position.
type sampleTap struct {
	x, y   float32
	weight float32
}

// samplePlan is the set of lookups a sampler needs for one query position.
type samplePlan struct {
	taps    [4]sampleTap
	n       int
	inWorld bool
}

func (p *samplePlan) add(x, y, weight float32) {
	if weight == 0 {
		return
	}
	p.taps[p.n] = sampleTap{x: x, y: y, weight: weight}
	p.n++
}

// snapDown moves v down onto the grid with spacing res.
func snapDown(v, res float32) float32 {
	return float32(math.Floor(float64(v/res))) * res
}

// planSamples maps a query position onto the lookups required by sampler.
// Every query type shares this, so heights, normals and surface weights see
// the same positions.
func planSamples(x, y float32, sampler Sampler, st *Settings) samplePlan {
	var plan samplePlan
	world := st.WorldBounds
	res := st.HeightQueryResolution

	switch sampler.resolve() {
	case SamplerClamp:
		cx, cy := world.ClampXY(x, y)
		// Snapping can move below a world min that is not grid aligned.
		cx, cy = world.ClampXY(snapDown(cx, res), snapDown(cy, res))
		plan.inWorld = true
		plan.add(cx, cy, 1)

	case SamplerBilinear:
		if !world.ContainsXY(x, y) {
			return plan
		}
		plan.inWorld = true

		x0, y0 := snapDown(x, res), snapDown(y, res)
		dx, dy := (x-x0)/res, (y-y0)/res
		x1, y1 := x0+res, y0+res
		x0, y0 = world.ClampXY(x0, y0)
		x1, y1 = world.ClampXY(x1, y1)

		// Zero weight corners are skipped, so on-grid queries need one lookup.
		plan.add(x0, y0, (1-dx)*(1-dy))
		plan.add(x1, y0, dx*(1-dy))
		plan.add(x0, y1, (1-dx)*dy)
		plan.add(x1, y1, dx*dy)

	default:
		if !world.ContainsXY(x, y) {
			return plan
		}
		plan.inWorld = true
		plan.add(x, y, 1)
	}

	return plan
}
