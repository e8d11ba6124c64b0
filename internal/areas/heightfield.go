package areas

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/heightfield"
	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// HeightfieldArea serves heights from a heightfield grid.
// Each cell carries its own four corner heights, hole flag and surface.
type HeightfieldArea struct {
	base
	field *heightfield.Heightfield
}

// NewHeightfield wraps field. When opts.Bounds is invalid the bounds are
// derived from the field origin, size and altitude range.
func NewHeightfield(opts Options, field *heightfield.Heightfield) *HeightfieldArea {
	if !opts.Bounds.IsValid() {
		opts.Bounds = FieldBounds(field)
	}
	a := &HeightfieldArea{field: field}
	a.init(opts)

	logger.Debug("heightfield area created",
		zap.String("area", string(a.id)),
		zap.Uint32("width", field.Width),
		zap.Uint32("height", field.Height),
		zap.Float32("cell_size", field.CellSize))
	return a
}

// LoadHeightfield reads a heightfield file and wraps it.
func LoadHeightfield(opts Options, path string) (*HeightfieldArea, error) {
	field, err := heightfield.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading heightfield area: %w", err)
	}
	return NewHeightfield(opts, field), nil
}

// FieldBounds returns the box covered by field.
func FieldBounds(field *heightfield.Heightfield) mathx.Aabb {
	w, h := field.WorldSize()
	lo, hi := field.AltitudeRange()
	return mathx.NewAabbFromValues(field.OriginX, field.OriginY, lo, field.OriginX+w, field.OriginY+h, hi)
}

// Field returns the underlying heightfield.
func (a *HeightfieldArea) Field() *heightfield.Heightfield {
	return a.field
}

// cellAt maps a world position to a cell and the fractional position inside it.
// Positions on the far edge belong to the last cell.
func (a *HeightfieldArea) cellAt(x, y float32) (*heightfield.Cell, float32, float32) {
	f := a.field
	if f.Width == 0 || f.Height == 0 || f.CellSize <= 0 {
		return nil, 0, 0
	}

	cellFX := (x - f.OriginX) / f.CellSize
	cellFY := (y - f.OriginY) / f.CellSize
	if cellFX < 0 || cellFY < 0 || cellFX > float32(f.Width) || cellFY > float32(f.Height) {
		return nil, 0, 0
	}

	cellX := min(int(cellFX), int(f.Width)-1)
	cellY := min(int(cellFY), int(f.Height)-1)

	fracX := clampf(cellFX-float32(cellX), 0, 1)
	fracY := clampf(cellFY-float32(cellY), 0, 1)
	return f.GetCell(cellX, cellY), fracX, fracY
}

func (a *HeightfieldArea) Height(x, y float32) (float32, bool) {
	if a.inHole(x, y) {
		return 0, false
	}
	cell, fracX, fracY := a.cellAt(x, y)
	if cell == nil || cell.IsHole() {
		return 0, false
	}

	// Corners: 0 = min x/min y, 1 = max x/min y, 2 = min x/max y, 3 = max x/max y
	south := cell.Heights[0]*(1-fracX) + cell.Heights[1]*fracX
	north := cell.Heights[2]*(1-fracX) + cell.Heights[3]*fracX
	return south*(1-fracY) + north*fracY, true
}

// SurfaceWeights reports the cell surface with full weight, falling back to
// the surfaces given in Options when the cell has none.
func (a *HeightfieldArea) SurfaceWeights(x, y float32, out []terrain.SurfaceTagWeight) []terrain.SurfaceTagWeight {
	if a.inHole(x, y) {
		return out
	}
	cell, _, _ := a.cellAt(x, y)
	if cell == nil || cell.IsHole() {
		return out
	}
	if name := a.field.SurfaceName(cell); name != "" {
		return append(out, terrain.SurfaceTagWeight{Tag: terrain.SurfaceTag(name), Weight: 1})
	}
	return append(out, a.surfaces...)
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
