package areas

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/internal/jobs"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/heightfield"
	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

var (
	_ terrain.Area = (*ConstantArea)(nil)
	_ terrain.Area = (*PlaneArea)(nil)
	_ terrain.Area = (*WaveArea)(nil)
	_ terrain.Area = (*HeightfieldArea)(nil)
)

func TestConstantArea(t *testing.T) {
	a := NewConstant(Options{
		Bounds:   mathx.NewAabbFromValues(0, 0, 0, 10, 10, 10),
		Surfaces: []terrain.SurfaceTagWeight{{Tag: "grass", Weight: 1}},
		Holes:    []mathx.Aabb{mathx.NewAabbFromValues(2, 2, 0, 3, 3, 0)},
	}, 4)

	assert.NotEqual(t, terrain.InvalidAreaID, a.ID())

	h, ok := a.Height(1, 1)
	assert.True(t, ok)
	assert.Equal(t, float32(4), h)
	assert.Len(t, a.SurfaceWeights(1, 1, nil), 1)

	_, ok = a.Height(2.5, 2.5)
	assert.False(t, ok)
	assert.Empty(t, a.SurfaceWeights(2.5, 2.5, nil))
}

func TestPlaneArea(t *testing.T) {
	a := NewPlane(Options{ID: "ramp", Bounds: mathx.NewAabbFromValues(10, 20, 0, 30, 40, 50)}, 1, 0.5, 2)

	assert.Equal(t, terrain.AreaID("ramp"), a.ID())
	h, ok := a.Height(10, 20)
	require.True(t, ok)
	assert.InDelta(t, 1.0, h, 1e-5)

	h, _ = a.Height(14, 21)
	assert.InDelta(t, 1+2+2, h, 1e-5)
}

func TestWaveArea(t *testing.T) {
	a := NewWave(Options{Bounds: mathx.NewAabbFromValues(-10, -10, 0, 10, 10, 10)}, 5, 2, 8)

	h, _ := a.Height(0, 0)
	assert.InDelta(t, 5.0, h, 1e-5)
	h, _ = a.Height(2, 0)
	assert.InDelta(t, 7.0, h, 1e-5)
	h, _ = a.Height(-2, 0)
	assert.InDelta(t, 3.0, h, 1e-5)

	flat := NewWave(Options{}, 1, 2, 0)
	h, _ = flat.Height(3, 3)
	assert.InDelta(t, 1.0, h, 1e-5)
}

func testField() *heightfield.Heightfield {
	f := heightfield.New(2, 2, 4)
	f.OriginX, f.OriginY = 100, 200
	f.Surfaces = []string{"", "rock"}

	// Cell (0,0) slopes up along x, cell (1,0) is rock, cell (0,1) is a hole.
	f.GetCell(0, 0).Heights = [4]float32{0, 4, 0, 4}
	f.GetCell(1, 0).Heights = [4]float32{4, 4, 4, 4}
	f.GetCell(1, 0).SetSurfaceIndex(1)
	f.GetCell(0, 1).SetHole(true)
	f.GetCell(1, 1).Heights = [4]float32{8, 8, 8, 8}
	return f
}

func TestHeightfieldArea_Height(t *testing.T) {
	a := NewHeightfield(Options{}, testField())

	assert.Equal(t, mathx.NewAabbFromValues(100, 200, 0, 108, 208, 8), a.Bounds())

	tests := []struct {
		name   string
		x, y   float32
		want   float32
		exists bool
	}{
		{"cell origin", 100, 200, 0, true},
		{"halfway along x", 102, 201, 2, true},
		{"flat cell", 105, 202, 4, true},
		{"hole cell", 101, 205, 0, false},
		{"far edge", 108, 208, 8, true},
		{"outside", 99, 200, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := a.Height(tt.x, tt.y)
			assert.Equal(t, tt.exists, ok)
			if tt.exists {
				assert.InDelta(t, tt.want, h, 1e-5)
			}
		})
	}
}

func TestHeightfieldArea_Surfaces(t *testing.T) {
	a := NewHeightfield(Options{
		Surfaces: []terrain.SurfaceTagWeight{{Tag: "dirt", Weight: 1}},
	}, testField())

	assert.Equal(t, []terrain.SurfaceTagWeight{{Tag: "rock", Weight: 1}}, a.SurfaceWeights(105, 201, nil))
	assert.Equal(t, []terrain.SurfaceTagWeight{{Tag: "dirt", Weight: 1}}, a.SurfaceWeights(101, 201, nil))
	assert.Empty(t, a.SurfaceWeights(101, 205, nil))
}

func TestLoadHeightfield(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.hfld")
	require.NoError(t, testField().WriteFile(path))

	a, err := LoadHeightfield(Options{Priority: terrain.Priority{Layer: 3}}, path)
	require.NoError(t, err)
	assert.Equal(t, terrain.Priority{Layer: 3}, a.Priority())

	h, ok := a.Height(102, 201)
	require.True(t, ok)
	assert.InDelta(t, 2.0, h, 1e-5)

	_, err = LoadHeightfield(Options{}, filepath.Join(t.TempDir(), "missing.hfld"))
	assert.Error(t, err)
}

func TestAreasInSystem(t *testing.T) {
	s := terrain.NewSystem(terrain.Settings{
		WorldBounds:           mathx.NewAabbFromValues(0, 0, -10, 256, 256, 100),
		HeightQueryResolution: 1,
	}, jobs.NewPool(2))
	s.Activate()
	defer s.Deactivate()

	ground := NewConstant(Options{Bounds: mathx.NewAabbFromValues(0, 0, 0, 256, 256, 10)}, 1)
	field := NewHeightfield(Options{Priority: terrain.Priority{Layer: 1}}, testField())
	s.RegisterArea(ground)
	s.RegisterArea(field)

	h, ok := s.GetHeightFromFloats(105, 202, terrain.SamplerExact)
	require.True(t, ok)
	assert.InDelta(t, 4.0, h, 1e-5)

	// Holes in the heightfield are not filled by the ground area.
	assert.True(t, s.GetIsHoleFromFloats(101, 205, terrain.SamplerExact))

	h, _ = s.GetHeightFromFloats(50, 50, terrain.SamplerExact)
	assert.Equal(t, float32(1), h)

	field.SetPriority(terrain.Priority{Layer: -1})
	s.RefreshArea(field.ID(), 0)
	h, ok = s.GetHeightFromFloats(101, 205, terrain.SamplerExact)
	assert.True(t, ok)
	assert.Equal(t, float32(1), h)

	ground.SetBounds(mathx.NewAabbFromValues(0, 0, 0, 50, 50, 10))
	s.RefreshArea(ground.ID(), terrain.ChangeHeightData)
	h, ok = s.GetHeightFromFloats(101, 205, terrain.SamplerExact)
	assert.False(t, ok)
	assert.Equal(t, float32(-10), h)

	ground.SetGroundPlane(true)
	s.RefreshArea(ground.ID(), 0)
	info, ok := s.FindBestAreaAtPosition(10, 10)
	require.True(t, ok)
	assert.True(t, info.UsesGroundPlane)
}
