package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/internal/jobs"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/heightfield"
	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

const testScene = `
world:
  bounds:
    min: [-64, -64, -10]
    max: [64, 64, 100]
  height_query_resolution: 0.5
areas:
  - name: ground
    kind: constant
    bounds: {min: [-64, -64, 0], max: [64, 64, 10]}
    height: 2
    surfaces:
      - {tag: grass, weight: 1}
    holes:
      - {min: [-4, -4, 0], max: [-2, -2, 0]}
  - name: ramp
    kind: plane
    bounds: {min: [0, 0, 0], max: [8, 8, 20]}
    layer: 1
    height: 3
    slope: [1, 0]
  - name: hills
    kind: wave
    bounds: {min: [20, 20, 0], max: [40, 40, 20]}
    layer: 1
    sub_priority: 2
    height: 5
    amplitude: 1
    wavelength: 10
  - name: field
    kind: heightfield
    file: field.hfld
    layer: 2
    ground_plane: true
`

func writeScene(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	f := heightfield.New(2, 2, 2)
	f.OriginX, f.OriginY = -40, -40
	for i := range f.Cells {
		f.Cells[i].Heights = [4]float32{7, 7, 7, 7}
	}
	require.NoError(t, f.WriteFile(filepath.Join(dir, "field.hfld")))

	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testScene), 0644))
	return path
}

func TestLoad(t *testing.T) {
	sc, err := Load(writeScene(t))
	require.NoError(t, err)

	require.Len(t, sc.Areas, 4)
	assert.Equal(t, KindPlane, sc.Areas[1].Kind)
	assert.Equal(t, [2]float32{1, 0}, sc.Areas[1].Slope)
	assert.Equal(t, 2, sc.Areas[2].SubPriority)
	assert.True(t, sc.Areas[3].GroundPlane)

	settings := sc.ApplyTo(terrain.DefaultSettings())
	assert.Equal(t, mathx.NewAabbFromValues(-64, -64, -10, 64, 64, 100), settings.WorldBounds)
	assert.Equal(t, float32(0.5), settings.HeightQueryResolution)
}

func TestApplyTo_KeepsUnsetValues(t *testing.T) {
	sc, err := Parse([]byte("areas: []\n"), ".")
	require.NoError(t, err)

	def := terrain.DefaultSettings()
	assert.Equal(t, def, sc.ApplyTo(def))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "areas:\n  - {name: a, kind: cubic, bounds: {min: [0,0,0], max: [1,1,1]}}\n"},
		{"missing bounds", "areas:\n  - {name: a, kind: constant}\n"},
		{"missing file", "areas:\n  - {name: a, kind: heightfield}\n"},
		{"bad wavelength", "areas:\n  - {name: a, kind: wave, bounds: {min: [0,0,0], max: [1,1,1]}}\n"},
		{"inverted bounds", "areas:\n  - {name: a, kind: constant, bounds: {min: [1,1,1], max: [0,0,0]}}\n"},
		{"duplicate names", "areas:\n  - {name: a, kind: constant, bounds: {min: [0,0,0], max: [1,1,1]}}\n  - {name: a, kind: constant, bounds: {min: [0,0,0], max: [1,1,1]}}\n"},
		{"bad world", "world:\n  bounds: {min: [1,1,1], max: [0,0,0]}\n"},
		{"bad yaml", "areas: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), ".")
			assert.Error(t, err)
		})
	}
}

func TestRegister(t *testing.T) {
	sc, err := Load(writeScene(t))
	require.NoError(t, err)

	sys := terrain.NewSystem(sc.ApplyTo(terrain.DefaultSettings()), jobs.NewPool(2))
	sys.Activate()
	defer sys.Deactivate()

	built, err := sc.Register(sys)
	require.NoError(t, err)
	assert.Len(t, built, 4)
	assert.Equal(t, 4, sys.Registry().Len())

	tests := []struct {
		name   string
		x, y   float32
		want   float32
		exists bool
	}{
		{"ground", -20, 10, 2, true},
		{"ground hole", -3, -3, -10, false},
		{"ramp", 4, 4, 7, true},
		{"hills", 20, 20, 5, true},
		{"heightfield", -39, -39, 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := sys.GetHeightFromFloats(tt.x, tt.y, terrain.SamplerExact)
			assert.Equal(t, tt.exists, ok)
			assert.InDelta(t, tt.want, h, 1e-4)
		})
	}

	best, ok := sys.GetMaxSurfaceWeightFromFloats(-20, 10, terrain.SamplerExact)
	require.True(t, ok)
	assert.Equal(t, terrain.SurfaceTag("grass"), best.Tag)

	info, ok := sys.FindBestAreaAtPosition(4, 4)
	require.True(t, ok)
	assert.Equal(t, terrain.AreaID("ramp"), info.ID)
}

func TestRegister_MissingHeightfield(t *testing.T) {
	sc, err := Parse([]byte("areas:\n  - {name: f, kind: heightfield, file: nope.hfld}\n"), t.TempDir())
	require.NoError(t, err)

	_, err = sc.BuildAreas()
	assert.Error(t, err)
}
