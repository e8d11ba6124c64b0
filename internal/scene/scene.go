// Package scene loads terrain scene descriptions: world settings overrides
// and the list of areas to register.
package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-terrain/internal/areas"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// Area kinds.
const (
	KindConstant    = "constant"
	KindPlane       = "plane"
	KindWave        = "wave"
	KindHeightfield = "heightfield"
)

// Box is an axis aligned box in YAML form.
type Box struct {
	Min [3]float32 `yaml:"min"`
	Max [3]float32 `yaml:"max"`
}

// Aabb converts the box.
func (b Box) Aabb() mathx.Aabb {
	return mathx.NewAabb(mgl32.Vec3(b.Min), mgl32.Vec3(b.Max))
}

// World overrides the configured world settings. Zero values keep the
// configured ones.
type World struct {
	Bounds                *Box    `yaml:"bounds,omitempty"`
	HeightQueryResolution float32 `yaml:"height_query_resolution,omitempty"`
}

// Surface is one surface tag with its weight.
type Surface struct {
	Tag    string  `yaml:"tag"`
	Weight float32 `yaml:"weight"`
}

// Area describes one area. Which height fields apply depends on Kind.
type Area struct {
	Name        string    `yaml:"name"`
	Kind        string    `yaml:"kind"`
	Bounds      *Box      `yaml:"bounds,omitempty"`
	Layer       int       `yaml:"layer"`
	SubPriority int       `yaml:"sub_priority"`
	GroundPlane bool      `yaml:"ground_plane"`
	Surfaces    []Surface `yaml:"surfaces,omitempty"`
	Holes       []Box     `yaml:"holes,omitempty"`

	// constant, plane, wave
	Height float32 `yaml:"height"`
	// plane
	Slope [2]float32 `yaml:"slope"`
	// wave
	Amplitude  float32 `yaml:"amplitude"`
	Wavelength float32 `yaml:"wavelength"`
	// heightfield, relative to the scene file
	File string `yaml:"file"`
}

// Scene is a parsed scene file.
type Scene struct {
	World World  `yaml:"world"`
	Areas []Area `yaml:"areas"`

	dir string
}

// Parse decodes and validates a scene. Relative heightfield paths resolve
// against dir.
func Parse(data []byte, dir string) (*Scene, error) {
	var sc Scene
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	sc.dir = dir
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}
	return &sc, nil
}

// Load reads a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Validate reports every problem in the scene at once.
func (sc *Scene) Validate() error {
	var errs []error
	if sc.World.Bounds != nil && !sc.World.Bounds.Aabb().IsValid() {
		errs = append(errs, errors.New("world bounds are invalid"))
	}
	if sc.World.HeightQueryResolution < 0 {
		errs = append(errs, fmt.Errorf("world height_query_resolution must be > 0, got %v", sc.World.HeightQueryResolution))
	}

	names := make(map[string]bool)
	for i, a := range sc.Areas {
		label := a.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if a.Name != "" {
			if names[a.Name] {
				errs = append(errs, fmt.Errorf("area %s: duplicate name", label))
			}
			names[a.Name] = true
		}

		switch a.Kind {
		case KindConstant, KindPlane, KindWave:
			if a.Bounds == nil {
				errs = append(errs, fmt.Errorf("area %s: bounds required for %s", label, a.Kind))
			}
		case KindHeightfield:
			if a.File == "" {
				errs = append(errs, fmt.Errorf("area %s: file required for heightfield", label))
			}
		default:
			errs = append(errs, fmt.Errorf("area %s: unknown kind %q", label, a.Kind))
		}

		if a.Bounds != nil && !a.Bounds.Aabb().IsValid() {
			errs = append(errs, fmt.Errorf("area %s: invalid bounds", label))
		}
		if a.Kind == KindWave && a.Wavelength <= 0 {
			errs = append(errs, fmt.Errorf("area %s: wavelength must be > 0", label))
		}
	}
	return errors.Join(errs...)
}

// ApplyTo returns settings with the scene world overrides applied.
func (sc *Scene) ApplyTo(settings terrain.Settings) terrain.Settings {
	if sc.World.Bounds != nil {
		settings.WorldBounds = sc.World.Bounds.Aabb()
	}
	if sc.World.HeightQueryResolution > 0 {
		settings.HeightQueryResolution = sc.World.HeightQueryResolution
	}
	return settings
}

// BuildAreas creates the scene areas in file order.
func (sc *Scene) BuildAreas() ([]terrain.Area, error) {
	built := make([]terrain.Area, 0, len(sc.Areas))
	for i := range sc.Areas {
		area, err := sc.buildArea(&sc.Areas[i])
		if err != nil {
			return nil, err
		}
		built = append(built, area)
	}
	logger.Debug("scene areas built", zap.Int("count", len(built)))
	return built, nil
}

func (sc *Scene) buildArea(a *Area) (terrain.Area, error) {
	opts := areas.Options{
		ID:          terrain.AreaID(a.Name),
		Bounds:      mathx.NullAabb(),
		Priority:    terrain.Priority{Layer: a.Layer, Sub: a.SubPriority},
		GroundPlane: a.GroundPlane,
	}
	if a.Bounds != nil {
		opts.Bounds = a.Bounds.Aabb()
	}
	for _, s := range a.Surfaces {
		opts.Surfaces = append(opts.Surfaces, terrain.SurfaceTagWeight{Tag: terrain.SurfaceTag(s.Tag), Weight: s.Weight})
	}
	for _, h := range a.Holes {
		opts.Holes = append(opts.Holes, h.Aabb())
	}

	switch a.Kind {
	case KindConstant:
		return areas.NewConstant(opts, a.Height), nil
	case KindPlane:
		return areas.NewPlane(opts, a.Height, a.Slope[0], a.Slope[1]), nil
	case KindWave:
		return areas.NewWave(opts, a.Height, a.Amplitude, a.Wavelength), nil
	case KindHeightfield:
		path := a.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(sc.dir, path)
		}
		area, err := areas.LoadHeightfield(opts, path)
		if err != nil {
			return nil, fmt.Errorf("area %s: %w", a.Name, err)
		}
		return area, nil
	default:
		return nil, fmt.Errorf("area %s: unknown kind %q", a.Name, a.Kind)
	}
}

// Register builds the scene areas and registers them with sys.
func (sc *Scene) Register(sys *terrain.System) ([]terrain.Area, error) {
	built, err := sc.BuildAreas()
	if err != nil {
		return nil, err
	}
	for _, area := range built {
		sys.RegisterArea(area)
	}
	logger.Info("scene registered", zap.Int("areas", len(built)))
	return built, nil
}
