package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

func cmdInfo(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terrainquery info <scene.yaml>")
		os.Exit(1)
	}

	sys, _ := openScene(cfg, args[0])
	defer sys.Deactivate()

	settings := sys.Settings()
	fmt.Printf("Scene:      %s\n", args[0])
	fmt.Printf("World:      %s\n", formatAabb(settings.WorldBounds))
	fmt.Printf("Resolution: %.3f\n", settings.HeightQueryResolution)
	fmt.Printf("Areas:      %d\n", sys.Registry().Len())
	fmt.Println()

	fmt.Printf("  %-24s %-6s %-4s %-7s %s\n", "ID", "LAYER", "SUB", "GROUND", "BOUNDS")
	for _, info := range sys.Registry().Areas() {
		ground := ""
		if info.UsesGroundPlane {
			ground = "yes"
		}
		fmt.Printf("  %-24s %-6d %-4d %-7s %s\n",
			info.ID, info.Priority.Layer, info.Priority.Sub, ground, formatAabb(info.Bounds))
	}
}

func cmdHeight(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("height", flag.ExitOnError)
	samplerName := fs.String("sampler", "default", "Sampler: exact, bilinear, clamp")
	fs.Parse(args)

	if fs.NArg() < 3 || (fs.NArg()-1)%2 != 0 {
		fmt.Fprintln(os.Stderr, "Usage: terrainquery height [-sampler s] <scene.yaml> <x> <y> [<x> <y>...]")
		os.Exit(1)
	}
	sampler := parseSampler(*samplerName)

	coords := make([]float32, 0, fs.NArg()-1)
	for _, arg := range fs.Args()[1:] {
		v, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid coordinate %q\n", arg)
			os.Exit(1)
		}
		coords = append(coords, float32(v))
	}

	sys, _ := openScene(cfg, fs.Arg(0))
	defer sys.Deactivate()

	for i := 0; i < len(coords); i += 2 {
		x, y := coords[i], coords[i+1]
		point, exists := sys.GetSurfacePointFromFloats(x, y, sampler)

		fmt.Printf("(%.3f, %.3f)\n", x, y)
		if !exists {
			fmt.Println("  terrain: none")
		}
		fmt.Printf("  height:  %.4f\n", point.Position.Z())
		fmt.Printf("  normal:  (%.4f, %.4f, %.4f)\n", point.Normal.X(), point.Normal.Y(), point.Normal.Z())

		if area, ok := sys.FindBestAreaAtPosition(x, y); ok {
			fmt.Printf("  area:    %s\n", area.ID)
		}
		if len(point.SurfaceTags) > 0 {
			var parts []string
			for _, w := range point.SurfaceTags {
				parts = append(parts, fmt.Sprintf("%s=%.2f", w.Tag, w.Weight))
			}
			fmt.Printf("  surface: %s\n", strings.Join(parts, " "))
		}
	}
}

func cmdRegion(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("region", flag.ExitOnError)
	samplerName := fs.String("sampler", "default", "Sampler: exact, bilinear, clamp")
	step := fs.Float64("step", 1, "Distance between samples")
	fs.Parse(args)

	if fs.NArg() < 5 {
		fmt.Fprintln(os.Stderr, "Usage: terrainquery region [-step n] [-sampler s] <scene.yaml> <minX> <minY> <maxX> <maxY>")
		os.Exit(1)
	}
	sampler := parseSampler(*samplerName)

	var v [4]float32
	for i := range v {
		f, err := strconv.ParseFloat(fs.Arg(i+1), 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid coordinate %q\n", fs.Arg(i+1))
			os.Exit(1)
		}
		v[i] = float32(f)
	}

	sys, _ := openScene(cfg, fs.Arg(0))
	defer sys.Deactivate()

	bounds := mathx.NewAabbFromValues(v[0], v[1], 0, v[2], v[3], 0)
	stepSize := mgl32.Vec2{float32(*step), float32(*step)}
	region := terrain.NewQueryRegionFromAabb(bounds, stepSize)
	if region.NumPoints() == 0 {
		fmt.Fprintln(os.Stderr, "Error: empty region")
		os.Exit(1)
	}

	grid := make([][]string, region.NumPointsY)
	for y := range grid {
		grid[y] = make([]string, region.NumPointsX)
	}
	sys.QueryRegion(region, terrain.DataHeights, func(x, y int, point terrain.SurfacePoint, exists bool) {
		if exists {
			grid[y][x] = fmt.Sprintf("%7.2f", point.Position.Z())
		} else {
			grid[y][x] = fmt.Sprintf("%7s", "--")
		}
	}, sampler)

	// Highest y first so the output reads like a map.
	for y := len(grid) - 1; y >= 0; y-- {
		fmt.Println(strings.Join(grid[y], " "))
	}
}

func cmdAsync(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("async", flag.ExitOnError)
	samplerName := fs.String("sampler", "default", "Sampler: exact, bilinear, clamp")
	count := fs.Int("n", 100000, "Number of random positions")
	numJobs := fs.Int("jobs", terrain.NumJobsDefault, "Desired number of jobs (0 = default)")
	seed := fs.Uint64("seed", 1, "Random seed")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terrainquery async [-n count] [-jobs n] [-sampler s] <scene.yaml>")
		os.Exit(1)
	}
	sampler := parseSampler(*samplerName)

	sys, _ := openScene(cfg, fs.Arg(0))
	defer sys.Deactivate()

	world := sys.GetTerrainAabb()
	ext := world.Extents()
	rng := rand.New(rand.NewPCG(*seed, *seed))
	positions := make([]mgl32.Vec3, *count)
	for i := range positions {
		positions[i] = mgl32.Vec3{
			world.Min.X() + rng.Float32()*ext.X(),
			world.Min.Y() + rng.Float32()*ext.Y(),
			0,
		}
	}

	var found, missing atomic.Int64
	done := make(chan *terrain.JobContext, 1)
	start := time.Now()

	jc := sys.ProcessSurfacePointsFromListAsync(positions, func(point terrain.SurfacePoint, exists bool) {
		if exists {
			found.Add(1)
		} else {
			missing.Add(1)
		}
	}, sampler, &terrain.QueryAsyncParams{
		DesiredNumberOfJobs: *numJobs,
		CompletionCallback:  func(jc *terrain.JobContext) { done <- jc },
	})
	if jc == nil {
		fmt.Fprintln(os.Stderr, "Error: nothing scheduled")
		os.Exit(1)
	}
	<-done
	elapsed := time.Since(start)

	total := found.Load() + missing.Load()
	fmt.Printf("Positions: %d\n", total)
	fmt.Printf("Terrain:   %d\n", found.Load())
	fmt.Printf("Missing:   %d\n", missing.Load())
	fmt.Printf("Time:      %v (%.0f points/s)\n", elapsed, float64(total)/elapsed.Seconds())
}
