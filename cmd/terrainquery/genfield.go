package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/Faultbox/midgard-terrain/pkg/heightfield"
)

func cmdGenField(args []string) {
	fs := flag.NewFlagSet("genfield", flag.ExitOnError)
	size := fs.Uint("size", 64, "Cells per side")
	cell := fs.Float64("cell", 1, "Cell size")
	originX := fs.Float64("ox", 0, "Origin x")
	originY := fs.Float64("oy", 0, "Origin y")
	amplitude := fs.Float64("amp", 4, "Wave amplitude")
	wavelength := fs.Float64("wavelength", 16, "Wavelength in world units")
	surfaces := fs.String("surfaces", "grass,rock", "Comma separated surfaces, low to high")
	holeEvery := fs.Uint("holes", 0, "Punch a hole every N cells (0 = none)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terrainquery genfield [options] <out.hfld>")
		os.Exit(1)
	}
	if *size == 0 || *size > heightfield.MaxDimension || *cell <= 0 || *wavelength <= 0 {
		fmt.Fprintln(os.Stderr, "Error: size, cell and wavelength must be positive")
		os.Exit(1)
	}

	f := heightfield.New(uint32(*size), uint32(*size), float32(*cell))
	f.OriginX = float32(*originX)
	f.OriginY = float32(*originY)
	if *surfaces != "" {
		f.Surfaces = strings.Split(*surfaces, ",")
	}

	cellSize, amp := *cell, *amplitude
	k := 2 * math.Pi / *wavelength
	heightAt := func(x, y float64) float32 {
		return float32(amp * math.Sin(k*x) * math.Cos(k*y))
	}

	n := int(*size)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			c := f.GetCell(x, y)
			x0 := *originX + float64(x)*cellSize
			y0 := *originY + float64(y)*cellSize
			x1, y1 := x0+cellSize, y0+cellSize
			c.Heights = [4]float32{heightAt(x0, y0), heightAt(x1, y0), heightAt(x0, y1), heightAt(x1, y1)}

			if len(f.Surfaces) > 0 {
				// Higher cells get later surfaces.
				t := 0.5
				if amp != 0 {
					avg := (c.Heights[0] + c.Heights[1] + c.Heights[2] + c.Heights[3]) / 4
					t = (float64(avg)/math.Abs(amp) + 1) / 2
				}
				idx := min(int(t*float64(len(f.Surfaces))), len(f.Surfaces)-1)
				c.SetSurfaceIndex(max(idx, 0))
			}
			if *holeEvery > 0 && (y*n+x)%int(*holeEvery) == 0 {
				c.SetHole(true)
			}
		}
	}

	if err := f.WriteFile(fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	lo, hi := f.AltitudeRange()
	w, h := f.WorldSize()
	fmt.Printf("Wrote %s\n", fs.Arg(0))
	fmt.Printf("Cells:    %dx%d (%.2f per cell)\n", f.Width, f.Height, f.CellSize)
	fmt.Printf("Extent:   %.2f x %.2f from (%.2f, %.2f)\n", w, h, f.OriginX, f.OriginY)
	fmt.Printf("Altitude: %.2f .. %.2f\n", lo, hi)
}
