// Package math provides math types and functions for terrain queries.
package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Aabb is an axis-aligned bounding box.
type Aabb struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// NewAabb returns a box from two corners.
func NewAabb(min, max mgl32.Vec3) Aabb {
	return Aabb{Min: min, Max: max}
}

// NewAabbFromValues returns a box from individual min/max components.
func NewAabbFromValues(minX, minY, minZ, maxX, maxY, maxZ float32) Aabb {
	return Aabb{
		Min: mgl32.Vec3{minX, minY, minZ},
		Max: mgl32.Vec3{maxX, maxY, maxZ},
	}
}

// NullAabb returns an inverted box that acts as the identity for Union.
func NullAabb() Aabb {
	return Aabb{
		Min: mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// IsValid reports whether Min <= Max on every axis.
func (a Aabb) IsValid() bool {
	return a.Min.X() <= a.Max.X() && a.Min.Y() <= a.Max.Y() && a.Min.Z() <= a.Max.Z()
}

// Contains reports whether p is inside the box, edges included.
func (a Aabb) Contains(p mgl32.Vec3) bool {
	return a.ContainsXY(p.X(), p.Y()) && p.Z() >= a.Min.Z() && p.Z() <= a.Max.Z()
}

// ContainsXY reports whether (x, y) is inside the box footprint, edges included.
func (a Aabb) ContainsXY(x, y float32) bool {
	return x >= a.Min.X() && x <= a.Max.X() && y >= a.Min.Y() && y <= a.Max.Y()
}

// Overlaps reports whether the two boxes intersect. Touching edges count.
func (a Aabb) Overlaps(o Aabb) bool {
	if !a.IsValid() || !o.IsValid() {
		return false
	}
	return a.Min.X() <= o.Max.X() && a.Max.X() >= o.Min.X() &&
		a.Min.Y() <= o.Max.Y() && a.Max.Y() >= o.Min.Y() &&
		a.Min.Z() <= o.Max.Z() && a.Max.Z() >= o.Min.Z()
}

// Union returns the smallest box containing both boxes.
// Invalid boxes are ignored.
func (a Aabb) Union(o Aabb) Aabb {
	if !o.IsValid() {
		return a
	}
	if !a.IsValid() {
		return o
	}
	return Aabb{
		Min: mgl32.Vec3{min(a.Min.X(), o.Min.X()), min(a.Min.Y(), o.Min.Y()), min(a.Min.Z(), o.Min.Z())},
		Max: mgl32.Vec3{max(a.Max.X(), o.Max.X()), max(a.Max.Y(), o.Max.Y()), max(a.Max.Z(), o.Max.Z())},
	}
}

// Extents returns Max - Min.
func (a Aabb) Extents() mgl32.Vec3 {
	return a.Max.Sub(a.Min)
}

// Center returns the midpoint of the box.
func (a Aabb) Center() mgl32.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Translate returns the box moved by offset.
func (a Aabb) Translate(offset mgl32.Vec3) Aabb {
	return Aabb{Min: a.Min.Add(offset), Max: a.Max.Add(offset)}
}

// ClampXY clamps (x, y) into the box footprint.
func (a Aabb) ClampXY(x, y float32) (float32, float32) {
	return mgl32.Clamp(x, a.Min.X(), a.Max.X()), mgl32.Clamp(y, a.Min.Y(), a.Max.Y())
}
