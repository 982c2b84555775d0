// Package math provides the vector and bounding-box types shared by the
// geometry pipeline.
package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a 3D vector (position or normal).
type Vec3 = mgl64.Vec3

// Vec2 is a 2D vector (texture coordinate).
type Vec2 = mgl64.Vec2

// V3 builds a Vec3.
func V3(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// V2 builds a Vec2.
func V2(u, v float64) Vec2 {
	return Vec2{u, v}
}

// Bounds is an axis-aligned bounding box. The zero value is not empty; use
// EmptyBounds to start accumulating points.
type Bounds struct {
	Min Vec3
	Max Vec3
}

// EmptyBounds returns an inverted box that any point will extend.
func EmptyBounds() Bounds {
	inf := gomath.Inf(1)
	return Bounds{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty returns true if no point has been added.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend returns b grown to include p.
func (b Bounds) Extend(p Vec3) Bounds {
	for i := 0; i < 3; i++ {
		b.Min[i] = gomath.Min(b.Min[i], p[i])
		b.Max[i] = gomath.Max(b.Max[i], p[i])
	}
	return b
}

// Center returns the midpoint (Min+Max)/2.
func (b Bounds) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns Max-Min.
func (b Bounds) Size() Vec3 {
	return b.Max.Sub(b.Min)
}
