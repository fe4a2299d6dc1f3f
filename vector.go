package octree

import "github.com/golang/geo/r3"

// Vec3 is a 3-component integer vector addressing a voxel within the cubic
// domain of an octree.
type Vec3 struct {
	X, Y, Z uint32
}

// Add returns the component-wise sum of v and other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Mul returns the component-wise product of v and other.
func (v Vec3) Mul(other Vec3) Vec3 {
	return Vec3{X: v.X * other.X, Y: v.Y * other.Y, Z: v.Z * other.Z}
}

// Scale returns v with every component multiplied by s.
func (v Vec3) Scale(s uint32) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Offset returns v with s added to every component.
func (v Vec3) Offset(s uint32) Vec3 {
	return Vec3{X: v.X + s, Y: v.Y + s, Z: v.Z + s}
}

// R3 converts v to a float vector for interop with spatial code.
func (v Vec3) R3() r3.Vector {
	return r3.Vector{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// splat returns the vector (d, d, d).
func splat(d uint32) Vec3 {
	return Vec3{X: d, Y: d, Z: d}
}
