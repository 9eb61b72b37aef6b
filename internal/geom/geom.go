// Package geom provides the small amount of 3D vector and rotation math the
// scan simulator needs. Coordinate convention: X=right, Y=up, Z=forward.
package geom

import "math"

// Vec3 is a 3D vector or point.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product of v and o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns a unit-length copy of v. The zero vector is returned
// unchanged so callers never divide by zero.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1.0 / n)
}

// Rotation is a 3x3 rotation matrix in row-major order:
// m00,m01,m02, m10,m11,m12, m20,m21,m22.
type Rotation [9]float64

// Identity returns the identity rotation.
func Identity() Rotation {
	return Rotation{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Apply rotates v by r.
func (r Rotation) Apply(v Vec3) Vec3 {
	return Vec3{
		r[0]*v.X + r[1]*v.Y + r[2]*v.Z,
		r[3]*v.X + r[4]*v.Y + r[5]*v.Z,
		r[6]*v.X + r[7]*v.Y + r[8]*v.Z,
	}
}

// Forward returns the rotated +Z axis (the sensor's view direction).
func (r Rotation) Forward() Vec3 {
	return Vec3{r[2], r[5], r[8]}
}

// LookRotation builds a rotation whose forward (+Z) axis points along dir.
// up hints the vertical; if dir and up are near-parallel a fallback up axis
// is substituted so the basis stays orthonormal.
func LookRotation(dir, up Vec3) Rotation {
	forward := dir.Normalize()
	if forward.Norm() == 0 {
		return Identity()
	}
	if up.Norm() == 0 {
		up = Vec3{0, 1, 0}
	}
	right := up.Cross(forward)
	if right.Norm() < 1e-9 {
		// dir is (anti)parallel to up; pick any perpendicular axis
		right = Vec3{0, 0, 1}.Cross(forward)
		if right.Norm() < 1e-9 {
			right = Vec3{1, 0, 0}.Cross(forward)
		}
	}
	right = right.Normalize()
	newUp := forward.Cross(right)
	return Rotation{
		right.X, newUp.X, forward.X,
		right.Y, newUp.Y, forward.Y,
		right.Z, newUp.Z, forward.Z,
	}
}

// IsValidRotation checks that r is a proper rotation: orthonormal rows and
// determinant ~= 1 (not a reflection).
func IsValidRotation(r Rotation) bool {
	const tolerance = 0.01
	det := r[0]*(r[4]*r[8]-r[5]*r[7]) -
		r[1]*(r[3]*r[8]-r[5]*r[6]) +
		r[2]*(r[3]*r[7]-r[4]*r[6])
	return math.Abs(det-1.0) <= tolerance
}

// Pose is a rigid sensor placement: position plus orientation.
type Pose struct {
	Origin Vec3
	R      Rotation
}

// Forward returns the pose's view direction.
func (p Pose) Forward() Vec3 {
	return p.R.Forward()
}
