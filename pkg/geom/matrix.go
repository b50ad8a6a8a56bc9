// Package geom provides the small set of 2D primitives used throughout Easel:
// affine transformation matrices, points, rectangles, and segment distance
// helpers. Everything operates on float64 and is allocation-free.
package geom

import "math"

// Epsilon is the tolerance used by the approximate comparison helpers.
// Transform composition and constraint solving accumulate rounding error,
// so exact float comparison is almost never what callers want.
const Epsilon = 1e-9

// Matrix is a 2D affine transformation matrix with the layout
// [a, b, c, d, e, f] representing:
//
//	| a  c  e |
//	| b  d  f |
//	| 0  0  1 |
//
// where a, d carry scale, b, c carry rotation/skew, and e, f carry
// translation. The zero value is NOT the identity; use Identity.
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translation returns a matrix that translates by (tx, ty).
func Translation(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scaling returns a matrix that scales by (sx, sy).
func Scaling(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Rotation returns a matrix that rotates by the given angle in radians.
func Rotation(radians float64) Matrix {
	sin, cos := math.Sincos(radians)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// Multiply returns m ⊗ other: the transform that applies m first and
// other second. This matches cairo's matrix multiplication order, which
// is what the canvas uses to compose an item's local matrix with its
// parent's composed matrix.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// Translate returns m with a translation by (tx, ty) applied before m,
// mirroring cairo's Matrix.translate.
func (m Matrix) Translate(tx, ty float64) Matrix {
	return Translation(tx, ty).Multiply(m)
}

// TransformPoint applies the matrix to the point (x, y).
func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformDistance applies only the scale/rotation part of the matrix,
// ignoring translation. Useful for transforming deltas.
func (m Matrix) TransformDistance(dx, dy float64) (float64, float64) {
	return m[0]*dx + m[2]*dy, m[1]*dx + m[3]*dy
}

// Determinant returns the determinant of the matrix.
func (m Matrix) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse of the matrix and true, or the identity and
// false if the matrix is singular.
func (m Matrix) Invert() (Matrix, bool) {
	det := m.Determinant()
	if det == 0 {
		return Identity(), false
	}
	inv := 1.0 / det
	return Matrix{
		m[3] * inv,
		-m[1] * inv,
		-m[2] * inv,
		m[0] * inv,
		(m[2]*m[5] - m[3]*m[4]) * inv,
		(m[1]*m[4] - m[0]*m[5]) * inv,
	}, true
}

// IsIdentity reports whether m is the identity matrix within Epsilon.
func (m Matrix) IsIdentity() bool {
	return m.Equals(Identity())
}

// Equals reports whether m and other are equal within Epsilon per element.
func (m Matrix) Equals(other Matrix) bool {
	for i := range m {
		if math.Abs(m[i]-other[i]) > Epsilon {
			return false
		}
	}
	return true
}
