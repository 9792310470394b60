// Package linalg provides the small fixed-size linear algebra needed to
// describe rigid-body motion: 3x3 matrices, 3-vectors and the 3xN products
// used when superposing two sets of points.
package linalg

import (
	"fmt"
	"math"
)

// Mat3 represents a 3x3 matrix, in row-major order
// | 0 1 2 |
// | 3 4 5 |
// | 6 7 8 |
type Mat3 [9]float64

// Vec3 is a column vector.
type Vec3 [3]float64

// Identity is the 3x3 identity matrix.
var Identity = Mat3{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}

// Mult returns the matrix product ab.
func (a Mat3) Mult(b Mat3) Mat3 {
	return Mat3{
		a[0]*b[0] + a[1]*b[3] + a[2]*b[6],
		a[0]*b[1] + a[1]*b[4] + a[2]*b[7],
		a[0]*b[2] + a[1]*b[5] + a[2]*b[8],

		a[3]*b[0] + a[4]*b[3] + a[5]*b[6],
		a[3]*b[1] + a[4]*b[4] + a[5]*b[7],
		a[3]*b[2] + a[4]*b[5] + a[5]*b[8],

		a[6]*b[0] + a[7]*b[3] + a[8]*b[6],
		a[6]*b[1] + a[7]*b[4] + a[8]*b[7],
		a[6]*b[2] + a[7]*b[5] + a[8]*b[8],
	}
}

// MultVec returns the product av.
func (a Mat3) MultVec(v Vec3) Vec3 {
	return Vec3{
		a[0]*v[0] + a[1]*v[1] + a[2]*v[2],
		a[3]*v[0] + a[4]*v[1] + a[5]*v[2],
		a[6]*v[0] + a[7]*v[1] + a[8]*v[2],
	}
}

func (a Mat3) Transpose() Mat3 {
	return Mat3{
		a[0], a[3], a[6],
		a[1], a[4], a[7],
		a[2], a[5], a[8],
	}
}

// Det computes the determinant by cofactor expansion along the first row.
func (a Mat3) Det() float64 {
	return a[0]*(a[4]*a[8]-a[5]*a[7]) -
		a[1]*(a[3]*a[8]-a[5]*a[6]) +
		a[2]*(a[3]*a[7]-a[4]*a[6])
}

func (a Mat3) Sub(b Mat3) Mat3 {
	var m Mat3
	for i := range a {
		m[i] = a[i] - b[i]
	}
	return m
}

// NormSq is the squared Frobenius norm.
func (a Mat3) NormSq() float64 {
	var s float64
	for _, v := range a {
		s += v * v
	}
	return s
}

// IsZero reports whether every element of a is within tol of zero.
func (a Mat3) IsZero(tol float64) bool {
	for _, v := range a {
		if math.Abs(v) > tol {
			return false
		}
	}
	return true
}

// Near reports whether a and b agree element-wise within tol.
func (a Mat3) Near(b Mat3, tol float64) bool {
	return a.Sub(b).IsZero(tol)
}

// String formats the matrix on one line with six decimals. The result is
// also used as a canonical sort key for transforms.
func (a Mat3) String() string {
	return fmt.Sprintf("%.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f",
		a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7], a[8])
}

// RotationZ returns the rotation by theta radians about the z axis.
func RotationZ(theta float64) Mat3 {
	s, c := math.Sin(theta), math.Cos(theta)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// RotationX returns the rotation by theta radians about the x axis.
func RotationX(theta float64) Mat3 {
	s, c := math.Sin(theta), math.Cos(theta)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]} }
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }

func (v Vec3) Dot(w Vec3) float64 { return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] }

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// IsZero reports whether every component of v is within tol of zero.
func (v Vec3) IsZero(tol float64) bool {
	return math.Abs(v[0]) <= tol && math.Abs(v[1]) <= tol && math.Abs(v[2]) <= tol
}

func (v Vec3) String() string {
	return fmt.Sprintf("%.6f %.6f %.6f", v[0], v[1], v[2])
}

// Mult3xN multiplies the 3x3 matrix a by the 3xN matrix b, both in row-major
// order.
func Mult3xN(cols int, a Mat3, b []float64) []float64 {
	var index int

	m := make([]float64, 3*cols)
	for r := 0; r < 3; r++ {
		for c := 0; c < cols; c++ {
			index = r*cols + c
			m[index] = 0
			for i := 0; i < 3; i++ {
				m[index] += a[r*3+i] * b[i*cols+c]
			}
		}
	}
	return m
}

// Covariance computes a(b^T) for two 3xN row-major matrices.
func Covariance(cols int, a, b []float64) Mat3 {
	var C Mat3
	var index int
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			index = r*3 + c
			C[index] = 0
			for i := 0; i < cols; i++ {
				C[index] += a[r*cols+i] * b[c*cols+i]
			}
		}
	}
	return C
}
