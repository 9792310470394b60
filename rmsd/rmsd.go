package rmsd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/m4tt-willi4ms/cctbx-project/linalg"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
)

// Superposition is the rigid motion that best maps one point set onto
// another: for every pair, b[i] ~ R*a[i] + T.
type Superposition struct {
	R    linalg.Mat3
	T    linalg.Vec3
	RMSD float64
}

// Superpose implements a version of the Kabsch algorithm that is described
// here: http://cnx.org/content/m11608/latest/
//
// A brief, high-level overview:
//
// Build the 3xN matrices X and Y containing, for the sets a and b
// respectively, the coordinates for each of the N atoms after centering
// the atoms by subtracting the centroids.
//
// Compute the covariance matrix C=X(Y^T)
//
// Compute the SVD (Singular Value Decomposition) of C=US(V^T)
//
// Compute d=sign(det(V(U^T)))
//
// Compute the optimal rotation R as R = V([1 0 0] [0 1 0] [0 0 d])(U^T)
//
// The translation is then the difference between the centroid of b and the
// rotated centroid of a.
//
// Superpose requires that a and b have equal length of at least 3.
func Superpose(a, b []pdb.Coords) (Superposition, error) {
	if len(a) != len(b) {
		return Superposition{}, fmt.Errorf("Superposing two point sets requires "+
			"that they have equal length. But the lengths of the two sets "+
			"provided are %d and %d.", len(a), len(b))
	}
	if len(a) < 3 {
		return Superposition{}, fmt.Errorf("Superposing requires at least 3 "+
			"points but only %d were given.", len(a))
	}

	ca, cb := centroid(a), centroid(b)

	// Build the two centered 3xN matrices.
	cols := len(a)
	X := make([]float64, 3*cols)
	Y := make([]float64, 3*cols)
	for i := range a {
		p, q := a[i].Vec().Sub(ca), b[i].Vec().Sub(cb)
		for r := 0; r < 3; r++ {
			X[r*cols+i] = p[r]
			Y[r*cols+i] = q[r]
		}
	}

	// Compute the covariance matrix C = X(Y^T)
	C := linalg.Covariance(cols, X, Y)

	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(3, 3, C[:]), mat.SVDFull); !ok {
		return Superposition{}, fmt.Errorf(
			"The SVD of the covariance matrix\n%s\ndid not converge.", C)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	U, V := toMat3(&u), toMat3(&v)

	// If V(U^T) is a reflection, flip the axis of the smallest singular
	// value so that the result is a proper rotation.
	UT := U.Transpose()
	if V.Mult(UT).Det() < 0 {
		adjust := linalg.Mat3{
			1, 0, 0,
			0, 1, 0,
			0, 0, -1,
		}
		V = V.Mult(adjust)
	}
	R := V.Mult(UT)
	T := cb.Sub(R.MultVec(ca))

	return Superposition{R: R, T: T, RMSD: Fit(a, b, R, T)}, nil
}

// Fit returns the RMSD between b and a moved by (r, t), without any further
// superposition.
func Fit(a, b []pdb.Coords, r linalg.Mat3, t linalg.Vec3) float64 {
	if len(a) == 0 {
		return 0
	}
	var sum float64
	for _, d := range Distances(a, b, r, t) {
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}

// Distances returns, for every pair, the distance between b[i] and a[i]
// moved by (r, t).
func Distances(a, b []pdb.Coords, r linalg.Mat3, t linalg.Vec3) []float64 {
	ds := make([]float64, len(a))
	for i := range a {
		moved := r.MultVec(a[i].Vec()).Add(t)
		ds[i] = moved.Sub(b[i].Vec()).Norm()
	}
	return ds
}

// centroid calculates the average position of a set of atoms.
func centroid(atoms []pdb.Coords) linalg.Vec3 {
	var sum linalg.Vec3
	for _, atom := range atoms {
		sum = sum.Add(atom.Vec())
	}
	return sum.Scale(1 / float64(len(atoms)))
}

func toMat3(d *mat.Dense) linalg.Mat3 {
	var m linalg.Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r*3+c] = d.At(r, c)
		}
	}
	return m
}
