package linalg

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	matrix "github.com/skelterjohn/go.matrix"
)

func ExampleMat3_MultVec() {
	quarter := RotationZ(math.Pi / 2)
	fmt.Println(quarter.MultVec(Vec3{1, 0, 0}))
	// Output:
	// 0.000000 1.000000 0.000000
}

func TestCovariance(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cols := 11
	for i := 0; i < 1000; i++ {
		test1 := randomMatrix(rng, 3, cols)
		test2 := randomMatrix(rng, 3, cols)

		// Compute our covariance.
		tC := Covariance(cols, test1, test2)

		// Now compute the "correct" covariance.
		mat1 := matrix.MakeDenseMatrix(test1, 3, cols)
		mat2 := matrix.MakeDenseMatrix(test2, 3, cols)
		aC, err := mat1.TimesDense(mat2.Transpose())
		if err != nil {
			t.Fatal(err)
		}
		if !near(tC[:], aC.Array()) {
			t.Fatalf("The covariance of\n%v\nand\n%v\nis\n%v\nbut we said\n%v\n",
				test1, test2, aC.Array(), tC)
		}
	}
}

func TestMult3xN(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	cols := 11
	for i := 0; i < 1000; i++ {
		var test1 Mat3
		copy(test1[:], randomMatrix(rng, 3, 3))
		test2 := randomMatrix(rng, 3, cols)

		tC := Mult3xN(cols, test1, test2)

		mat1 := matrix.MakeDenseMatrix(test1[:], 3, 3)
		mat2 := matrix.MakeDenseMatrix(test2, 3, cols)
		aC, err := mat1.TimesDense(mat2)
		if err != nil {
			t.Fatal(err)
		}
		if !near(tC, aC.Array()) {
			t.Fatalf("The product of\n%v\nand\n%v\nis\n%v\nbut we said\n%v\n",
				test1, test2, aC.Array(), tC)
		}
	}
}

func TestMultAndDet(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		var a, b Mat3
		copy(a[:], randomMatrix(rng, 3, 3))
		copy(b[:], randomMatrix(rng, 3, 3))

		ma := matrix.MakeDenseMatrix(a[:], 3, 3)
		mb := matrix.MakeDenseMatrix(b[:], 3, 3)
		prod, err := ma.TimesDense(mb)
		if err != nil {
			t.Fatal(err)
		}
		ab := a.Mult(b)
		if !near(ab[:], prod.Array()) {
			t.Fatalf("%v * %v = %v but we said %v", a, b, prod.Array(), ab)
		}
		if got, want := ab.Det(), a.Det()*b.Det(); math.Abs(got-want) > 1e-6*math.Max(1, math.Abs(want)) {
			t.Fatalf("det(ab) = %f but det(a)det(b) = %f", got, want)
		}
	}
}

func TestRotationProperties(t *testing.T) {
	tests := []struct {
		name string
		r    Mat3
	}{
		{"identity", Identity},
		{"z quarter", RotationZ(math.Pi / 2)},
		{"x third", RotationX(2 * math.Pi / 3)},
		{"composed", RotationZ(0.3).Mult(RotationX(1.1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := tt.r.Det(); math.Abs(d-1) > 1e-12 {
				t.Fatalf("det = %f, want 1", d)
			}
			if !tt.r.Mult(tt.r.Transpose()).Near(Identity, 1e-12) {
				t.Fatalf("r r^T = %s, want identity", tt.r.Mult(tt.r.Transpose()))
			}
		})
	}
}

func near(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9*math.Max(1, math.Abs(b[i])) {
			return false
		}
	}
	return true
}

func randomMatrix(rng *rand.Rand, rows, cols int) []float64 {
	m := make([]float64, rows*cols)
	for i := range m {
		m[i] = rng.Float64()*20 - 10
	}
	return m
}
