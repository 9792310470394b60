package rmsd

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	matrix "github.com/skelterjohn/go.matrix"

	"github.com/m4tt-willi4ms/cctbx-project/linalg"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
)

func ExampleSuperpose() {
	master := []pdb.Coords{
		atom(-2.803, -15.373, 24.556),
		atom(0.893, -16.062, 25.147),
		atom(1.368, -12.371, 25.885),
		atom(-1.651, -12.153, 28.177),
		atom(-0.440, -15.218, 30.068),
		atom(2.551, -13.273, 31.372),
		atom(0.105, -11.330, 33.567),
	}
	quarter := linalg.RotationZ(math.Pi / 2)
	shift := linalg.Vec3{10, 0, -5}
	copy := make([]pdb.Coords, len(master))
	for i, c := range master {
		copy[i] = c.Transform(quarter, shift)
	}

	s, err := Superpose(master, copy)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("RMSD: %.6f\n", math.Abs(s.RMSD))
	fmt.Printf("R: %s\n", roundMat(s.R))
	fmt.Printf("T: %s\n", roundVec(s.T))
	// Output:
	// RMSD: 0.000000
	// R: 0.000 -1.000 0.000 1.000 0.000 0.000 0.000 0.000 1.000
	// T: 10.000 0.000 -5.000
}

func TestSuperposeRecoversMotion(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		r := randomRotation(rng)
		tr := linalg.Vec3{rng.Float64() * 50, rng.Float64() * 50, rng.Float64() * 50}
		a := randomAtoms(rng, 4+rng.Intn(20))
		b := make([]pdb.Coords, len(a))
		for j := range a {
			b[j] = a[j].Transform(r, tr)
		}

		s, err := Superpose(a, b)
		if err != nil {
			t.Fatal(err)
		}
		if !s.R.Near(r, 1e-6) {
			t.Fatalf("Expected rotation\n%s\nbut got\n%s\n", r, s.R)
		}
		if !s.T.Sub(tr).IsZero(1e-5) {
			t.Fatalf("Expected translation %s but got %s.", tr, s.T)
		}
		if s.RMSD > 1e-6 {
			t.Fatalf("Expected zero RMSD but got %f.", s.RMSD)
		}
		if d := s.R.Det(); math.Abs(d-1) > 1e-9 {
			t.Fatalf("The rotation has determinant %f.", d)
		}
	}
}

// TestSuperposeGoMatrix compares our rotation with one built from the SVD
// computed by go.matrix.
func TestSuperposeGoMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		a := randomAtoms(rng, 11)
		b := randomAtoms(rng, 11)

		s, err := Superpose(a, b)
		if err != nil {
			t.Fatal(err)
		}

		ca, cb := centroid(a), centroid(b)
		cols := len(a)
		X := make([]float64, 3*cols)
		Y := make([]float64, 3*cols)
		for j := range a {
			p, q := a[j].Vec().Sub(ca), b[j].Vec().Sub(cb)
			for r := 0; r < 3; r++ {
				X[r*cols+j] = p[r]
				Y[r*cols+j] = q[r]
			}
		}
		mx := matrix.MakeDenseMatrix(X, 3, cols)
		my := matrix.MakeDenseMatrix(Y, 3, cols)
		C, err := mx.TimesDense(my.Transpose())
		if err != nil {
			t.Fatal(err)
		}
		U, _, V, err := C.SVD()
		if err != nil {
			t.Fatal(err)
		}
		var u, v linalg.Mat3
		copy(u[:], U.Array())
		copy(v[:], V.Array())
		if v.Mult(u.Transpose()).Det() < 0 {
			v = v.Mult(linalg.Mat3{1, 0, 0, 0, 1, 0, 0, 0, -1})
		}
		want := v.Mult(u.Transpose())

		if !s.R.Near(want, 1e-6) {
			t.Fatalf("go.matrix gives rotation\n%s\nbut we said\n%s\n", want, s.R)
		}
		if got, best := s.RMSD, Fit(a, b, want, cb.Sub(want.MultVec(ca))); math.Abs(got-best) > 1e-9 {
			t.Fatalf("go.matrix gives RMSD %f but we said %f.", best, got)
		}
	}
}

func TestSuperposeReflection(t *testing.T) {
	a := []pdb.Coords{
		atom(0, 0, 0), atom(1, 0, 0), atom(0, 1, 0), atom(0, 0, 1),
	}
	b := make([]pdb.Coords, len(a))
	for i, c := range a {
		b[i] = atom(c.X, c.Y, -c.Z)
	}
	s, err := Superpose(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if d := s.R.Det(); math.Abs(d-1) > 1e-9 {
		t.Fatalf("A mirror image must still yield a proper rotation, det = %f.", d)
	}
	if s.RMSD <= 0 {
		t.Fatalf("A mirror image cannot be superposed exactly.")
	}
}

func TestSuperposeErrors(t *testing.T) {
	tests := []struct {
		name string
		a, b []pdb.Coords
	}{
		{"length mismatch", randomAtoms(rand.New(rand.NewSource(1)), 4),
			randomAtoms(rand.New(rand.NewSource(2)), 5)},
		{"too few", []pdb.Coords{atom(0, 0, 0), atom(1, 1, 1)},
			[]pdb.Coords{atom(0, 0, 0), atom(1, 1, 1)}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Superpose(tt.a, tt.b); err == nil {
				t.Fatalf("Expected an error.")
			}
		})
	}
}

func TestDistances(t *testing.T) {
	a := []pdb.Coords{atom(0, 0, 0), atom(1, 0, 0)}
	b := []pdb.Coords{atom(0, 0, 3), atom(1, 4, 0)}
	ds := Distances(a, b, linalg.Identity, linalg.Vec3{})
	if ds[0] != 3 || ds[1] != 4 {
		t.Fatalf("Expected distances [3 4] but got %v.", ds)
	}
	if got, want := Fit(a, b, linalg.Identity, linalg.Vec3{}), math.Sqrt(12.5); math.Abs(got-want) > 1e-12 {
		t.Fatalf("Expected fit %f but got %f.", want, got)
	}
}

func BenchmarkSuperpose(b *testing.B) {
	rng := rand.New(rand.NewSource(3))
	atoms1 := randomAtoms(rng, 300)
	atoms2 := randomAtoms(rng, 300)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Superpose(atoms1, atoms2)
	}
}

func randomRotation(rng *rand.Rand) linalg.Mat3 {
	return linalg.RotationZ(rng.Float64() * 2 * math.Pi).
		Mult(linalg.RotationX(rng.Float64() * math.Pi)).
		Mult(linalg.RotationZ(rng.Float64() * 2 * math.Pi))
}

func randomAtoms(rng *rand.Rand, cnt int) []pdb.Coords {
	atoms := make([]pdb.Coords, cnt)
	for i := 0; i < cnt; i++ {
		atoms[i] = atom(rng.Float64()*40, rng.Float64()*40, rng.Float64()*40)
	}
	return atoms
}

func atom(x, y, z float64) pdb.Coords {
	return pdb.Coords{X: x, Y: y, Z: z}
}

func roundMat(m linalg.Mat3) string {
	return fmt.Sprintf("%.3f %.3f %.3f %.3f %.3f %.3f %.3f %.3f %.3f",
		clean(m[0]), clean(m[1]), clean(m[2]), clean(m[3]), clean(m[4]),
		clean(m[5]), clean(m[6]), clean(m[7]), clean(m[8]))
}

func roundVec(v linalg.Vec3) string {
	return fmt.Sprintf("%.3f %.3f %.3f", clean(v[0]), clean(v[1]), clean(v[2]))
}

// clean avoids printing negative zero.
func clean(x float64) float64 {
	if math.Abs(x) < 5e-4 {
		return 0
	}
	return x
}
