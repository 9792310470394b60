package match

import (
	"math"
	"reflect"
	"testing"

	"github.com/m4tt-willi4ms/cctbx-project/linalg"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
)

const sequence = "MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVQAPILSRVGDGTQDNLSGAEKAVQVKVKALPDAQFEVVHSLAKWKRQTLGQHDFSAGEGLYTHMKALRPDEDRLSPLHSVYVDQWDWERVMGDGERQFSTLKSTVEAIWAGIKATEAAVSEEFGLAPFLPDQIHFVHSQELLSRYPDLDAKGRERAIAKDLGAVFLVGIGGKLSDGHRHDVRAPDYDDWSTPSELGHAGLNGDILVWNPVLEDAFELSSMGIRVDADTLKHQLALTGDEDRLELEWHQALLRGEMPQTIGGGIGQSRLTMLLLQLPHIGQVQAGVWPAACRESVPALL"

var threeLetter = map[byte]string{}

func init() {
	for k, v := range pdb.AminoThreeToOne {
		if k != "MSE" {
			threeLetter[v] = k
		}
	}
}

// helix builds a chain with one residue per letter of codes, laid out on a
// helix, and moves it by (r, t).
func helix(id string, codes string, r linalg.Mat3, t linalg.Vec3) *pdb.Chain {
	c := &pdb.Chain{Ident: id}
	for i := 0; i < len(codes); i++ {
		res := &pdb.Residue{Name: threeLetter[codes[i]], SequenceNum: i + 1}
		theta := float64(i) * 100 * math.Pi / 180
		z := 1.5 * float64(i)
		for k, name := range []string{"N", "CA", "C"} {
			off := float64(k-1) * 20 * math.Pi / 180
			radius := 1.8 + 0.25*float64(k)
			xyz := pdb.Coords{
				X: radius * math.Cos(theta+off),
				Y: radius * math.Sin(theta+off),
				Z: z + 0.5*float64(k-1),
			}
			res.Atoms = append(res.Atoms, pdb.Atom{
				Name: name, Element: name[:1], Coords: xyz.Transform(r, t)})
		}
		c.Residues = append(c.Residues, res)
	}
	return c
}

func entryOf(chains ...*pdb.Chain) *pdb.Entry {
	e := &pdb.Entry{Models: []*pdb.Model{{Chains: chains}}}
	e.Renumber()
	return e
}

func TestChainsRigidCopy(t *testing.T) {
	r := linalg.RotationZ(math.Pi / 3).Mult(linalg.RotationX(0.4))
	tr := linalg.Vec3{25, -3, 8}
	a := helix("A", sequence[:40], linalg.Identity, linalg.Vec3{})
	b := helix("B", sequence[:40], r, tr)
	entryOf(a, b)

	res := Chains(a, b, DefaultParams())
	if !res.Accepted {
		t.Fatalf("Expected the chains to match: %s", res.Reason)
	}
	if res.RMSD > 1e-6 {
		t.Fatalf("Expected zero RMSD but got %f.", res.RMSD)
	}
	if !res.R.Near(r, 1e-6) || !res.T.Sub(tr).IsZero(1e-5) {
		t.Fatalf("Wrong transform:\n%s\n%s", res.R, res.T)
	}
	if len(res.A) != 120 || len(res.B) != 120 || res.Residues != 40 {
		t.Fatalf("Expected 120 paired atoms in 40 residues but got %d/%d/%d.",
			len(res.A), len(res.B), res.Residues)
	}
	for i := range res.A {
		if res.B[i] != res.A[i]+120 {
			t.Fatalf("Atom %d of A is paired with %d.", res.A[i], res.B[i])
		}
	}
}

func TestChainsSelf(t *testing.T) {
	a := helix("A", sequence[:30], linalg.Identity, linalg.Vec3{})
	b := helix("B", sequence[:30], linalg.Identity, linalg.Vec3{})
	entryOf(a, b)
	res := Chains(a, b, DefaultParams())
	if res.Accepted || !res.Self {
		t.Fatalf("Coinciding chains must be flagged as a self match: %+v", res)
	}
}

func TestChainsRejects(t *testing.T) {
	move := linalg.Vec3{30, 0, 0}
	tests := []struct {
		name string
		a, b *pdb.Chain
	}{
		{"different sequence",
			helix("A", sequence[:40], linalg.Identity, linalg.Vec3{}),
			helix("B", sequence[100:140], linalg.Identity, move)},
		{"too short overlap",
			helix("A", sequence[:40], linalg.Identity, linalg.Vec3{}),
			helix("B", sequence[:20], linalg.Identity, move)},
		{"empty",
			helix("A", sequence[:40], linalg.Identity, linalg.Vec3{}),
			&pdb.Chain{Ident: "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entryOf(tt.a, tt.b)
			if res := Chains(tt.a, tt.b, DefaultParams()); res.Accepted {
				t.Fatalf("Expected a rejection.")
			}
		})
	}
}

func TestChainsMinPercent(t *testing.T) {
	move := linalg.Vec3{0, 40, 0}
	a := helix("A", sequence[:40], linalg.Identity, linalg.Vec3{})
	b := helix("B", sequence[:36], linalg.Identity, move)
	entryOf(a, b)

	if res := Chains(a, b, DefaultParams()); !res.Accepted {
		t.Fatalf("36 of 40 residues should be enough: %s", res.Reason)
	}
	p := DefaultParams()
	p.MinPercent = 95 // percent, read as 0.95
	if res := Chains(a, b, p); res.Accepted {
		t.Fatalf("36 of 40 residues should not reach 95%%.")
	}
}

func TestChainsMisaligned(t *testing.T) {
	move := linalg.Vec3{0, 0, 60}
	a := helix("A", sequence[:40], linalg.Identity, linalg.Vec3{})
	b := helix("B", sequence[:40], linalg.Identity, move)
	for i := range b.Residues[7].Atoms {
		b.Residues[7].Atoms[i].Coords.X += 30
	}
	entryOf(a, b)

	res := Chains(a, b, DefaultParams())
	if !res.Accepted {
		t.Fatalf("Dropping one residue should rescue the pair: %s", res.Reason)
	}
	if res.Residues != 39 || res.RMSD > 1e-6 {
		t.Fatalf("Expected 39 residues at zero RMSD but got %d at %f.",
			res.Residues, res.RMSD)
	}

	p := DefaultParams()
	p.ExcludeMisalignedResidues = false
	if res := Chains(a, b, p); res.Accepted {
		t.Fatalf("Without exclusion the pair must be rejected (RMSD %f).", res.RMSD)
	}
}

func TestChainsResidueSize(t *testing.T) {
	move := linalg.Vec3{-50, 0, 0}
	a := helix("A", sequence[:40], linalg.Identity, linalg.Vec3{})
	b := helix("B", sequence[:40], linalg.Identity, move)
	extra := b.Residues[3].Atoms[1]
	extra.Name = "CB"
	extra.Coords.Z += 1
	b.Residues[3].Atoms = append(b.Residues[3].Atoms, extra)
	swapped := b.Residues[5].Atoms
	swapped[0], swapped[2] = swapped[2], swapped[0]
	entryOf(a, b)

	tests := []struct {
		name     string
		adjust   func(*Params)
		residues int
	}{
		{"common atoms", func(p *Params) {}, 40},
		{"same size only", func(p *Params) { p.AllowDifferentSizeRes = false }, 39},
		{"atom order", func(p *Params) { p.CheckAtomOrder = true }, 38},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.adjust(&p)
			res := Chains(a, b, p)
			if !res.Accepted {
				t.Fatalf("Expected a match: %s", res.Reason)
			}
			if res.Residues != tt.residues {
				t.Fatalf("Expected %d residues but got %d.", tt.residues, res.Residues)
			}
		})
	}
}

func TestRank(t *testing.T) {
	rs := []Result{
		{Reason: "c"}, {Reason: "a"}, {Reason: "b"}, {Reason: "d"},
	}
	rs[0].RMSD, rs[1].RMSD, rs[2].RMSD, rs[3].RMSD = 0.5, 0.1, 0.1, 0.5
	rs[1].T = linalg.Vec3{2, 0, 0}
	rs[2].T = linalg.Vec3{1, 0, 0}
	got := Rank(rs)
	if !reflect.DeepEqual(got, []int{2, 1, 0, 3}) {
		t.Fatalf("Unexpected order %v.", got)
	}
	if rs[0].Reason != "c" {
		t.Fatalf("Rank reordered its input.")
	}
}
