// Package pdb provides the hierarchical container for a structural model:
// an Entry holds one or more Models, each Model a list of Chains, each Chain
// an ordered list of Residues and each Residue an ordered list of Atoms.
//
// Every atom carries a global Index into the entry. Indices are assigned in
// traversal order by Renumber and are stable until the hierarchy changes.
package pdb

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/m4tt-willi4ms/cctbx-project/linalg"
)

// ErrMultiModel is returned by OneModel when an entry has more than one
// top-level model.
var ErrMultiModel = errors.New(
	"Multi-model input (with MODEL-ENDMDL) is not supported")

// AminoThreeToOne is a map from three letter amino acids to their
// corresponding single letter representation.
var AminoThreeToOne = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLU": 'E', "GLN": 'Q', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
	"SEC": 'U', "PYL": 'O', "MSE": 'M',
}

// NucleotideToOne maps RNA and DNA residue names to a single letter.
var NucleotideToOne = map[string]byte{
	"A": 'a', "C": 'c', "G": 'g', "U": 'u', "T": 't',
	"DA": 'a', "DC": 'c', "DG": 'g', "DT": 't', "DU": 'u',
}

// ResidueCode returns a single letter code for a residue name. Unknown
// residues map to 'X'.
func ResidueCode(name string) byte {
	name = strings.TrimSpace(name)
	if c, ok := AminoThreeToOne[name]; ok {
		return c
	}
	if c, ok := NucleotideToOne[name]; ok {
		return c
	}
	return 'X'
}

// IsProtein reports whether name is a known amino acid.
func IsProtein(name string) bool {
	_, ok := AminoThreeToOne[strings.TrimSpace(name)]
	return ok
}

// IsNucleotide reports whether name is a known nucleotide.
func IsNucleotide(name string) bool {
	_, ok := NucleotideToOne[strings.TrimSpace(name)]
	return ok
}

// Entry represents a complete structural model (an assembly).
type Entry struct {
	Path   string    `yaml:"-"`
	Name   string    `yaml:"name,omitempty"`
	Cell   *UnitCell `yaml:"cell,omitempty"`
	Z      int       `yaml:"z,omitempty"`
	Models []*Model  `yaml:"models"`
}

// UnitCell holds crystal cell dimensions in Angstroms and degrees.
type UnitCell struct {
	A     float64 `yaml:"a"`
	B     float64 `yaml:"b"`
	C     float64 `yaml:"c"`
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
	Gamma float64 `yaml:"gamma"`
}

// Volume returns the volume of the cell.
func (u UnitCell) Volume() float64 {
	rad := math.Pi / 180
	ca, cb, cg := math.Cos(u.Alpha*rad), math.Cos(u.Beta*rad), math.Cos(u.Gamma*rad)
	return u.A * u.B * u.C * math.Sqrt(1-ca*ca-cb*cb-cg*cg+2*ca*cb*cg)
}

type Model struct {
	Num    int      `yaml:"num,omitempty"`
	Chains []*Chain `yaml:"chains"`
}

// Chain is a contiguous segment of residues sharing a chain identifier.
// Identifiers may repeat within a model.
type Chain struct {
	Ident    string     `yaml:"id"`
	Residues []*Residue `yaml:"residues"`
}

type Residue struct {
	Name          string `yaml:"name"`
	SequenceNum   int    `yaml:"seq"`
	InsertionCode string `yaml:"icode,omitempty"`
	Atoms         []Atom `yaml:"atoms"`
}

type Atom struct {
	Name    string `yaml:"name"`
	Element string `yaml:"element,omitempty"`
	Index   int    `yaml:"-"`
	Coords  Coords `yaml:"xyz,flow"`
}

// Coords is a point in 3D space.
type Coords struct {
	X, Y, Z float64
}

// Vec converts the coordinates to a column vector.
func (c Coords) Vec() linalg.Vec3 {
	return linalg.Vec3{c.X, c.Y, c.Z}
}

// FromVec is the inverse of Coords.Vec.
func FromVec(v linalg.Vec3) Coords {
	return Coords{v[0], v[1], v[2]}
}

// Transform returns r*c + t.
func (c Coords) Transform(r linalg.Mat3, t linalg.Vec3) Coords {
	return FromVec(r.MultVec(c.Vec()).Add(t))
}

// ResidueID renders the residue number and insertion code, e.g. "52A".
func (r *Residue) ResidueID() string {
	return fmt.Sprintf("%d%s", r.SequenceNum, strings.TrimSpace(r.InsertionCode))
}

// HasInsertionCode reports whether the residue carries an insertion code.
func (r *Residue) HasInsertionCode() bool {
	return len(strings.TrimSpace(r.InsertionCode)) > 0
}

// Renumber assigns global atom indices in traversal order and returns the
// number of atoms.
func (e *Entry) Renumber() int {
	n := 0
	for _, m := range e.Models {
		for _, c := range m.Chains {
			for _, r := range c.Residues {
				for i := range r.Atoms {
					r.Atoms[i].Index = n
					n++
				}
			}
		}
	}
	return n
}

// OneModel returns the only model of the entry. It fails with ErrMultiModel
// when there is more than one.
func (e *Entry) OneModel() (*Model, error) {
	switch len(e.Models) {
	case 0:
		return nil, fmt.Errorf("The entry '%s' contains no models.", e.Path)
	case 1:
		return e.Models[0], nil
	}
	return nil, ErrMultiModel
}

// NumAtoms returns the total number of atoms in the entry.
func (e *Entry) NumAtoms() int {
	n := 0
	e.EachAtom(func(*Chain, *Residue, *Atom) { n++ })
	return n
}

// EachAtom calls f for every atom in traversal order.
func (e *Entry) EachAtom(f func(c *Chain, r *Residue, a *Atom)) {
	for _, m := range e.Models {
		for _, c := range m.Chains {
			for _, r := range c.Residues {
				for i := range r.Atoms {
					f(c, r, &r.Atoms[i])
				}
			}
		}
	}
}

// Atoms returns pointers to every atom in traversal order, so that
// Atoms()[i].Index == i after Renumber.
func (e *Entry) Atoms() []*Atom {
	atoms := make([]*Atom, 0)
	e.EachAtom(func(_ *Chain, _ *Residue, a *Atom) {
		atoms = append(atoms, a)
	})
	return atoms
}

// ChainIdents returns the sorted set of chain identifiers in the entry.
func (e *Entry) ChainIdents() []string {
	seen := make(map[string]bool)
	idents := make([]string, 0)
	for _, m := range e.Models {
		for _, c := range m.Chains {
			if !seen[c.Ident] {
				seen[c.Ident] = true
				idents = append(idents, c.Ident)
			}
		}
	}
	sort.Strings(idents)
	return idents
}

// MergedChains returns one chain per identifier in the model, with segments
// sharing an identifier concatenated in model order. Chains are returned in
// order of first appearance.
func (m *Model) MergedChains() []*Chain {
	byIdent := make(map[string]*Chain)
	merged := make([]*Chain, 0)
	for _, c := range m.Chains {
		mc, ok := byIdent[c.Ident]
		if !ok {
			mc = &Chain{Ident: c.Ident}
			byIdent[c.Ident] = mc
			merged = append(merged, mc)
		}
		mc.Residues = append(mc.Residues, c.Residues...)
	}
	return merged
}

// NumAtoms returns the number of atoms in the chain.
func (c *Chain) NumAtoms() int {
	n := 0
	for _, r := range c.Residues {
		n += len(r.Atoms)
	}
	return n
}

// Sequence returns the single letter code of every residue in the chain.
func (c *Chain) Sequence() []byte {
	s := make([]byte, len(c.Residues))
	for i, r := range c.Residues {
		s[i] = ResidueCode(r.Name)
	}
	return s
}

// String returns the chain identifier, its residue range and sequence.
func (c *Chain) String() string {
	if len(c.Residues) == 0 {
		return fmt.Sprintf("> Chain %s (empty)", c.Ident)
	}
	first, last := c.Residues[0], c.Residues[len(c.Residues)-1]
	return fmt.Sprintf("> Chain %s (%s-%s)\n%s",
		c.Ident, first.ResidueID(), last.ResidueID(), c.Sequence())
}

// Copy returns a deep copy of the entry. Atom indices are preserved.
func (e *Entry) Copy() *Entry {
	cp, _ := e.Select(func(*Chain, *Residue, *Atom) bool { return true })
	cp.Path = e.Path
	return cp
}

// Select returns a new entry holding only the atoms for which keep returns
// true, together with a map from the new atom indices to the old ones. The
// receiver is not modified. Residues and chains left without atoms are
// dropped, and the new entry is renumbered.
func (e *Entry) Select(
	keep func(c *Chain, r *Residue, a *Atom) bool,
) (*Entry, []int) {
	filtered := &Entry{Name: e.Name, Z: e.Z}
	if e.Cell != nil {
		cell := *e.Cell
		filtered.Cell = &cell
	}

	old := make([]int, 0)
	for _, m := range e.Models {
		nm := &Model{Num: m.Num}
		for _, c := range m.Chains {
			nc := &Chain{Ident: c.Ident}
			for _, r := range c.Residues {
				nr := &Residue{
					Name:          r.Name,
					SequenceNum:   r.SequenceNum,
					InsertionCode: r.InsertionCode,
				}
				for i := range r.Atoms {
					if keep(c, r, &r.Atoms[i]) {
						nr.Atoms = append(nr.Atoms, r.Atoms[i])
						old = append(old, r.Atoms[i].Index)
					}
				}
				if len(nr.Atoms) > 0 {
					nc.Residues = append(nc.Residues, nr)
				}
			}
			if len(nc.Residues) > 0 {
				nm.Chains = append(nm.Chains, nc)
			}
		}
		filtered.Models = append(filtered.Models, nm)
	}
	filtered.Renumber()
	return filtered, old
}
