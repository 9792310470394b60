package ncs

import (
	"fmt"
	"math"

	"github.com/m4tt-willi4ms/cctbx-project/pdb"
	"github.com/m4tt-willi4ms/cctbx-project/sel"
	"github.com/m4tt-willi4ms/cctbx-project/spec"
)

// atomVolume approximates the volume of one atom as a sphere of radius
// 1.5 Angstroms.
var atomVolume = 4 * math.Pi * math.Pow(1.5, 3) / 3

// FromTransforms builds a single group from a model holding only the
// master and the operators that generate its copies. Every chain of the
// model is part of the master. The copy made by the k-th non-identity
// operator occupies the atom indices of the master shifted by k times the
// number of atoms in the model.
func FromTransforms(entry *pdb.Entry, ops []spec.Operator, p Params) (*Assembly, error) {
	model, err := checkModel(entry)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	ts := make([]Transform, len(ops))
	for i, op := range ops {
		if seen[op.Serial] {
			return nil, inputErrorf("Transform serial number %d is used "+
				"more than once.", op.Serial)
		}
		seen[op.Serial] = true
		ts[i] = Transform{
			R:       op.Rotation,
			T:       op.Translation,
			Serial:  op.Serial,
			Present: op.Present,
		}
	}
	ts = InsertIdentityFirst(ts)

	// The copies are either all generated or all in the model; anything
	// else does not describe exactly one group.
	present := 0
	for _, t := range ts[1:] {
		if t.Present {
			present++
		}
	}
	if present > 0 && present < len(ts)-1 {
		return nil, inputErrorf("%d of %d transforms have their copies in "+
			"the model; expected exactly one NCS group with all copies "+
			"generated.", present, len(ts)-1)
	}
	if present > 0 {
		return nil, inputErrorf("All NCS copies are present in the model; " +
			"search for NCS instead of generating copies.")
	}

	a := newAssembly(entry, ModeTransforms, p)
	n := a.NumAtoms
	if n == 0 {
		return nil, inputErrorf("The model '%s' has no atoms.", entry.Path)
	}
	if err := checkVolume(entry, n, len(ts)-1); err != nil {
		return nil, err
	}

	cache := sel.NewCache(entry)
	g := &Group{}
	for _, chain := range model.MergedChains() {
		g.Master = append(g.Master, cache.Materialize(sel.Chain(chain.Ident)))
	}
	for k := 1; k < len(ts); k++ {
		t := ts[k]
		c := &Copy{Transform: &t, Generated: true}
		for _, m := range g.Master {
			shifted := make([]int, len(m.Indices))
			for i, idx := range m.Indices {
				shifted[i] = idx + k*n
			}
			c.Parts = append(c.Parts, sel.Selection{Indices: shifted})
		}
		g.Copies = append(g.Copies, c)
	}
	a.Groups = []*Group{g}
	a.NumAtoms = n * len(ts)

	if err := a.finalize(); err != nil {
		return nil, err
	}
	for _, c := range g.Copies {
		for p := range c.Parts {
			name := a.ChainNames[PartKey{g.ID, c.Transform.Serial, p}]
			c.Parts[p].Expr = sel.Chain(name)
		}
	}
	if err := a.consolidate(); err != nil {
		return nil, err
	}
	return a, nil
}

// checkVolume rejects operators generating more atoms than fit in the unit
// cell of entry. Entries without a cell are not checked.
func checkVolume(entry *pdb.Entry, atoms, copies int) error {
	if entry.Cell == nil {
		return nil
	}
	cell := entry.Cell.Volume()
	if cell <= 0 || math.IsNaN(cell) {
		return nil
	}
	z := entry.Z
	if z < 1 {
		z = 1
	}
	need := atomVolume * float64(atoms) * float64(z) * float64(1+copies)
	if need > cell {
		return inputErrorf("Unit cell is too small to contain all NCS copies "+
			"(%.0f A^3 needed, %.0f A^3 available).", need, cell)
	}
	return nil
}

// ExpandModel returns the complete assembly: the master followed by every
// generated copy, each chain moved by its copy's transform and named as in
// ChainNames. The atoms of the result are numbered as in the index maps.
// Assemblies whose copies are all in the model are returned as a copy of
// their entry.
func (a *Assembly) ExpandModel() (*pdb.Entry, error) {
	full := a.entry.Copy()
	if a.Mode != ModeTransforms || len(a.Groups) == 0 {
		return full, nil
	}
	model, err := full.OneModel()
	if err != nil {
		return nil, err
	}
	merged := model.MergedChains()
	part := make(map[string]int, len(merged))
	for i, c := range merged {
		part[c.Ident] = i
	}

	g := a.Groups[0]
	master := model.Chains
	chains := append([]*pdb.Chain(nil), master...)
	for _, c := range g.Copies {
		t := c.Transform
		for _, chain := range master {
			name := a.ChainNames[PartKey{g.ID, t.Serial, part[chain.Ident]}]
			moved := &pdb.Chain{Ident: name}
			for _, r := range chain.Residues {
				nr := &pdb.Residue{
					Name:          r.Name,
					SequenceNum:   r.SequenceNum,
					InsertionCode: r.InsertionCode,
					Atoms:         make([]pdb.Atom, len(r.Atoms)),
				}
				for i, atom := range r.Atoms {
					atom.Coords = t.Apply(atom.Coords)
					nr.Atoms[i] = atom
				}
				moved.Residues = append(moved.Residues, nr)
			}
			chains = append(chains, moved)
		}
	}
	model.Chains = chains
	if n := full.Renumber(); n != a.NumAtoms {
		return nil, fmt.Errorf("%w: the expanded model has %d atoms but "+
			"the assembly has %d", ErrPartition, n, a.NumAtoms)
	}
	return full, nil
}
