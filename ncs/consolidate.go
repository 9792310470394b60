package ncs

import (
	"fmt"
	"sort"

	"github.com/m4tt-willi4ms/cctbx-project/linalg"
	"github.com/m4tt-willi4ms/cctbx-project/sel"
)

// IndexMaps relate every atom of a consolidated assembly to its role.
type IndexMaps struct {
	// Master and Copy hold the atoms of every master part and copy part.
	Master map[MasterKey][]int
	Copy   map[PartKey][]int

	// CopyToMaster maps a copy atom to its master atom. It is -1 for atoms
	// that are not in a copy.
	CopyToMaster []int

	// MasterMask is set for master atoms and for atoms in no group.
	MasterMask []bool

	// NonNCS lists the atoms in no group, in increasing order.
	NonNCS []int
}

// consolidate materializes the index maps of a finalized assembly and
// checks that they partition the assembly.
func (a *Assembly) consolidate() error {
	n := a.NumAtoms
	maps := &IndexMaps{
		Master:       make(map[MasterKey][]int),
		Copy:         make(map[PartKey][]int),
		CopyToMaster: make([]int, n),
		MasterMask:   make([]bool, n),
	}
	for i := range maps.CopyToMaster {
		maps.CopyToMaster[i] = -1
	}

	claimed := make([]bool, n)
	claim := func(s sel.Selection) error {
		if s.Len() == 0 {
			return inputErrorf("Empty selection in NCS group definition: %s", s)
		}
		for _, i := range s.Indices {
			if i < 0 || i >= n {
				return fmt.Errorf("%w: atom %d of '%s' is outside the model "+
					"of %d atoms", ErrPartition, i, s, n)
			}
			if claimed[i] {
				return inputErrorf("Overlapping atom selection: '%s'", s)
			}
			claimed[i] = true
		}
		return nil
	}

	for _, g := range a.Groups {
		for p, m := range g.Master {
			if err := claim(m); err != nil {
				return err
			}
			maps.Master[MasterKey{g.ID, p}] = m.Indices
			for _, i := range m.Indices {
				maps.MasterMask[i] = true
			}
		}
		for _, c := range g.Copies {
			if len(c.Parts) != len(g.Master) {
				return inputErrorf("The copy '%s' of NCS group %d has %d "+
					"chain parts but its master '%s' has %d.",
					partsString(c.Parts), g.ID, len(c.Parts),
					partsString(g.Master), len(g.Master))
			}
			for p, part := range c.Parts {
				m := g.Master[p]
				if part.Len() != m.Len() {
					return inputErrorf("Master NCS selection '%s' and copy "+
						"selection '%s' have different numbers of atoms "+
						"(%d and %d).", m, part, m.Len(), part.Len())
				}
				if err := claim(part); err != nil {
					return err
				}
				maps.Copy[PartKey{g.ID, c.Transform.Serial, p}] = part.Indices
				for j, i := range part.Indices {
					maps.CopyToMaster[i] = m.Indices[j]
				}
			}
		}
	}
	maps.NonNCS = make([]int, 0)
	for i, ok := range claimed {
		if !ok {
			maps.NonNCS = append(maps.NonNCS, i)
			maps.MasterMask[i] = true
		}
	}
	a.Maps = maps
	return a.CheckPartition()
}

// CheckPartition verifies that the atoms in no group, the masters and the
// copies together cover every atom of the assembly exactly once. Failures
// wrap ErrPartition.
func (a *Assembly) CheckPartition() error {
	if a.Maps == nil {
		return fmt.Errorf("%w: the assembly has not been consolidated",
			ErrPartition)
	}
	count := make([]int, a.NumAtoms)
	add := func(indices []int) error {
		for _, i := range indices {
			if i < 0 || i >= len(count) {
				return fmt.Errorf("%w: atom %d is outside the model", ErrPartition, i)
			}
			count[i]++
		}
		return nil
	}
	if err := add(a.Maps.NonNCS); err != nil {
		return err
	}
	for _, indices := range a.Maps.Master {
		if err := add(indices); err != nil {
			return err
		}
	}
	for _, indices := range a.Maps.Copy {
		if err := add(indices); err != nil {
			return err
		}
	}
	for i, c := range count {
		if c != 1 {
			return fmt.Errorf("%w: atom %d is covered %d times", ErrPartition, i, c)
		}
		isCopy := a.Maps.CopyToMaster[i] >= 0
		if isCopy == a.Maps.MasterMask[i] {
			return fmt.Errorf("%w: atom %d is marked as both or neither of "+
				"master and copy", ErrPartition, i)
		}
	}
	return nil
}

// RestraintGroup lists the master atoms of a group and, for every copy, the
// copy atoms aligned position by position with them.
type RestraintGroup struct {
	Master []int
	Copies []RestraintCopy
}

// RestraintCopy is one copy of a restraint group. R and T map the master
// onto the copy.
type RestraintCopy struct {
	Indices []int
	R       linalg.Mat3
	T       linalg.Vec3
}

// RestraintGroups returns one restraint group per NCS group, in group
// order, with copies in serial order. Master parts are concatenated in the
// order of their first atom and the copy parts follow the same order.
func (a *Assembly) RestraintGroups() []RestraintGroup {
	rgs := make([]RestraintGroup, len(a.Groups))
	for gi, g := range a.Groups {
		order := make([]int, len(g.Master))
		for p := range order {
			order[p] = p
		}
		sort.SliceStable(order, func(i, j int) bool {
			return firstIndex(g.Master[order[i]]) < firstIndex(g.Master[order[j]])
		})

		rg := RestraintGroup{Master: make([]int, 0)}
		for _, p := range order {
			rg.Master = append(rg.Master, g.Master[p].Indices...)
		}
		for _, c := range g.Copies {
			rc := RestraintCopy{
				Indices: make([]int, 0, len(rg.Master)),
				R:       c.Transform.R,
				T:       c.Transform.T,
			}
			for _, p := range order {
				rc.Indices = append(rc.Indices, c.Parts[p].Indices...)
			}
			rg.Copies = append(rg.Copies, rc)
		}
		rgs[gi] = rg
	}
	return rgs
}

func firstIndex(s sel.Selection) int {
	if len(s.Indices) == 0 {
		return -1
	}
	return s.Indices[0]
}

// UpdateTransforms replaces the rotation and translation of every copy with
// those of rgs, which must have the shape returned by RestraintGroups: the
// same groups, copies and atoms. Nothing is changed when the shapes
// differ.
func (a *Assembly) UpdateTransforms(rgs []RestraintGroup) error {
	if a.Maps == nil {
		return fmt.Errorf("cannot update the transforms of an assembly " +
			"that has not been consolidated")
	}
	current := a.RestraintGroups()
	if len(rgs) != len(current) {
		return fmt.Errorf("expected %d restraint groups but got %d",
			len(current), len(rgs))
	}
	for gi, cur := range current {
		got := rgs[gi]
		if !sel.Equal(cur.Master, got.Master) {
			return fmt.Errorf("the master atoms of restraint group %d "+
				"have changed", gi+1)
		}
		if len(got.Copies) != len(cur.Copies) {
			return fmt.Errorf("restraint group %d has %d copies, expected %d",
				gi+1, len(got.Copies), len(cur.Copies))
		}
		for ci := range cur.Copies {
			if !sel.Equal(cur.Copies[ci].Indices, got.Copies[ci].Indices) {
				return fmt.Errorf("the atoms of copy %d of restraint "+
					"group %d have changed", ci+1, gi+1)
			}
		}
	}
	for gi, g := range a.Groups {
		for ci, c := range g.Copies {
			c.Transform.R = rgs[gi].Copies[ci].R
			c.Transform.T = rgs[gi].Copies[ci].T
		}
	}
	return nil
}
