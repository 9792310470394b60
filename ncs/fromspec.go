package ncs

import (
	"strings"

	"github.com/m4tt-willi4ms/cctbx-project/pdb"
	"github.com/m4tt-willi4ms/cctbx-project/sel"
	"github.com/m4tt-willi4ms/cctbx-project/spec"
)

// FromSpec builds groups from an NCS specification. Specification
// transforms map copies onto the master and are inverted on import. In
// every specification group, the copy whose transform is the identity is
// the master.
//
// With p.JoinSpecGroups, a group whose transforms pair up with those of an
// earlier group is added to it as another master part.
func FromSpec(entry *pdb.Entry, s *spec.Spec, p Params) (*Assembly, error) {
	if _, err := checkModel(entry); err != nil {
		return nil, err
	}
	a := newAssembly(entry, ModeSpec, p)
	cache := sel.NewCache(entry)
	for gi, sg := range s.Groups {
		var master *sel.Selection
		copies := make([]*Copy, 0, len(sg.Copies))
		for _, sc := range sg.Copies {
			e, err := specAtoms(sc)
			if err != nil {
				return nil, inputWrap(err, "Bad atom selection in group %d "+
					"of the NCS specification", gi+1)
			}
			part := cache.Materialize(e)
			r, t := Invert(sc.Rotation, sc.Translation)
			if IsIdentity(r, t) {
				if master != nil {
					return nil, inputErrorf("Group %d of the NCS "+
						"specification has more than one copy with the "+
						"identity transform.", gi+1)
				}
				master = &part
				continue
			}
			copies = append(copies, &Copy{
				Parts: []sel.Selection{part},
				Transform: &Transform{
					R:       r,
					T:       t,
					Present: true,
					RMSD:    sc.RMSD,
				},
			})
		}
		if master == nil {
			return nil, inputErrorf("Group %d of the NCS specification has "+
				"no copy with the identity transform.", gi+1)
		}
		if len(copies) == 0 {
			a.Log.Addf("Group %d of the NCS specification has no copies "+
				"and is ignored.", gi+1)
			continue
		}

		g := &Group{Master: []sel.Selection{*master}, Copies: copies}
		if p.JoinSpecGroups && a.joinSpecGroup(g) {
			continue
		}
		a.Groups = append(a.Groups, g)
	}
	if err := a.finalize(); err != nil {
		return nil, err
	}
	if err := a.consolidate(); err != nil {
		return nil, err
	}
	return a, nil
}

// joinSpecGroup adds g to the first group whose transforms pair up with
// those of g.
func (a *Assembly) joinSpecGroup(g *Group) bool {
	for _, h := range a.Groups {
		partner, ok := pairTransforms(h.Transforms(), g.Transforms())
		if !ok {
			continue
		}
		h.Master = append(h.Master, g.Master...)
		for i, c := range h.Copies {
			c.Parts = append(c.Parts, g.Copies[partner[i]].Parts...)
		}
		return true
	}
	return false
}

// specAtoms selects the atoms of a specification copy.
func specAtoms(c spec.Copy) (sel.Expr, error) {
	e := specExpr(c)
	if q := strings.TrimSpace(c.Atoms); len(q) > 0 {
		x, err := sel.Parse(q)
		if err != nil {
			return nil, err
		}
		e = sel.Intersect(e, x)
	}
	return e, nil
}

// specExpr selects the residues of a specification copy.
func specExpr(c spec.Copy) sel.Expr {
	if len(c.Ranges) == 0 {
		return sel.Chain(c.Chain)
	}
	ranges := make([]sel.Expr, len(c.Ranges))
	for i, r := range c.Ranges {
		ranges[i] = sel.ResSeq{Start: r[0], End: r[1]}
	}
	return sel.Intersect(sel.Chain(c.Chain), sel.Union(ranges...))
}
