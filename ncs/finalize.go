package ncs

import (
	"fmt"

	"github.com/m4tt-willi4ms/cctbx-project/linalg"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
	"github.com/m4tt-willi4ms/cctbx-project/sel"
)

// chainNamePool returns the names handed out to generated copies, in the
// order they are tried.
func chainNamePool() []string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	pool := make([]string, 0, len(chars)*(len(chars)+1))
	for _, c := range chars {
		pool = append(pool, string(c))
	}
	for _, c1 := range chars {
		for _, c2 := range chars {
			pool = append(pool, string(c1)+string(c2))
		}
	}
	return pool
}

// finalize merges groups sharing a key, numbers groups and transforms,
// orders the parts and names their chains. Every construction mode calls it
// before consolidating.
func (a *Assembly) finalize() error {
	a.mergeSameKey()

	a.Transforms = make(map[TransformID]*Transform)
	a.InUse = make(map[TransformID]bool)
	a.Order = a.Order[:0]
	for i, g := range a.Groups {
		g.ID = i + 1
		ident := &Transform{R: linalg.Identity, Serial: 1, Group: g.ID, Present: true}
		a.Transforms[ident.ID()] = ident
		for p := range g.Master {
			a.Order = append(a.Order, PartKey{g.ID, 1, p})
		}
		for j, c := range g.Copies {
			t := c.Transform
			if IsIdentity(t.R, t.T) {
				return inputErrorf("NCS group %d has more than one identity "+
					"transform (copy '%s').", g.ID, partsString(c.Parts))
			}
			t.Group, t.Serial = g.ID, j+2
			a.Transforms[t.ID()] = t
			a.InUse[t.ID()] = true
			for p := range c.Parts {
				a.Order = append(a.Order, PartKey{g.ID, t.Serial, p})
			}
		}
	}
	return a.nameChains()
}

// mergeSameKey folds every group into the first earlier group with the same
// key whose transforms pair up with its own.
func (a *Assembly) mergeSameKey() {
	merged := make([]*Group, 0, len(a.Groups))
	for _, g := range a.Groups {
		folded := false
		for _, h := range merged {
			if h.Key() != g.Key() {
				continue
			}
			partner, ok := pairTransforms(h.Transforms(), g.Transforms())
			if !ok {
				a.Log.Addf("NCS groups with master chains %s are related by "+
					"different transforms and are kept separate.", g.Key())
				continue
			}
			h.Master = append(h.Master, g.Master...)
			for i, c := range h.Copies {
				c.Parts = append(c.Parts, g.Copies[partner[i]].Parts...)
			}
			folded = true
			break
		}
		if !folded {
			merged = append(merged, g)
		}
	}
	a.Groups = merged
}

// nameChains assigns a chain name to every part in Order. Masters and
// copies present in the model keep their own chain identifier. Generated
// copies take unused names from the pool, in order.
func (a *Assembly) nameChains() error {
	chainOf := make([]string, 0, a.entry.NumAtoms())
	used := make(map[string]bool)
	for _, id := range a.entry.ChainIdents() {
		used[id] = true
	}
	a.entry.EachAtom(func(c *pdb.Chain, _ *pdb.Residue, _ *pdb.Atom) {
		chainOf = append(chainOf, c.Ident)
	})
	own := func(s sel.Selection) string {
		if len(s.Indices) > 0 && s.Indices[0] < len(chainOf) {
			return chainOf[s.Indices[0]]
		}
		if ids := sel.Chains(s.Expr); len(ids) > 0 {
			return ids[0]
		}
		return ""
	}

	pool := chainNamePool()
	next := 0
	a.ChainNames = make(map[PartKey]string, len(a.Order))
	for _, key := range a.Order {
		g := a.Groups[key.Group-1]
		if key.Serial == 1 {
			a.ChainNames[key] = own(g.Master[key.Part])
			continue
		}
		c := g.Copies[key.Serial-2]
		if !c.Generated {
			a.ChainNames[key] = own(c.Parts[key.Part])
			continue
		}
		for next < len(pool) && used[pool[next]] {
			next++
		}
		if next == len(pool) {
			return inputErrorf("Ran out of chain names for %d generated "+
				"NCS copies.", len(a.Order))
		}
		used[pool[next]] = true
		a.ChainNames[key] = pool[next]
	}
	return nil
}

func partsString(parts []sel.Selection) string {
	exprs := make([]sel.Expr, 0, len(parts))
	for _, p := range parts {
		if p.Expr != nil {
			exprs = append(exprs, p.Expr)
		}
	}
	if len(exprs) == 0 {
		return ""
	}
	return sel.Union(exprs...).String()
}

func (k PartKey) String() string {
	return fmt.Sprintf("%d.%d.%d", k.Group, k.Serial, k.Part)
}
