package ncs

import (
	"sort"
	"strings"

	"github.com/m4tt-willi4ms/cctbx-project/match"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
	"github.com/m4tt-willi4ms/cctbx-project/rmsd"
	"github.com/m4tt-willi4ms/cctbx-project/sel"
)

// Search finds NCS groups in a complete model.
//
// Atoms matched by p.Exclude are set aside. The remaining chains are
// compared pairwise and chains related directly or through other chains
// form a group whose master is the chain with the lowest identifier. With
// p.UseMinimalMaster, groups whose copies are generated by the same
// transforms are combined into one group with a multi-chain master.
//
// A model without symmetry yields an assembly with no groups.
func Search(entry *pdb.Entry, p Params) (*Assembly, error) {
	if _, err := checkModel(entry); err != nil {
		return nil, err
	}
	a := newAssembly(entry, ModeSearch, p)
	s, err := newSearcher(entry, p, a.Log)
	if err != nil {
		return nil, err
	}

	pairs, results := compareChains(s.chains, p)
	edges := make([]edge, 0)
	for k, res := range results {
		if res.Accepted && !res.Self {
			edges = append(edges, edge{pairs[k].i, pairs[k].j, res})
		}
	}

	clusters := make([]*cluster, 0)
	for _, members := range components(len(s.chains), edges) {
		if c := s.cluster(members, edges); c != nil {
			clusters = append(clusters, c)
		}
	}
	if p.UseMinimalMaster {
		clusters = s.minimalMasters(clusters)
	}

	groups := make([]*Group, 0, len(clusters))
	for _, c := range clusters {
		if c.numMasterAtoms() < 3 {
			continue
		}
		g, err := s.group(c)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	sortGroups(groups)
	a.Groups = groups

	if err := a.finalize(); err != nil {
		return nil, err
	}
	if err := a.consolidate(); err != nil {
		return nil, err
	}
	p.Metrics.groups(len(a.Groups))
	return a, nil
}

// edge is an accepted comparison. res maps chain i onto chain j.
type edge struct {
	i, j int
	res  match.Result
}

// correspondence returns the atoms of the edge's far chain paired with
// the atoms of chain from.
func (e edge) correspondence(from int) map[int]int {
	src, dst := e.res.A, e.res.B
	if from == e.j {
		src, dst = dst, src
	}
	m := make(map[int]int, len(src))
	for k := range src {
		m[src[k]] = dst[k]
	}
	return m
}

func (e edge) other(from int) int {
	if from == e.i {
		return e.j
	}
	return e.i
}

// components returns the connected components of the chain graph with at
// least two members. Members are sorted and components are ordered by
// their first member.
func components(n int, edges []edge) [][]int {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, e := range edges {
		ri, rj := find(e.i), find(e.j)
		if ri < rj {
			parent[rj] = ri
		} else if rj < ri {
			parent[ri] = rj
		}
	}

	byRoot := make(map[int][]int)
	roots := make([]int, 0)
	for i := 0; i < n; i++ {
		r := find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}
	comps := make([][]int, 0)
	for _, r := range roots {
		if len(byRoot[r]) > 1 {
			comps = append(comps, byRoot[r])
		}
	}
	return comps
}

// cluster is a group under construction. Atom indices refer to the
// filtered model and every copy part is aligned with the master part at
// the same position.
type cluster struct {
	master      []int
	masterAtoms [][]int
	copies      []*clusterCopy
}

type clusterCopy struct {
	chains []int
	atoms  [][]int
	sup    rmsd.Superposition
}

func (c *cluster) numMasterAtoms() int {
	n := 0
	for _, atoms := range c.masterAtoms {
		n += len(atoms)
	}
	return n
}

func (c *cluster) transforms() []*Transform {
	ts := make([]*Transform, len(c.copies))
	for i, cp := range c.copies {
		ts[i] = &Transform{R: cp.sup.R, T: cp.sup.T}
	}
	return ts
}

type searcher struct {
	entry    *pdb.Entry
	filtered *pdb.Entry
	atoms    []*pdb.Atom
	old      []int
	exclude  sel.Expr
	chains   []*pdb.Chain
	p        Params
	log      *Log
}

func newSearcher(entry *pdb.Entry, p Params, log *Log) (*searcher, error) {
	s := &searcher{entry: entry, p: p, log: log}
	keep := func(*pdb.Chain, *pdb.Residue, *pdb.Atom) bool { return true }
	if q := strings.TrimSpace(p.Exclude); len(q) > 0 {
		x, err := sel.Parse(q)
		if err != nil {
			return nil, inputWrap(err, "Bad NCS exclusion selection")
		}
		excluded := make(map[int]bool)
		for _, i := range sel.Select(entry, x) {
			excluded[i] = true
		}
		if len(excluded) > 0 {
			keep = func(_ *pdb.Chain, _ *pdb.Residue, a *pdb.Atom) bool {
				return !excluded[a.Index]
			}
			s.exclude = x
		}
	}
	s.filtered, s.old = entry.Select(keep)
	s.atoms = s.filtered.Atoms()

	model, err := s.filtered.OneModel()
	if err != nil {
		return nil, err
	}
	for _, c := range model.MergedChains() {
		if len(c.Residues) > 0 && !p.ignored(c.Ident) {
			s.chains = append(s.chains, c)
		}
	}
	sort.SliceStable(s.chains, func(i, j int) bool {
		return s.chains[i].Ident < s.chains[j].Ident
	})
	return s, nil
}

// cluster composes the atom correspondences of a component along a
// breadth first traversal from its first member, keeps the master atoms
// shared by every copy and refits each copy on them. Copies fitting worse
// than MaxRMSD are dropped. It returns nil if no copy survives.
func (s *searcher) cluster(members []int, edges []edge) *cluster {
	in := make(map[int]bool, len(members))
	for _, m := range members {
		in[m] = true
	}
	adj := make(map[int][]int)
	for k, e := range edges {
		if in[e.i] {
			adj[e.i] = append(adj[e.i], k)
			adj[e.j] = append(adj[e.j], k)
		}
	}
	// Neighbors are reached through their best fitting edge first.
	for u, ks := range adj {
		rs := make([]match.Result, len(ks))
		for x, k := range ks {
			rs[x] = edges[k].res
		}
		ranked := make([]int, len(ks))
		for x, r := range match.Rank(rs) {
			ranked[x] = ks[r]
		}
		adj[u] = ranked
	}

	master := members[0]
	corr := map[int]map[int]int{}
	visited := map[int]bool{master: true}
	order := make([]int, 0, len(members)-1)
	queue := []int{master}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, k := range adj[u] {
			v := edges[k].other(u)
			if visited[v] {
				continue
			}
			visited[v] = true
			step := edges[k].correspondence(u)
			if u == master {
				corr[v] = step
			} else {
				corr[v] = make(map[int]int)
				for m, x := range corr[u] {
					if y, ok := step[x]; ok {
						corr[v][m] = y
					}
				}
			}
			order = append(order, v)
			queue = append(queue, v)
		}
	}
	sort.Ints(order)

	for len(order) > 0 {
		masterAtoms, copyAtoms := alignedAtoms(corr, order)
		if len(masterAtoms) < 3 {
			return nil
		}
		c := &cluster{
			master:      []int{master},
			masterAtoms: [][]int{masterAtoms},
		}
		kept := order[:0:0]
		for i, v := range order {
			sup, err := rmsd.Superpose(s.coords(masterAtoms), s.coords(copyAtoms[i]))
			if err != nil || sup.RMSD > s.p.MaxRMSD {
				s.log.Addf("Chain %s is not a copy of chain %s after "+
					"refitting on the atoms shared by all copies.",
					s.chains[v].Ident, s.chains[master].Ident)
				continue
			}
			kept = append(kept, v)
			c.copies = append(c.copies, &clusterCopy{
				chains: []int{v},
				atoms:  [][]int{copyAtoms[i]},
				sup:    sup,
			})
		}
		if len(kept) == len(order) {
			return c
		}
		order = kept
	}
	return nil
}

// alignedAtoms returns the master atoms mapped in every copy and, for each
// copy, the atoms they map to. A master atom is kept only if every copy
// atom it maps to follows the previously kept one, so that every list is
// strictly increasing.
func alignedAtoms(corr map[int]map[int]int, copies []int) ([]int, [][]int) {
	first := corr[copies[0]]
	candidates := make([]int, 0, len(first))
	for m := range first {
		candidates = append(candidates, m)
	}
	sort.Ints(candidates)

	masterAtoms := make([]int, 0, len(candidates))
	copyAtoms := make([][]int, len(copies))
	last := make([]int, len(copies))
	for i := range last {
		last[i] = -1
	}
	for _, m := range candidates {
		ok := true
		for i, v := range copies {
			x, mapped := corr[v][m]
			if !mapped || x <= last[i] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		masterAtoms = append(masterAtoms, m)
		for i, v := range copies {
			last[i] = corr[v][m]
			copyAtoms[i] = append(copyAtoms[i], last[i])
		}
	}
	return masterAtoms, copyAtoms
}

func (s *searcher) coords(indices []int) []pdb.Coords {
	cs := make([]pdb.Coords, len(indices))
	for i, idx := range indices {
		cs[i] = s.atoms[idx].Coords
	}
	return cs
}

// minimalMasters combines clusters whose copies are generated by the same
// transforms. The combined transforms are refit on all of their atoms and
// clusters are only combined if every refit is within MaxRMSD.
func (s *searcher) minimalMasters(clusters []*cluster) []*cluster {
	merged := make([]*cluster, 0, len(clusters))
	for _, c := range clusters {
		folded := false
		for _, m := range merged {
			partner, ok := pairTransforms(m.transforms(), c.transforms())
			if !ok {
				continue
			}
			if combined := s.combine(m, c, partner); combined != nil {
				*m = *combined
				folded = true
				break
			}
		}
		if !folded {
			merged = append(merged, c)
		}
	}
	return merged
}

func (s *searcher) combine(m, c *cluster, partner []int) *cluster {
	out := &cluster{
		master:      append(append([]int(nil), m.master...), c.master...),
		masterAtoms: append(append([][]int(nil), m.masterAtoms...), c.masterAtoms...),
	}
	masterAtoms := concatInts(out.masterAtoms)
	for i, mc := range m.copies {
		cc := c.copies[partner[i]]
		cp := &clusterCopy{
			chains: append(append([]int(nil), mc.chains...), cc.chains...),
			atoms:  append(append([][]int(nil), mc.atoms...), cc.atoms...),
		}
		sup, err := rmsd.Superpose(s.coords(masterAtoms), s.coords(concatInts(cp.atoms)))
		if err != nil || sup.RMSD > s.p.MaxRMSD {
			return nil
		}
		cp.sup = sup
		out.copies = append(out.copies, cp)
	}
	return out
}

func concatInts(lists [][]int) []int {
	all := make([]int, 0)
	for _, l := range lists {
		all = append(all, l...)
	}
	return all
}

// group converts a cluster into a group with selections over the
// unfiltered model. Copies are ordered by their chains, then by transform.
func (s *searcher) group(c *cluster) (*Group, error) {
	g := &Group{}
	for _, atoms := range c.masterAtoms {
		part, err := s.selection(atoms)
		if err != nil {
			return nil, err
		}
		g.Master = append(g.Master, part)
	}

	type keyed struct {
		chains, transform string
		copy              *Copy
	}
	copies := make([]keyed, 0, len(c.copies))
	for _, cc := range c.copies {
		cp := &Copy{Transform: &Transform{
			R:       cc.sup.R,
			T:       cc.sup.T,
			Present: true,
			RMSD:    cc.sup.RMSD,
		}}
		ids := make([]string, len(cc.chains))
		for i, ch := range cc.chains {
			ids[i] = s.chains[ch].Ident
		}
		for _, atoms := range cc.atoms {
			part, err := s.selection(atoms)
			if err != nil {
				return nil, err
			}
			cp.Parts = append(cp.Parts, part)
		}
		copies = append(copies, keyed{
			chains:    strings.Join(ids, ","),
			transform: transformKey(cc.sup.R, cc.sup.T),
			copy:      cp,
		})
	}
	sort.SliceStable(copies, func(i, j int) bool {
		if copies[i].chains != copies[j].chains {
			return copies[i].chains < copies[j].chains
		}
		return copies[i].transform < copies[j].transform
	})
	for _, k := range copies {
		g.Copies = append(g.Copies, k.copy)
	}
	return g, nil
}

// selection describes atoms of the filtered model as a selection of the
// unfiltered model. The description of the atoms in the filtered model
// combined with the exclusion is preferred when it is exact.
func (s *searcher) selection(filtered []int) (sel.Selection, error) {
	indices := make([]int, len(filtered))
	for i, idx := range filtered {
		indices[i] = s.old[idx]
	}
	if s.exclude != nil {
		if e, err := sel.FromIndices(s.filtered, filtered); err == nil {
			e = sel.Intersect(e, sel.Not{X: s.exclude})
			if sel.Equal(sel.Select(s.entry, e), indices) {
				return sel.Selection{Expr: e, Indices: indices}, nil
			}
		}
	}
	e, err := sel.FromIndices(s.entry, indices)
	if err != nil {
		return sel.Selection{}, err
	}
	return sel.Selection{Expr: e, Indices: indices}, nil
}

// sortGroups orders groups by key, then by their first master atom.
func sortGroups(groups []*Group) {
	first := func(g *Group) int {
		if len(g.Master) == 0 || len(g.Master[0].Indices) == 0 {
			return -1
		}
		return g.Master[0].Indices[0]
	}
	sort.SliceStable(groups, func(i, j int) bool {
		ki, kj := groups[i].Key(), groups[j].Key()
		if ki != kj {
			return ki < kj
		}
		return first(groups[i]) < first(groups[j])
	})
}
