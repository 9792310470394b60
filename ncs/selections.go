package ncs

import (
	"sort"
	"strings"

	"github.com/m4tt-willi4ms/cctbx-project/linalg"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
	"github.com/m4tt-willi4ms/cctbx-project/rmsd"
	"github.com/m4tt-willi4ms/cctbx-project/sel"
)

// looseRMSD is the RMSD up to which a user supplied copy is accepted as
// related to its reference.
const looseRMSD = 100

// GroupSpec is a user supplied NCS group: a reference selection and the
// selections of its copies.
type GroupSpec struct {
	Reference  string   `yaml:"reference"`
	Selections []string `yaml:"selections"`
}

// FromSelections builds one group per GroupSpec. Each copy's transform is
// the superposition of the reference onto it. Selections are never
// rewritten: a copy whose atoms do not correspond to its reference is an
// error.
func FromSelections(entry *pdb.Entry, groups []GroupSpec, p Params) (*Assembly, error) {
	if _, err := checkModel(entry); err != nil {
		return nil, err
	}
	if err := uniqueSelections(groups); err != nil {
		return nil, err
	}

	a := newAssembly(entry, ModeSelections, p)
	cache := sel.NewCache(entry)
	atoms := entry.Atoms()
	for _, gs := range groups {
		master, err := materialize(cache, gs.Reference)
		if err != nil {
			return nil, err
		}
		copies := make([]sel.Selection, len(gs.Selections))
		for i, query := range gs.Selections {
			if copies[i], err = materialize(cache, query); err != nil {
				return nil, err
			}
			if copies[i].Len() != master.Len() {
				return nil, inputErrorf("Master NCS selection '%s' and copy "+
					"selection '%s' have different numbers of atoms "+
					"(%d and %d).", gs.Reference, query,
					master.Len(), copies[i].Len())
			}
		}

		g := &Group{Master: splitParts(cache, master, copies)}
		for _, c := range copies {
			t := superposeSelections(atoms, master, c, a.Log)
			parts := []sel.Selection{c}
			if len(g.Master) > 1 {
				parts = splitCopy(cache, c)
			}
			g.Copies = append(g.Copies, &Copy{Parts: parts, Transform: t})
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

// uniqueSelections rejects empty and repeated selection strings.
func uniqueSelections(groups []GroupSpec) error {
	seen := make(map[string]bool)
	check := func(query string) error {
		q := strings.TrimSpace(query)
		if len(q) == 0 {
			return inputErrorf("Empty selection string in NCS group definition.")
		}
		if seen[q] {
			return inputErrorf("NCS selection strings are not unique: '%s'", q)
		}
		seen[q] = true
		return nil
	}
	for _, gs := range groups {
		if err := check(gs.Reference); err != nil {
			return err
		}
		if len(gs.Selections) == 0 {
			return inputErrorf("The NCS group with reference '%s' has no "+
				"copies.", gs.Reference)
		}
		for _, query := range gs.Selections {
			if err := check(query); err != nil {
				return err
			}
		}
	}
	return nil
}

func materialize(cache *sel.Cache, query string) (sel.Selection, error) {
	s, err := cache.MaterializeQuery(query)
	if err != nil {
		return s, inputWrap(err, "Bad NCS selection")
	}
	if s.Len() == 0 {
		return s, inputErrorf("Empty selection in NCS group definition: %s", query)
	}
	return s, nil
}

// splitParts splits the master into chain-scoped parts when every copy
// splits into parts of the same sizes. Otherwise the master is a single
// part.
func splitParts(cache *sel.Cache, master sel.Selection, copies []sel.Selection) []sel.Selection {
	parts := splitCopy(cache, master)
	if len(parts) == 1 {
		return parts
	}
	for _, c := range copies {
		cparts := splitCopy(cache, c)
		if len(cparts) != len(parts) {
			return []sel.Selection{master}
		}
		for i := range parts {
			if cparts[i].Len() != parts[i].Len() {
				return []sel.Selection{master}
			}
		}
	}
	return parts
}

// splitCopy splits s into chain-scoped parts ordered by their first atom,
// so that the k-th parts of a master and its copy pair up the same way their
// sorted atoms do in superposeSelections. The parts must cover s exactly,
// otherwise s is returned whole.
func splitCopy(cache *sel.Cache, s sel.Selection) []sel.Selection {
	exprs := sel.Split(s.Expr)
	if len(exprs) == 1 {
		return []sel.Selection{s}
	}
	parts := make([]sel.Selection, len(exprs))
	total := 0
	for i, e := range exprs {
		parts[i] = cache.Materialize(e)
		if parts[i].Len() == 0 {
			return []sel.Selection{s}
		}
		total += parts[i].Len()
	}
	if total != s.Len() {
		return []sel.Selection{s}
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].Indices[0] < parts[j].Indices[0]
	})
	return parts
}

// superposeSelections fits the master onto the copy. A fit that fails or
// is very poor is recorded with a zero rotation and a message in log.
func superposeSelections(atoms []*pdb.Atom, master, cp sel.Selection, log *Log) *Transform {
	a := make([]pdb.Coords, master.Len())
	b := make([]pdb.Coords, cp.Len())
	for i := range a {
		a[i] = atoms[master.Indices[i]].Coords
		b[i] = atoms[cp.Indices[i]].Coords
	}
	sup, err := rmsd.Superpose(a, b)
	if err != nil || sup.RMSD > looseRMSD || sup.R.IsZero(identityTol) {
		log.Addf("Master NCS and Copy are very poorly related, check selection.")
		return &Transform{R: linalg.Mat3{}, Present: true, RMSD: sup.RMSD}
	}
	return &Transform{R: sup.R, T: sup.T, Present: true, RMSD: sup.RMSD}
}
