package sel

import (
	"fmt"
	"strings"

	"github.com/m4tt-willi4ms/cctbx-project/pdb"
)

// FromIndices synthesizes an expression that selects exactly the given
// atoms of entry. Whole chains become "chain X", runs of fully selected
// residues become residue ranges and partially selected residues list their
// atom names. If the residue based form of a chain is not exact (for example
// because its numbering repeats), the chain falls back to index ranges.
//
// The indices must be strictly increasing.
func FromIndices(entry *pdb.Entry, indices []int) (Expr, error) {
	if err := checkIncreasing(indices); err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("cannot describe an empty selection")
	}
	selected := make(map[int]bool, len(indices))
	for _, i := range indices {
		selected[i] = true
	}

	m, err := entry.OneModel()
	if err != nil {
		return nil, err
	}
	parts := make([]Expr, 0)
	found := 0
	for _, chain := range m.MergedChains() {
		want := make([]int, 0)
		total := 0
		for _, r := range chain.Residues {
			for _, a := range r.Atoms {
				total++
				if selected[a.Index] {
					want = append(want, a.Index)
				}
			}
		}
		if len(want) == 0 {
			continue
		}
		found += len(want)
		if len(want) == total {
			parts = append(parts, Chain(chain.Ident))
			continue
		}

		e := Intersect(Chain(chain.Ident), residueRanges(chain, selected))
		if !Equal(Select(entry, e), want) {
			e = indexRanges(want)
		}
		parts = append(parts, e)
	}
	if found != len(indices) {
		return nil, fmt.Errorf("%d of the %d indices are not atoms of the model",
			len(indices)-found, len(indices))
	}
	return Union(parts...), nil
}

func residueRanges(chain *pdb.Chain, selected map[int]bool) Expr {
	terms := make([]Expr, 0)
	var run *ResSeq
	flush := func() {
		if run != nil {
			terms = append(terms, *run)
			run = nil
		}
	}
	for _, r := range chain.Residues {
		names := make([]Expr, 0)
		for _, a := range r.Atoms {
			if selected[a.Index] {
				names = append(names, Name(a.Name))
			}
		}
		switch {
		case len(names) == 0:
			flush()
		case len(names) < len(r.Atoms):
			flush()
			terms = append(terms, Intersect(residueTerm(r), Union(names...)))
		case r.HasInsertionCode():
			flush()
			terms = append(terms, residueTerm(r))
		case run != nil && r.SequenceNum == run.End+1:
			run.End = r.SequenceNum
		default:
			flush()
			run = &ResSeq{r.SequenceNum, r.SequenceNum}
		}
	}
	flush()
	return Union(terms...)
}

func residueTerm(r *pdb.Residue) Expr {
	if r.HasInsertionCode() {
		return ResID{Num: r.SequenceNum, ICode: strings.TrimSpace(r.InsertionCode)}
	}
	return ResSeq{r.SequenceNum, r.SequenceNum}
}

func indexRanges(indices []int) Expr {
	runs := Runs(indices)
	terms := make([]Expr, len(runs))
	for i, run := range runs {
		terms[i] = Index{run[0], run[1]}
	}
	return Union(terms...)
}
