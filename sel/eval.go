package sel

import (
	"fmt"

	"github.com/m4tt-willi4ms/cctbx-project/pdb"
)

// Evaluator turns a textual query into the strictly increasing global
// indices of the atoms it matches.
type Evaluator interface {
	Evaluate(query string) ([]int, error)
}

// Selection is a query expression together with its materialized indices.
type Selection struct {
	Expr    Expr
	Indices []int
}

func (s Selection) String() string {
	if s.Expr == nil {
		return ""
	}
	return s.Expr.String()
}

// Len returns the number of selected atoms.
func (s Selection) Len() int {
	return len(s.Indices)
}

// Select returns the indices of the atoms in entry matched by e.
func Select(entry *pdb.Entry, e Expr) []int {
	indices := make([]int, 0)
	entry.EachAtom(func(c *pdb.Chain, r *pdb.Residue, a *pdb.Atom) {
		if e.match(c, r, a) {
			indices = append(indices, a.Index)
		}
	})
	return indices
}

// Cache evaluates queries against one entry and remembers the results.
// A Cache is not safe for concurrent use.
type Cache struct {
	entry *pdb.Entry
	memo  map[string][]int
}

// NewCache returns an evaluator over entry. The entry's atoms must have been
// numbered with Renumber.
func NewCache(entry *pdb.Entry) *Cache {
	return &Cache{entry: entry, memo: make(map[string][]int)}
}

// Entry returns the entry queries are evaluated against.
func (c *Cache) Entry() *pdb.Entry {
	return c.entry
}

// Evaluate parses query and returns the matching indices. It fails only on
// syntax errors; an empty result is not an error.
func (c *Cache) Evaluate(query string) ([]int, error) {
	if indices, ok := c.memo[query]; ok {
		return indices, nil
	}
	e, err := Parse(query)
	if err != nil {
		return nil, err
	}
	indices := c.Select(e)
	c.memo[query] = indices
	return indices, nil
}

// Select returns the indices matched by e.
func (c *Cache) Select(e Expr) []int {
	key := e.String()
	if indices, ok := c.memo[key]; ok {
		return indices
	}
	indices := Select(c.entry, e)
	c.memo[key] = indices
	return indices
}

// Materialize evaluates e into a Selection.
func (c *Cache) Materialize(e Expr) Selection {
	return Selection{Expr: e, Indices: c.Select(e)}
}

// MaterializeQuery parses and evaluates query into a Selection.
func (c *Cache) MaterializeQuery(query string) (Selection, error) {
	e, err := Parse(query)
	if err != nil {
		return Selection{}, err
	}
	return c.Materialize(e), nil
}

// Union returns the disjunction of the operands, flattening nested Or
// expressions. A single operand is returned unchanged.
func Union(xs ...Expr) Expr {
	flat := make(Or, 0, len(xs))
	for _, x := range xs {
		if or, ok := x.(Or); ok {
			flat = append(flat, or...)
		} else {
			flat = append(flat, x)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return flat
}

// Intersect returns the conjunction of the operands, flattening nested And
// expressions. A single operand is returned unchanged.
func Intersect(xs ...Expr) Expr {
	flat := make(And, 0, len(xs))
	for _, x := range xs {
		if and, ok := x.(And); ok {
			flat = append(flat, and...)
		} else {
			flat = append(flat, x)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return flat
}

// Chains returns the chain identifiers referenced by e in order of first
// appearance.
func Chains(e Expr) []string {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	var walk func(Expr)
	walk = func(e Expr) {
		switch e := e.(type) {
		case Chain:
			if !seen[string(e)] {
				seen[string(e)] = true
				ids = append(ids, string(e))
			}
		case And:
			for _, x := range e {
				walk(x)
			}
		case Or:
			for _, x := range e {
				walk(x)
			}
		case Not:
			walk(e.X)
		}
	}
	walk(e)
	return ids
}

// Split decomposes e into chain-scoped sub-expressions, one per referenced
// chain, in order of first appearance. Disjunctions are grouped by chain and
// a conjunction with a single multi-chain disjunction is distributed over
// it. When no such decomposition exists, e is returned as the only part.
func Split(e Expr) []Expr {
	switch e := e.(type) {
	case Or:
		order := make([]string, 0)
		byChain := make(map[string][]Expr)
		for _, x := range e {
			ids := Chains(x)
			if len(ids) != 1 {
				return []Expr{e}
			}
			if _, ok := byChain[ids[0]]; !ok {
				order = append(order, ids[0])
			}
			byChain[ids[0]] = append(byChain[ids[0]], x)
		}
		parts := make([]Expr, len(order))
		for i, id := range order {
			parts[i] = Union(byChain[id]...)
		}
		return parts
	case And:
		multi := -1
		for i, x := range e {
			switch n := len(Chains(x)); {
			case n > 1 && multi >= 0:
				return []Expr{e}
			case n > 1:
				multi = i
			case n == 1:
				// Another chain-scoped operand restricts the whole
				// conjunction to one chain already.
				return []Expr{e}
			}
		}
		if multi < 0 {
			return []Expr{e}
		}
		sub := Split(e[multi])
		if len(sub) == 1 {
			return []Expr{e}
		}
		rest := make([]Expr, 0, len(e)-1)
		rest = append(rest, e[:multi]...)
		rest = append(rest, e[multi+1:]...)
		parts := make([]Expr, len(sub))
		for i, s := range sub {
			parts[i] = Intersect(append([]Expr{s}, rest...)...)
		}
		return parts
	}
	return []Expr{e}
}

// Runs collapses strictly increasing integers into inclusive runs of
// consecutive values.
func Runs(indices []int) [][2]int {
	runs := make([][2]int, 0)
	for i, idx := range indices {
		if i > 0 && idx == runs[len(runs)-1][1]+1 {
			runs[len(runs)-1][1] = idx
			continue
		}
		runs = append(runs, [2]int{idx, idx})
	}
	return runs
}

// Equal reports whether two index lists are identical.
func Equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkIncreasing verifies the Selection invariant.
func checkIncreasing(indices []int) error {
	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			return fmt.Errorf("indices are not strictly increasing at "+
				"position %d (%d after %d)", i, indices[i], indices[i-1])
		}
	}
	return nil
}
