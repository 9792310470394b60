// Package sel implements a small typed query language over the atoms of a
// pdb.Entry.
//
// An expression is built from chain references, residue ranges and atom
// properties joined with boolean operators. Expressions render to text such
// as
//
//	chain A and (resseq 1:10 or resseq 20:30)
//
// and Parse reads the same text back. Only the Expr types defined in this
// package satisfy Expr.
package sel

import (
	"fmt"
	"strings"

	"github.com/m4tt-willi4ms/cctbx-project/pdb"
)

// Expr is a query expression.
type Expr interface {
	fmt.Stringer
	match(c *pdb.Chain, r *pdb.Residue, a *pdb.Atom) bool
}

// All matches every atom.
type All struct{}

// Chain matches atoms whose chain identifier equals the value.
type Chain string

// ResSeq matches residues numbered in the inclusive range [Start, End],
// whatever their insertion code.
type ResSeq struct {
	Start, End int
}

// ResID matches one residue by number and insertion code.
type ResID struct {
	Num   int
	ICode string
}

// ResName matches residues by name.
type ResName string

// Name matches atoms by name.
type Name string

// Element matches atoms by element symbol.
type Element string

// Protein matches atoms of amino acid residues.
type Protein struct{}

// Nucleotide matches atoms of nucleic acid residues.
type Nucleotide struct{}

// Index matches atoms whose global index is in the inclusive range
// [Start, End].
type Index struct {
	Start, End int
}

// And matches atoms matched by every operand.
type And []Expr

// Or matches atoms matched by any operand.
type Or []Expr

// Not matches atoms not matched by X.
type Not struct {
	X Expr
}

func (All) match(*pdb.Chain, *pdb.Residue, *pdb.Atom) bool { return true }

func (e Chain) match(c *pdb.Chain, _ *pdb.Residue, _ *pdb.Atom) bool {
	return c.Ident == string(e)
}

func (e ResSeq) match(_ *pdb.Chain, r *pdb.Residue, _ *pdb.Atom) bool {
	return r.SequenceNum >= e.Start && r.SequenceNum <= e.End
}

func (e ResID) match(_ *pdb.Chain, r *pdb.Residue, _ *pdb.Atom) bool {
	return r.SequenceNum == e.Num &&
		strings.TrimSpace(r.InsertionCode) == e.ICode
}

func (e ResName) match(_ *pdb.Chain, r *pdb.Residue, _ *pdb.Atom) bool {
	return strings.TrimSpace(r.Name) == string(e)
}

func (e Name) match(_ *pdb.Chain, _ *pdb.Residue, a *pdb.Atom) bool {
	return strings.TrimSpace(a.Name) == string(e)
}

func (e Element) match(_ *pdb.Chain, _ *pdb.Residue, a *pdb.Atom) bool {
	return strings.EqualFold(strings.TrimSpace(a.Element), string(e))
}

func (Protein) match(_ *pdb.Chain, r *pdb.Residue, _ *pdb.Atom) bool {
	return pdb.IsProtein(r.Name)
}

func (Nucleotide) match(_ *pdb.Chain, r *pdb.Residue, _ *pdb.Atom) bool {
	return pdb.IsNucleotide(r.Name)
}

func (e Index) match(_ *pdb.Chain, _ *pdb.Residue, a *pdb.Atom) bool {
	return a.Index >= e.Start && a.Index <= e.End
}

func (e And) match(c *pdb.Chain, r *pdb.Residue, a *pdb.Atom) bool {
	for _, x := range e {
		if !x.match(c, r, a) {
			return false
		}
	}
	return true
}

func (e Or) match(c *pdb.Chain, r *pdb.Residue, a *pdb.Atom) bool {
	for _, x := range e {
		if x.match(c, r, a) {
			return true
		}
	}
	return false
}

func (e Not) match(c *pdb.Chain, r *pdb.Residue, a *pdb.Atom) bool {
	return !e.X.match(c, r, a)
}

func (All) String() string        { return "all" }
func (Protein) String() string    { return "protein" }
func (Nucleotide) String() string { return "nucleotide" }

func (e Chain) String() string   { return "chain " + quote(string(e)) }
func (e ResName) String() string { return "resname " + quote(string(e)) }
func (e Name) String() string    { return "name " + quote(string(e)) }
func (e Element) String() string { return "element " + quote(string(e)) }

func (e ResSeq) String() string {
	if e.Start == e.End {
		return fmt.Sprintf("resseq %d", e.Start)
	}
	return fmt.Sprintf("resseq %d:%d", e.Start, e.End)
}

func (e ResID) String() string {
	return fmt.Sprintf("resid %d%s", e.Num, e.ICode)
}

func (e Index) String() string {
	if e.Start == e.End {
		return fmt.Sprintf("index %d", e.Start)
	}
	return fmt.Sprintf("index %d:%d", e.Start, e.End)
}

func (e And) String() string {
	parts := make([]string, len(e))
	for i, x := range e {
		if _, ok := x.(Or); ok {
			parts[i] = "(" + x.String() + ")"
		} else {
			parts[i] = x.String()
		}
	}
	return strings.Join(parts, " and ")
}

func (e Or) String() string {
	parts := make([]string, len(e))
	for i, x := range e {
		parts[i] = x.String()
	}
	return strings.Join(parts, " or ")
}

func (e Not) String() string {
	switch e.X.(type) {
	case And, Or:
		return "not (" + e.X.String() + ")"
	}
	return "not " + e.X.String()
}

// quote wraps s in single quotes when it would not survive as a bare word.
func quote(s string) string {
	switch {
	case strings.Contains(s, "'"):
		return `"` + s + `"`
	case s == "" || strings.ContainsAny(s, " \t\n()\"") || isKeyword(s):
		return "'" + s + "'"
	}
	return s
}
