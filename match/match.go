// Package match compares two chains and decides whether one is a rigid-body
// copy of the other.
//
// Chains are aligned by sequence, the aligned residues are paired atom by
// atom and the pairs are superposed. Residues that do not fit can be
// discarded one at a time until the remaining atoms agree within the
// configured tolerances.
package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m4tt-willi4ms/cctbx-project/linalg"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
	"github.com/m4tt-willi4ms/cctbx-project/rmsd"
	"github.com/m4tt-willi4ms/cctbx-project/seq"
)

// Params are the tolerances used when comparing two chains.
type Params struct {
	// Runs of aligned residues shorter than this are ignored. A run covering
	// the whole of the shorter chain is always kept.
	MinContigLength int `mapstructure:"min_contig_length"`

	// The fraction of residues of the longer chain that must be matched.
	// Values above 1 are read as percentages.
	MinPercent float64 `mapstructure:"min_percent"`

	// Pairs superposing worse than this are rejected.
	MaxRMSD float64 `mapstructure:"max_rmsd"`

	// The fraction of matched residues that must survive the removal of
	// misaligned residues.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`

	// When set, paired residues must list the same atoms in the same order.
	CheckAtomOrder bool `mapstructure:"check_atom_order"`

	// When set, residues with differing atom counts are paired on the atoms
	// they have in common. Otherwise such residues are dropped.
	AllowDifferentSizeRes bool `mapstructure:"allow_different_size_res"`

	// When set, residues deviating by more than MatchRadius after
	// superposition are dropped and the pair is refit.
	ExcludeMisalignedResidues bool `mapstructure:"exclude_misaligned_residues"`

	MatchRadius float64 `mapstructure:"match_radius"`
}

// DefaultParams returns the tolerances used when none are configured.
func DefaultParams() Params {
	return Params{
		MinContigLength:           10,
		MinPercent:                0.85,
		MaxRMSD:                   2.0,
		SimilarityThreshold:       0.95,
		CheckAtomOrder:            false,
		AllowDifferentSizeRes:     true,
		ExcludeMisalignedResidues: true,
		MatchRadius:               4.0,
	}
}

// Strict returns p adjusted so that only identical chains are matched.
func (p Params) Strict() Params {
	p.MinPercent = 1
	p.MinContigLength = 100000
	p.CheckAtomOrder = true
	return p
}

// Normalized returns p with MinPercent read as a fraction.
func (p Params) Normalized() Params {
	if p.MinPercent > 1 {
		p.MinPercent /= 100
	}
	return p
}

// Result describes the outcome of comparing two chains. When Accepted,
// B[i] is the copy of A[i] and Superposition maps A onto B.
type Result struct {
	Accepted bool

	// Self is set when the chains coincide in space; such a pair is not a
	// symmetry relation.
	Self bool

	rmsd.Superposition

	// A and B are aligned global atom indices.
	A, B []int

	// Residues is the number of residue pairs used in the final fit.
	Residues int

	// Reason explains a rejection.
	Reason string
}

// Tolerances for recognizing a pair of chains lying on top of each other.
const (
	selfRotationTol    = 1e-3
	selfTranslationTol = 1e-2
)

type residuePair struct {
	a, b   []int
	ca, cb []pdb.Coords
}

// Chains compares chain a with chain b.
func Chains(a, b *pdb.Chain, p Params) Result {
	p = p.Normalized()
	if len(a.Residues) == 0 || len(b.Residues) == 0 {
		return reject("empty chain")
	}

	pairs := alignedRuns(a, b, p)
	longer := max(len(a.Residues), len(b.Residues))
	if frac := float64(len(pairs)) / float64(longer); frac < p.MinPercent {
		return reject(fmt.Sprintf(
			"only %d of %d residues match by sequence", len(pairs), longer))
	}

	residues := make([]residuePair, 0, len(pairs))
	for _, pr := range pairs {
		if rp, ok := pairAtoms(a.Residues[pr[0]], b.Residues[pr[1]], p); ok {
			residues = append(residues, rp)
		}
	}
	aligned := len(residues)

	sup, err := superpose(residues)
	if err != nil {
		return reject(err.Error())
	}
	if p.ExcludeMisalignedResidues {
		for len(residues) > 1 {
			worst, dev := worstResidue(residues, sup)
			if sup.RMSD <= p.MaxRMSD && dev <= p.MatchRadius {
				break
			}
			residues = append(residues[:worst:worst], residues[worst+1:]...)
			if sup, err = superpose(residues); err != nil {
				return reject(err.Error())
			}
		}
	}
	if sup.RMSD > p.MaxRMSD {
		return reject(fmt.Sprintf("RMSD %.3f exceeds %.3f", sup.RMSD, p.MaxRMSD))
	}
	if aligned == 0 ||
		float64(len(residues))/float64(aligned) < p.SimilarityThreshold {
		return reject(fmt.Sprintf(
			"only %d of %d aligned residues superpose", len(residues), aligned))
	}

	res := Result{Superposition: sup, Residues: len(residues)}
	for _, rp := range residues {
		res.A = append(res.A, rp.a...)
		res.B = append(res.B, rp.b...)
	}
	if sup.R.Near(linalg.Identity, selfRotationTol) &&
		sup.T.IsZero(selfTranslationTol) {
		res.Self = true
		res.Reason = "chains coincide"
		return res
	}
	res.Accepted = true
	return res
}

func reject(reason string) Result {
	return Result{Reason: reason}
}

// alignedRuns aligns the sequences of a and b and returns the residue index
// pairs lying in runs of identical residue names that are long enough.
func alignedRuns(a, b *pdb.Chain, p Params) [][2]int {
	sa := seq.NewSequence(a.Ident, a.Sequence())
	sb := seq.NewSequence(b.Ident, b.Sequence())
	alignment := seq.NeedlemanWunsch(sa.Residues, sb.Residues, seq.IdentityScoring)

	minRun := min(p.MinContigLength, min(len(a.Residues), len(b.Residues)))
	kept := make([][2]int, 0)
	run := make([][2]int, 0)
	flush := func() {
		if len(run) >= minRun {
			kept = append(kept, run...)
		}
		run = run[:0]
	}
	for _, pr := range alignment.Pairs() {
		ra, rb := a.Residues[pr[0]], b.Residues[pr[1]]
		if strings.TrimSpace(ra.Name) != strings.TrimSpace(rb.Name) {
			flush()
			continue
		}
		if len(run) > 0 {
			last := run[len(run)-1]
			if pr[0] != last[0]+1 || pr[1] != last[1]+1 {
				flush()
			}
		}
		run = append(run, pr)
	}
	flush()
	return kept
}

// pairAtoms pairs the atoms of two residues by name.
func pairAtoms(ra, rb *pdb.Residue, p Params) (residuePair, bool) {
	var rp residuePair
	if p.CheckAtomOrder {
		if len(ra.Atoms) != len(rb.Atoms) {
			return rp, false
		}
		for i := range ra.Atoms {
			if ra.Atoms[i].Name != rb.Atoms[i].Name {
				return rp, false
			}
		}
	}
	if len(ra.Atoms) != len(rb.Atoms) && !p.AllowDifferentSizeRes {
		return rp, false
	}

	used := make([]bool, len(rb.Atoms))
	for _, x := range ra.Atoms {
		for j, y := range rb.Atoms {
			if !used[j] && x.Name == y.Name {
				used[j] = true
				rp.a = append(rp.a, x.Index)
				rp.b = append(rp.b, y.Index)
				rp.ca = append(rp.ca, x.Coords)
				rp.cb = append(rp.cb, y.Coords)
				break
			}
		}
	}
	return rp, len(rp.a) > 0
}

func superpose(residues []residuePair) (rmsd.Superposition, error) {
	var ca, cb []pdb.Coords
	for _, rp := range residues {
		ca = append(ca, rp.ca...)
		cb = append(cb, rp.cb...)
	}
	if len(ca) < 3 {
		return rmsd.Superposition{}, fmt.Errorf(
			"only %d atoms could be paired", len(ca))
	}
	return rmsd.Superpose(ca, cb)
}

// worstResidue returns the residue with the largest atom deviation under
// sup. Ties go to the earliest residue.
func worstResidue(
	residues []residuePair, sup rmsd.Superposition,
) (int, float64) {
	worst, dev := 0, -1.0
	for i, rp := range residues {
		for _, d := range rmsd.Distances(rp.ca, rp.cb, sup.R, sup.T) {
			if d > dev {
				worst, dev = i, d
			}
		}
	}
	return worst, dev
}

// Rank returns the positions of rs ordered by ascending RMSD, then by the
// rendered rotation and translation, so that equally good candidates are
// ranked deterministically. Ties beyond that keep their order in rs.
func Rank(rs []Result) []int {
	order := make([]int, len(rs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		a, b := rs[order[x]], rs[order[y]]
		if a.RMSD != b.RMSD {
			return a.RMSD < b.RMSD
		}
		return a.R.String()+a.T.String() < b.R.String()+b.T.String()
	})
	return order
}
