package ncs

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/m4tt-willi4ms/cctbx-project/linalg"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
	"github.com/m4tt-willi4ms/cctbx-project/sel"
	"github.com/m4tt-willi4ms/cctbx-project/spec"
)

// lineWidth is the width at which group descriptions are wrapped.
const lineWidth = 80

// GroupSpecs returns the reference and copy selections of every group.
func (a *Assembly) GroupSpecs() []GroupSpec {
	specs := make([]GroupSpec, len(a.Groups))
	for i, g := range a.Groups {
		gs := GroupSpec{Reference: partsString(g.Master)}
		for _, c := range g.Copies {
			gs.Selections = append(gs.Selections, partsString(c.Parts))
		}
		specs[i] = gs
	}
	return specs
}

// WriteGroups writes the groups of a as ncs_group blocks. Lines longer
// than 80 characters are continued on the next line after a " \".
func (a *Assembly) WriteGroups(w io.Writer) error {
	return WriteGroupSpecs(w, a.GroupSpecs())
}

// WriteGroupSpecs writes groups in the format read by ReadGroups.
func WriteGroupSpecs(w io.Writer, groups []GroupSpec) error {
	buf := bufio.NewWriter(w)
	for _, gs := range groups {
		fmt.Fprintln(buf, "ncs_group {")
		fmt.Fprintln(buf, wrap80("  reference = "+gs.Reference))
		for _, s := range gs.Selections {
			fmt.Fprintln(buf, wrap80("  selection = "+s))
		}
		fmt.Fprintln(buf, "}")
	}
	return buf.Flush()
}

// wrap80 cuts line into pieces joined by " \" continuations so that no
// emitted line, continuation included, exceeds 80 characters.
func wrap80(line string) string {
	if len(line) <= lineWidth {
		return line
	}
	const cut = lineWidth - len(" \\")
	pieces := make([]string, 0, len(line)/cut+1)
	for len(line) > lineWidth {
		pieces = append(pieces, line[:cut])
		line = line[cut:]
	}
	pieces = append(pieces, line)
	return strings.Join(pieces, " \\\n")
}

// ReadGroups reads ncs_group blocks written by WriteGroups.
func ReadGroups(r io.Reader) ([]GroupSpec, error) {
	groups := make([]GroupSpec, 0)
	var cur *GroupSpec
	scanner := bufio.NewScanner(r)
	lineno := 0
	logical := ""
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if strings.HasSuffix(line, " \\") {
			logical += strings.TrimSuffix(line, " \\")
			continue
		}
		line, logical = logical+line, ""

		trimmed := strings.TrimSpace(line)
		switch {
		case len(trimmed) == 0 || strings.HasPrefix(trimmed, "#"):
		case trimmed == "ncs_group {":
			if cur != nil {
				return nil, fmt.Errorf("line %d: ncs_group blocks cannot "+
					"be nested", lineno)
			}
			cur = &GroupSpec{}
		case trimmed == "}":
			if cur == nil {
				return nil, fmt.Errorf("line %d: unexpected '}'", lineno)
			}
			groups = append(groups, *cur)
			cur = nil
		default:
			if cur == nil {
				return nil, fmt.Errorf("line %d: '%s' is outside of an "+
					"ncs_group block", lineno, trimmed)
			}
			key, value, ok := strings.Cut(trimmed, "=")
			if !ok {
				return nil, fmt.Errorf("line %d: expected 'key = value' "+
					"but got '%s'", lineno, trimmed)
			}
			value = strings.TrimSpace(value)
			switch strings.TrimSpace(key) {
			case "reference":
				cur.Reference = value
			case "selection":
				cur.Selections = append(cur.Selections, value)
			default:
				return nil, fmt.Errorf("line %d: unknown key '%s'",
					lineno, strings.TrimSpace(key))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading NCS groups: %w", err)
	}
	if cur != nil || len(logical) > 0 {
		return nil, fmt.Errorf("unexpected end of input in an ncs_group block")
	}
	return groups, nil
}

// Spec returns the specification of a. Every master part becomes its own
// specification group, listing the master first. Rotations and
// translations are inverted to map copies onto the master.
//
// Parts that hold only some atoms of their residues carry an atom filter
// (the exclusion of a search, or else the atom names of the part) so that
// FromSpec selects the same atoms. Residue ranges cannot describe insertion
// codes; such residues are approximated by their residue numbers and a
// message is logged, as is a partial part no filter describes exactly.
func (a *Assembly) Spec() (*spec.Spec, error) {
	tab := atomTable{
		residue: make([]*pdb.Residue, 0, a.entry.NumAtoms()),
		chain:   make([]string, 0, a.entry.NumAtoms()),
		coords:  make([]pdb.Coords, 0, a.entry.NumAtoms()),
	}
	a.entry.EachAtom(func(c *pdb.Chain, r *pdb.Residue, atom *pdb.Atom) {
		tab.residue = append(tab.residue, r)
		tab.chain = append(tab.chain, c.Ident)
		tab.coords = append(tab.coords, atom.Coords)
	})

	s := &spec.Spec{}
	for _, g := range a.Groups {
		for p, m := range g.Master {
			sg := spec.Group{}
			ident := a.Transforms[TransformID{g.ID, 1}]
			mc, err := a.specCopy(PartKey{g.ID, 1, p}, m, m, ident, tab)
			if err != nil {
				return nil, err
			}
			sg.Copies = append(sg.Copies, mc)
			for _, c := range g.Copies {
				key := PartKey{g.ID, c.Transform.Serial, p}
				sc, err := a.specCopy(key, c.Parts[p], m, c.Transform, tab)
				if err != nil {
					return nil, err
				}
				sg.Copies = append(sg.Copies, sc)
			}
			s.Groups = append(s.Groups, sg)
		}
	}
	return s, nil
}

// atomTable holds per-atom facts of the model, indexed by atom.
type atomTable struct {
	residue []*pdb.Residue
	chain   []string
	coords  []pdb.Coords
}

// specCopy describes one copy part. Generated copies are described
// through their master part.
func (a *Assembly) specCopy(
	key PartKey,
	part, master sel.Selection,
	t *Transform,
	tab atomTable,
) (spec.Copy, error) {
	src := part.Indices
	generated := key.Serial > 1 && a.Groups[key.Group-1].Copies[key.Serial-2].Generated
	if generated {
		src = master.Indices
	}
	if len(src) == 0 {
		return spec.Copy{}, fmt.Errorf("NCS part %s has no atoms", key)
	}

	var center linalg.Vec3
	for _, i := range src {
		if i >= len(tab.coords) {
			return spec.Copy{}, fmt.Errorf("%w: atom %d of NCS part %s is "+
				"not in the model", ErrPartition, i, key)
		}
		c := tab.coords[i]
		if generated {
			c = t.Apply(c)
		}
		center = center.Add(c.Vec())
	}
	center = center.Scale(1 / float64(len(src)))

	ranges := a.residueRanges(src, tab.residue)
	residues := 0
	for _, r := range ranges {
		residues += r[1] - r[0] + 1
	}
	rot, tr := Invert(t.R, t.T)
	rms := t.RMSD
	if key.Serial == 1 {
		rms = 0
	}
	return spec.Copy{
		Chain:       a.ChainNames[key],
		Ranges:      ranges,
		Atoms:       a.atomFilter(src, ranges, tab),
		Rotation:    rot,
		Translation: tr,
		RMSD:        rms,
		Center:      center,
		Residues:    residues,
	}, nil
}

// atomFilter returns the selection that narrows the residue ranges of src
// down to exactly the atoms of src, or "" when the ranges are exact.
func (a *Assembly) atomFilter(src []int, ranges [][2]int, tab atomTable) string {
	base := specExpr(spec.Copy{Chain: tab.chain[src[0]], Ranges: ranges})
	if sel.Equal(sel.Select(a.entry, base), src) {
		return ""
	}

	candidates := make([]sel.Expr, 0, 2)
	if q := strings.TrimSpace(a.Params.Exclude); len(q) > 0 {
		if x, err := sel.Parse(q); err == nil {
			candidates = append(candidates, sel.Not{X: x})
		}
	}
	inPart := make(map[int]bool, len(src))
	for _, i := range src {
		inPart[i] = true
	}
	seen := make(map[string]bool)
	names := make([]string, 0)
	a.entry.EachAtom(func(_ *pdb.Chain, _ *pdb.Residue, atom *pdb.Atom) {
		if inPart[atom.Index] && !seen[atom.Name] {
			seen[atom.Name] = true
			names = append(names, atom.Name)
		}
	})
	sort.Strings(names)
	terms := make([]sel.Expr, len(names))
	for i, name := range names {
		terms[i] = sel.Name(name)
	}
	candidates = append(candidates, sel.Union(terms...))

	for _, c := range candidates {
		if sel.Equal(sel.Select(a.entry, sel.Intersect(base, c)), src) {
			return c.String()
		}
	}
	a.Log.Addf("Chain %s holds partial residues that can't be represented "+
		"using only residue ranges and atom names.", tab.chain[src[0]])
	return candidates[len(candidates)-1].String()
}

// residueRanges collapses the residues of the given atoms into sorted,
// inclusive runs of residue numbers.
func (a *Assembly) residueRanges(indices []int, residueOf []*pdb.Residue) [][2]int {
	nums := make([]int, 0)
	var last *pdb.Residue
	for _, i := range indices {
		r := residueOf[i]
		if r == last {
			continue
		}
		last = r
		if r.HasInsertionCode() {
			a.Log.Addf("Sequence may contain insertions and can't be " +
				"represented using only residue ID.")
		}
		nums = append(nums, r.SequenceNum)
	}
	sort.Ints(nums)

	ranges := make([][2]int, 0)
	for _, n := range nums {
		if k := len(ranges) - 1; k >= 0 && n <= ranges[k][1]+1 {
			if n > ranges[k][1] {
				ranges[k][1] = n
			}
			continue
		}
		ranges = append(ranges, [2]int{n, n})
	}
	return ranges
}

// WriteSummary writes the search parameters, the chains of the model, the
// groups and their transforms in a human readable form.
func (a *Assembly) WriteSummary(w io.Writer) error {
	buf := bufio.NewWriter(w)
	rule := strings.Repeat("-", 51)
	dots := strings.Repeat(". ", 26)
	line := func(label string, v interface{}) {
		fmt.Fprintf(buf, "%-35s:   %v\n", label, v)
	}

	p := a.Params
	fmt.Fprintf(buf, "NCS search parameters:\n%s\n", rule)
	line("use_minimal_master_ncs", p.UseMinimalMaster)
	line("min_contig_length", p.MinContigLength)
	line("max_rmsd", p.MaxRMSD)
	line("check_atom_order", p.CheckAtomOrder)
	line("exclude_misaligned_residues", p.ExcludeMisalignedResidues)
	line("match_radius", p.MatchRadius)
	line("min_percent", p.MinPercent)
	line("similarity_threshold", p.SimilarityThreshold)
	fmt.Fprintln(buf, dots)

	fmt.Fprintf(buf, "\nChains in model:\n%s\n", rule)
	ids := a.entry.ChainIdents()
	for i := 0; i < len(ids); i += 10 {
		row := ids[i:min(i+10, len(ids))]
		for _, id := range row {
			fmt.Fprintf(buf, "%-5s", id)
		}
		fmt.Fprintln(buf)
	}
	fmt.Fprintln(buf, dots)

	fmt.Fprintf(buf, "\nNCS summary:\n%s\n", rule)
	line("Number of NCS groups", a.NumGroups())
	for _, g := range a.Groups {
		line("Group #", g.ID)
		line("Number of copies", len(g.Copies)+1)
		line("Chains in master", strings.Join(a.namesOf(g.ID, 1, len(g.Master)), ", "))
		copies := make([]string, 0)
		for _, c := range g.Copies {
			copies = append(copies, a.namesOf(g.ID, c.Transform.Serial, len(c.Parts))...)
		}
		line("Chains in copies", strings.Join(copies, ", "))
	}
	fmt.Fprintln(buf, dots)

	fmt.Fprintf(buf, "\nTransforms:\n%s\n", rule)
	for _, g := range a.Groups {
		line("Group #", g.ID)
		ts := append([]*Transform{a.Transforms[TransformID{g.ID, 1}]}, g.Transforms()...)
		for _, t := range ts {
			line("Transform #", t.Serial)
			line("RMSD", fmt.Sprintf("%.4f", t.RMSD))
			for row := 0; row < 3; row++ {
				fmt.Fprintf(buf, "ROTA  %2d%10.4f%10.4f%10.4f\n",
					row+1, t.R[3*row], t.R[3*row+1], t.R[3*row+2])
			}
			fmt.Fprintf(buf, "TRANS   %10.4f%10.4f%10.4f\n", t.T[0], t.T[1], t.T[2])
			fmt.Fprintln(buf, strings.Repeat("~ ", 20))
		}
	}
	if msgs := a.Log.Messages(); len(msgs) > 0 {
		fmt.Fprintf(buf, "\nMessages:\n%s\n%s\n", rule, a.Log)
	}
	return buf.Flush()
}

// namesOf returns the chain names of the parts of one master or copy.
func (a *Assembly) namesOf(group, serial, parts int) []string {
	names := make([]string, parts)
	for p := range names {
		names[p] = a.ChainNames[PartKey{group, serial, p}]
	}
	return names
}
