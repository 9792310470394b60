package ncs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m4tt-willi4ms/cctbx-project/pdb"
	"github.com/m4tt-willi4ms/cctbx-project/sel"
)

// Mode identifies how an assembly was built.
type Mode int

const (
	ModeTransforms Mode = iota + 1
	ModeSelections
	ModeSearch
	ModeSpec
)

func (m Mode) String() string {
	switch m {
	case ModeTransforms:
		return "transforms"
	case ModeSelections:
		return "selections"
	case ModeSearch:
		return "search"
	case ModeSpec:
		return "spec"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MasterKey addresses one chain-scoped part of the master of a group.
type MasterKey struct {
	Group, Part int
}

// PartKey addresses one chain-scoped part of one copy of a group. Serial 1
// addresses the master itself.
type PartKey struct {
	Group, Serial, Part int
}

func (k PartKey) less(o PartKey) bool {
	if k.Group != o.Group {
		return k.Group < o.Group
	}
	if k.Serial != o.Serial {
		return k.Serial < o.Serial
	}
	return k.Part < o.Part
}

// Group is a master and its copies. Master is split into chain-scoped parts
// and every copy has one part aligned with each master part. The master
// carries the identity transform implicitly.
type Group struct {
	ID     int
	Master []sel.Selection
	Copies []*Copy
}

// Copy is one copy of a group's master.
type Copy struct {
	Parts     []sel.Selection
	Transform *Transform

	// Generated is set when the copy's atoms are not in the model and its
	// indices were derived from the master's.
	Generated bool
}

// Key returns the canonical key of the group: the sorted chain
// identifiers of its master.
func (g *Group) Key() string {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, part := range g.Master {
		for _, id := range sel.Chains(part.Expr) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// MasterIndices returns the master atoms of every part, concatenated in
// part order.
func (g *Group) MasterIndices() []int {
	return concat(g.Master)
}

// Transforms returns the copies' transforms in copy order.
func (g *Group) Transforms() []*Transform {
	ts := make([]*Transform, len(g.Copies))
	for i, c := range g.Copies {
		ts[i] = c.Transform
	}
	return ts
}

// Indices returns the copy atoms of every part, concatenated in part order.
func (c *Copy) Indices() []int {
	return concat(c.Parts)
}

func concat(parts []sel.Selection) []int {
	all := make([]int, 0)
	for _, p := range parts {
		all = append(all, p.Indices...)
	}
	return all
}

// Assembly is the set of NCS groups of one model together with the
// transforms, names and index maps derived from them.
type Assembly struct {
	// NumAtoms is the size of the complete assembly. For groups built from
	// transforms this includes the generated copies.
	NumAtoms int

	// Groups are ordered by ID, starting at 1.
	Groups []*Group

	// Transforms holds every transform, including the identity of every
	// group at serial 1.
	Transforms map[TransformID]*Transform

	// Order lists every part of every master and copy, sorted by group,
	// serial and part.
	Order []PartKey

	// ChainNames names the chain of every part in Order.
	ChainNames map[PartKey]string

	// InUse holds the non-identity transforms that have copies.
	InUse map[TransformID]bool

	Log *Log

	// Maps is set once the assembly is consolidated.
	Maps *IndexMaps

	Mode   Mode
	Params Params

	entry *pdb.Entry
}

func newAssembly(entry *pdb.Entry, mode Mode, p Params) *Assembly {
	return &Assembly{
		NumAtoms:   entry.NumAtoms(),
		Transforms: make(map[TransformID]*Transform),
		ChainNames: make(map[PartKey]string),
		InUse:      make(map[TransformID]bool),
		Log:        new(Log),
		Mode:       mode,
		Params:     p,
		entry:      entry,
	}
}

// Entry returns the model the assembly was built from.
func (a *Assembly) Entry() *pdb.Entry {
	return a.entry
}

// NumGroups returns the number of groups.
func (a *Assembly) NumGroups() int {
	return len(a.Groups)
}

// Transform returns the transform addressed by id, or nil.
func (a *Assembly) Transform(id TransformID) *Transform {
	return a.Transforms[id]
}

// checkModel rejects entries that cannot be processed.
func checkModel(entry *pdb.Entry) (*pdb.Model, error) {
	m, err := entry.OneModel()
	if err != nil {
		return nil, inputWrap(err, "Cannot process '%s'", entry.Path)
	}
	return m, nil
}
