package ncs

import (
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
	"github.com/m4tt-willi4ms/cctbx-project/spec"
)

// Input holds the optional hints used to build NCS groups. At most one kind
// of hint is used; see Build.
type Input struct {
	Operators []spec.Operator
	Groups    []GroupSpec
	Spec      *spec.Spec
}

// Build chooses a construction mode from the hints in in, in this order
// of preference: operators, selection groups, a specification, and finally
// a search of the model. Operators whose copies are all present in the
// model carry no extra information, so the model is searched instead.
func Build(entry *pdb.Entry, in Input, p Params) (*Assembly, error) {
	if _, err := checkModel(entry); err != nil {
		return nil, err
	}
	switch {
	case len(in.Operators) > 0 && !allPresent(in.Operators):
		return FromTransforms(entry, in.Operators, p)
	case len(in.Groups) > 0:
		return FromSelections(entry, in.Groups, p)
	case in.Spec != nil && len(in.Spec.Groups) > 0:
		return FromSpec(entry, in.Spec, p)
	}
	return Search(entry, p)
}

// allPresent reports whether the copies of every non-identity operator are
// in the model.
func allPresent(ops []spec.Operator) bool {
	for _, op := range ops {
		if !IsIdentity(op.Rotation, op.Translation) && !op.Present {
			return false
		}
	}
	return true
}
