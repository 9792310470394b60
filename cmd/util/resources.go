package util

import (
	"context"
	"strconv"

	"github.com/m4tt-willi4ms/cctbx-project/ncs"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
	"github.com/m4tt-willi4ms/cctbx-project/spec"
)

func ModelRead(ctx context.Context, path string) *pdb.Entry {
	r, err := OpenFile(ctx, path)
	Assert(err, "Could not open model '%s'", path)
	defer r.Close()

	entry, err := pdb.Read(r)
	Assert(err, "Could not read model '%s'", path)
	entry.Path = path
	return entry
}

func ModelWrite(path string, entry *pdb.Entry) {
	w, err := CreateFile(path)
	Assert(err, "Could not create file '%s'", path)
	Assert(entry.Write(w), "Could not write model '%s'", path)
	Assert(w.Close(), "Could not close '%s'", path)
}

func SpecRead(ctx context.Context, path string) *spec.Spec {
	r, err := OpenFile(ctx, path)
	Assert(err, "Could not open NCS specification '%s'", path)
	defer r.Close()

	s, err := spec.Read(r)
	Assert(err, "Could not read NCS specification '%s'", path)
	return s
}

func SpecWrite(path string, s *spec.Spec) {
	w, err := CreateFile(path)
	Assert(err, "Could not create file '%s'", path)
	Assert(s.Write(w), "Could not write NCS specification '%s'", path)
	Assert(w.Close(), "Could not close '%s'", path)
}

func OperatorsRead(ctx context.Context, path string) []spec.Operator {
	r, err := OpenFile(ctx, path)
	Assert(err, "Could not open operators '%s'", path)
	defer r.Close()

	ops, err := spec.ReadOperators(r)
	Assert(err, "Could not read operators '%s'", path)
	return ops
}

func GroupsRead(ctx context.Context, path string) []ncs.GroupSpec {
	r, err := OpenFile(ctx, path)
	Assert(err, "Could not open NCS groups '%s'", path)
	defer r.Close()

	groups, err := ncs.ReadGroups(r)
	Assert(err, "Could not read NCS groups '%s'", path)
	return groups
}

func GroupsWrite(path string, a *ncs.Assembly) {
	w, err := CreateFile(path)
	Assert(err, "Could not create file '%s'", path)
	Assert(a.WriteGroups(w), "Could not write NCS groups '%s'", path)
	Assert(w.Close(), "Could not close '%s'", path)
}

func ParseInt(str string) int {
	num, err := strconv.ParseInt(str, 10, 32)
	Assert(err, "Could not parse '%s' as an integer", str)
	return int(num)
}
