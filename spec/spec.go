// Package spec reads and writes the two serialized forms exchanged with
// other tools.
//
// A Spec lists NCS groups with, for every copy, its chain, residue ranges,
// the superposition onto the master and its center. Rotations and
// translations in a Spec map a copy onto its master (copy -> master).
//
// An Operator list holds bare transforms that generate copies from a master.
// Operators map the master onto the copy (master -> copy), like MTRIX
// records.
package spec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/m4tt-willi4ms/cctbx-project/linalg"
)

// Spec is an ordered list of groups.
type Spec struct {
	Groups []Group `yaml:"groups" json:"groups"`
}

// Group is one master with its copies. The master is the copy whose
// transform is the identity.
type Group struct {
	Copies []Copy `yaml:"copies" json:"copies"`
}

// Copy describes one member of a group.
type Copy struct {
	Chain string `yaml:"chain" json:"chain"`

	// Ranges are inclusive residue number ranges.
	Ranges [][2]int `yaml:"ranges,flow" json:"ranges"`

	// Atoms, when set, is a selection that narrows the residue ranges to
	// the atoms of the copy.
	Atoms string `yaml:"atoms,omitempty" json:"atoms,omitempty"`

	// Rotation and Translation map this copy onto the master.
	Rotation    linalg.Mat3 `yaml:"rotation,flow" json:"rotation"`
	Translation linalg.Vec3 `yaml:"translation,flow" json:"translation"`

	RMSD     float64     `yaml:"rmsd" json:"rmsd"`
	Center   linalg.Vec3 `yaml:"center,flow" json:"center"`
	Residues int         `yaml:"residues" json:"residues"`
}

// Operator is a transform applied to a master to produce a copy.
type Operator struct {
	Serial      int         `yaml:"serial"`
	Rotation    linalg.Mat3 `yaml:"rotation,flow"`
	Translation linalg.Vec3 `yaml:"translation,flow"`

	// Present is set when the copy generated by this operator is already
	// part of the model.
	Present bool `yaml:"present,omitempty"`
}

// Read decodes a YAML spec.
func Read(r io.Reader) (*Spec, error) {
	s := new(Spec)
	if err := yaml.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("decode spec: %w", err)
	}
	for i, g := range s.Groups {
		if len(g.Copies) == 0 {
			return nil, fmt.Errorf("NCS group %d has no copies", i+1)
		}
		for _, c := range g.Copies {
			for _, rng := range c.Ranges {
				if rng[1] < rng[0] {
					return nil, fmt.Errorf("group %d, chain '%s': "+
						"the residue range %d:%d is empty",
						i+1, c.Chain, rng[0], rng[1])
				}
			}
		}
	}
	return s, nil
}

// Write encodes s as YAML.
func (s *Spec) Write(w io.Writer) error {
	return encode(w, s)
}

// ReadOperators decodes a YAML list of operators.
func ReadOperators(r io.Reader) ([]Operator, error) {
	var ops []Operator
	if err := yaml.NewDecoder(r).Decode(&ops); err != nil {
		return nil, fmt.Errorf("decode operators: %w", err)
	}
	return ops, nil
}

// WriteOperators encodes ops as YAML.
func WriteOperators(w io.Writer, ops []Operator) error {
	return encode(w, ops)
}

func encode(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}
