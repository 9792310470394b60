// Package seq holds residue sequences and their pairwise global alignment.
package seq

// A Sequence corresponds to any kind of biological sequence: DNA, RNA, amino
// acid, secondary structure, etc.
type Sequence struct {
	Name     string
	Residues []Residue
}

// A Residue corresponds to a single entry in a sequence.
type Residue byte

// Gap is the residue used to pad an alignment.
const Gap Residue = '-'

// NewSequence builds a sequence from single letter residue codes.
func NewSequence(name string, codes []byte) Sequence {
	residues := make([]Residue, len(codes))
	for i, c := range codes {
		residues[i] = Residue(c)
	}
	return Sequence{Name: name, Residues: residues}
}

// Copy returns a deep copy of the sequence.
func (s Sequence) Copy() Sequence {
	residues := make([]Residue, len(s.Residues))
	copy(residues, s.Residues)
	return Sequence{
		Name:     s.Name,
		Residues: residues,
	}
}

// Slice returns a slice of the sequence. The name stays the same, and the
// sequence of residues corresponds to a Go slice of the original.
// (This does not copy data, so that if the original or sliced sequence is
// changed, the other one will too. Use Sequence.Copy first if you need copy
// semantics.)
func (s Sequence) Slice(start, end int) Sequence {
	return Sequence{
		Name:     s.Name,
		Residues: s.Residues[start:end],
	}
}

// Len returns the number of residues in the sequence.
func (s Sequence) Len() int {
	return len(s.Residues)
}

func (s Sequence) String() string {
	bs := make([]byte, len(s.Residues))
	for i, r := range s.Residues {
		bs[i] = byte(r)
	}
	return string(bs)
}
