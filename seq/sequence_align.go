package seq

// Alignment is a pair of gapped sequences of equal length.
type Alignment struct {
	A, B []Residue
}

// Scoring parameterizes NeedlemanWunsch. Identical residues score Match,
// differing residues score Mismatch and every gap position scores Gap.
type Scoring struct {
	Match, Mismatch, Gap int
}

// IdentityScoring rewards identical residues only. It suits the comparison
// of chains that are expected to be copies of one another.
var IdentityScoring = Scoring{Match: 2, Mismatch: -1, Gap: -2}

func newAlignment(length int) Alignment {
	return Alignment{
		A: make([]Residue, 0, length),
		B: make([]Residue, 0, length),
	}
}

// NeedlemanWunsch computes an optimal global alignment of A and B. Ties in
// the traceback prefer a match, then a gap in B, then a gap in A, so the
// result is deterministic.
func NeedlemanWunsch(A, B []Residue, s Scoring) Alignment {
	// rows correspond to residues in A
	// cols correspond to residues in B
	score := func(a, b Residue) int {
		if a == b {
			return s.Match
		}
		return s.Mismatch
	}

	matrix := make([][]int, len(A)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(B)+1)
		matrix[i][0] = s.Gap * i
	}
	for j := range matrix[0] {
		matrix[0][j] = s.Gap * j
	}
	for i := 1; i <= len(A); i++ {
		for j := 1; j <= len(B); j++ {
			matrix[i][j] = max3(
				matrix[i-1][j-1]+score(A[i-1], B[j-1]),
				matrix[i-1][j]+s.Gap,
				matrix[i][j-1]+s.Gap)
		}
	}

	// Now trace an optimal path through the matrix starting at (len(A), len(B))
	aligned := newAlignment(max(len(A), len(B)))
	i, j := len(A), len(B)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 &&
			matrix[i][j] == matrix[i-1][j-1]+score(A[i-1], B[j-1]):
			aligned.A = append(aligned.A, A[i-1])
			aligned.B = append(aligned.B, B[j-1])
			i--
			j--
		case i > 0 && matrix[i][j] == matrix[i-1][j]+s.Gap:
			aligned.A = append(aligned.A, A[i-1])
			aligned.B = append(aligned.B, Gap)
			i--
		default:
			aligned.A = append(aligned.A, Gap)
			aligned.B = append(aligned.B, B[j-1])
			j--
		}
	}

	// Since we built the alignment in backwards, we must reverse the alignment.
	for i, j := 0, len(aligned.A)-1; i < j; i, j = i+1, j-1 {
		aligned.A[i], aligned.A[j] = aligned.A[j], aligned.A[i]
		aligned.B[i], aligned.B[j] = aligned.B[j], aligned.B[i]
	}
	return aligned
}

// Pairs returns the positions, in the original ungapped sequences, of every
// aligned column without a gap.
func (a Alignment) Pairs() [][2]int {
	pairs := make([][2]int, 0, len(a.A))
	i, j := 0, 0
	for k := range a.A {
		ra, rb := a.A[k], a.B[k]
		if ra != Gap && rb != Gap {
			pairs = append(pairs, [2]int{i, j})
		}
		if ra != Gap {
			i++
		}
		if rb != Gap {
			j++
		}
	}
	return pairs
}

func max3(a, b, c int) int {
	switch {
	case a >= b && a >= c:
		return a
	case b >= c:
		return b
	}
	return c
}
