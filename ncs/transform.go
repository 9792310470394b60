package ncs

import (
	"github.com/m4tt-willi4ms/cctbx-project/linalg"
	"github.com/m4tt-willi4ms/cctbx-project/pdb"
)

// Tolerances.
const (
	// identityTol bounds every element of R-I and every component of T for
	// a transform to count as the identity.
	identityTol = 1e-5

	// sameRotationTol bounds the squared Frobenius norm of the difference of
	// two rotations considered equal. sameTranslationTol bounds the distance
	// between their translations.
	sameRotationTol    = 0.1
	sameTranslationTol = 1.0
)

// TransformID addresses a transform by group and serial number.
type TransformID struct {
	Group, Serial int
}

// Transform is a rigid motion mapping a master onto one of its copies:
// copy = R*master + T.
type Transform struct {
	R linalg.Mat3
	T linalg.Vec3

	// Serial is unique within a group. Serial 1 is the identity.
	Serial int
	Group  int

	// Present is set when the atoms of the copy exist in the model, as
	// opposed to copies generated from the master.
	Present bool

	// RMSD of the master onto the copy. Only meaningful when Present.
	RMSD float64
}

// ID returns the address of t.
func (t *Transform) ID() TransformID {
	return TransformID{t.Group, t.Serial}
}

// Apply moves c by t.
func (t *Transform) Apply(c pdb.Coords) pdb.Coords {
	return c.Transform(t.R, t.T)
}

// IsIdentity reports whether r is the identity and t is zero, within a
// tight tolerance.
func IsIdentity(r linalg.Mat3, t linalg.Vec3) bool {
	return r.Near(linalg.Identity, identityTol) && t.IsZero(identityTol)
}

// Invert returns the inverse motion of (r, t), assuming r is orthogonal.
func Invert(r linalg.Mat3, t linalg.Vec3) (linalg.Mat3, linalg.Vec3) {
	rt := r.Transpose()
	return rt, rt.MultVec(t).Scale(-1)
}

// InsertIdentityFirst returns a new list starting with the identity at
// serial 1 and followed by every non-identity transform of ts, in order,
// numbered from 2. Identities found in ts are dropped. The group of the
// inserted identity is that of the first transform.
//
// Applying InsertIdentityFirst to its own output returns an equal list.
func InsertIdentityFirst(ts []Transform) []Transform {
	ident := Transform{R: linalg.Identity, Serial: 1, Present: true}
	if len(ts) > 0 {
		ident.Group = ts[0].Group
	}
	normal := []Transform{ident}
	for _, t := range ts {
		if IsIdentity(t.R, t.T) {
			continue
		}
		t.Serial = len(normal) + 1
		normal = append(normal, t)
	}
	return normal
}

// SameTransform reports whether (r1, t1) and (r2, t2) describe the same
// motion. When they do not, but one is the inverse of the other, it
// returns true for both same and inverted.
func SameTransform(
	r1 linalg.Mat3, t1 linalg.Vec3,
	r2 linalg.Mat3, t2 linalg.Vec3,
) (same, inverted bool) {
	near := func(r linalg.Mat3, t linalg.Vec3) bool {
		return r1.Sub(r).NormSq() < sameRotationTol &&
			t1.Sub(t).Norm() < sameTranslationTol
	}
	if near(r2, t2) {
		return true, false
	}
	if near(Invert(r2, t2)) {
		return true, true
	}
	return false, false
}

// transformKey renders a transform for use as a deterministic sort key.
func transformKey(r linalg.Mat3, t linalg.Vec3) string {
	return r.String() + " " + t.String()
}

// pairTransforms matches every transform of a with a distinct transform of
// b describing the same motion in the same direction. It returns, for each
// element of a, the index of its partner in b.
func pairTransforms(a, b []*Transform) ([]int, bool) {
	if len(a) != len(b) {
		return nil, false
	}
	partner := make([]int, len(a))
	used := make([]bool, len(b))
	for i, ta := range a {
		partner[i] = -1
		for j, tb := range b {
			if used[j] {
				continue
			}
			if same, inv := SameTransform(ta.R, ta.T, tb.R, tb.T); same && !inv {
				partner[i] = j
				used[j] = true
				break
			}
		}
		if partner[i] < 0 {
			return nil, false
		}
	}
	return partner, true
}
