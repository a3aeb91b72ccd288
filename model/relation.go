package model

// RelationKind names how a relation was derived
type RelationKind string

const (
	RelationKindCoOccurrence RelationKind = "co-occurrence"
)

// Relation is an undirected, weighted link between two canonical characters.
// MemberA is always lexicographically smaller than MemberB.
type Relation struct {
	MemberA string       `json:"member_a"`
	MemberB string       `json:"member_b"`
	Kind    RelationKind `json:"kind"`
	Weight  int          `json:"weight"`
}

// RelationKey is the normalized unordered pair of a relation
type RelationKey struct {
	A string
	B string
}

// NewRelationKey orders the two names lexicographically
func NewRelationKey(a, b string) RelationKey {
	if b < a {
		a, b = b, a
	}
	return RelationKey{A: a, B: b}
}

// Other returns the member on the opposite side of name, or "" if name is not a member
func (r Relation) Other(name string) string {
	switch name {
	case r.MemberA:
		return r.MemberB
	case r.MemberB:
		return r.MemberA
	}
	return ""
}
