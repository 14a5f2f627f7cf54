// Package rank narrows competing statements about one entity to the best ones.
package rank

// Statement ranks as Wikibase IRIs
const (
	DeprecatedIRI = "http://wikiba.se/ontology#DeprecatedRank"
	NormalIRI     = "http://wikiba.se/ontology#NormalRank"
	PreferredIRI  = "http://wikiba.se/ontology#PreferredRank"
)

// Rank is the preference tier of a statement
type Rank int

const (
	Deprecated Rank = iota - 1
	Normal
	Preferred
)

// Parse maps a rank IRI to a Rank. Anything unrecognized, including a
// missing rank, is normal.
func Parse(iri string) Rank {
	switch iri {
	case DeprecatedIRI:
		return Deprecated
	case PreferredIRI:
		return Preferred
	default:
		return Normal
	}
}

func (r Rank) String() string {
	switch r {
	case Deprecated:
		return "deprecated"
	case Preferred:
		return "preferred"
	default:
		return "normal"
	}
}

// Predicate keeps a candidate when it returns true
type Predicate func(Rank) bool

// DefaultChain drops deprecated statements, then keeps preferred ones
var DefaultChain = []Predicate{
	func(r Rank) bool { return r != Deprecated },
	func(r Rank) bool { return r == Preferred },
}

// Resolver applies a predicate chain. A step that would leave nothing
// is undone and the chain stops there.
type Resolver[T any] struct {
	rankOf func(T) Rank
	chain  []Predicate
}

// NewResolver returns a resolver over DefaultChain
func NewResolver[T any](rankOf func(T) Rank) *Resolver[T] {
	return &Resolver[T]{rankOf: rankOf, chain: DefaultChain}
}

// Best returns the surviving candidates in input order. It never returns an
// empty slice for non-empty input; more than one survivor is ambiguous and
// callers take the first.
func (r *Resolver[T]) Best(candidates []T) []T {
	last := candidates
	for _, keep := range r.chain {
		if len(last) <= 1 {
			break
		}
		var next []T
		for _, c := range last {
			if keep(r.rankOf(c)) {
				next = append(next, c)
			}
		}
		if len(next) == 0 {
			break
		}
		last = next
	}
	out := make([]T, len(last))
	copy(out, last)
	return out
}
