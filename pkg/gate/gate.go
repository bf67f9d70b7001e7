// Package gate decides which files take part in a publication run.
// A gate is a predicate composed from include and exclude predicates:
// a path passes when at least one include accepts it and no exclude
// does.
package gate

// Predicate decides whether a path takes part in a publication run.
type Predicate func(path string) bool

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(path string) bool {
		return !p(path)
	}
}

// And accepts when every predicate accepts. And of nothing accepts.
func And(ps ...Predicate) Predicate {
	return func(path string) bool {
		for _, p := range ps {
			if !p(path) {
				return false
			}
		}
		return true
	}
}

// Or accepts when at least one predicate accepts. Or of nothing
// rejects.
func Or(ps ...Predicate) Predicate {
	return func(path string) bool {
		for _, p := range ps {
			if p(path) {
				return true
			}
		}
		return false
	}
}

// Nor accepts when no predicate accepts.
func Nor(ps ...Predicate) Predicate {
	return Not(Or(ps...))
}

// New combines include and exclude predicates into a gate.
func New(includes, excludes []Predicate) Predicate {
	return And(Or(includes...), Nor(excludes...))
}
