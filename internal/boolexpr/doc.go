// Package boolexpr implements immutable AND/OR/NOT trees over arbitrary
// predicates.
//
// Expressions are simplified as they are built: nested operations of the
// same kind are flattened, TRUE and FALSE identities are dropped, duplicate
// arguments are removed by structural key, and an argument next to its own
// negation collapses the operation to a constant. Two expressions built from
// structurally equal parts in the same order have the same Key.
//
// Predicates only need a structural key:
//
//	type Predicate interface {
//		Key() string
//	}
package boolexpr
