// Package dp defines the closed set of data predicates (DPs) evaluated
// against replicated items.
//
// A DP constrains the values one attribute holds for an item. Evaluation is
// existential: a predicate accepts an item when some value of the attribute
// satisfies it. An item without values is accepted only by an ordered
// comparison built with AcceptNull.
//
// DPs are immutable value objects. Key returns a canonical JSON description
// that is equal for structurally equal predicates; it drives expression
// deduplication and compiled plan caching.
package dp
