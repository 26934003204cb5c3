// Package constraint provides the filter tree authored by users and by sync
// jobs.
//
// A Constraint is the presentation-level form of a filter. It is converted
// two ways:
//
//	[Constraint] → ToExpr   → [dp.Expr]  → query compiler / Accept
//	             → cube.Build → [Cube]   → coverage registry
//
// Both conversions read the same tree, so a filter shown in the query
// builder, a filter checked against the coverage registry and a filter run
// against the local store always agree.
//
// SEALED INTERFACE:
//
// Constraint is sealed with a marker method. Only types in this package
// implement it, so consumers can switch exhaustively:
//
//	switch c := c.(type) {
//	case And:
//	case Or:
//	case Not:
//	case Literal:
//	case Equals, OneOf, Compare, Intersects, TextMatch, NotNull, RefersTo, ReferredBy:
//	}
//
// FILTER FILES:
//
// Filters are authored in YAML. Each node is a single-key mapping naming an
// operator, or one of the scalars true and false:
//
//	and:
//	  - eq: {attr: status, value: 3}
//	  - in: {attr: priority, values: [1, 2]}
//	  - not:
//	      match: {attr: summary, pattern: wontfix}
//	  - or:
//	      - lt: {attr: created, value: 1700000000000, accept_null: true}
//	      - not_null: {attr: parent}
//	  - referred_by:
//	      attr: parent
//	      where: {eq: {attr: status, value: 1}}
//
// Values are integers or strings. Floats are rejected.
package constraint
