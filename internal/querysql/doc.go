// Package querysql compiles predicate expressions into SQL over the
// replica's entity-attribute-value tables.
//
// An expression is expanded to disjunctive normal form and every disjunct
// becomes one ItemSelectBuilder; the items matched by the expression are
// the union of the builders' results. Within a builder each scalar
// attribute is joined once, collection attributes are tested with
// correlated EXISTS sub-selects, and each predicate contributes one WHERE
// fragment.
//
// CRITICAL: ALL statements end with ORDER BY _ti.item for deterministic
// results.
// CRITICAL: All values are parameterized (never interpolated).
//
// Aliases are assigned in first-seen order, so structurally equal
// expressions always compile to identical text. Compiled plans are cached by
// expression hash until the catalog changes.
//
// A predicate the compiler cannot lower fails the whole compilation with a
// *CompileError; callers check IsUnsupported and fall back to evaluating
// dp.Accept over every item rather than running a plan with a clause
// missing.
package querysql
