package dp

import (
	"fmt"

	"github.com/roach88/replica/internal/boolexpr"
	"github.com/roach88/replica/internal/ir"
)

// DP is a sealed interface implemented by Equals, Compare, Intersects,
// TextMatch, NotNull, ReferenceTo and ReferredBy.
type DP interface {
	isDP()

	// Key is the canonical structural description.
	Key() string

	// Attributes lists the attributes whose changes can alter the result,
	// including those referenced by nested expressions.
	Attributes() []string

	// Accept evaluates the predicate for one item.
	Accept(item int64, r Reader) (bool, error)
}

// Expr is a boolean expression over data predicates.
type Expr = boolexpr.Expr[DP]

// Reader gives predicates read access to replicated items.
type Reader interface {
	// Values returns the values an item holds for an attribute, sorted.
	Values(item int64, attr string) ([]ir.IRValue, error)

	// ItemByIdentity resolves an external identity to an item id.
	ItemByIdentity(identity string) (int64, bool, error)

	// Referrers returns the items whose attribute attr refers to item.
	Referrers(attr string, item int64) ([]int64, error)
}

// Accept evaluates an expression for one item.
func Accept(e Expr, item int64, r Reader) (bool, error) {
	return e.Eval(func(p DP) (bool, error) {
		return p.Accept(item, r)
	})
}

// Attributes returns every attribute an expression depends on, in
// first-seen order without duplicates.
func Attributes(e Expr) []string {
	var out []string
	seen := make(map[string]bool)
	e.Walk(func(p DP) {
		for _, a := range p.Attributes() {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	})
	return out
}

// Term wraps a predicate as an expression.
func Term(p DP) Expr {
	return boolexpr.Term(p)
}

func mustKey(obj ir.IRObject) string {
	key, err := ir.CanonicalKey(obj)
	if err != nil {
		// Operands are validated by the constructors.
		panic(fmt.Sprintf("dp: %v", err))
	}
	return key
}

func checkOperands(values []ir.IRValue) error {
	for i, v := range values {
		switch v.(type) {
		case ir.IRInt, ir.IRString:
		default:
			return fmt.Errorf("operand %d: unsupported %s value", i, ir.Kind(v))
		}
	}
	return nil
}

func valueArray(values []ir.IRValue) ir.IRArray {
	return append(ir.IRArray{}, values...)
}

func containsAny(have, want []ir.IRValue) bool {
	for _, h := range have {
		for _, w := range want {
			if ir.Equal(h, w) {
				return true
			}
		}
	}
	return false
}
