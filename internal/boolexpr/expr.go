package boolexpr

import (
	"strings"
)

// Predicate is a leaf of an expression. Key must be a canonical structural
// description: equal predicates return equal keys.
type Predicate interface {
	Key() string
}

// Kind identifies the shape of an expression node.
type Kind int

const (
	KindLiteral Kind = iota
	KindTerm
	KindAnd
	KindOr
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindTerm:
		return "term"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	default:
		return "unknown"
	}
}

// Expr is an immutable boolean expression. The zero value is FALSE.
type Expr[P Predicate] struct {
	kind    Kind
	value   bool // literal value
	negated bool // terms and operations only
	pred    P
	args    []Expr[P]
	key     string
}

// True returns the TRUE literal.
func True[P Predicate]() Expr[P] {
	return Expr[P]{kind: KindLiteral, value: true}
}

// False returns the FALSE literal.
func False[P Predicate]() Expr[P] {
	return Expr[P]{kind: KindLiteral}
}

// Const returns TRUE or FALSE.
func Const[P Predicate](v bool) Expr[P] {
	if v {
		return True[P]()
	}
	return False[P]()
}

// Term wraps a predicate.
func Term[P Predicate](p P) Expr[P] {
	e := Expr[P]{kind: KindTerm, pred: p}
	e.key = termKey(p.Key(), false)
	return e
}

// Not negates an expression. Negating a literal flips it; negating a term or
// operation toggles its negation flag.
func Not[P Predicate](e Expr[P]) Expr[P] {
	switch e.kind {
	case KindLiteral:
		return Const[P](!e.value)
	case KindTerm:
		out := Expr[P]{kind: KindTerm, pred: e.pred, negated: !e.negated}
		out.key = termKey(e.pred.Key(), out.negated)
		return out
	default:
		out := Expr[P]{kind: e.kind, negated: !e.negated, args: e.args}
		out.key = opKey(out.kind, out.negated, out.args)
		return out
	}
}

// And builds a conjunction.
func And[P Predicate](args ...Expr[P]) Expr[P] {
	return operation(KindAnd, args)
}

// Or builds a disjunction.
func Or[P Predicate](args ...Expr[P]) Expr[P] {
	return operation(KindOr, args)
}

func operation[P Predicate](kind Kind, args []Expr[P]) Expr[P] {
	// identity is the literal dropped from the argument list; absorbing
	// short-circuits the whole operation.
	identity := kind == KindAnd
	absorbing := !identity

	var flat []Expr[P]
	seen := make(map[string]bool)
	var add func(e Expr[P]) bool
	add = func(e Expr[P]) bool {
		switch {
		case e.kind == KindLiteral:
			return e.value != absorbing
		case e.kind == kind && !e.negated:
			for _, a := range e.args {
				if !add(a) {
					return false
				}
			}
			return true
		}
		if seen[e.key] {
			return true
		}
		if seen[Not(e).key] {
			return false
		}
		seen[e.key] = true
		flat = append(flat, e)
		return true
	}

	for _, a := range args {
		if !add(a) {
			return Const[P](absorbing)
		}
	}
	switch len(flat) {
	case 0:
		return Const[P](identity)
	case 1:
		return flat[0]
	}
	out := Expr[P]{kind: kind, args: flat}
	out.key = opKey(kind, false, flat)
	return out
}

// Kind returns the node kind.
func (e Expr[P]) Kind() Kind { return e.kind }

// IsTrue reports whether e is the TRUE literal.
func (e Expr[P]) IsTrue() bool { return e.kind == KindLiteral && e.value }

// IsFalse reports whether e is the FALSE literal.
func (e Expr[P]) IsFalse() bool { return e.kind == KindLiteral && !e.value }

// Negated reports whether a term or operation is negated.
func (e Expr[P]) Negated() bool { return e.negated }

// Pred returns the predicate of a term node.
func (e Expr[P]) Pred() (P, bool) {
	if e.kind != KindTerm {
		var zero P
		return zero, false
	}
	return e.pred, true
}

// Args returns the arguments of an operation node. The slice must not be
// modified.
func (e Expr[P]) Args() []Expr[P] { return e.args }

// Key returns the structural key of the expression.
func (e Expr[P]) Key() string {
	if e.kind == KindLiteral {
		if e.value {
			return "true"
		}
		return "false"
	}
	return e.key
}

// String is an alias of Key.
func (e Expr[P]) String() string { return e.Key() }

// Equal reports structural equality.
func (e Expr[P]) Equal(other Expr[P]) bool { return e.Key() == other.Key() }

// Walk calls fn for every predicate in the expression, in first-seen order.
func (e Expr[P]) Walk(fn func(P)) {
	switch e.kind {
	case KindTerm:
		fn(e.pred)
	case KindAnd, KindOr:
		for _, a := range e.args {
			a.Walk(fn)
		}
	}
}

// Eval evaluates the expression, short-circuiting AND and OR.
func (e Expr[P]) Eval(fn func(P) (bool, error)) (bool, error) {
	var res bool
	switch e.kind {
	case KindLiteral:
		return e.value, nil
	case KindTerm:
		v, err := fn(e.pred)
		if err != nil {
			return false, err
		}
		res = v
	case KindAnd, KindOr:
		stop := e.kind == KindOr // value that ends the loop early
		res = !stop
		for _, a := range e.args {
			v, err := a.Eval(fn)
			if err != nil {
				return false, err
			}
			if v == stop {
				res = stop
				break
			}
		}
	}
	if e.negated {
		return !res, nil
	}
	return res, nil
}

func termKey(predKey string, negated bool) string {
	if negated {
		return "!" + predKey
	}
	return predKey
}

func opKey[P Predicate](kind Kind, negated bool, args []Expr[P]) string {
	var b strings.Builder
	if negated {
		b.WriteByte('!')
	}
	b.WriteString(kind.String())
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Key())
	}
	b.WriteByte(')')
	return b.String()
}
