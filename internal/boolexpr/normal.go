package boolexpr

import (
	"errors"
	"fmt"
)

// DefaultMaxDisjuncts bounds the size of a DNF expansion.
const DefaultMaxDisjuncts = 64

// ErrTooComplex is returned when a DNF expansion exceeds its disjunct limit.
var ErrTooComplex = errors.New("expression too complex")

// NNF pushes negation down to the terms using De Morgan's laws. The result
// has no negated operations.
func (e Expr[P]) NNF() Expr[P] {
	return nnf(e, false)
}

func nnf[P Predicate](e Expr[P], negate bool) Expr[P] {
	switch e.kind {
	case KindLiteral:
		return Const[P](e.value != negate)
	case KindTerm:
		if negate {
			return Not(e)
		}
		return e
	}

	neg := e.negated != negate
	args := make([]Expr[P], len(e.args))
	for i, a := range e.args {
		args[i] = nnf(a, neg)
	}
	if (e.kind == KindAnd) != neg {
		return And(args...)
	}
	return Or(args...)
}

// Literal is a possibly negated predicate inside a conjunction.
type Literal[P Predicate] struct {
	Pred    P
	Negated bool
}

// Conjunction is an AND of literals. An empty conjunction is TRUE.
type Conjunction[P Predicate] []Literal[P]

// Expr rebuilds the conjunction as an expression.
func (c Conjunction[P]) Expr() Expr[P] {
	args := make([]Expr[P], len(c))
	for i, l := range c {
		args[i] = Term(l.Pred)
		if l.Negated {
			args[i] = Not(args[i])
		}
	}
	return And(args...)
}

// DNF expands the expression into a disjunction of conjunctions. FALSE
// yields no conjunctions; TRUE yields one empty conjunction. Conjunctions
// keep the first-seen order of their literals. ErrTooComplex is returned
// when more than maxDisjuncts conjunctions would be produced; a
// non-positive limit selects DefaultMaxDisjuncts.
func (e Expr[P]) DNF(maxDisjuncts int) ([]Conjunction[P], error) {
	if maxDisjuncts <= 0 {
		maxDisjuncts = DefaultMaxDisjuncts
	}
	return dnf(e.NNF(), maxDisjuncts)
}

func dnf[P Predicate](e Expr[P], limit int) ([]Conjunction[P], error) {
	switch e.kind {
	case KindLiteral:
		if e.value {
			return []Conjunction[P]{{}}, nil
		}
		return nil, nil
	case KindTerm:
		return []Conjunction[P]{{{Pred: e.pred, Negated: e.negated}}}, nil
	case KindOr:
		var out []Conjunction[P]
		for _, a := range e.args {
			sub, err := dnf(a, limit)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			if len(out) > limit {
				return nil, fmt.Errorf("%w: more than %d disjuncts", ErrTooComplex, limit)
			}
		}
		return out, nil
	}

	// AND: cross product of the argument expansions.
	out := []Conjunction[P]{{}}
	for _, a := range e.args {
		sub, err := dnf(a, limit)
		if err != nil {
			return nil, err
		}
		next := make([]Conjunction[P], 0, len(out)*len(sub))
		for _, left := range out {
			for _, right := range sub {
				if c, ok := merge(left, right); ok {
					next = append(next, c)
				}
			}
		}
		if len(next) > limit {
			return nil, fmt.Errorf("%w: more than %d disjuncts", ErrTooComplex, limit)
		}
		out = next
	}
	return out, nil
}

// merge concatenates two conjunctions, dropping duplicates. ok is false when
// the result contains a literal and its negation.
func merge[P Predicate](a, b Conjunction[P]) (Conjunction[P], bool) {
	out := make(Conjunction[P], 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, l := range append(append(Conjunction[P]{}, a...), b...) {
		k := l.Pred.Key()
		if prev, dup := seen[k]; dup {
			if prev != l.Negated {
				return nil, false
			}
			continue
		}
		seen[k] = l.Negated
		out = append(out, l)
	}
	return out, true
}
