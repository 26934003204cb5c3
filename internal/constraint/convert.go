package constraint

import (
	"fmt"

	"github.com/roach88/replica/internal/boolexpr"
	"github.com/roach88/replica/internal/dp"
	"github.com/roach88/replica/internal/ir"
	"github.com/roach88/replica/internal/textmatch"
)

// ToExpr converts a constraint tree into a predicate expression. The
// expression is simplified as it is built.
func ToExpr(c Constraint) (dp.Expr, error) {
	switch c := c.(type) {
	case And:
		args, err := toExprs(c.Args)
		if err != nil {
			return dp.Expr{}, err
		}
		return boolexpr.And(args...), nil
	case Or:
		args, err := toExprs(c.Args)
		if err != nil {
			return dp.Expr{}, err
		}
		return boolexpr.Or(args...), nil
	case Not:
		arg, err := ToExpr(c.Arg)
		if err != nil {
			return dp.Expr{}, err
		}
		return boolexpr.Not(arg), nil
	case Literal:
		return boolexpr.Const[dp.DP](c.Value), nil
	case Equals:
		return term(dp.NewEquals(c.Attr, c.Value))
	case OneOf:
		return term(dp.NewEquals(c.Attr, c.Values...))
	case Compare:
		return term(dp.NewCompare(c.Attr, c.Op, c.Value, c.AcceptNull))
	case Intersects:
		return term(dp.NewIntersects(c.Attr, c.Values...))
	case TextMatch:
		mode := textmatch.Literal
		if c.Regex {
			mode = textmatch.Regex
		}
		return term(dp.NewTextMatch(c.Attr, c.Pattern, mode))
	case NotNull:
		return dp.Term(dp.NotNull{Attr: c.Attr}), nil
	case RefersTo:
		return dp.Term(dp.ReferenceTo{Attr: c.Attr, Identity: c.Identity}), nil
	case ReferredBy:
		sub, err := ToExpr(c.Where)
		if err != nil {
			return dp.Expr{}, fmt.Errorf("referred_by %s: %w", c.Attr, err)
		}
		return dp.Term(dp.ReferredBy{Attr: c.Attr, Sub: sub}), nil
	case nil:
		return dp.Expr{}, fmt.Errorf("nil constraint")
	default:
		return dp.Expr{}, fmt.Errorf("unknown constraint type %T", c)
	}
}

func toExprs(cs []Constraint) ([]dp.Expr, error) {
	out := make([]dp.Expr, 0, len(cs))
	for i, c := range cs {
		e, err := ToExpr(c)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func term[P dp.DP](p P, err error) (dp.Expr, error) {
	if err != nil {
		return dp.Expr{}, err
	}
	return dp.Term(p), nil
}

// Values converts plain Go values into attribute values.
func Values(vs ...any) ([]ir.IRValue, error) {
	out := make([]ir.IRValue, 0, len(vs))
	for _, v := range vs {
		iv, err := ir.FromAny(v)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}
