package testutil

import (
	"math/rand/v2"

	"github.com/roach88/replica/internal/boolexpr"
	"github.com/roach88/replica/internal/dp"
	"github.com/roach88/replica/internal/ir"
	"github.com/roach88/replica/internal/textmatch"
)

// ExprGen generates random, well-typed expressions over the Catalog schema
// whose operands are drawn from a loaded Dataset.
type ExprGen struct {
	rng        *rand.Rand
	ids        []int64
	identities []string
}

// NewExprGen creates a generator for a dataset that has been loaded.
func NewExprGen(seed uint64, d *Dataset) *ExprGen {
	g := &ExprGen{
		rng: rand.New(rand.NewPCG(seed, seed+1)),
		ids: append([]int64{9999}, d.IDs...),
	}
	g.identities = append(g.identities, "ITEM-UNKNOWN")
	for _, it := range d.Items {
		g.identities = append(g.identities, it.Identity)
	}
	return g
}

var (
	literalPatterns = []string{"crash", "UI", "STRASSE", "", "perf", "db"}
	regexPatterns   = []string{"^c", "glitch$", "[0-9]", "^(ui|db)$"}
	compareOps      = []dp.CompareOp{dp.Less, dp.LessOrEqual, dp.Greater, dp.GreaterOrEqual}
)

// Expr returns an expression nested at most depth operations deep.
func (g *ExprGen) Expr(depth int) dp.Expr {
	if depth <= 0 || g.rng.IntN(5) < 2 {
		return g.leaf(depth)
	}
	switch g.rng.IntN(3) {
	case 0:
		return boolexpr.Not(g.Expr(depth - 1))
	case 1:
		return boolexpr.And(g.args(depth)...)
	default:
		return boolexpr.Or(g.args(depth)...)
	}
}

func (g *ExprGen) args(depth int) []dp.Expr {
	out := make([]dp.Expr, 2+g.rng.IntN(2))
	for i := range out {
		out[i] = g.Expr(depth - 1)
	}
	return out
}

func (g *ExprGen) leaf(depth int) dp.Expr {
	switch g.rng.IntN(8) {
	case 0:
		attr := g.pick("status", "priority", "summary", "labels", "components")
		values := make([]ir.IRValue, g.rng.IntN(3))
		for i := range values {
			values[i] = g.value(attr)
		}
		return dp.Term(must(dp.NewEquals(attr, values...)))
	case 1:
		attr := g.pick("priority", "created", "summary", "components")
		op := compareOps[g.rng.IntN(len(compareOps))]
		return dp.Term(must(dp.NewCompare(attr, op, g.value(attr), g.rng.IntN(2) == 0)))
	case 2:
		attr := g.pick("labels", "components")
		return dp.Term(must(dp.NewIntersects(attr, g.value(attr), g.value(attr))))
	case 3:
		attr := g.pick("summary", "labels")
		if g.rng.IntN(2) == 0 {
			return dp.Term(must(dp.NewTextMatch(attr, g.pickOf(regexPatterns), textmatch.Regex)))
		}
		return dp.Term(must(dp.NewTextMatch(attr, g.pickOf(literalPatterns), textmatch.Literal)))
	case 4:
		return dp.Term(dp.NotNull{Attr: g.pick("status", "parent", "summary", "labels", "components")})
	case 5:
		return dp.Term(dp.ReferenceTo{Attr: g.pick("status", "parent", "components"), Identity: g.pickOf(g.identities)})
	case 6:
		if depth > 0 {
			return dp.Term(dp.ReferredBy{Attr: g.pick("parent", "components", "status"), Sub: g.Expr(depth - 1)})
		}
		fallthrough
	default:
		return boolexpr.Const[dp.DP](g.rng.IntN(2) == 0)
	}
}

func (g *ExprGen) value(attr string) ir.IRValue {
	switch attr {
	case "priority", "created":
		return ir.IRInt(g.rng.Int64N(10))
	case "status", "parent", "components":
		return ir.IRInt(g.ids[g.rng.IntN(len(g.ids))])
	case "summary":
		return ir.IRString(g.pickOf(summaries))
	default:
		return ir.IRString(g.pickOf(labelPool))
	}
}

func (g *ExprGen) pick(attrs ...string) string {
	return g.pickOf(attrs)
}

func (g *ExprGen) pickOf(list []string) string {
	return list[g.rng.IntN(len(list))]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
