package cube

import (
	"log/slog"

	"github.com/roach88/replica/internal/constraint"
	"github.com/roach88/replica/internal/ir"
	"github.com/roach88/replica/internal/schema"
)

// outcome classifies the region a constraint describes.
type outcome int

const (
	region      outcome = iota // exactly the returned cube
	empty                      // provably no items
	unsupported                // not an axis-aligned region
)

// Build converts a constraint into the cube describing exactly the same
// region. ok is false when no single cube does: the constraint spans a
// non-rectangular region, uses operators without an axis form, touches
// attributes that are not scalar integer attributes, or matches nothing.
//
// Build never widens the region. Callers treat ok == false as "not known to
// be covered".
func Build(c constraint.Constraint, catalog schema.Resolver) (Cube, bool) {
	b := builder{catalog: catalog}
	cube, out := b.build(c, false)
	if out != region {
		slog.Debug("constraint has no hypercube", "constraint", constraint.String(c), "empty", out == empty)
		return Cube{}, false
	}
	return cube, true
}

type builder struct {
	catalog schema.Resolver
}

// build walks the tree with negation pushed towards the leaves.
func (b builder) build(c constraint.Constraint, negate bool) (Cube, outcome) {
	switch c := c.(type) {
	case constraint.Literal:
		if c.Value != negate {
			return Cube{}, region
		}
		return Cube{}, empty
	case constraint.Not:
		return b.build(c.Arg, !negate)
	case constraint.And:
		if negate {
			return b.union(c.Args, negate)
		}
		return b.intersection(c.Args, negate)
	case constraint.Or:
		if negate {
			return b.intersection(c.Args, negate)
		}
		return b.union(c.Args, negate)
	case constraint.Equals:
		return b.axis(c.Attr, []ir.IRValue{c.Value}, negate)
	case constraint.OneOf:
		return b.axis(c.Attr, c.Values, negate)
	case constraint.Intersects:
		return b.axis(c.Attr, c.Values, negate)
	default:
		return Cube{}, unsupported
	}
}

func (b builder) intersection(args []constraint.Constraint, negate bool) (Cube, outcome) {
	subs, out := b.buildAll(args, negate)
	switch {
	case out[empty]:
		return Cube{}, empty
	case out[unsupported]:
		return Cube{}, unsupported
	}
	acc := Cube{}
	for _, sub := range subs {
		next, ok := acc.Intersect(sub, true)
		if !ok {
			return Cube{}, empty
		}
		acc = next
	}
	return acc, region
}

// union merges disjuncts that all restrict the same single axis. Empty
// disjuncts are skipped.
func (b builder) union(args []constraint.Constraint, negate bool) (Cube, outcome) {
	subs, out := b.buildAll(args, negate)
	for _, sub := range subs {
		if sub.Len() == 0 {
			return Cube{}, region
		}
	}
	if out[unsupported] {
		return Cube{}, unsupported
	}

	var (
		attr  string
		acc   AxisTerm
		found bool
	)
	for _, sub := range subs {
		if sub.Len() != 1 {
			return Cube{}, unsupported
		}
		subAttr := sub.Axes()[0]
		term := sub.axes[subAttr]
		if !found {
			attr, acc, found = subAttr, term, true
			continue
		}
		if subAttr != attr {
			return Cube{}, unsupported
		}
		acc = unionTerms(acc, term)
	}
	if !found {
		return Cube{}, empty
	}
	return New(map[string]AxisTerm{attr: acc}), region
}

// buildAll builds every argument, returning the cubes of the representable
// ones and the set of outcomes seen.
func (b builder) buildAll(args []constraint.Constraint, negate bool) ([]Cube, map[outcome]bool) {
	subs := make([]Cube, 0, len(args))
	seen := make(map[outcome]bool, 3)
	for _, a := range args {
		sub, out := b.build(a, negate)
		seen[out] = true
		if out == region {
			subs = append(subs, sub)
		}
	}
	return subs, seen
}

// axis lowers a value set on one attribute to an inclusion, or to an
// exclusion when negated.
func (b builder) axis(attrID string, values []ir.IRValue, negate bool) (Cube, outcome) {
	attr, ok := b.catalog.Lookup(attrID)
	if !ok || attr.IsCollection() || attr.StorageKind() != "int" {
		return Cube{}, unsupported
	}
	ints := make([]int64, 0, len(values))
	for _, v := range values {
		iv, ok := v.(ir.IRInt)
		if !ok {
			return Cube{}, unsupported
		}
		ints = append(ints, int64(iv))
	}

	term := Include(ints...)
	if negate {
		term = Exclude(ints...)
	}
	switch {
	case term.IsEmpty():
		return Cube{}, empty
	case term.IsUnconstrained():
		return Cube{}, region
	}
	return New(map[string]AxisTerm{attrID: term}), region
}
