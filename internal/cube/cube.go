package cube

import (
	"maps"
	"slices"
)

// Cube is an immutable conjunction of axis terms. The zero value is the
// unconstrained cube.
type Cube struct {
	axes map[string]AxisTerm
}

// New builds a cube from per-attribute terms. Unconstrained terms are
// dropped.
func New(axes map[string]AxisTerm) Cube {
	c := Cube{axes: make(map[string]AxisTerm, len(axes))}
	for attr, t := range axes {
		if t.IsUnconstrained() {
			continue
		}
		c.axes[attr] = AxisTerm{exclude: t.exclude, values: normalize(t.values)}
	}
	return c
}

// Axes returns the constrained attributes, sorted.
func (c Cube) Axes() []string {
	return slices.Sorted(maps.Keys(c.axes))
}

// Len returns the number of constrained axes.
func (c Cube) Len() int { return len(c.axes) }

// Term returns the restriction on one attribute.
func (c Cube) Term(attr string) (AxisTerm, bool) {
	t, ok := c.axes[attr]
	return t, ok
}

// Allows reports whether the cube admits value v on attr. Unconstrained
// axes allow everything.
func (c Cube) Allows(attr string, v int64) bool {
	t, ok := c.axes[attr]
	return !ok || t.Allows(v)
}

// IsEmpty reports whether some axis admits no value.
func (c Cube) IsEmpty() bool {
	for _, t := range c.axes {
		if t.IsEmpty() {
			return true
		}
	}
	return false
}

// Equal reports structural equality.
func (c Cube) Equal(o Cube) bool {
	return maps.EqualFunc(c.axes, o.axes, AxisTerm.Equal)
}

// Intersect combines two cubes axis by axis. Axes present in one operand
// are copied. When an axis ends up admitting no value, strict mode reports
// no overlap (ok is false); otherwise the axis is left unconstrained, which
// over-approximates the intersection.
func (c Cube) Intersect(o Cube, strict bool) (Cube, bool) {
	out := Cube{axes: make(map[string]AxisTerm, len(c.axes)+len(o.axes))}
	maps.Copy(out.axes, c.axes)
	for attr, ot := range o.axes {
		ct, shared := out.axes[attr]
		if !shared {
			out.axes[attr] = ot
			continue
		}
		t := intersectTerms(ct, ot)
		if t.IsEmpty() {
			if strict {
				return Cube{}, false
			}
			delete(out.axes, attr)
			continue
		}
		out.axes[attr] = t
	}
	return out, true
}

// Encompasses reports whether every point of o lies in c. Each axis c
// constrains must be constrained at least as tightly by o.
func (c Cube) Encompasses(o Cube) bool {
	for attr, ct := range c.axes {
		ot, ok := o.axes[attr]
		if !ok || !termEncompasses(ct, ot) {
			return false
		}
	}
	return true
}

// WithoutAxis returns a copy of c with attr unconstrained.
func (c Cube) WithoutAxis(attr string) Cube {
	if _, ok := c.axes[attr]; !ok {
		return c
	}
	out := Cube{axes: maps.Clone(c.axes)}
	delete(out.axes, attr)
	return out
}

// WithIncluded narrows attr to the given values. ok is false when nothing
// is left on that axis.
func (c Cube) WithIncluded(attr string, values ...int64) (Cube, bool) {
	return c.Intersect(New(map[string]AxisTerm{attr: Include(values...)}), true)
}
