package cube

import (
	"slices"
)

// AxisTerm restricts one attribute to an inclusion or exclusion set.
// The zero AxisTerm includes nothing.
type AxisTerm struct {
	exclude bool
	values  []int64 // sorted, no duplicates
}

// Include returns a term allowing only the given values.
func Include(values ...int64) AxisTerm {
	return AxisTerm{values: normalize(values)}
}

// Exclude returns a term allowing every value except the given ones.
func Exclude(values ...int64) AxisTerm {
	return AxisTerm{exclude: true, values: normalize(values)}
}

// IsInclude reports whether the term is an inclusion set.
func (t AxisTerm) IsInclude() bool { return !t.exclude }

// IsExclude reports whether the term is an exclusion set.
func (t AxisTerm) IsExclude() bool { return t.exclude }

// Values returns a copy of the sorted value set.
func (t AxisTerm) Values() []int64 { return slices.Clone(t.values) }

// IsEmpty reports whether the term allows no value at all.
func (t AxisTerm) IsEmpty() bool { return !t.exclude && len(t.values) == 0 }

// IsUnconstrained reports whether the term allows every value.
func (t AxisTerm) IsUnconstrained() bool { return t.exclude && len(t.values) == 0 }

// Allows reports whether v lies inside the term.
func (t AxisTerm) Allows(v int64) bool {
	_, found := slices.BinarySearch(t.values, v)
	return found != t.exclude
}

// Equal reports structural equality.
func (t AxisTerm) Equal(o AxisTerm) bool {
	return t.exclude == o.exclude && slices.Equal(t.values, o.values)
}

// intersectTerms combines two restrictions of the same axis.
func intersectTerms(a, b AxisTerm) AxisTerm {
	switch {
	case !a.exclude && !b.exclude:
		return AxisTerm{values: intersection(a.values, b.values)}
	case !a.exclude:
		return AxisTerm{values: difference(a.values, b.values)}
	case !b.exclude:
		return AxisTerm{values: difference(b.values, a.values)}
	default:
		return AxisTerm{exclude: true, values: union(a.values, b.values)}
	}
}

// unionTerms returns the exact union of two restrictions of the same axis.
func unionTerms(a, b AxisTerm) AxisTerm {
	switch {
	case !a.exclude && !b.exclude:
		return AxisTerm{values: union(a.values, b.values)}
	case !a.exclude:
		return AxisTerm{exclude: true, values: difference(b.values, a.values)}
	case !b.exclude:
		return AxisTerm{exclude: true, values: difference(a.values, b.values)}
	default:
		return AxisTerm{exclude: true, values: intersection(a.values, b.values)}
	}
}

// termEncompasses reports whether every value sub allows is allowed by sup.
func termEncompasses(sup, sub AxisTerm) bool {
	switch {
	case sup.exclude && sub.exclude:
		return isSubset(sup.values, sub.values)
	case sup.exclude:
		return len(intersection(sub.values, sup.values)) == 0
	case sub.exclude:
		return false
	default:
		return isSubset(sub.values, sup.values)
	}
}

func normalize(values []int64) []int64 {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

func intersection(a, b []int64) []int64 {
	var out []int64
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

func difference(a, b []int64) []int64 {
	var out []int64
	j := 0
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j < len(b) && b[j] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}

func union(a, b []int64) []int64 {
	out := make([]int64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// isSubset reports whether every element of a is in b.
func isSubset(a, b []int64) bool {
	return len(difference(a, b)) == 0
}
