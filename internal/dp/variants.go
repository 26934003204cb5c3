package dp

import (
	"fmt"

	"github.com/roach88/replica/internal/ir"
	"github.com/roach88/replica/internal/textmatch"
)

// Equals accepts items holding one of Values.
type Equals struct {
	Attr   string
	Values []ir.IRValue // sorted, no duplicates
}

// NewEquals builds an Equals predicate with sorted, deduplicated values.
func NewEquals(attr string, values ...ir.IRValue) (Equals, error) {
	if err := checkOperands(values); err != nil {
		return Equals{}, fmt.Errorf("equals %s: %w", attr, err)
	}
	return Equals{Attr: attr, Values: ir.CompactValues(values)}, nil
}

func (Equals) isDP() {}

func (p Equals) Key() string {
	return mustKey(ir.IRObject{
		"dp":     ir.IRString("equals"),
		"attr":   ir.IRString(p.Attr),
		"values": valueArray(ir.CompactValues(p.Values)),
	})
}

func (p Equals) Attributes() []string { return []string{p.Attr} }

func (p Equals) Accept(item int64, r Reader) (bool, error) {
	have, err := r.Values(item, p.Attr)
	if err != nil {
		return false, err
	}
	return containsAny(have, p.Values), nil
}

// CompareOp is an ordering operator.
type CompareOp string

const (
	Less           CompareOp = "lt"
	LessOrEqual    CompareOp = "le"
	Greater        CompareOp = "gt"
	GreaterOrEqual CompareOp = "ge"
)

// SQL returns the SQL operator.
func (op CompareOp) SQL() string {
	switch op {
	case Less:
		return "<"
	case LessOrEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterOrEqual:
		return ">="
	default:
		return ""
	}
}

func (op CompareOp) holds(c int) bool {
	switch op {
	case Less:
		return c < 0
	case LessOrEqual:
		return c <= 0
	case Greater:
		return c > 0
	case GreaterOrEqual:
		return c >= 0
	default:
		return false
	}
}

// Compare accepts items holding a value ordered against Value by Op. Items
// without values are accepted when AcceptNull is set.
type Compare struct {
	Attr       string
	Op         CompareOp
	Value      ir.IRValue
	AcceptNull bool
}

// NewCompare builds a Compare predicate.
func NewCompare(attr string, op CompareOp, value ir.IRValue, acceptNull bool) (Compare, error) {
	if op.SQL() == "" {
		return Compare{}, fmt.Errorf("compare %s: unknown operator %q", attr, op)
	}
	if err := checkOperands([]ir.IRValue{value}); err != nil {
		return Compare{}, fmt.Errorf("compare %s: %w", attr, err)
	}
	return Compare{Attr: attr, Op: op, Value: value, AcceptNull: acceptNull}, nil
}

func (Compare) isDP() {}

func (p Compare) Key() string {
	return mustKey(ir.IRObject{
		"dp":          ir.IRString("compare"),
		"attr":        ir.IRString(p.Attr),
		"op":          ir.IRString(p.Op),
		"value":       p.Value,
		"accept_null": ir.IRBool(p.AcceptNull),
	})
}

func (p Compare) Attributes() []string { return []string{p.Attr} }

func (p Compare) Accept(item int64, r Reader) (bool, error) {
	have, err := r.Values(item, p.Attr)
	if err != nil {
		return false, err
	}
	if len(have) == 0 {
		return p.AcceptNull, nil
	}
	for _, v := range have {
		if c, ok := ir.Compare(v, p.Value); ok && p.Op.holds(c) {
			return true, nil
		}
	}
	return false, nil
}

// Intersects accepts items whose collection shares a value with Values.
type Intersects struct {
	Attr   string
	Values []ir.IRValue // sorted, no duplicates
}

// NewIntersects builds an Intersects predicate with sorted, deduplicated
// values.
func NewIntersects(attr string, values ...ir.IRValue) (Intersects, error) {
	if err := checkOperands(values); err != nil {
		return Intersects{}, fmt.Errorf("intersects %s: %w", attr, err)
	}
	return Intersects{Attr: attr, Values: ir.CompactValues(values)}, nil
}

func (Intersects) isDP() {}

func (p Intersects) Key() string {
	return mustKey(ir.IRObject{
		"dp":     ir.IRString("intersects"),
		"attr":   ir.IRString(p.Attr),
		"values": valueArray(ir.CompactValues(p.Values)),
	})
}

func (p Intersects) Attributes() []string { return []string{p.Attr} }

func (p Intersects) Accept(item int64, r Reader) (bool, error) {
	have, err := r.Values(item, p.Attr)
	if err != nil {
		return false, err
	}
	return containsAny(have, p.Values), nil
}

// TextMatch accepts items holding a string value matching Pattern,
// ignoring case.
type TextMatch struct {
	Attr    string
	Pattern string
	Mode    textmatch.Mode
}

// NewTextMatch builds a TextMatch predicate, validating regex patterns.
func NewTextMatch(attr, pattern string, mode textmatch.Mode) (TextMatch, error) {
	switch mode {
	case textmatch.Literal:
	case textmatch.Regex:
		if _, err := textmatch.Compile(pattern); err != nil {
			return TextMatch{}, fmt.Errorf("text match %s: %w", attr, err)
		}
	default:
		return TextMatch{}, fmt.Errorf("text match %s: unknown mode %d", attr, mode)
	}
	return TextMatch{Attr: attr, Pattern: pattern, Mode: mode}, nil
}

func (TextMatch) isDP() {}

func (p TextMatch) Key() string {
	return mustKey(ir.IRObject{
		"dp":      ir.IRString("text_match"),
		"attr":    ir.IRString(p.Attr),
		"pattern": ir.IRString(p.Pattern),
		"mode":    ir.IRString(p.Mode.String()),
	})
}

func (p TextMatch) Attributes() []string { return []string{p.Attr} }

func (p TextMatch) Accept(item int64, r Reader) (bool, error) {
	have, err := r.Values(item, p.Attr)
	if err != nil {
		return false, err
	}
	for _, v := range have {
		s, ok := v.(ir.IRString)
		if !ok {
			continue
		}
		matched, err := textmatch.Match(string(s), p.Pattern, p.Mode)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// NotNull accepts items holding at least one value.
type NotNull struct {
	Attr string
}

func (NotNull) isDP() {}

func (p NotNull) Key() string {
	return mustKey(ir.IRObject{
		"dp":   ir.IRString("not_null"),
		"attr": ir.IRString(p.Attr),
	})
}

func (p NotNull) Attributes() []string { return []string{p.Attr} }

func (p NotNull) Accept(item int64, r Reader) (bool, error) {
	have, err := r.Values(item, p.Attr)
	if err != nil {
		return false, err
	}
	return len(have) > 0, nil
}

// ReferenceTo accepts items whose reference attribute points at the item
// with the given external identity. An unknown identity matches nothing.
type ReferenceTo struct {
	Attr     string
	Identity string
}

func (ReferenceTo) isDP() {}

func (p ReferenceTo) Key() string {
	return mustKey(ir.IRObject{
		"dp":       ir.IRString("reference_to"),
		"attr":     ir.IRString(p.Attr),
		"identity": ir.IRString(p.Identity),
	})
}

func (p ReferenceTo) Attributes() []string { return []string{p.Attr} }

func (p ReferenceTo) Accept(item int64, r Reader) (bool, error) {
	target, found, err := r.ItemByIdentity(p.Identity)
	if err != nil || !found {
		return false, err
	}
	have, err := r.Values(item, p.Attr)
	if err != nil {
		return false, err
	}
	return containsAny(have, []ir.IRValue{ir.IRInt(target)}), nil
}

// ReferredBy accepts items referenced through Attr by some item matching
// Sub.
type ReferredBy struct {
	Attr string
	Sub  Expr
}

func (ReferredBy) isDP() {}

func (p ReferredBy) Key() string {
	return mustKey(ir.IRObject{
		"dp":   ir.IRString("referred_by"),
		"attr": ir.IRString(p.Attr),
		"sub":  ir.IRString(p.Sub.Key()),
	})
}

func (p ReferredBy) Attributes() []string {
	out := []string{p.Attr}
	for _, a := range Attributes(p.Sub) {
		if a != p.Attr {
			out = append(out, a)
		}
	}
	return out
}

func (p ReferredBy) Accept(item int64, r Reader) (bool, error) {
	referrers, err := r.Referrers(p.Attr, item)
	if err != nil {
		return false, err
	}
	for _, ref := range referrers {
		ok, err := Accept(p.Sub, ref, r)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
