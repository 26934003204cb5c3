package constraint

import (
	"fmt"

	"github.com/roach88/replica/internal/dp"
	"github.com/roach88/replica/internal/ir"
	"github.com/roach88/replica/internal/schema"
	"github.com/roach88/replica/internal/textmatch"
)

// ValidationResult lists the problems found in a constraint tree.
type ValidationResult struct {
	IsValid  bool
	Problems []string
}

// Validate checks a constraint tree against a catalog: every attribute must
// exist, operands must match the attribute's storage kind, text matching
// needs string attributes and reference operators need ref attributes.
//
// Validate is a pure function with no side effects.
func Validate(c Constraint, catalog schema.Resolver) ValidationResult {
	v := &validator{catalog: catalog, problems: []string{}}
	v.validate(c)
	return ValidationResult{
		IsValid:  len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	catalog  schema.Resolver
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validate(c Constraint) {
	switch c := c.(type) {
	case nil:
		v.addProblem("nil constraint")
	case And:
		for _, a := range c.Args {
			v.validate(a)
		}
	case Or:
		for _, a := range c.Args {
			v.validate(a)
		}
	case Not:
		v.validate(c.Arg)
	case Literal:
	case Equals:
		if attr, ok := v.attribute(c.Attr); ok {
			v.checkOperands(attr, c.Value)
		}
	case OneOf:
		if attr, ok := v.attribute(c.Attr); ok {
			v.checkOperands(attr, c.Values...)
		}
	case Compare:
		if attr, ok := v.attribute(c.Attr); ok {
			if c.Op.SQL() == "" {
				v.addProblem("attribute %q: unknown comparison %q", c.Attr, c.Op)
			}
			v.checkOperands(attr, c.Value)
		}
	case Intersects:
		if attr, ok := v.attribute(c.Attr); ok {
			v.checkOperands(attr, c.Values...)
		}
	case TextMatch:
		if attr, ok := v.attribute(c.Attr); ok {
			if attr.Type != schema.TypeString {
				v.addProblem("attribute %q: text match needs a string attribute, got %s", c.Attr, attr.Type)
			}
			if c.Regex {
				if _, err := textmatch.Compile(c.Pattern); err != nil {
					v.addProblem("attribute %q: %v", c.Attr, err)
				}
			}
		}
	case NotNull:
		v.attribute(c.Attr)
	case RefersTo:
		v.referenceAttribute(c.Attr)
	case ReferredBy:
		v.referenceAttribute(c.Attr)
		v.validate(c.Where)
	default:
		v.addProblem("unknown constraint type %T", c)
	}
}

func (v *validator) attribute(id string) (schema.Attribute, bool) {
	attr, ok := v.catalog.Lookup(id)
	if !ok {
		v.addProblem("unknown attribute %q", id)
	}
	return attr, ok
}

func (v *validator) referenceAttribute(id string) {
	if attr, ok := v.attribute(id); ok && attr.Type != schema.TypeRef {
		v.addProblem("attribute %q: reference operators need a ref attribute, got %s", id, attr.Type)
	}
}

func (v *validator) checkOperands(attr schema.Attribute, values ...ir.IRValue) {
	want := attr.StorageKind()
	for _, val := range values {
		if got := ir.Kind(val); got != want {
			v.addProblem("attribute %q: operand %s is %s, want %s", attr.ID, ir.Format(val), got, want)
		}
	}
}

// compareOps lists the operators accepted in filter files.
var compareOps = map[string]dp.CompareOp{
	"lt": dp.Less,
	"le": dp.LessOrEqual,
	"gt": dp.Greater,
	"ge": dp.GreaterOrEqual,
}
