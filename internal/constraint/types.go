package constraint

import (
	"github.com/roach88/replica/internal/dp"
	"github.com/roach88/replica/internal/ir"
)

// Constraint is a node of a filter tree.
type Constraint interface {
	constraintNode() // Marker method - seals interface to this package
}

// And holds when every argument holds. An empty And is TRUE.
type And struct {
	Args []Constraint
}

func (And) constraintNode() {}

// Or holds when some argument holds. An empty Or is FALSE.
type Or struct {
	Args []Constraint
}

func (Or) constraintNode() {}

// Not negates its argument.
type Not struct {
	Arg Constraint
}

func (Not) constraintNode() {}

// Literal is the constant TRUE or FALSE.
type Literal struct {
	Value bool
}

func (Literal) constraintNode() {}

// Equals compares an attribute with a single value.
type Equals struct {
	Attr  string
	Value ir.IRValue
}

func (Equals) constraintNode() {}

// OneOf matches an attribute against a set of values.
type OneOf struct {
	Attr   string
	Values []ir.IRValue
}

func (OneOf) constraintNode() {}

// Compare orders an attribute against a value.
type Compare struct {
	Attr       string
	Op         dp.CompareOp
	Value      ir.IRValue
	AcceptNull bool
}

func (Compare) constraintNode() {}

// Intersects matches a collection attribute sharing a value with Values.
type Intersects struct {
	Attr   string
	Values []ir.IRValue
}

func (Intersects) constraintNode() {}

// TextMatch matches string values against a literal or regex pattern,
// ignoring case.
type TextMatch struct {
	Attr    string
	Pattern string
	Regex   bool
}

func (TextMatch) constraintNode() {}

// NotNull matches items holding any value for the attribute.
type NotNull struct {
	Attr string
}

func (NotNull) constraintNode() {}

// RefersTo matches items whose reference attribute points at the item with
// the given external identity.
type RefersTo struct {
	Attr     string
	Identity string
}

func (RefersTo) constraintNode() {}

// ReferredBy matches items referenced through Attr by an item satisfying
// Where.
type ReferredBy struct {
	Attr  string
	Where Constraint
}

func (ReferredBy) constraintNode() {}

// True and False are the literal constraints.
var (
	True  Constraint = Literal{Value: true}
	False Constraint = Literal{Value: false}
)
