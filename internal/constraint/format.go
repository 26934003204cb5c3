package constraint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/replica/internal/ir"
)

// String renders a constraint in a compact functional notation, e.g.
//
//	and(eq(status, 3), not(match(summary, "wontfix")))
func String(c Constraint) string {
	var b strings.Builder
	write(&b, c)
	return b.String()
}

func write(b *strings.Builder, c Constraint) {
	switch c := c.(type) {
	case And:
		writeList(b, "and", c.Args)
	case Or:
		writeList(b, "or", c.Args)
	case Not:
		b.WriteString("not(")
		write(b, c.Arg)
		b.WriteByte(')')
	case Literal:
		b.WriteString(strconv.FormatBool(c.Value))
	case Equals:
		fmt.Fprintf(b, "eq(%s, %s)", c.Attr, ir.Format(c.Value))
	case OneOf:
		fmt.Fprintf(b, "in(%s, %s)", c.Attr, formatValues(c.Values))
	case Compare:
		fmt.Fprintf(b, "%s(%s, %s", c.Op, c.Attr, ir.Format(c.Value))
		if c.AcceptNull {
			b.WriteString(", null")
		}
		b.WriteByte(')')
	case Intersects:
		fmt.Fprintf(b, "intersects(%s, %s)", c.Attr, formatValues(c.Values))
	case TextMatch:
		op := "match"
		if c.Regex {
			op = "regex"
		}
		fmt.Fprintf(b, "%s(%s, %q)", op, c.Attr, c.Pattern)
	case NotNull:
		fmt.Fprintf(b, "not_null(%s)", c.Attr)
	case RefersTo:
		fmt.Fprintf(b, "ref(%s, %q)", c.Attr, c.Identity)
	case ReferredBy:
		fmt.Fprintf(b, "referred_by(%s, ", c.Attr)
		write(b, c.Where)
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "<%T>", c)
	}
}

func writeList(b *strings.Builder, op string, args []Constraint) {
	b.WriteString(op)
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		write(b, a)
	}
	b.WriteByte(')')
}

func formatValues(vs []ir.IRValue) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = ir.Format(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
