package cube

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the cube with axes in sorted order.
func (c Cube) String() string {
	var b strings.Builder
	b.WriteString("cube(")
	for i, attr := range c.Axes() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(attr)
		b.WriteString(c.axes[attr].String())
	}
	b.WriteByte(')')
	return b.String()
}

// String renders the term as "+v1,v2" or "-v1,v2".
func (t AxisTerm) String() string {
	var b strings.Builder
	if t.exclude {
		b.WriteByte('-')
	} else {
		b.WriteByte('+')
	}
	for i, v := range t.values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	return b.String()
}

// Parse reads the notation produced by Cube.String. The cube(...) wrapper
// is optional.
func Parse(s string) (Cube, error) {
	body := strings.TrimSpace(s)
	if strings.HasPrefix(body, "cube(") {
		if !strings.HasSuffix(body, ")") {
			return Cube{}, fmt.Errorf("parse cube %q: missing closing parenthesis", s)
		}
		body = body[len("cube(") : len(body)-1]
	}

	axes := make(map[string]AxisTerm)
	for _, part := range strings.Split(body, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i := strings.IndexAny(part, "+-")
		if i <= 0 {
			return Cube{}, fmt.Errorf("parse cube %q: axis %q needs attr+values or attr-values", s, part)
		}
		attr := strings.TrimSpace(part[:i])
		if !validAttr(attr) {
			return Cube{}, fmt.Errorf("parse cube %q: invalid attribute %q", s, attr)
		}
		if _, dup := axes[attr]; dup {
			return Cube{}, fmt.Errorf("parse cube %q: duplicate axis %q", s, attr)
		}
		values, err := parseValues(part[i+1:])
		if err != nil {
			return Cube{}, fmt.Errorf("parse cube %q: axis %q: %w", s, attr, err)
		}
		if part[i] == '+' {
			axes[attr] = Include(values...)
		} else {
			axes[attr] = Exclude(values...)
		}
	}
	return New(axes), nil
}

// MustParse is Parse for literals in tests and examples.
func MustParse(s string) Cube {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseValues(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []int64
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func validAttr(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
