package constraint

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/replica/internal/ir"
)

// ParseError reports a malformed filter node with its YAML position.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

func parseErr(n *yaml.Node, format string, args ...any) error {
	return &ParseError{Line: n.Line, Column: n.Column, Message: fmt.Sprintf(format, args...)}
}

// ParseFile reads a filter from a YAML file.
func ParseFile(path string) (Constraint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read filter: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML filter.
func Parse(data []byte) (Constraint, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &ParseError{Message: "empty filter"}
	}
	return ParseNode(doc.Content[0])
}

// ParseNode decodes one filter node. Scenario files embed filters and hand
// the node over directly.
func ParseNode(n *yaml.Node) (Constraint, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Value {
		case "true":
			return True, nil
		case "false":
			return False, nil
		}
		return nil, parseErr(n, "unexpected scalar %q", n.Value)
	case yaml.MappingNode:
	case yaml.AliasNode:
		return ParseNode(n.Alias)
	default:
		return nil, parseErr(n, "filter node must be a mapping")
	}

	if len(n.Content) != 2 {
		return nil, parseErr(n, "filter node must have exactly one operator, got %d", len(n.Content)/2)
	}
	op, body := n.Content[0].Value, n.Content[1]

	switch op {
	case "and", "or":
		if body.Kind != yaml.SequenceNode {
			return nil, parseErr(body, "%s expects a list", op)
		}
		args := make([]Constraint, 0, len(body.Content))
		for _, child := range body.Content {
			c, err := ParseNode(child)
			if err != nil {
				return nil, err
			}
			args = append(args, c)
		}
		if op == "and" {
			return And{Args: args}, nil
		}
		return Or{Args: args}, nil
	case "not":
		c, err := ParseNode(body)
		if err != nil {
			return nil, err
		}
		return Not{Arg: c}, nil
	}

	if !leafOps[op] {
		return nil, parseErr(n.Content[0], "unknown operator %q", op)
	}
	f, err := fieldsOf(body, op)
	if err != nil {
		return nil, err
	}
	attr, err := f.str("attr")
	if err != nil {
		return nil, err
	}

	switch op {
	case "eq":
		v, err := f.value("value")
		if err != nil {
			return nil, err
		}
		return f.finish(Equals{Attr: attr, Value: v})
	case "in":
		vs, err := f.values("values")
		if err != nil {
			return nil, err
		}
		return f.finish(OneOf{Attr: attr, Values: vs})
	case "lt", "le", "gt", "ge":
		v, err := f.value("value")
		if err != nil {
			return nil, err
		}
		acceptNull, err := f.optBool("accept_null")
		if err != nil {
			return nil, err
		}
		return f.finish(Compare{Attr: attr, Op: compareOps[op], Value: v, AcceptNull: acceptNull})
	case "intersects":
		vs, err := f.values("values")
		if err != nil {
			return nil, err
		}
		return f.finish(Intersects{Attr: attr, Values: vs})
	case "match", "regex":
		pattern, err := f.str("pattern")
		if err != nil {
			return nil, err
		}
		return f.finish(TextMatch{Attr: attr, Pattern: pattern, Regex: op == "regex"})
	case "not_null":
		return f.finish(NotNull{Attr: attr})
	case "ref":
		identity, err := f.str("identity")
		if err != nil {
			return nil, err
		}
		return f.finish(RefersTo{Attr: attr, Identity: identity})
	case "referred_by":
		where, ok := f.take("where")
		if !ok {
			return nil, parseErr(body, "referred_by: missing where")
		}
		sub, err := ParseNode(where)
		if err != nil {
			return nil, err
		}
		return f.finish(ReferredBy{Attr: attr, Where: sub})
	default:
		return nil, parseErr(n.Content[0], "unknown operator %q", op)
	}
}

var leafOps = map[string]bool{
	"eq": true, "in": true, "lt": true, "le": true, "gt": true, "ge": true,
	"intersects": true, "match": true, "regex": true, "not_null": true,
	"ref": true, "referred_by": true,
}

// fields tracks the keys of an operator body so unknown keys are reported.
type fields struct {
	op    string
	node  *yaml.Node
	byKey map[string]*yaml.Node
}

func fieldsOf(n *yaml.Node, op string) (*fields, error) {
	if n.Kind != yaml.MappingNode {
		return nil, parseErr(n, "%s expects a mapping", op)
	}
	f := &fields{op: op, node: n, byKey: make(map[string]*yaml.Node)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		f.byKey[n.Content[i].Value] = n.Content[i+1]
	}
	return f, nil
}

func (f *fields) take(key string) (*yaml.Node, bool) {
	n, ok := f.byKey[key]
	delete(f.byKey, key)
	return n, ok
}

func (f *fields) str(key string) (string, error) {
	n, ok := f.take(key)
	if !ok {
		return "", parseErr(f.node, "%s: missing %s", f.op, key)
	}
	if n.Kind != yaml.ScalarNode {
		return "", parseErr(n, "%s: %s must be a string", f.op, key)
	}
	return n.Value, nil
}

func (f *fields) optBool(key string) (bool, error) {
	n, ok := f.take(key)
	if !ok {
		return false, nil
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, parseErr(n, "%s: %s must be a boolean", f.op, key)
	}
	return b, nil
}

func (f *fields) value(key string) (ir.IRValue, error) {
	n, ok := f.take(key)
	if !ok {
		return nil, parseErr(f.node, "%s: missing %s", f.op, key)
	}
	return decodeValue(n, f.op)
}

func (f *fields) values(key string) ([]ir.IRValue, error) {
	n, ok := f.take(key)
	if !ok {
		return nil, parseErr(f.node, "%s: missing %s", f.op, key)
	}
	if n.Kind != yaml.SequenceNode {
		return nil, parseErr(n, "%s: %s must be a list", f.op, key)
	}
	out := make([]ir.IRValue, 0, len(n.Content))
	for _, child := range n.Content {
		v, err := decodeValue(child, f.op)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// finish returns c unless some key was never consumed.
func (f *fields) finish(c Constraint) (Constraint, error) {
	if len(f.byKey) == 0 {
		return c, nil
	}
	keys := make([]string, 0, len(f.byKey))
	for k := range f.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return nil, parseErr(f.node, "%s: unknown field %q", f.op, keys[0])
}

func decodeValue(n *yaml.Node, op string) (ir.IRValue, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, parseErr(n, "%s: value must be a scalar", op)
	}
	var raw any
	if err := n.Decode(&raw); err != nil {
		return nil, parseErr(n, "%s: %v", op, err)
	}
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, parseErr(n, "%s: %v", op, err)
	}
	switch v.(type) {
	case ir.IRInt, ir.IRString:
		return v, nil
	default:
		return nil, parseErr(n, "%s: values must be integers or strings, got %s", op, ir.Kind(v))
	}
}
