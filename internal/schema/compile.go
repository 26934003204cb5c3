package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileCatalog parses the top-level CUE value of a catalog definition.
// Attributes are read from the "attribute" struct:
//
//	attribute: labels: {type: "string", collection: true}
func CompileCatalog(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	attrsVal := v.LookupPath(cue.ParsePath("attribute"))
	if !attrsVal.Exists() {
		return nil, &CompileError{
			Field:   "attribute",
			Message: "at least one attribute is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := attrsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var attrs []Attribute
	for iter.Next() {
		attr, err := CompileAttribute(iter.Value())
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	if len(attrs) == 0 {
		return nil, &CompileError{
			Field:   "attribute",
			Message: "at least one attribute is required",
			Pos:     attrsVal.Pos(),
		}
	}

	catalog, err := NewCatalog(attrs...)
	if err != nil {
		return nil, &CompileError{Field: "attribute", Message: err.Error(), Pos: attrsVal.Pos()}
	}
	return catalog, nil
}

// CompileAttribute parses one attribute definition. The attribute id is the
// struct label.
func CompileAttribute(v cue.Value) (Attribute, error) {
	var attr Attribute
	if err := v.Err(); err != nil {
		return attr, formatCUEError(err)
	}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		attr.ID = labels[len(labels)-1].String()
	}
	if !ValidIdentifier(attr.ID) {
		return attr, &CompileError{
			Field:   "attribute",
			Message: fmt.Sprintf("invalid attribute id %q", attr.ID),
			Pos:     v.Pos(),
		}
	}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return attr, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("attribute %q: type is required", attr.ID),
			Pos:     v.Pos(),
		}
	}
	typeStr, err := typeVal.String()
	if err != nil {
		return attr, formatCUEError(err)
	}
	attr.Type = ValueType(typeStr)
	if !validType(attr.Type) {
		return attr, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("attribute %q: type must be one of int, string, date, ref (got %q)", attr.ID, typeStr),
			Pos:     typeVal.Pos(),
		}
	}

	if collVal := v.LookupPath(cue.ParsePath("collection")); collVal.Exists() {
		isColl, err := collVal.Bool()
		if err != nil {
			return attr, formatCUEError(err)
		}
		if isColl {
			attr.Composition = Collection
		}
	}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		if attr.Name, err = nameVal.String(); err != nil {
			return attr, formatCUEError(err)
		}
	}

	if tableVal := v.LookupPath(cue.ParsePath("table")); tableVal.Exists() {
		if attr.Table, err = tableVal.String(); err != nil {
			return attr, formatCUEError(err)
		}
		if !ValidIdentifier(attr.Table) {
			return attr, &CompileError{
				Field:   "table",
				Message: fmt.Sprintf("attribute %q: invalid table name %q", attr.ID, attr.Table),
				Pos:     tableVal.Pos(),
			}
		}
	}

	return attr, nil
}

// CompileString compiles catalog source held in memory.
func CompileString(src string) (*Catalog, error) {
	ctx := cuecontext.New()
	return CompileCatalog(ctx.CompileString(src))
}

func validType(t ValueType) bool {
	for _, vt := range ValidTypes {
		if vt == t {
			return true
		}
	}
	return false
}

// CompileError represents a catalog compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
