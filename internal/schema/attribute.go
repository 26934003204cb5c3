package schema

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValueType is the scalar type of an attribute's values.
type ValueType string

const (
	TypeInt    ValueType = "int"
	TypeString ValueType = "string"
	TypeDate   ValueType = "date" // unix milliseconds
	TypeRef    ValueType = "ref"  // item id of another item
)

// ValidTypes lists the value types a catalog may declare.
var ValidTypes = []ValueType{TypeInt, TypeString, TypeDate, TypeRef}

// Composition tells whether an attribute holds one value or many.
type Composition int

const (
	Scalar Composition = iota
	Collection
)

func (c Composition) String() string {
	if c == Collection {
		return "collection"
	}
	return "scalar"
}

// Attribute is one axis of the item space.
type Attribute struct {
	ID          string
	Name        string
	Type        ValueType
	Composition Composition
	Table       string
}

// StorageKind returns the ir kind ("int" or "string") stored in the
// attribute's value column.
func (a Attribute) StorageKind() string {
	if a.Type == TypeString {
		return "string"
	}
	return "int"
}

// IsCollection reports whether the attribute stores multiple rows per item.
func (a Attribute) IsCollection() bool {
	return a.Composition == Collection
}

// Resolver looks attributes up by id.
type Resolver interface {
	Lookup(id string) (Attribute, bool)
}

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ValidIdentifier reports whether s can be used verbatim as an attribute id
// or SQL table name.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// DefaultTable derives the physical table name for an attribute id.
func DefaultTable(id string) string {
	return "attr_" + id
}

// Catalog is an immutable set of attributes.
type Catalog struct {
	byID map[string]Attribute
	ids  []string
}

// NewCatalog validates attributes and builds a catalog. Missing names and
// tables are filled with defaults.
func NewCatalog(attrs ...Attribute) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Attribute, len(attrs))}
	tables := make(map[string]string, len(attrs))

	for _, a := range attrs {
		if !ValidIdentifier(a.ID) {
			return nil, fmt.Errorf("invalid attribute id %q: must match %s", a.ID, identifierPattern)
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate attribute id %q", a.ID)
		}
		if !slices.Contains(ValidTypes, a.Type) {
			return nil, fmt.Errorf("attribute %q: invalid type %q", a.ID, a.Type)
		}
		if a.Name == "" {
			a.Name = a.ID
		}
		if a.Table == "" {
			a.Table = DefaultTable(a.ID)
		}
		if !ValidIdentifier(a.Table) || reservedTable(a.Table) {
			return nil, fmt.Errorf("attribute %q: invalid table name %q", a.ID, a.Table)
		}
		if other, dup := tables[a.Table]; dup {
			return nil, fmt.Errorf("attributes %q and %q share table %q", other, a.ID, a.Table)
		}
		tables[a.Table] = a.ID
		c.byID[a.ID] = a
		c.ids = append(c.ids, a.ID)
	}
	slices.Sort(c.ids)
	return c, nil
}

func reservedTable(name string) bool {
	return name == "items" || strings.HasPrefix(name, "sync_") || strings.HasPrefix(name, "sqlite_")
}

// Lookup returns the attribute with the given id.
func (c *Catalog) Lookup(id string) (Attribute, bool) {
	if c == nil {
		return Attribute{}, false
	}
	a, ok := c.byID[id]
	return a, ok
}

// Table returns the physical table for an attribute id.
func (c *Catalog) Table(id string) (string, error) {
	a, ok := c.Lookup(id)
	if !ok {
		return "", fmt.Errorf("unknown attribute %q", id)
	}
	return a.Table, nil
}

// Attributes returns all attributes sorted by id.
func (c *Catalog) Attributes() []Attribute {
	if c == nil {
		return nil
	}
	out := make([]Attribute, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

// Len returns the number of attributes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}
