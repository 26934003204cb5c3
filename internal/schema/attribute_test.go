package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogDefaults(t *testing.T) {
	c, err := NewCatalog(
		Attribute{ID: "status", Type: TypeRef},
		Attribute{ID: "labels", Type: TypeString, Composition: Collection},
	)
	require.NoError(t, err)

	status, ok := c.Lookup("status")
	require.True(t, ok)
	assert.Equal(t, "status", status.Name)
	assert.Equal(t, "attr_status", status.Table)
	assert.Equal(t, "int", status.StorageKind())
	assert.False(t, status.IsCollection())

	labels, ok := c.Lookup("labels")
	require.True(t, ok)
	assert.Equal(t, "string", labels.StorageKind())
	assert.True(t, labels.IsCollection())

	ids := []string{}
	for _, a := range c.Attributes() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"labels", "status"}, ids)
	assert.Equal(t, 2, c.Len())
}

func TestNewCatalogRejects(t *testing.T) {
	tests := []struct {
		name  string
		attrs []Attribute
		want  string
	}{
		{"bad id", []Attribute{{ID: "Bad-ID", Type: TypeInt}}, "invalid attribute id"},
		{"duplicate id", []Attribute{{ID: "a", Type: TypeInt}, {ID: "a", Type: TypeInt}}, "duplicate attribute id"},
		{"bad type", []Attribute{{ID: "a", Type: "float"}}, "invalid type"},
		{"reserved table", []Attribute{{ID: "a", Type: TypeInt, Table: "items"}}, "invalid table name"},
		{"sync prefix", []Attribute{{ID: "a", Type: TypeInt, Table: "sync_coverage"}}, "invalid table name"},
		{"shared table", []Attribute{{ID: "a", Type: TypeInt, Table: "t"}, {ID: "b", Type: TypeInt, Table: "t"}}, "share table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.attrs...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCatalogTable(t *testing.T) {
	c, err := NewCatalog(Attribute{ID: "created", Type: TypeDate, Table: "attr_created_at"})
	require.NoError(t, err)

	table, err := c.Table("created")
	require.NoError(t, err)
	assert.Equal(t, "attr_created_at", table)

	_, err = c.Table("missing")
	assert.Error(t, err)
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	_, ok := c.Lookup("x")
	assert.False(t, ok)
	assert.Nil(t, c.Attributes())
	assert.Equal(t, 0, c.Len())
}
