package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/replica/internal/schema"
)

// Catalog returns the issue-tracker style catalog shared by tests:
//
//	status     ref, scalar
//	parent     ref, scalar
//	created    date, scalar
//	priority   int, scalar
//	summary    string, scalar
//	labels     string, collection
//	components ref, collection
func Catalog(t testing.TB) *schema.Catalog {
	t.Helper()
	c, err := schema.NewCatalog(CatalogAttributes()...)
	require.NoError(t, err)
	return c
}

// CatalogAttributes lists the attributes of Catalog.
func CatalogAttributes() []schema.Attribute {
	return []schema.Attribute{
		{ID: "status", Type: schema.TypeRef},
		{ID: "parent", Type: schema.TypeRef},
		{ID: "created", Type: schema.TypeDate},
		{ID: "priority", Type: schema.TypeInt},
		{ID: "summary", Type: schema.TypeString},
		{ID: "labels", Type: schema.TypeString, Composition: schema.Collection},
		{ID: "components", Type: schema.TypeRef, Composition: schema.Collection},
	}
}
