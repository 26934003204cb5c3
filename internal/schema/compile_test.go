package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileString(t *testing.T) {
	c, err := CompileString(`
		attribute: {
			status:  {type: "ref", name: "Status"}
			summary: {type: "string"}
			labels:  {type: "string", collection: true}
			created: {type: "date", table: "attr_created_at"}
		}
	`)
	require.NoError(t, err)
	require.Equal(t, 4, c.Len())

	status, _ := c.Lookup("status")
	assert.Equal(t, "Status", status.Name)
	assert.Equal(t, TypeRef, status.Type)

	labels, _ := c.Lookup("labels")
	assert.Equal(t, Collection, labels.Composition)

	created, _ := c.Lookup("created")
	assert.Equal(t, "attr_created_at", created.Table)
	assert.Equal(t, TypeDate, created.Type)
}

func TestCompileMissingType(t *testing.T) {
	_, err := CompileString(`attribute: priority: {name: "Priority"}`)
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "type", ce.Field)
	assert.Contains(t, ce.Message, "priority")
}

func TestCompileInvalidType(t *testing.T) {
	_, err := CompileString(`attribute: priority: {type: "float"}`)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "type", ce.Field)
}

func TestCompileNoAttributes(t *testing.T) {
	_, err := CompileString(`other: 1`)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "attribute", ce.Field)
}

func TestCompileSyntaxError(t *testing.T) {
	_, err := CompileString(`attribute: {`)
	require.Error(t, err)
}
