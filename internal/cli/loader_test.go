package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireLoadError(t *testing.T, err error, code string) *LoadError {
	t.Helper()
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr), "expected *LoadError, got %T", err)
	assert.Equal(t, code, loadErr.Code, loadErr.Message)
	return loadErr
}

func TestLoadCatalogFile(t *testing.T) {
	env := newReplicaEnv(t)

	catalog, err := LoadCatalog(env.schema)
	require.NoError(t, err)
	attrs := catalog.Attributes()
	require.Len(t, attrs, 4)
	assert.Equal(t, "labels", attrs[0].ID)

	status, ok := catalog.Lookup("status")
	require.True(t, ok)
	assert.Equal(t, "Status", status.Name)
	assert.Equal(t, "attr_status", status.Table)
}

func TestLoadCatalogDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), []byte(`attribute: status: {type: "ref"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.cue"), []byte(`attribute: priority: {type: "int"}`), 0o644))

	catalog, err := LoadCatalog(dir)
	require.NoError(t, err)
	assert.Len(t, catalog.Attributes(), 2)
}

func TestLoadCatalogErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCatalog(filepath.Join(dir, "missing.cue"))
	requireLoadError(t, err, ErrCodeNotFound)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))
	_, err = LoadCatalog(empty)
	requireLoadError(t, err, ErrCodeNoFiles)

	badType := filepath.Join(dir, "bad_type.cue")
	require.NoError(t, os.WriteFile(badType, []byte(`attribute: score: {type: "float"}`), 0o644))
	_, err = LoadCatalog(badType)
	loadErr := requireLoadError(t, err, ErrCodeInvalidType)
	assert.Contains(t, loadErr.Message, "score")

	noAttrs := filepath.Join(dir, "no_attrs.cue")
	require.NoError(t, os.WriteFile(noAttrs, []byte(`other: 1`), 0o644))
	_, err = LoadCatalog(noAttrs)
	requireLoadError(t, err, ErrCodeNoAttributes)
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNoAttributes, MapFieldToErrorCode("attribute"))
	assert.Equal(t, ErrCodeInvalidType, MapFieldToErrorCode("type"))
	assert.Equal(t, ErrCodeInvalidTable, MapFieldToErrorCode("table"))
	assert.Equal(t, ErrCodeBuildFailed, MapFieldToErrorCode("cue"))
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode("other"))
}

func TestLoadFilter(t *testing.T) {
	env := newReplicaEnv(t)
	catalog, err := LoadCatalog(env.schema)
	require.NoError(t, err)

	path := env.file(t, "open.yaml", "eq: {attr: status, value: 1}\n")
	filter, err := LoadFilter(path, catalog)
	require.NoError(t, err)
	assert.Equal(t, path, filter.Path)
	assert.NotNil(t, filter.Expr)

	_, err = LoadFilter(filepath.Join(env.dir, "missing.yaml"), catalog)
	requireLoadError(t, err, ErrCodeNotFound)

	bad := env.file(t, "bad.yaml", "frobnicate: {attr: status}\n")
	_, err = LoadFilter(bad, catalog)
	requireLoadError(t, err, ErrCodeFilterParse)

	unknown := env.file(t, "unknown.yaml", "and:\n  - eq: {attr: owner, value: 1}\n  - match: {attr: priority, pattern: x}\n")
	_, err = LoadFilter(unknown, catalog)
	loadErr := requireLoadError(t, err, ErrCodeFilterInvalid)
	require.Len(t, loadErr.Problems, 2)
	assert.Contains(t, loadErr.Problems[0], `unknown attribute "owner"`)
	assert.Contains(t, loadErr.Problems[1], "text match needs a string attribute")
}
