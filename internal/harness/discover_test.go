package harness

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt", "nested/c.yaml", "golden/b.golden"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	files, err := DiscoverScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, files)

	files, err = DiscoverScenarios(dir, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yaml")}, files)

	single := filepath.Join(dir, "notes.txt")
	files, err = DiscoverScenarios(single, "")
	require.NoError(t, err)
	assert.Equal(t, []string{single}, files)
}

func TestDiscoverScenarios_Missing(t *testing.T) {
	_, err := DiscoverScenarios(filepath.Join(t.TempDir(), "missing"), "")
	var nf *ScenarioNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Contains(t, nf.Error(), "does not exist")
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "foo.golden"), GoldenPath(filepath.Join("scenarios", "foo.yaml")))
	assert.Equal(t, filepath.Join("golden", "bar.golden"), GoldenPath("bar.yml"))
}
