package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `attribute: {
	status:   {type: "ref", name: "Status"}
	priority: {type: "int"}
	labels:   {type: "string", collection: true}
	summary:  {type: "string"}
}
`

const testItems = `- identity: OPEN
- identity: CLOSED
- identity: BUG-1
  values: {status: OPEN, priority: 1, labels: [ui, crash], summary: App crashes on start}
- identity: BUG-2
  values: {status: CLOSED, priority: 2}
- identity: BUG-3
  values: {priority: 3}
`

// replicaEnv is a temporary directory holding a catalog and a database
// path for command tests.
type replicaEnv struct {
	dir    string
	schema string
	db     string
}

func newReplicaEnv(t *testing.T) *replicaEnv {
	t.Helper()
	dir := t.TempDir()
	env := &replicaEnv{
		dir:    dir,
		schema: filepath.Join(dir, "schema.cue"),
		db:     filepath.Join(dir, "replica.db"),
	}
	require.NoError(t, os.WriteFile(env.schema, []byte(testSchema), 0o644))
	return env
}

// file writes a file into the environment and returns its path.
func (e *replicaEnv) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the root command against the environment.
func (e *replicaEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(append([]string{"--db", e.db, "--schema", e.schema}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "replica", cmd.Use)
	assert.Contains(t, cmd.Long, "coverage")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"init"}, {"schema"}, {"compile"}, {"validate"}, {"import"}, {"query"}, {"test"},
		{"coverage"}, {"coverage", "show"}, {"coverage", "check"}, {"coverage", "set-synced"},
		{"coverage", "set-unsynced"}, {"coverage", "remove-axis"}, {"coverage", "clear"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "replica.db", dbFlag.DefValue)

	schemaFlag := cmd.PersistentFlags().Lookup("schema")
	require.NotNil(t, schemaFlag)
	assert.Equal(t, "schema", schemaFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)
	assert.NotNil(t, testCmd.Flags().Lookup("update"))
	assert.NotNil(t, testCmd.Flags().Lookup("filter"))

	queryCmd, _, err := cmd.Find([]string{"query"})
	require.NoError(t, err)
	countFlag := queryCmd.Flags().Lookup("count")
	require.NotNil(t, countFlag)
	assert.Equal(t, "false", countFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	env := newReplicaEnv(t)
	_, err := env.run(t, "--format", "xml", "schema")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}
