package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/replica/internal/harness"
)

// ImportResult reports the items written to the replica.
type ImportResult struct {
	Database string `json:"database"`
	Items    int    `json:"items"`
}

// WriteText implements TextWriter.
func (r ImportResult) WriteText(w io.Writer) {
	fmt.Fprintf(w, "✓ Imported %d item(s) into %s\n", r.Items, r.Database)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <items.yaml>",
		Short: "Load items into the replica",
		Long: `Load a YAML list of items into the replica in one transaction.

Each item names its identity and its attribute values. Reference attributes
accept the identity of another item in the same file:

  - identity: OPEN
  - identity: BUG-1
    values:
      status: OPEN
      labels: [ui, crash]

Existing items are updated; attributes not listed keep their values.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	items, err := loadItems(path)
	if err != nil {
		return failLoad(formatter, err)
	}

	ctx := commandContext(cmd)
	st, _, err := openReplica(ctx, opts)
	if err != nil {
		return failLoad(formatter, err)
	}
	defer st.Close()

	if err := harness.SeedItems(ctx, st, items); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, err.Error(), nil, err)
	}
	formatter.VerboseLog("Imported %d item(s) from %s", len(items), path)
	return formatter.Success(ImportResult{Database: opts.Database, Items: len(items)})
}

// loadItems decodes and checks an item list file.
func loadItems(path string) ([]harness.ItemSpec, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("items file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}

	var items []harness.ItemSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&items); err != nil && err != io.EOF {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("decode %s: %v", path, err)}
	}

	seen := make(map[string]bool, len(items))
	var problems []string
	for i, item := range items {
		switch {
		case item.Identity == "":
			problems = append(problems, fmt.Sprintf("items[%d]: identity is required", i))
		case seen[item.Identity]:
			problems = append(problems, fmt.Sprintf("items[%d]: duplicate identity %q", i, item.Identity))
		}
		seen[item.Identity] = true
	}
	if len(problems) > 0 {
		return nil, &LoadError{
			Code:     ErrCodeLoadFailed,
			Message:  fmt.Sprintf("invalid items file %s", path),
			Problems: problems,
		}
	}
	return items, nil
}
