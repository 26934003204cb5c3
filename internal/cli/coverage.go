package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/replica/internal/constraint"
	"github.com/roach88/replica/internal/cube"
	"github.com/roach88/replica/internal/schema"
	"github.com/roach88/replica/internal/store"
	"github.com/roach88/replica/internal/syncreg"
)

// CoverageResult is the state of the sync registry after a coverage
// command.
type CoverageResult struct {
	Generation string   `json:"generation,omitempty"`
	Cubes      []string `json:"cubes"`
}

// WriteText implements TextWriter.
func (r CoverageResult) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Sync registry: %d cube(s)", len(r.Cubes))
	if r.Generation != "" {
		fmt.Fprintf(w, " (generation %s)", r.Generation)
	}
	fmt.Fprintln(w)
	for _, c := range r.Cubes {
		fmt.Fprintf(w, "  %s\n", c)
	}
}

// CheckResult reports whether a filter is covered.
type CheckResult struct {
	Filter    string `json:"filter"`
	Hypercube string `json:"hypercube,omitempty"`
	Synced    bool   `json:"synced"`
}

// WriteText implements TextWriter.
func (r CheckResult) WriteText(w io.Writer) {
	fmt.Fprintf(w, "✓ %s is covered (hypercube %s)\n", r.Filter, r.Hypercube)
}

// NewCoverageCommand creates the coverage command and its subcommands.
func NewCoverageCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Inspect and edit the sync registry",
		Long: `Inspect and edit the sync registry of the replica.

The registry is a set of hypercubes over reference attributes. Items inside
a synced hypercube are known to be complete locally.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show",
		Short:         "List the synced hypercubes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoverageUpdate(rootOpts, cmd, nil)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <filter.yaml>",
		Short: "Check whether a filter is covered",
		Long: `Check whether the hypercube of a filter is covered by the sync registry.

Exit codes:
  0 - The filter is covered
  1 - The filter is not covered, or has no hypercube
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoverageCheck(rootOpts, args[0], cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "set-synced <filter.yaml>",
		Short:         "Record a filter's hypercube as synced",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoverageFilter(rootOpts, args[0], cmd, (*syncreg.Registry).SetSynced)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "set-unsynced <filter.yaml>",
		Short:         "Withdraw every synced hypercube covering a filter's hypercube",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoverageFilter(rootOpts, args[0], cmd, (*syncreg.Registry).SetUnsynced)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "remove-axis <attribute>",
		Short:         "Project a retired attribute out of the registry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			attr := args[0]
			return runCoverageUpdate(rootOpts, cmd, func(r *syncreg.Registry) { r.RemoveAxis(attr) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Forget every synced hypercube",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoverageUpdate(rootOpts, cmd, (*syncreg.Registry).Clear)
		},
	})

	return cmd
}

// runCoverageUpdate applies fn to the registry, when given, and prints the
// registry it leaves behind.
func runCoverageUpdate(opts *RootOptions, cmd *cobra.Command, fn func(*syncreg.Registry)) error {
	formatter := newFormatter(opts, cmd)

	ctx := commandContext(cmd)
	st, _, err := openReplica(ctx, opts)
	if err != nil {
		return failLoad(formatter, err)
	}
	defer st.Close()

	if fn != nil {
		err := st.UpdateCoverage(ctx, func(r *syncreg.Registry) error {
			fn(r)
			return nil
		})
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeStore, err.Error(), nil, err)
		}
	}

	result, err := readCoverage(ctx, st)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, err.Error(), nil, err)
	}
	return formatter.Success(result)
}

// runCoverageFilter applies a cube operation with the hypercube of a
// filter file.
func runCoverageFilter(opts *RootOptions, path string, cmd *cobra.Command, op func(*syncreg.Registry, cube.Cube)) error {
	formatter := newFormatter(opts, cmd)

	catalog, err := LoadCatalog(opts.Schema)
	if err != nil {
		return failLoad(formatter, err)
	}
	q, c, err := filterCube(path, catalog)
	if err != nil {
		return failLoad(formatter, err)
	}
	formatter.VerboseLog("%s has hypercube %s", constraint.String(c), q.String())

	return runCoverageUpdate(opts, cmd, func(r *syncreg.Registry) { op(r, q) })
}

func runCoverageCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ctx := commandContext(cmd)
	st, catalog, err := openReplica(ctx, opts)
	if err != nil {
		return failLoad(formatter, err)
	}
	defer st.Close()

	q, c, err := filterCube(path, catalog)
	if err != nil {
		return failLoad(formatter, err)
	}

	result := CheckResult{Filter: constraint.String(c), Hypercube: q.String()}
	err = st.ViewCoverage(ctx, func(r *syncreg.Registry) error {
		result.Synced = r.IsSynced(q)
		return nil
	})
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, err.Error(), nil, err)
	}
	if !result.Synced {
		return formatter.Fail(ExitFailure, ErrCodeNotCovered,
			fmt.Sprintf("%s is not covered by the sync registry", result.Filter), result, nil)
	}
	return formatter.Success(result)
}

// filterCube loads a filter and builds its hypercube.
func filterCube(path string, catalog *schema.Catalog) (cube.Cube, constraint.Constraint, error) {
	filter, err := LoadFilter(path, catalog)
	if err != nil {
		return cube.Cube{}, nil, err
	}
	q, ok := cube.Build(filter.Constraint, catalog)
	if !ok {
		return cube.Cube{}, nil, &LoadError{
			Code:    ErrCodeNoHypercube,
			Message: fmt.Sprintf("%s has no hypercube", constraint.String(filter.Constraint)),
		}
	}
	return q, filter.Constraint, nil
}

// readCoverage loads the persisted registry.
func readCoverage(ctx context.Context, st *store.Store) (CoverageResult, error) {
	result := CoverageResult{Cubes: []string{}}
	err := st.ViewCoverage(ctx, func(r *syncreg.Registry) error {
		result.Generation = r.Generation()
		for _, c := range r.Cubes() {
			result.Cubes = append(result.Cubes, c.String())
		}
		return nil
	})
	return result, err
}
