package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/replica/internal/constraint"
	"github.com/roach88/replica/internal/store"
	"github.com/roach88/replica/internal/syncreg"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Count bool // print only the number of matches
}

// QueryResult lists the items matching a filter.
type QueryResult struct {
	Filter string   `json:"filter"`
	Synced bool     `json:"synced"`
	Count  uint64   `json:"count"`
	Items  []string `json:"items,omitempty"`
}

// WriteText implements TextWriter.
func (r QueryResult) WriteText(w io.Writer) {
	coverage := "not covered by sync registry"
	if r.Synced {
		coverage = "covered by sync registry"
	}
	fmt.Fprintf(w, "%s: %d item(s), %s\n", r.Filter, r.Count, coverage)
	for _, identity := range r.Items {
		fmt.Fprintf(w, "  %s\n", identity)
	}
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <filter.yaml>",
		Short: "Run a filter against the replica",
		Long: `Run a YAML filter against the replica and list the identities of the
matching items, sorted.

The result also says whether the filter's hypercube is covered by the sync
registry, that is, whether the local answer is complete.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Count, "count", false, "print only the number of matching items")

	return cmd
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := commandContext(cmd)
	st, catalog, err := openReplica(ctx, opts.RootOptions)
	if err != nil {
		return failLoad(formatter, err)
	}
	defer st.Close()

	filter, err := LoadFilter(path, catalog)
	if err != nil {
		return failLoad(formatter, err)
	}

	result := QueryResult{Filter: constraint.String(filter.Constraint)}
	err = st.View(ctx, func(tx *store.Tx) error {
		matches, err := tx.Query(ctx, filter.Expr)
		if err != nil {
			return err
		}
		result.Count = matches.GetCardinality()
		if opts.Count {
			return nil
		}
		result.Items = make([]string, 0, result.Count)
		it := matches.Iterator()
		for it.HasNext() {
			identity, err := tx.Identity(ctx, int64(it.Next()))
			if err != nil {
				return err
			}
			result.Items = append(result.Items, identity)
		}
		sort.Strings(result.Items)
		return nil
	})
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, err.Error(), nil, err)
	}

	err = st.ViewCoverage(ctx, func(r *syncreg.Registry) error {
		result.Synced = r.IsSyncedConstraint(filter.Constraint, catalog)
		return nil
	})
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, err.Error(), nil, err)
	}

	return formatter.Success(result)
}
