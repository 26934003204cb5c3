package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/replica/internal/constraint"
	"github.com/roach88/replica/internal/cube"
	"github.com/roach88/replica/internal/querysql"
)

// CompileResult describes how a filter would be evaluated.
type CompileResult struct {
	Filter     string   `json:"filter"`
	Hypercube  string   `json:"hypercube,omitempty"`
	Statements []string `json:"statements"`
	Scan       bool     `json:"scan"`
	Reason     string   `json:"reason,omitempty"`
}

// WriteText implements TextWriter.
func (r CompileResult) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Filter:    %s\n", r.Filter)
	if r.Hypercube != "" {
		fmt.Fprintf(w, "Hypercube: %s\n", r.Hypercube)
	} else {
		fmt.Fprintln(w, "Hypercube: none")
	}
	if r.Scan {
		fmt.Fprintf(w, "Plan:      full scan (%s)\n", r.Reason)
		return
	}
	if len(r.Statements) == 0 {
		fmt.Fprintln(w, "Plan:      matches nothing")
		return
	}
	fmt.Fprintln(w, "Plan:")
	for _, s := range r.Statements {
		fmt.Fprintf(w, "  %s\n", s)
	}
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <filter.yaml>",
		Short: "Compile a filter to SQL",
		Long: `Compile a YAML filter against the --schema catalog and print the SQL
statements that answer it, together with the filter's hypercube.

Filters that cannot be lowered to SQL are reported as a full scan.

Examples:
  replica compile open-bugs.yaml
  replica compile open-bugs.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(rootOpts, args[0], cmd)
		},
	}
}

func runCompile(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	catalog, err := LoadCatalog(opts.Schema)
	if err != nil {
		return failLoad(formatter, err)
	}
	filter, err := LoadFilter(path, catalog)
	if err != nil {
		return failLoad(formatter, err)
	}

	result := CompileResult{
		Filter:     constraint.String(filter.Constraint),
		Statements: []string{},
	}
	if c, ok := cube.Build(filter.Constraint, catalog); ok {
		result.Hypercube = c.String()
	}

	plan, err := querysql.NewCompiler(catalog).Compile(filter.Expr)
	switch {
	case err == nil:
		for _, stmt := range plan.Statements() {
			result.Statements = append(result.Statements, stmt.String())
		}
		formatter.VerboseLog("Compiled %s to %d statement(s)", path, len(result.Statements))
	case querysql.IsUnsupported(err):
		result.Scan = true
		result.Reason = err.Error()
	default:
		return formatter.Fail(ExitFailure, ErrCodeNotCompilable, err.Error(), nil, err)
	}
	return formatter.Success(result)
}
