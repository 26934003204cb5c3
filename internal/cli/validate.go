package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// FilterCheck is the validation outcome of one filter file.
type FilterCheck struct {
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Code     string   `json:"code,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

// ValidateResult collects the checks of every filter file.
type ValidateResult struct {
	Filters []FilterCheck `json:"filters"`
	Valid   int           `json:"valid"`
	Invalid int           `json:"invalid"`
}

// WriteText implements TextWriter.
func (r ValidateResult) WriteText(w io.Writer) {
	for _, f := range r.Filters {
		if f.Valid {
			fmt.Fprintf(w, "✓ %s\n", f.Path)
			continue
		}
		fmt.Fprintf(w, "✗ %s [%s]\n", f.Path, f.Code)
		for _, p := range f.Problems {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}
	fmt.Fprintf(w, "\n%d valid, %d invalid\n", r.Valid, r.Invalid)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <filter.yaml>...",
		Short: "Check filters against the catalog",
		Long: `Check that each filter file parses and fits the --schema catalog.

Every file is checked; problems are collected rather than stopping at the
first invalid filter.

Exit codes:
  0 - All filters are valid
  1 - One or more filters are invalid
  2 - Command error (catalog cannot be loaded, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	catalog, err := LoadCatalog(opts.Schema)
	if err != nil {
		return failLoad(formatter, err)
	}

	result := ValidateResult{Filters: make([]FilterCheck, 0, len(paths))}
	for _, path := range paths {
		check := FilterCheck{Path: path, Valid: true}
		if _, err := LoadFilter(path, catalog); err != nil {
			check.Valid = false
			check.Code = ErrCodeGeneric
			check.Problems = []string{err.Error()}
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				check.Code = loadErr.Code
				check.Problems = []string{loadErr.Message}
				if len(loadErr.Problems) > 0 {
					check.Problems = loadErr.Problems
				}
			}
		}
		if check.Valid {
			result.Valid++
		} else {
			result.Invalid++
		}
		result.Filters = append(result.Filters, check)
	}

	if result.Invalid == 0 {
		return formatter.Success(result)
	}
	if opts.Format == "json" {
		// The per-file report is the error details.
		return formatter.Fail(ExitFailure, ErrCodeFilterInvalid,
			fmt.Sprintf("%d filter(s) invalid", result.Invalid), result, nil)
	}
	result.WriteText(formatter.Writer)
	return NewExitError(ExitFailure, fmt.Sprintf("%d filter(s) invalid", result.Invalid))
}
