package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// AttributeInfo is the CLI view of one catalog attribute.
type AttributeInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type"`
	Composition string `json:"composition"`
	Table       string `json:"table"`
}

// SchemaResult lists a catalog's attributes sorted by id.
type SchemaResult struct {
	Attributes []AttributeInfo `json:"attributes"`
}

// WriteText implements TextWriter.
func (r SchemaResult) WriteText(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCOMPOSITION\tTABLE\tNAME")
	for _, a := range r.Attributes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Type, a.Composition, a.Table, a.Name)
	}
	tw.Flush()
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the attribute catalog",
		Long: `Compile the --schema catalog and list its attributes.

The catalog is CUE:

  attribute: {
    status:   {type: "ref", name: "Status"}
    labels:   {type: "string", collection: true}
    created:  {type: "date", table: "attr_created_at"}
  }`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, cmd)
		},
	}
}

func runSchema(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	catalog, err := LoadCatalog(opts.Schema)
	if err != nil {
		return failLoad(formatter, err)
	}

	result := SchemaResult{Attributes: []AttributeInfo{}}
	for _, a := range catalog.Attributes() {
		result.Attributes = append(result.Attributes, AttributeInfo{
			ID:          a.ID,
			Name:        a.Name,
			Type:        string(a.Type),
			Composition: a.Composition.String(),
			Table:       a.Table,
		})
	}
	return formatter.Success(result)
}
