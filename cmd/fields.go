package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentic-research/neutralizer/internal/directive"
	"github.com/agentic-research/neutralizer/internal/fields"
)

func init() {
	rootCmd.AddCommand(fieldsCmd)
}

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the template fields, their placeholders and the export types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FIELD\tPLACEHOLDER")
		for _, f := range fields.All() {
			fmt.Fprintf(w, "{%s}\t%s\n", f.Name, f.Placeholder)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "TYPE\tEXTENSIONS\tDESCRIPTION")
		for _, f := range directive.Formats {
			fmt.Fprintf(w, "%s\t%v\t%s\n", f, f.Extensions(), f.DisplayName())
		}
		return w.Flush()
	},
}
