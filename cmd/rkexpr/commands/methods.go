package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/rkexpr/rk"
)

// NewMethodsCommand creates the methods command
func NewMethodsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List integration methods",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tORDER\tSTAGES\tSTEP")
			for _, m := range rk.Methods() {
				fmt.Fprintf(w, "%s\t%d\t%d\tfixed\n", m.Name, m.Order, len(m.Tableau)-1)
			}
			for _, m := range rk.EmbeddedMethods() {
				fmt.Fprintf(w, "%s\t%d(%d)\t%d\tadaptive\n", m.Name, m.Order[0], m.Order[1], len(m.Tableau)-2)
			}
			w.Flush()
		},
	}
}
