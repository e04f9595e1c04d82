package cmd

import (
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/zkoranges/flat/internal/grammar"
)

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages supported by --compress",
		Run: func(cmd *cobra.Command, args []string) {
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Language", "Extensions"})
			table.SetBorder(false)
			table.SetColumnSeparator(" ")
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)

			for _, lang := range grammar.All() {
				table.Append([]string{lang.Name(), strings.Join(lang.Extensions(), ", ")})
			}
			table.Render()
		},
	}
}
