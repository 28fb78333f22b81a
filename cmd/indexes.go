package cmd

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// indexesCmd represents the indexes command.
var indexesCmd = &cobra.Command{
	Use:   "indexes <table-file>...",
	Short: "List the disjoint TableIndex intervals a table set assembles to",
	Long: `List the disjoint TableIndex intervals a table set assembles to.

Each row is one interval [From, To) together with the bitset of table kinds
that changed relative to the immediately preceding interval.
`,
	Run: func(_ *cobra.Command, args []string) {
		set := loadTables(args)

		table := tablewriter.NewWriter(cliWriter())
		table.SetHeader([]string{"From", "To", "GHM Roots", "Diagnoses", "Procedures", "GHS", "Changed"})

		for _, idx := range set.Indexes {
			table.Append([]string{
				idx.From.String(),
				idx.To.String(),
				countStr(len(idx.GhmRoots)),
				countStr(len(idx.Diagnoses)),
				countStr(len(idx.Procedures)),
				countStr(len(idx.Ghs)),
				bitsetStr(idx.ChangedTables),
			})
		}

		table.Render()
	},
}

func init() {
	RootCmd.AddCommand(indexesCmd)
}

func countStr(n int) string {
	return itoa(n)
}

func bitsetStr(v uint16) string {
	return "0x" + hexUint16(v)
}
