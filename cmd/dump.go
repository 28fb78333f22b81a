package cmd

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wtsi-hgi/mco-ghm/tables"
)

// dumpCmd represents the dump command.
var dumpCmd = &cobra.Command{
	Use:   "dump <table-file>...",
	Short: "Dump the GHM roots found in one or more table files",
	Long: `Dump the GHM roots found in one or more table files.

This loads the given binary table files and prints every GhmRootCode known
to the resulting table set, one per row, with its severity parameters.
`,
	Run: func(_ *cobra.Command, args []string) {
		set := loadTables(args)

		table := tablewriter.NewWriter(cliWriter())
		table.SetHeader([]string{"Root", "Ambulatory", "Short Duration <", "Childbirth List"})

		for i := range set.Tables {
			t := &set.Tables[i]
			if t.Kind != tables.KindGhmRootTable {
				continue
			}

			for _, root := range t.GhmRoots {
				table.Append([]string{
					root.Code.String(),
					yesNo(root.AllowAmbulatory),
					strconv.Itoa(int(root.ShortDurationTreshold)),
					strconv.Itoa(int(root.ChildbirthSeverityList)),
				})
			}
		}

		table.Render()
	},
}

func init() {
	RootCmd.AddCommand(dumpCmd)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}
