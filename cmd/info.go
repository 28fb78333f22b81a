package cmd

import (
	"os"

	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command.
var infoCmd = &cobra.Command{
	Use:   "info <table-file>...",
	Short: "Print summary counts for a loaded table set",
	Long: `Print summary counts for a loaded table set.

Reports how many source tables were loaded, how many disjoint date-indexed
TableIndex intervals were assembled from them, and how many warnings (e.g.
unknown table kinds) were raised while loading.
`,
	Run: func(_ *cobra.Command, args []string) {
		set := loadTables(args)

		cliPrint("Tables: %d\nIndexes: %d\nWarnings: %d\nOn-disk size: %s\n",
			len(set.Tables), len(set.Indexes), len(set.Warnings), bytefmt.ByteSize(totalSize(args)))
	},
}

func init() {
	RootCmd.AddCommand(infoCmd)
}

func totalSize(paths []string) uint64 {
	var total uint64

	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil {
			total += uint64(fi.Size()) //nolint:gosec
		}
	}

	return total
}
