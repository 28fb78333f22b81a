package cmd

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wtsi-hgi/mco-ghm/classify"
	"github.com/wtsi-hgi/mco-ghm/cluster"
	"github.com/wtsi-hgi/mco-ghm/stay"
)

var (
	listSector  int
	listWorkers int
	listPricing string
)

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:   "list <stays-file> <table-file>...",
	Short: "Classify a stay input and list one row per cluster",
	Long: `Classify a stay input and list one row per cluster.

The first argument is a tab-separated stay file (or "-" for stdin); the
remaining arguments are binary table files. Each output row is one classified
cluster: its GHM, its error list length, and (if priced) the sector price.
`,
	Run: func(_ *cobra.Command, args []string) {
		if len(args) < 2 {
			die("you must supply a stay file and at least one table file")
		}

		set := loadTables(args[1:])
		stays := loadStays(args[0])

		driver := &classify.Driver{
			Set:     set,
			Mode:    cluster.StayModes,
			Sector:  classify.Sector(listSector),
			Pricing: loadOptionalPricing(listPricing),
		}

		run := runClassify(driver, stays, listWorkers)

		printResults(run)
	},
}

func init() {
	RootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listSector, "sector", 0, "pricing sector: 0 public, 1 private")
	listCmd.Flags().IntVar(&listWorkers, "workers", 1, "number of parallel classification workers")
	listCmd.Flags().StringVar(&listPricing, "pricing", "", "optional pricing file to resolve GHS prices from")
}

func runClassify(driver *classify.Driver, stays *stay.StaySet, workers int) *classify.Run {
	if workers > 1 {
		return driver.Parallelism(stays.All(), workers)
	}

	return driver.Classify(stays.All())
}

func printResults(run *classify.Run) {
	table := tablewriter.NewWriter(cliWriter())
	table.SetHeader([]string{"Cluster Start", "Cluster Len", "GHM", "Errors", "GHS", "Price (cents)"})

	for _, res := range run.Results {
		table.Append([]string{
			itoa(res.ClusterStart),
			itoa(res.ClusterLen),
			res.Ghm.String(),
			itoa(res.ErrorLen),
			itoa(int(res.Ghs)),
			itoa(int(res.Price)),
		})
	}

	table.Render()
}
