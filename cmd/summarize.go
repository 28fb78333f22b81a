package cmd

import (
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wtsi-hgi/mco-ghm/classify"
	"github.com/wtsi-hgi/mco-ghm/cluster"
)

var (
	summarizeSector  int
	summarizeWorkers int
	summarizePricing string
)

// summarizeCmd represents the summarize command.
var summarizeCmd = &cobra.Command{
	Use:   "summarize <stays-file> <table-file>...",
	Short: "Classify a stay input and print aggregate counts",
	Long: `Classify a stay input and print aggregate counts.

Unlike "list" (one row per cluster), this reports totals: number of clusters,
number priced, number that hit a classification error, and the sum of
resolved prices.
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
			Sector:  classify.Sector(summarizeSector),
			Pricing: loadOptionalPricing(summarizePricing),
		}

		run := runClassify(driver, stays, summarizeWorkers)

		var (
			priced, errored int
			total           int64
		)

		for _, res := range run.Results {
			if res.Ghm.IsError() {
				errored++

				continue
			}

			if res.Price > 0 {
				priced++
				total += res.Price
			}
		}

		table := tablewriter.NewWriter(cliWriter())
		table.SetHeader([]string{"Metric", "Value"})
		table.Append([]string{"Clusters", itoa(len(run.Results))})
		table.Append([]string{"Priced", itoa(priced)})
		table.Append([]string{"Errored", itoa(errored)})
		table.Append([]string{"Total (cents)", humanize.Comma(total)})
		table.Render()
	},
}

func init() {
	RootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().IntVar(&summarizeSector, "sector", 0, "pricing sector: 0 public, 1 private")
	summarizeCmd.Flags().IntVar(&summarizeWorkers, "workers", 1, "number of parallel classification workers")
	summarizeCmd.Flags().StringVar(&summarizePricing, "pricing", "", "optional pricing file to resolve GHS prices from")
}
