package cmd

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wtsi-hgi/mco-ghm/codes"
	"github.com/wtsi-hgi/mco-ghm/pricing"
)

var pricingSector int

// pricingCmd represents the pricing command.
var pricingCmd = &cobra.Command{
	Use:   "pricing <pricing-file> <ghs> <YYYYMMDD> <duration>",
	Short: "Resolve a single GHS price from a pricing file",
	Long: `Resolve a single GHS price from a pricing file.

Loads the fixed-width pricing file (spec §4.6) and resolves the price in
cents for the given ghs code, date, and stay duration using sector 0
(public) unless --sector is given. The exh and exb thresholds are both 0
(pricing records carry no thresholds), so a duration above 0 adds exh_cents
for every day and no exb adjustment applies.
`,
	Run: func(_ *cobra.Command, args []string) {
		if len(args) != 4 {
			die("usage: pricing <pricing-file> <ghs> <YYYYMMDD> <duration>")
		}

		f, err := openInput(args[0])
		if err != nil {
			die("failed to open pricing file: %s", err)
		}
		defer f.Close()

		set, err := pricing.Load(f)
		if err != nil {
			die("failed to load pricing file: %s", err)
		}

		ghs, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			die("invalid ghs code: %s", err)
		}

		date, err := parseYYYYMMDD(args[2])
		if err != nil {
			die("invalid date: %s", err)
		}

		duration, err := strconv.Atoi(args[3])
		if err != nil {
			die("invalid duration: %s", err)
		}

		price, err := set.Resolve(codes.GhsCode(ghs), pricingSector, date, duration, 0, 0, false) //nolint:gosec
		if err != nil {
			die("no price found: %s", err)
		}

		cliPrint("%s\n", humanize.FormatFloat("#,###.##", float64(price)/100))
	},
}

func init() {
	RootCmd.AddCommand(pricingCmd)
	pricingCmd.Flags().IntVar(&pricingSector, "sector", 0, "pricing sector: 0 public, 1 private")
}
