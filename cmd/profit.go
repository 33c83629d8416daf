package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/inventory"
	"github.com/etnz/inventory/renderer"
	"github.com/google/subcommands"
)

type profitCmd struct {
	typeID int64
	period string
	start  string
	date   string
}

func (*profitCmd) Name() string     { return "profit" }
func (*profitCmd) Synopsis() string { return "report the realized profit of a period" }
func (*profitCmd) Usage() string {
	return `inv profit [-type <type>] [-p <period> | -s <start_date>] [-d <end_date>]

  Reports the profit realized by the sales of a period: for every match, the
  unit sale price minus the unit purchase price, times the matched quantity.
  Only matched quantities count: reconcile first.

Usage Examples:
# Profit of the previous month.
$ inv profit -p month -d -1m

# Profit of the last seven days.
$ inv profit -s -7d
`
}

func (c *profitCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.typeID, "type", 0, "Report only this item type.")
	f.StringVar(&c.period, "p", "month", "Predefined period (day, week, month, quarter, year).")
	f.StringVar(&c.start, "s", "", "The start date for a custom range. Overrides -p.")
	f.StringVar(&c.date, "d", "0d", "A day in the period, or the end date of a custom range.")
}

func (c *profitCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	window, err := reportWindow(c.period, c.start, c.date, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	w, err := openWorkspace()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer w.close()
	book, err := w.snapshot(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading the store: %v\n", err)
		return subcommands.ExitFailure
	}

	filter := inventory.SoldBetween(window.From, window.To)
	if c.typeID != 0 {
		filter = inventory.Both(filter, inventory.OfType(c.typeID))
	}
	printMarkdown(renderer.Profit(window, inventory.Profits(book, w.cfg.Report.Currency, filter)))
	return subcommands.ExitSuccess
}
