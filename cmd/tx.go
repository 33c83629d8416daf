package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/inventory"
	"github.com/etnz/inventory/period"
	"github.com/etnz/inventory/renderer"
	"github.com/google/subcommands"
)

type txCmd struct {
	typeID int64
	period string
	start  string
	date   string
	head   int
	tail   int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions of the store" }
func (*txCmd) Usage() string {
	return `inv tx [-type <type>] [-p <period> | -s <start_date>] [-d <end_date>] [-head <n>] [-tail <n>]

  Lists transactions in chronological order, with their remaining and
  written off quantities.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&p.typeID, "type", 0, "Show only this item type.")
	f.StringVar(&p.period, "p", "", "Predefined period (day, week, month, quarter, year).")
	f.StringVar(&p.start, "s", "", "The start date for a custom range. Overrides -p.")
	f.StringVar(&p.date, "d", "", "The end date for the range.")
	f.IntVar(&p.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N transactions.")
}

func (p *txCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}

	// If no date range flags are provided, show everything.
	useFullRange := p.start == "" && p.date == "" && p.period == ""
	var window period.Window
	if !useFullRange {
		name := p.period
		if name == "" {
			name = "day"
		}
		var err error
		if window, err = reportWindow(name, p.start, p.date, time.Now()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
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

	var transactions []inventory.Transaction
	for tx := range book.Transactions() {
		if p.typeID != 0 && tx.TypeID != p.typeID {
			continue
		}
		if useFullRange || window.Contains(tx.When) {
			transactions = append(transactions, tx)
		}
	}

	if p.head > 0 && len(transactions) > p.head {
		transactions = transactions[:p.head]
	}
	if p.tail > 0 && len(transactions) > p.tail {
		transactions = transactions[len(transactions)-p.tail:]
	}

	printMarkdown(renderer.Transactions(transactions, w.cfg.Report.Currency))
	return subcommands.ExitSuccess
}
