package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/inventory"
	"github.com/etnz/inventory/renderer"
	"github.com/google/subcommands"
)

type matchesCmd struct {
	typeID int64
	sellID int64
}

func (*matchesCmd) Name() string     { return "matches" }
func (*matchesCmd) Synopsis() string { return "list which purchases each sale consumed" }
func (*matchesCmd) Usage() string {
	return `inv matches [-type <type>] [-sale <id>]

  Lists the matches of the store, most recent sale first, with how long the
  items were held.
`
}

func (c *matchesCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.typeID, "type", 0, "Show only this item type.")
	f.Int64Var(&c.sellID, "sale", 0, "Show only the matches of this sale.")
}

func (c *matchesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	filter := inventory.AcceptAll
	if c.typeID != 0 {
		filter = inventory.Both(filter, inventory.OfType(c.typeID))
	}
	if c.sellID != 0 {
		filter = inventory.Both(filter, func(p inventory.Profit) bool { return p.SellID == c.sellID })
	}
	printMarkdown(renderer.Matches(inventory.Profits(book, w.cfg.Report.Currency, filter)))
	return subcommands.ExitSuccess
}
