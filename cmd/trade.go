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
	"github.com/shopspring/decimal"
)

// tradeCmd holds the flags shared by the buy and sell subcommands.
type tradeCmd struct {
	id        int64
	typeID    int64
	price     string
	quantity  int64
	date      string
	reconcile bool
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Unique id of the transaction.")
	f.Int64Var(&c.typeID, "type", 0, "Item type id.")
	f.StringVar(&c.price, "p", "", "Unit price.")
	f.Int64Var(&c.quantity, "q", 0, "Quantity.")
	f.StringVar(&c.date, "d", "", "Time of the transaction, like 2025-03-01 12:00 or -1d. Defaults to now.")
	f.BoolVar(&c.reconcile, "r", true, "Reconcile the item type afterwards.")
}

// execute adds the transaction built by newTx, and reconciles its type.
func (c *tradeCmd) execute(ctx context.Context, newTx func(id, typeID int64, price decimal.Decimal, quantity int64, when time.Time) inventory.Transaction) subcommands.ExitStatus {
	price, err := decimal.NewFromString(c.price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing price %q: %v\n", c.price, err)
		return subcommands.ExitUsageError
	}
	when, err := parseTime(c.date, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	tx := newTx(c.id, c.typeID, price, c.quantity, when)
	if err := tx.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	w, err := openWorkspace()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer w.close()

	if err := w.add(ctx, tx); err != nil {
		fmt.Fprintf(os.Stderr, "Error adding %v: %v\n", tx, err)
		return subcommands.ExitFailure
	}
	var results []inventory.Result
	if c.reconcile {
		results, err = w.reconcile(ctx, tx.TypeID)
	}
	// what has been reconciled is consistent, even if the run failed.
	if err := w.save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving %q: %v\n", w.cfg.Store.Data, err)
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reconciling type %d: %v\n", tx.TypeID, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(os.Stderr, "Successfully added %v\n", tx)
	if c.reconcile {
		printMarkdown(renderer.Reconciliation(results))
	}
	return subcommands.ExitSuccess
}

type buyCmd struct{ tradeCmd }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a purchase" }
func (*buyCmd) Usage() string {
	return `inv buy -id <id> -type <type> -p <price> -q <quantity> [-d <date>] [-r=false]

  Records the purchase of a quantity of items at a unit price, and reconciles
  the item type: a purchase older than what was already matched makes the
  matches after it stale.
`
}

func (c *buyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, inventory.NewBuy)
}

type sellCmd struct{ tradeCmd }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sale" }
func (*sellCmd) Usage() string {
	return `inv sell -id <id> -type <type> -p <price> -q <quantity> [-d <date>] [-r=false]

  Records the sale of a quantity of items at a unit price, and reconciles the
  item type so that the sale is matched to the purchases it consumed.
`
}

func (c *sellCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, inventory.NewSell)
}
