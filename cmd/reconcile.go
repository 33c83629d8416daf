package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/inventory/renderer"
	"github.com/google/subcommands"
)

type reconcileCmd struct {
	typeID int64
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "bring the matches up to date" }
func (*reconcileCmd) Usage() string {
	return `inv reconcile [-type <type>]

  Reverts the stale matches of an item type, then matches its remaining sales
  to its remaining purchases, first in first out. Without -type, every item
  type of the store is reconciled.

  Reconciling is idempotent: running it again changes nothing.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.typeID, "type", 0, "Item type to reconcile. Reconciles all types by default.")
}

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	w, err := openWorkspace()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer w.close()

	types := []int64{c.typeID}
	if c.typeID == 0 {
		if types, err = w.types(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing item types: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	results, err := w.reconcile(ctx, types...)
	if err := w.save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving %q: %v\n", w.cfg.Store.Data, err)
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reconciling: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.Reconciliation(results))
	return subcommands.ExitSuccess
}
