package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/inventory"
	"github.com/google/subcommands"
)

type verifyCmd struct{}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "check the consistency of transactions and matches" }
func (*verifyCmd) Usage() string {
	return `inv verify

  Checks that the remaining quantity of every transaction is its quantity
  minus what is matched and written off, and that every match joins a
  purchase to a later sale of the same item type. Every violation is
  reported.
`
}

func (*verifyCmd) SetFlags(*flag.FlagSet) {}

func (*verifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	if err := inventory.Verify(book); err != nil {
		fmt.Fprintf(os.Stderr, "Error: inconsistent store:\n%v\n", err)
		return subcommands.ExitFailure
	}
	txs, matches := book.Len()
	fmt.Fprintf(os.Stderr, "✅ %d transactions and %d matches are consistent.\n", txs, matches)
	return subcommands.ExitSuccess
}
