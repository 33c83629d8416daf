package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/inventory"
	"github.com/etnz/inventory/renderer"
	"github.com/google/subcommands"
)

type importCmd struct {
	path      string
	reconcile bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import wallet transactions from a JSON export" }
func (*importCmd) Usage() string {
	return `inv import [-path <jsonpath>] [-r=false] [<file>...]

  Imports the wallet transactions of JSON documents, or of the standard input
  when no file is given. Each row must look like:

  {"transaction_id":5843,"type_id":34,"unit_price":5.5,"quantity":100,"date":"2025-03-01T10:00:00Z","is_buy":true}

  Transactions already known are skipped. Every item type touched by the
  import is then reconciled.

Usage Examples:
# Rows are nested in the document.
$ inv import -path '$.transactions[*]' wallet.json
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.path, "path", inventory.DefaultWalletPath, "JSONPath expression selecting the rows.")
	f.BoolVar(&c.reconcile, "r", true, "Reconcile the imported item types afterwards.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var txs []inventory.Transaction
	decode := func(name string, r io.Reader) error {
		rows, err := inventory.DecodeWallet(r, c.path)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
		txs = append(txs, rows...)
		return nil
	}

	if f.NArg() == 0 {
		if err := decode("standard input", os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	for _, name := range f.Args() {
		r, err := os.Open(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		err = decode(name, r)
		r.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	w, err := openWorkspace()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer w.close()

	added, err := w.importTransactions(ctx, txs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing transactions: %v\n", err)
		return subcommands.ExitFailure
	}
	w.log.Info("imported", "read", len(txs), "added", len(added))

	var results []inventory.Result
	if c.reconcile && len(added) > 0 {
		results, err = w.reconcile(ctx, inventory.TypesOf(added)...)
	}
	if err := w.save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving %q: %v\n", w.cfg.Store.Data, err)
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reconciling: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(os.Stderr, "Successfully imported %d new transactions out of %d.\n", len(added), len(txs))
	if c.reconcile {
		printMarkdown(renderer.Reconciliation(results))
	}
	return subcommands.ExitSuccess
}
