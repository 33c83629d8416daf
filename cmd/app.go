// Package cmd implements the CLI application to reconcile an inventory.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/inventory"
	"github.com/etnz/inventory/config"
	"github.com/etnz/inventory/period"
	"github.com/etnz/inventory/sqlstore"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&importCmd{}, "transactions")
	c.Register(&txCmd{}, "transactions")

	c.Register(&reconcileCmd{}, "matches")
	c.Register(&matchesCmd{}, "matches")
	c.Register(&verifyCmd{}, "matches")

	c.Register(&profitCmd{}, "reports")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var storeType = flag.String("store", "", "Store type, jsonl or sqlite. Defaults to $INV_STORE, or jsonl.")
var dataPath = flag.String("data", "", "Folder of the JSONL files, or SQLite database file. Defaults to $INV_DATA, or the current folder.")
var reportCurrency = flag.String("currency", "", "Currency of the prices in reports. Defaults to $INV_CURRENCY, or ISK.")
var Verbose = flag.Bool("v", false, "Log debug messages.")

// settings returns the configuration read from the environment, overridden by the global flags.
func settings() (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, err
	}
	if *storeType != "" {
		c.Store.Type = *storeType
	}
	if *dataPath != "" {
		c.Store.Data = *dataPath
	}
	if *reportCurrency != "" {
		c.Report.Currency = *reportCurrency
	}
	if *Verbose {
		c.Logging.Verbose = true
	}
	return c, c.Validate()
}

// workspace is the store the commands work on: either a Book read from JSONL
// files, or a SQLite database.
type workspace struct {
	cfg  *config.Config
	log  *slog.Logger
	book *inventory.Book
	db   *sqlstore.Store
}

// openWorkspace opens the store of the configuration.
func openWorkspace() (*workspace, error) {
	cfg, err := settings()
	if err != nil {
		return nil, err
	}
	w := &workspace{cfg: cfg, log: cfg.Logger(os.Stderr)}
	switch cfg.Store.Type {
	case config.StoreSQLite:
		w.db, err = sqlstore.Open(cfg.Store.Data)
	default:
		w.book, err = inventory.DecodeBook(cfg.Store.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store %q: %w", cfg.Store.Type, cfg.Store.Data, err)
	}
	w.log.Debug("store opened", "type", cfg.Store.Type, "data", cfg.Store.Data)
	return w, nil
}

func (w *workspace) store() inventory.Store {
	if w.db != nil {
		return w.db
	}
	return w.book
}

func (w *workspace) add(ctx context.Context, txs ...inventory.Transaction) error {
	if w.db != nil {
		return w.db.Add(ctx, txs...)
	}
	return w.book.Add(txs...)
}

func (w *workspace) importTransactions(ctx context.Context, txs []inventory.Transaction) ([]inventory.Transaction, error) {
	if w.db != nil {
		return w.db.Import(ctx, txs...)
	}
	return w.book.Import(txs...)
}

func (w *workspace) types(ctx context.Context) ([]int64, error) {
	if w.db != nil {
		return w.db.Types(ctx)
	}
	return w.book.Types(), nil
}

// snapshot returns the whole content of the store as a Book.
func (w *workspace) snapshot(ctx context.Context) (*inventory.Book, error) {
	if w.db != nil {
		return w.db.Book(ctx)
	}
	return w.book, nil
}

// reconcile runs the reconciliation of item types on the scheduler shards.
func (w *workspace) reconcile(ctx context.Context, typeIDs ...int64) ([]inventory.Result, error) {
	rec := inventory.NewReconciler(w.store(), inventory.WithLogger(w.log))
	s := inventory.NewScheduler(ctx, rec, w.cfg.Scheduler.Shards)
	defer s.Close()
	if err := s.Trigger(typeIDs...); err != nil {
		return nil, err
	}
	return s.Wait()
}

// save persists the changes: the JSONL files are rewritten, the database is
// already up to date.
func (w *workspace) save() error {
	if w.book != nil {
		return inventory.EncodeBook(w.cfg.Store.Data, w.book)
	}
	return nil
}

func (w *workspace) close() {
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			w.log.Warn("closing the database", "err", err)
		}
	}
}

// parseTime parses the time of a transaction: RFC 3339, "2006-01-02 15:04",
// or a day like "2025-03-01" or "-1d". Empty means now.
func parseTime(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return period.ParseDay(s, now)
}

// reportWindow computes the window of a report from a period name and an end
// day, or from an explicit start day that overrides the period.
func reportWindow(name, start, end string, now time.Time) (period.Window, error) {
	if end == "" {
		end = "0d"
	}
	to, err := period.ParseDay(end, now)
	if err != nil {
		return period.Window{}, fmt.Errorf("parsing end date: %w", err)
	}
	if start != "" {
		from, err := period.ParseDay(start, now)
		if err != nil {
			return period.Window{}, fmt.Errorf("parsing start date: %w", err)
		}
		if from.After(to) {
			return period.Window{}, fmt.Errorf("start date %s is after end date %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
		}
		return period.Since(from, to), nil
	}
	p, err := period.ParsePeriod(name)
	if err != nil {
		return period.Window{}, err
	}
	return period.NewWindow(to, p), nil
}

// printMarkdown renders markdown for the terminal, or prints it raw if it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}
