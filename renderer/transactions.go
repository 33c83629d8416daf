package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/etnz/inventory"
	md "github.com/nao1215/markdown"
)

const timeFormat = "2006-01-02 15:04"

// Transactions renders transactions as a table, in the given order.
func Transactions(txs []inventory.Transaction, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Transactions")
	if len(txs) == 0 {
		doc.PlainText("No transaction.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "ID", "Type", "Side", "Quantity", "Unit Price", "Remaining", "Written Off"},
	}
	for _, t := range txs {
		table.Rows = append(table.Rows, []string{
			t.When.UTC().Format(timeFormat),
			fmt.Sprint(t.ID),
			fmt.Sprint(t.TypeID),
			t.Side().String(),
			fmt.Sprint(t.Quantity),
			inventory.M(t.UnitPrice(), currency).String(),
			fmt.Sprint(t.Remaining),
			quantity(t.WrittenOff),
		})
	}
	doc.Table(table)
	return doc.String()
}

// Matches renders the matches of profits, grouped by sale.
func Matches(profits []inventory.Profit) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Matches")
	if len(profits) == 0 {
		doc.PlainText("No match.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignRight,
			md.AlignLeft,
			md.AlignRight,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Sale", "Sold", "Purchase", "Bought", "Quantity", "Held"},
	}
	for _, p := range profits {
		table.Rows = append(table.Rows, []string{
			fmt.Sprint(p.SellID),
			p.Sold.UTC().Format(timeFormat),
			fmt.Sprint(p.BuyID),
			p.Bought.UTC().Format(timeFormat),
			fmt.Sprint(p.Quantity),
			held(p.Sold.Sub(p.Bought)),
		})
	}
	doc.Table(table)
	return doc.String()
}

// quantity renders 0 as "-".
func quantity(q int64) string {
	if q == 0 {
		return "-"
	}
	return fmt.Sprint(q)
}

// held renders a holding duration in days, or hours below a day.
func held(d time.Duration) string {
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
