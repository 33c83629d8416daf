package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/inventory"
	"github.com/etnz/inventory/period"
	md "github.com/nao1215/markdown"
)

// Profit renders the realized profits of the sales within a window, followed by
// a summary per item type.
func Profit(w period.Window, profits []inventory.Profit) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Profit %s", w.Identifier()))
	doc.PlainText(fmt.Sprintf("Sales from %s.", w))
	if len(profits) == 0 {
		doc.PlainText("No sale matched in this period.")
		return doc.String()
	}

	summary := inventory.Summarize(profits)
	doc.H2("Summary")
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Type", "Quantity", "Cost", "Value", "Profit"},
	}
	var total inventory.Money
	for _, s := range summary {
		table.Rows = append(table.Rows, []string{
			fmt.Sprint(s.TypeID),
			fmt.Sprint(s.Quantity),
			s.Cost.String(),
			s.Value.String(),
			s.Profit.SignedString(),
		})
		total = total.Add(s.Profit)
	}
	table.Rows = append(table.Rows, []string{md.Bold("Total"), "", "", "", md.Bold(total.SignedString())})
	doc.Table(table)

	doc.H2("Sales")
	table = md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Sold", "Type", "Quantity", "Unit Cost", "Unit Value", "Unit Profit", "Profit"},
	}
	for _, p := range profits {
		table.Rows = append(table.Rows, []string{
			p.Sold.UTC().Format(timeFormat),
			fmt.Sprint(p.TypeID),
			fmt.Sprint(p.Quantity),
			p.Cost.String(),
			p.Value.String(),
			p.Unit().SignedString(),
			p.Total().SignedString(),
		})
	}
	doc.Table(table)
	return doc.String()
}
