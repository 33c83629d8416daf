package inventory

import (
	"cmp"
	"slices"
	"time"
)

// Profit is the realized profit of a match: Quantity units bought at Cost and sold at Value.
type Profit struct {
	TypeID   int64
	BuyID    int64
	SellID   int64
	Bought   time.Time
	Sold     time.Time
	Quantity int64
	Cost     Money // unit purchase price
	Value    Money // unit sale price
}

// Unit returns the profit per unit.
func (p Profit) Unit() Money { return p.Value.Add(p.Cost.Neg()) }

// Total returns the profit of the whole match.
func (p Profit) Total() Money { return p.Unit().Mul(p.Quantity) }

// AcceptAll is a Profit filter that accepts every row.
func AcceptAll(Profit) bool { return true }

// SoldBetween accepts the profits of sales within [from, to].
func SoldBetween(from, to time.Time) func(Profit) bool {
	return func(p Profit) bool { return !p.Sold.Before(from) && !p.Sold.After(to) }
}

// OfType accepts the profits of a single item type.
func OfType(typeID int64) func(Profit) bool {
	return func(p Profit) bool { return p.TypeID == typeID }
}

// Both accepts the profits accepted by every filter.
func Both(filters ...func(Profit) bool) func(Profit) bool {
	return func(p Profit) bool {
		for _, f := range filters {
			if !f(p) {
				return false
			}
		}
		return true
	}
}

// Profits returns the profits of the matches in b accepted by filter, most
// recent sale first.
func Profits(b *Book, currency string, filter func(Profit) bool) []Profit {
	var list []Profit
	for m := range b.Matches() {
		buy, ok := b.Transaction(m.BuyID)
		if !ok {
			continue
		}
		sell, ok := b.Transaction(m.SellID)
		if !ok {
			continue
		}
		p := Profit{
			TypeID:   sell.TypeID,
			BuyID:    buy.ID,
			SellID:   sell.ID,
			Bought:   buy.When,
			Sold:     sell.When,
			Quantity: m.Quantity,
			Cost:     M(buy.UnitPrice(), currency),
			Value:    M(sell.UnitPrice(), currency),
		}
		if filter(p) {
			list = append(list, p)
		}
	}
	slices.SortFunc(list, func(a, b Profit) int {
		if c := b.Sold.Compare(a.Sold); c != 0 {
			return c
		}
		if c := cmp.Compare(b.SellID, a.SellID); c != 0 {
			return c
		}
		return cmp.Compare(a.BuyID, b.BuyID)
	})
	return list
}

// ProfitSummary aggregates the profits of one item type.
type ProfitSummary struct {
	TypeID   int64
	Quantity int64
	Cost     Money // total purchase cost
	Value    Money // total sale value
	Profit   Money
}

// Summarize aggregates profits per item type, in ascending type order.
func Summarize(profits []Profit) []ProfitSummary {
	index := make(map[int64]*ProfitSummary)
	for _, p := range profits {
		s, ok := index[p.TypeID]
		if !ok {
			s = &ProfitSummary{TypeID: p.TypeID}
			index[p.TypeID] = s
		}
		s.Quantity += p.Quantity
		s.Cost = s.Cost.Add(p.Cost.Mul(p.Quantity))
		s.Value = s.Value.Add(p.Value.Mul(p.Quantity))
		s.Profit = s.Profit.Add(p.Total())
	}
	list := make([]ProfitSummary, 0, len(index))
	for _, s := range index {
		list = append(list, *s)
	}
	slices.SortFunc(list, func(a, b ProfitSummary) int { return cmp.Compare(a.TypeID, b.TypeID) })
	return list
}
