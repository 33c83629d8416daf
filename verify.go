package inventory

import (
	"errors"
	"fmt"
)

// Verify checks every transaction of b against its matches: counters within
// bounds, nothing matched beyond the quantity, and remaining equal to the
// quantity minus the matched and written off quantities. Matches must link a
// purchase to a later or simultaneous sale of the same type.
func Verify(b *Book) error {
	var errs error
	matched := make(map[int64]int64)
	for m := range b.Matches() {
		buy, okBuy := b.Transaction(m.BuyID)
		sell, okSell := b.Transaction(m.SellID)
		if !okBuy || !okSell {
			errs = errors.Join(errs, fmt.Errorf("match %s: %w", m.Key(), ErrNotFound))
			continue
		}
		if err := m.ValidateAgainst(buy, sell); err != nil {
			errs = errors.Join(errs, err)
		}
		if !buy.beforeOrEqual(sell) {
			errs = errors.Join(errs, fmt.Errorf("match %s: purchase on %s is after the sale on %s", m.Key(), buy.When, sell.When))
		}
		matched[m.BuyID] += m.Quantity
		matched[m.SellID] += m.Quantity
	}

	for t := range b.Transactions() {
		if err := t.Validate(); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		q := matched[t.ID]
		if q > t.Quantity {
			errs = errors.Join(errs, fmt.Errorf("transaction %d: %d matched out of %d", t.ID, q, t.Quantity))
		}
		if want := t.Quantity - q - t.WrittenOff; t.Remaining != want {
			errs = errors.Join(errs, fmt.Errorf("transaction %d: remaining is %d, want %d", t.ID, t.Remaining, want))
		}
	}
	return errs
}
