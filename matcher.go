package inventory

import (
	"context"
	"errors"
	"fmt"
)

type matcherState int

const (
	matcherRunning matcherState = iota
	matcherDone
)

// allocation is the outcome of one matcher step, before it is persisted.
type allocation struct {
	buy        Transaction // zero when the sale is written off
	sell       Transaction
	match      Match
	writtenOff int64
}

func (a allocation) writeOff() bool { return a.writtenOff > 0 }

// apply persists the allocation.
func (a allocation) apply(tx Tx) error {
	if a.writeOff() {
		return tx.UpdateTransaction(a.sell)
	}
	if err := tx.UpdateTransaction(a.buy); err != nil {
		return err
	}
	if err := tx.UpdateTransaction(a.sell); err != nil {
		return err
	}
	m := a.match
	switch prev, err := tx.Match(m.BuyID, m.SellID); {
	case err == nil:
		m.Quantity += prev.Quantity
	case !errors.Is(err, ErrNotFound):
		return err
	}
	return tx.SaveMatch(m)
}

// matcher allocates sales to purchases, oldest first on both sides.
type matcher struct {
	buys, sells *lotQueue
	state       matcherState
}

func newMatcher(buys, sells []Transaction) *matcher {
	return &matcher{buys: newLotQueue(buys), sells: newLotQueue(sells)}
}

// next computes the next allocation. It returns false, and the matcher is
// done, when either queue is exhausted: sales left without any purchase keep
// their stock.
func (m *matcher) next() (allocation, bool) {
	if m.state == matcherDone {
		return allocation{}, false
	}
	sell, ok := m.sells.peek()
	if !ok {
		m.state = matcherDone
		return allocation{}, false
	}
	buy, ok := m.buys.peek()
	if !ok {
		m.state = matcherDone
		return allocation{}, false
	}

	if !buy.beforeOrEqual(sell) {
		// Nothing bought before this sale is left: it has no cost basis.
		n := sell.Remaining
		sell.WrittenOff += n
		sell.Remaining = 0
		return allocation{sell: sell, writtenOff: n}, true
	}

	n := min(buy.Remaining, sell.Remaining)
	buy.Remaining -= n
	sell.Remaining -= n
	return allocation{
		buy:   buy,
		sell:  sell,
		match: Match{BuyID: buy.ID, SellID: sell.ID, Quantity: n},
	}, true
}

// commit updates the queue heads once the allocation is persisted.
func (m *matcher) commit(a allocation) {
	if !a.writeOff() {
		m.buys.replaceHead(a.buy)
	}
	m.sells.replaceHead(a.sell)
}

// match runs the matcher over the stock left, persisting every step on its own.
func (r *run) match(ctx context.Context) error {
	buys, err := r.store.RemainingBuys(ctx, r.typeID)
	if err != nil {
		return fmt.Errorf("reading purchases with stock: %w", err)
	}
	sells, err := r.store.RemainingSells(ctx, r.typeID)
	if err != nil {
		return fmt.Errorf("reading sales with stock: %w", err)
	}
	r.log.Debug("lot queues ready", "buys", len(buys), "sells", len(sells))

	m := newMatcher(buys, sells)
	for {
		a, ok := m.next()
		if !ok {
			break
		}
		if err := r.store.Atomic(ctx, a.apply); err != nil {
			if a.writeOff() {
				return fmt.Errorf("writing off sale %d: %w", a.sell.ID, err)
			}
			return fmt.Errorf("saving match %s: %w", a.match.Key(), err)
		}
		m.commit(a)
		if a.writeOff() {
			r.result.WrittenOff += a.writtenOff
			r.log.Debug("sale has no purchase before it", "sell", a.sell.ID)
			continue
		}
		r.result.Matches++
		r.result.Matched += a.match.Quantity
	}
	for _, s := range m.sells.lots {
		r.result.Unmatched += s.Remaining
	}
	return nil
}
