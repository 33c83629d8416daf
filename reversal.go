package inventory

import (
	"context"
	"fmt"
	"time"
)

// invalidate undoes everything computed from the first inconsistency on.
func (r *run) invalidate(ctx context.Context) error {
	history, err := r.store.TransactionsByType(ctx, r.typeID)
	if err != nil {
		return fmt.Errorf("reading transactions: %w", err)
	}
	cutoff, found := EarliestInconsistency(history)
	if !found {
		r.log.Info("no invalid matches found")
		return nil
	}
	r.result.Cutoff = cutoff

	// Write-offs first: a sale that is both matched and written off then gets
	// its matched quantity back with a zero write-off.
	for _, t := range history {
		if t.WrittenOff == 0 || t.When.Before(cutoff) {
			continue
		}
		if err := r.store.Atomic(ctx, func(tx Tx) error { return restoreWriteOff(tx, t.ID) }); err != nil {
			return fmt.Errorf("restoring write-off of %d: %w", t.ID, err)
		}
		r.result.Restored += t.WrittenOff
	}

	matches, err := r.store.MatchesAtOrAfter(ctx, r.typeID, cutoff)
	if err != nil {
		return fmt.Errorf("listing matches from %s: %w", cutoff.Format(time.RFC3339), err)
	}
	r.log.Info("found invalid matches, de-matching", "matches", len(matches), "cutoff", cutoff)
	for _, m := range matches {
		if err := r.store.Atomic(ctx, func(tx Tx) error { return revertMatch(tx, m) }); err != nil {
			return fmt.Errorf("reverting match %s: %w", m.Key(), err)
		}
		r.result.Reverted++
	}
	r.log.Info("finished de-matching", "matches", len(matches), "restored", r.result.Restored)
	return nil
}

// revertMatch gives the matched quantity back to both sides and deletes the match.
func revertMatch(tx Tx, m Match) error {
	buy, err := tx.Transaction(m.BuyID)
	if err != nil {
		return err
	}
	sell, err := tx.Transaction(m.SellID)
	if err != nil {
		return err
	}
	buy.Remaining = min(buy.Quantity-buy.WrittenOff, buy.Remaining+m.Quantity)
	sell.Remaining = min(sell.Quantity-sell.WrittenOff, sell.Remaining+m.Quantity)
	if err := tx.UpdateTransaction(buy); err != nil {
		return err
	}
	if err := tx.UpdateTransaction(sell); err != nil {
		return err
	}
	return tx.DeleteMatch(m.BuyID, m.SellID)
}

// restoreWriteOff makes the written off quantity of a sale available again.
func restoreWriteOff(tx Tx, id int64) error {
	sell, err := tx.Transaction(id)
	if err != nil {
		return err
	}
	sell.Remaining = min(sell.Quantity, sell.Remaining+sell.WrittenOff)
	sell.WrittenOff = 0
	return tx.UpdateTransaction(sell)
}
