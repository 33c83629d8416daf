package inventory

import "time"

// sideScan tracks, for one side, whether a fully consumed transaction was
// already met while walking the history backwards in time.
type sideScan struct {
	consumedLater bool
}

// visit returns true if t still holds stock while a later transaction of the
// same side is already consumed.
func (s *sideScan) visit(t Transaction) bool {
	if s.consumedLater && t.Remaining > 0 {
		return true
	}
	if t.Remaining == 0 {
		s.consumedLater = true
	}
	return false
}

// EarliestInconsistency returns the earliest timestamp from which the counters
// of a type can no longer be trusted. newestFirst must hold every transaction
// of a single type, ordered by descending timestamp.
//
// FIFO consumes each side oldest first, so a transaction with stock left that
// is older than a consumed one on the same side was inserted after matching
// ran. A written off sale is stale too once a purchase with stock left is not
// later than it.
func EarliestInconsistency(newestFirst []Transaction) (time.Time, bool) {
	var (
		buys, sells sideScan
		earliest    time.Time
		found       bool
	)
	candidate := func(on time.Time) {
		if !found || on.Before(earliest) {
			earliest, found = on, true
		}
	}

	var (
		oldestStock time.Time // oldest purchase with stock left
		hasStock    bool
	)
	for _, t := range newestFirst {
		side := &sells
		if t.IsBuy() {
			side = &buys
			if t.Remaining > 0 && (!hasStock || t.When.Before(oldestStock)) {
				oldestStock, hasStock = t.When, true
			}
		}
		if side.visit(t) {
			candidate(t.When)
		}
	}

	if hasStock {
		for _, t := range newestFirst {
			if t.WrittenOff > 0 && !t.When.Before(oldestStock) {
				candidate(t.When)
			}
		}
	}
	return earliest, found
}
