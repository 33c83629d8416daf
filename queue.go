package inventory

import "slices"

// lotQueue holds the transactions of one side that still have stock, oldest first.
// It is a snapshot taken at the start of a run.
type lotQueue struct {
	lots []Transaction
}

func newLotQueue(lots []Transaction) *lotQueue {
	q := &lotQueue{lots: slices.Clone(lots)}
	slices.SortStableFunc(q.lots, compareChronological)
	return q
}

// peek returns the oldest lot.
func (q *lotQueue) peek() (Transaction, bool) {
	if len(q.lots) == 0 {
		return Transaction{}, false
	}
	return q.lots[0], true
}

// replaceHead stores the new state of the oldest lot and drops it once consumed.
func (q *lotQueue) replaceHead(t Transaction) {
	q.lots[0] = t
	if t.Consumed() {
		q.lots = q.lots[1:]
	}
}
