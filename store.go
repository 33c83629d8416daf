package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidType is returned when reconciliation is asked for a type id that cannot exist.
	ErrInvalidType = errors.New("invalid item type")
	// ErrInvalidTransaction is returned for transactions that break the counter bounds.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrNotFound is returned by stores for unknown transactions or matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned by stores when an identity is already taken.
	ErrDuplicate = errors.New("duplicate")
)

// Store is where transactions and matches live.
//
// Implementations partition everything by item type: the queries below never
// return data of another type.
type Store interface {
	// TransactionsByType returns every transaction of the type, newest first.
	TransactionsByType(ctx context.Context, typeID int64) ([]Transaction, error)
	// RemainingBuys returns the purchases with Remaining > 0, oldest first, ties by id.
	RemainingBuys(ctx context.Context, typeID int64) ([]Transaction, error)
	// RemainingSells returns the sales with Remaining > 0, oldest first, ties by id.
	RemainingSells(ctx context.Context, typeID int64) ([]Transaction, error)
	// MatchesAtOrAfter returns the matches of the type whose buy or sell happened at or after on,
	// ordered by sell timestamp descending, then sell id descending.
	MatchesAtOrAfter(ctx context.Context, typeID int64, on time.Time) ([]Match, error)
	// Atomic runs fn as one unit of work: all of its writes are persisted, or none.
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is a unit of work on a Store.
type Tx interface {
	Transaction(id int64) (Transaction, error)
	UpdateTransaction(t Transaction) error
	Match(buyID, sellID int64) (Match, error)
	// SaveMatch inserts m, or replaces the match with the same key.
	SaveMatch(m Match) error
	DeleteMatch(buyID, sellID int64) error
}

// CheckCounters checks that t is a valid update of old: only Remaining and
// WrittenOff may change.
func CheckCounters(old, t Transaction) error {
	if old.TypeID != t.TypeID || old.Quantity != t.Quantity || !old.Price.Equal(t.Price) || !old.When.Equal(t.When) {
		return fmt.Errorf("%w %d: only counters can be updated", ErrInvalidTransaction, t.ID)
	}
	return t.Validate()
}
