package inventory

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"
	"time"
)

// Book is an in-memory Store.
//
// It holds every transaction and match in memory, and can be encoded to and
// decoded from JSONL files. A Book is safe for concurrent use.
type Book struct {
	mu           sync.Mutex
	transactions map[int64]Transaction
	matches      map[MatchKey]Match
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		transactions: make(map[int64]Transaction),
		matches:      make(map[MatchKey]Match),
	}
}

// Add appends new transactions. Transactions are validated and ids must be new.
// Nothing is added if any of them is rejected.
func (b *Book) Add(txs ...Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.add(txs)
}

func (b *Book) add(txs []Transaction) error {
	seen := make(map[int64]bool, len(txs))
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, exists := b.transactions[t.ID]; exists || seen[t.ID] {
			return fmt.Errorf("transaction %d: %w", t.ID, ErrDuplicate)
		}
		seen[t.ID] = true
	}
	for _, t := range txs {
		b.transactions[t.ID] = t
	}
	return nil
}

// Import adds the transactions whose id is unknown to the book and skips the others.
// It returns the transactions actually added.
func (b *Book) Import(txs ...Transaction) ([]Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fresh := make([]Transaction, 0, len(txs))
	seen := make(map[int64]bool, len(txs))
	for _, t := range txs {
		if _, exists := b.transactions[t.ID]; exists || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		fresh = append(fresh, t)
	}
	if err := b.add(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// AddMatches records existing matches, checking that they link known
// transactions. Nothing is added if any of them is rejected.
func (b *Book) AddMatches(matches ...Match) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[MatchKey]bool, len(matches))
	for _, m := range matches {
		if _, exists := b.matches[m.Key()]; exists || seen[m.Key()] {
			return fmt.Errorf("match %s: %w", m.Key(), ErrDuplicate)
		}
		seen[m.Key()] = true
		buy, ok := b.transactions[m.BuyID]
		if !ok {
			return fmt.Errorf("match %s: buy %d: %w", m.Key(), m.BuyID, ErrNotFound)
		}
		sell, ok := b.transactions[m.SellID]
		if !ok {
			return fmt.Errorf("match %s: sell %d: %w", m.Key(), m.SellID, ErrNotFound)
		}
		if err := m.ValidateAgainst(buy, sell); err != nil {
			return err
		}
	}
	for _, m := range matches {
		b.matches[m.Key()] = m
	}
	return nil
}

// Transaction returns the transaction with this id.
func (b *Book) Transaction(id int64) (Transaction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.transactions[id]
	return t, ok
}

// Transactions returns every transaction in chronological order.
func (b *Book) Transactions() iter.Seq[Transaction] {
	b.mu.Lock()
	list := slices.SortedFunc(maps.Values(b.transactions), compareChronological)
	b.mu.Unlock()
	return slices.Values(list)
}

// Matches returns every match, ordered by sell then buy id.
func (b *Book) Matches() iter.Seq[Match] {
	b.mu.Lock()
	list := slices.SortedFunc(maps.Values(b.matches), func(x, y Match) int {
		if x.SellID != y.SellID {
			return cmp.Compare(x.SellID, y.SellID)
		}
		return cmp.Compare(x.BuyID, y.BuyID)
	})
	b.mu.Unlock()
	return slices.Values(list)
}

// Types returns the item types present in the book, in ascending order.
func (b *Book) Types() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := make(map[int64]bool)
	for _, t := range b.transactions {
		set[t.TypeID] = true
	}
	return slices.Sorted(maps.Keys(set))
}

// Len returns the number of transactions and matches.
func (b *Book) Len() (transactions, matches int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.transactions), len(b.matches)
}

// selectType returns the transactions of a type accepted by keep, in chronological order.
func (b *Book) selectType(typeID int64, keep func(Transaction) bool) []Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	var list []Transaction
	for _, t := range b.transactions {
		if t.TypeID == typeID && keep(t) {
			list = append(list, t)
		}
	}
	slices.SortFunc(list, compareChronological)
	return list
}

// TransactionsByType implements Store.
func (b *Book) TransactionsByType(_ context.Context, typeID int64) ([]Transaction, error) {
	list := b.selectType(typeID, func(Transaction) bool { return true })
	slices.Reverse(list)
	return list, nil
}

// RemainingBuys implements Store.
func (b *Book) RemainingBuys(_ context.Context, typeID int64) ([]Transaction, error) {
	return b.selectType(typeID, func(t Transaction) bool { return t.IsBuy() && t.Remaining > 0 }), nil
}

// RemainingSells implements Store.
func (b *Book) RemainingSells(_ context.Context, typeID int64) ([]Transaction, error) {
	return b.selectType(typeID, func(t Transaction) bool { return !t.IsBuy() && t.Remaining > 0 }), nil
}

// MatchesAtOrAfter implements Store.
func (b *Book) MatchesAtOrAfter(_ context.Context, typeID int64, on time.Time) ([]Match, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var list []Match
	for _, m := range b.matches {
		buy, sell := b.transactions[m.BuyID], b.transactions[m.SellID]
		if sell.TypeID != typeID {
			continue
		}
		if !sell.When.Before(on) || !buy.When.Before(on) {
			list = append(list, m)
		}
	}
	slices.SortFunc(list, func(x, y Match) int {
		sx, sy := b.transactions[x.SellID], b.transactions[y.SellID]
		return compareChronological(sy, sx)
	})
	return list, nil
}

// Atomic implements Store. The book is locked while fn runs, and fn's writes
// are applied only if it returns nil.
func (b *Book) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	tx := &bookTx{
		book:    b,
		updates: make(map[int64]Transaction),
		saved:   make(map[MatchKey]Match),
		deleted: make(map[MatchKey]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}
	maps.Copy(b.transactions, tx.updates)
	for k := range tx.deleted {
		delete(b.matches, k)
	}
	maps.Copy(b.matches, tx.saved)
	return nil
}

// bookTx stages the writes of a unit of work. The book lock is held by Atomic.
type bookTx struct {
	book    *Book
	updates map[int64]Transaction
	saved   map[MatchKey]Match
	deleted map[MatchKey]bool
}

func (tx *bookTx) Transaction(id int64) (Transaction, error) {
	if t, ok := tx.updates[id]; ok {
		return t, nil
	}
	t, ok := tx.book.transactions[id]
	if !ok {
		return Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return t, nil
}

func (tx *bookTx) UpdateTransaction(t Transaction) error {
	old, err := tx.Transaction(t.ID)
	if err != nil {
		return err
	}
	if err := CheckCounters(old, t); err != nil {
		return err
	}
	tx.updates[t.ID] = t
	return nil
}

func (tx *bookTx) Match(buyID, sellID int64) (Match, error) {
	k := MatchKey{BuyID: buyID, SellID: sellID}
	if m, ok := tx.saved[k]; ok {
		return m, nil
	}
	if m, ok := tx.book.matches[k]; ok && !tx.deleted[k] {
		return m, nil
	}
	return Match{}, fmt.Errorf("match %s: %w", k, ErrNotFound)
}

func (tx *bookTx) SaveMatch(m Match) error {
	buy, err := tx.Transaction(m.BuyID)
	if err != nil {
		return err
	}
	sell, err := tx.Transaction(m.SellID)
	if err != nil {
		return err
	}
	if err := m.ValidateAgainst(buy, sell); err != nil {
		return err
	}
	tx.saved[m.Key()] = m
	return nil
}

func (tx *bookTx) DeleteMatch(buyID, sellID int64) error {
	k := MatchKey{BuyID: buyID, SellID: sellID}
	if _, err := tx.Match(buyID, sellID); err != nil {
		return err
	}
	delete(tx.saved, k)
	if _, ok := tx.book.matches[k]; ok {
		tx.deleted[k] = true
	}
	return nil
}
