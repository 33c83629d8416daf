package inventory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBook_Add(t *testing.T) {
	b := newTestBook(t, B(1, 10, 1))

	tests := []struct {
		name    string
		txs     []Transaction
		wantErr error
	}{
		{"known id", []Transaction{S(2, 1, 2), B(1, 3, 3)}, ErrDuplicate},
		{"repeated id", []Transaction{S(2, 1, 2), S(2, 1, 2)}, ErrDuplicate},
		{"zero quantity", []Transaction{S(2, 0, 2)}, ErrInvalidTransaction},
		{"zero price", []Transaction{NewSell(2, tritanium, decimal.Zero, 1, at(2))}, ErrInvalidTransaction},
		{"no type", []Transaction{NewSell(2, 0, decimal.NewFromInt(1), 1, at(2))}, ErrInvalidTransaction},
		{"remaining above quantity", []Transaction{state(S(2, 1, 2), 2, 0)}, ErrInvalidTransaction},
		{"written off purchase", []Transaction{state(B(2, 5, 2), 0, 5)}, ErrInvalidTransaction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := b.Add(tt.txs...); !errors.Is(err, tt.wantErr) {
				t.Errorf("Add() error = %v, want %v", err, tt.wantErr)
			}
			if n, _ := b.Len(); n != 1 {
				t.Errorf("Add() kept %d transactions, want 1", n)
			}
		})
	}
}

func TestBook_Import(t *testing.T) {
	b := newTestBook(t, B(1, 10, 1))
	added, err := b.Import(B(1, 10, 1), S(2, 4, 2), S(2, 4, 2))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(added) != 1 || added[0].ID != 2 {
		t.Errorf("Import() = %v, want only transaction 2", added)
	}
}

func TestBook_ImportConcurrent(t *testing.T) {
	b := NewBook()
	txs := []Transaction{B(1, 10, 1), B(2, 5, 2), S(3, 12, 3), S(4, 1, 4)}

	const importers = 8
	var wg sync.WaitGroup
	added := make([]int, importers)
	errs := make([]error, importers)
	for i := range importers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := b.Import(txs...)
			added[i], errs[i] = len(got), err
		}()
	}
	wg.Wait()

	total := 0
	for i := range importers {
		if errs[i] != nil {
			t.Errorf("Import() error = %v, want known ids skipped", errs[i])
		}
		total += added[i]
	}
	if total != len(txs) {
		t.Errorf("Import() added %d transactions in total, want %d", total, len(txs))
	}
	if n, _ := b.Len(); n != len(txs) {
		t.Errorf("Len() = %d, want %d", n, len(txs))
	}
}

func TestBook_Transactions(t *testing.T) {
	b := newTestBook(t, S(3, 1, 2), B(2, 1, 1), B(1, 1, 1))
	var got []int64
	for tx := range b.Transactions() {
		got = append(got, tx.ID)
	}
	if want := []int64{1, 2, 3}; !slices.Equal(got, want) {
		t.Errorf("Transactions() = %v, want %v", got, want)
	}

	newest, err := b.TransactionsByType(context.Background(), tritanium)
	if err != nil {
		t.Fatal(err)
	}
	got = got[:0]
	for _, tx := range newest {
		got = append(got, tx.ID)
	}
	if want := []int64{3, 2, 1}; !slices.Equal(got, want) {
		t.Errorf("TransactionsByType() = %v, want %v", got, want)
	}
}

func TestBook_MatchesAtOrAfter(t *testing.T) {
	b := newTestBook(t, B(1, 10, 1), S(2, 2, 2), S(3, 2, 3), B(4, 2, 4), S(5, 2, 5))
	reconcile(t, b) // 1->2, 1->3, 1->5

	tests := []struct {
		name string
		on   float64
		want []MatchKey
	}{
		{"everything", 0, []MatchKey{{1, 5}, {1, 3}, {1, 2}}},
		{"sales at or after", 3, []MatchKey{{1, 5}, {1, 3}}},
		{"after the last sale", 6, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := b.MatchesAtOrAfter(context.Background(), tritanium, at(tt.on))
			if err != nil {
				t.Fatal(err)
			}
			var got []MatchKey
			for _, m := range list {
				got = append(got, m.Key())
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("MatchesAtOrAfter(%v) = %v, want %v", tt.on, got, tt.want)
			}
		})
	}
}

func TestBook_Atomic(t *testing.T) {
	ctx := context.Background()

	t.Run("rollback on error", func(t *testing.T) {
		b := newTestBook(t, B(1, 10, 1), S(2, 4, 2))
		boom := errors.New("boom")
		err := b.Atomic(ctx, func(tx Tx) error {
			if err := tx.UpdateTransaction(state(B(1, 10, 1), 6, 0)); err != nil {
				return err
			}
			if err := tx.SaveMatch(Match{BuyID: 1, SellID: 2, Quantity: 4}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Atomic() error = %v, want %v", err, boom)
		}
		if got := remainingOf(t, b, 1); got != 10 {
			t.Errorf("remaining after rollback = %d, want 10", got)
		}
		if _, n := b.Len(); n != 0 {
			t.Errorf("matches after rollback = %d, want 0", n)
		}
	})

	t.Run("reads its own writes", func(t *testing.T) {
		b := newTestBook(t, B(1, 10, 1), S(2, 4, 2))
		err := b.Atomic(ctx, func(tx Tx) error {
			if err := tx.SaveMatch(Match{BuyID: 1, SellID: 2, Quantity: 1}); err != nil {
				return err
			}
			m, err := tx.Match(1, 2)
			if err != nil {
				return err
			}
			m.Quantity++
			if err := tx.SaveMatch(m); err != nil {
				return err
			}
			if err := tx.DeleteMatch(1, 2); err != nil {
				return err
			}
			if _, err := tx.Match(1, 2); !errors.Is(err, ErrNotFound) {
				t.Errorf("Match() after delete error = %v, want %v", err, ErrNotFound)
			}
			return tx.SaveMatch(Match{BuyID: 1, SellID: 2, Quantity: 3})
		})
		if err != nil {
			t.Fatalf("Atomic() error = %v", err)
		}
		if got := matchesOf(b)[MatchKey{1, 2}]; got != 3 {
			t.Errorf("match quantity = %d, want 3", got)
		}
	})

	t.Run("static fields are read-only", func(t *testing.T) {
		b := newTestBook(t, B(1, 10, 1))
		err := b.Atomic(ctx, func(tx Tx) error { return tx.UpdateTransaction(B(1, 11, 1)) })
		if !errors.Is(err, ErrInvalidTransaction) {
			t.Errorf("UpdateTransaction() error = %v, want %v", err, ErrInvalidTransaction)
		}
	})

	t.Run("invalid matches", func(t *testing.T) {
		b := newTestBook(t, B(1, 10, 1), S(2, 4, 2), B(3, 1, 1))
		for _, m := range []Match{
			{BuyID: 2, SellID: 1, Quantity: 1},
			{BuyID: 1, SellID: 3, Quantity: 1},
			{BuyID: 1, SellID: 2, Quantity: 0},
		} {
			if err := b.Atomic(ctx, func(tx Tx) error { return tx.SaveMatch(m) }); err == nil {
				t.Errorf("SaveMatch(%v) succeeded", m)
			}
		}
		err := b.Atomic(ctx, func(tx Tx) error { return tx.SaveMatch(Match{BuyID: 1, SellID: 9, Quantity: 1}) })
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("SaveMatch() of an unknown sale error = %v, want %v", err, ErrNotFound)
		}
		err = b.Atomic(ctx, func(tx Tx) error { return tx.DeleteMatch(1, 2) })
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteMatch() of an unknown match error = %v, want %v", err, ErrNotFound)
		}
	})
}
