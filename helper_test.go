package inventory

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// tritanium is the item type used by tests.
const tritanium = 34

// t0 is the reference time of tests, at(h) is h hours after it.
var t0 = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func at(h float64) time.Time { return t0.Add(time.Duration(h * float64(time.Hour))) }

// B is a helper for tests to create a purchase of tritanium at 5 ISK.
func B(id, quantity int64, h float64) Transaction {
	return NewBuy(id, tritanium, decimal.NewFromInt(5), quantity, at(h))
}

// S is a helper for tests to create a sale of tritanium at 7 ISK.
func S(id, quantity int64, h float64) Transaction {
	return NewSell(id, tritanium, decimal.NewFromInt(7), quantity, at(h))
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// newTestBook creates a book holding txs.
func newTestBook(t *testing.T, txs ...Transaction) *Book {
	t.Helper()
	b := NewBook()
	if err := b.Add(txs...); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return b
}

// reconcile runs a reconciliation of tritanium and checks the book afterwards.
func reconcile(t *testing.T, b *Book) Result {
	t.Helper()
	res, err := NewReconciler(b, WithLogger(quietLogger())).Run(context.Background(), tritanium)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := Verify(b); err != nil {
		t.Fatalf("Verify() after run: %v", err)
	}
	return res
}

// matchesOf returns the matches of b indexed by key.
func matchesOf(b *Book) map[MatchKey]int64 {
	got := make(map[MatchKey]int64)
	for m := range b.Matches() {
		got[m.Key()] = m.Quantity
	}
	return got
}

// remainingOf returns the remaining counter of a transaction.
func remainingOf(t *testing.T, b *Book, id int64) int64 {
	t.Helper()
	tx, ok := b.Transaction(id)
	if !ok {
		t.Fatalf("transaction %d not found", id)
	}
	return tx.Remaining
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
