package sqlstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const tritanium = 34

var t0 = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func at(h float64) time.Time { return t0.Add(time.Duration(h * float64(time.Hour))) }

func buy(id, quantity int64, h float64) inventory.Transaction {
	return inventory.NewBuy(id, tritanium, decimal.RequireFromString("5.25"), quantity, at(h))
}

func sell(id, quantity int64, h float64) inventory.Transaction {
	return inventory.NewSell(id, tritanium, decimal.NewFromInt(7), quantity, at(h))
}

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func reconcile(t *testing.T, s *Store) inventory.Result {
	t.Helper()
	rec := inventory.NewReconciler(s, inventory.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	res, err := rec.Run(context.Background(), tritanium)
	require.NoError(t, err)
	return res
}

func matchesOf(t *testing.T, s *Store) map[inventory.MatchKey]int64 {
	t.Helper()
	b, err := s.Book(context.Background())
	require.NoError(t, err)
	require.NoError(t, inventory.Verify(b))
	got := make(map[inventory.MatchKey]int64)
	for m := range b.Matches() {
		got[m.Key()] = m.Quantity
	}
	return got
}

func TestStore_Add(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	require.NoError(t, s.Add(ctx, buy(1, 10, 1), sell(2, 4, 2)))
	require.ErrorIs(t, s.Add(ctx, sell(3, 1, 3), buy(1, 10, 1)), inventory.ErrDuplicate)
	require.ErrorIs(t, s.Add(ctx, sell(3, 0, 3)), inventory.ErrInvalidTransaction)

	added, err := s.Import(ctx, buy(1, 10, 1), sell(3, 1, 3), sell(3, 1, 3))
	require.NoError(t, err)
	require.Len(t, added, 1)
	require.Equal(t, int64(3), added[0].ID)

	types, err := s.Types(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{tritanium}, types)

	newest, err := s.TransactionsByType(ctx, tritanium)
	require.NoError(t, err)
	require.Len(t, newest, 3)
	require.Equal(t, int64(3), newest[0].ID)
	require.True(t, newest[2].IsBuy())
	require.True(t, newest[2].Price.Equal(decimal.RequireFromString("-5.25")))
	require.True(t, newest[2].When.Equal(at(1)))
}

func TestStore_ImportLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("imports more transactions than SQLite binds variables")
	}
	ctx := context.Background()
	s := openTest(t)

	// More ids than SQLite accepts as bound variables in one statement.
	const n = 33000
	txs := make([]inventory.Transaction, 0, n)
	for i := range int64(n) {
		txs = append(txs, buy(i+1, 1, float64(i)/60))
	}
	added, err := s.Import(ctx, txs...)
	require.NoError(t, err)
	require.Len(t, added, n)

	added, err = s.Import(ctx, txs...)
	require.NoError(t, err)
	require.Empty(t, added)
	require.ErrorIs(t, s.Add(ctx, txs[n-1]), inventory.ErrDuplicate)
}

func TestStore_ImportChunks(t *testing.T) {
	defer func(size int) { batchSize = size }(batchSize)
	batchSize = 2

	ctx := context.Background()
	s := openTest(t)
	require.NoError(t, s.Add(ctx, buy(2, 1, 1), buy(5, 1, 2)))

	added, err := s.Import(ctx, buy(1, 1, 0), buy(2, 1, 1), buy(3, 1, 3), buy(4, 1, 4), buy(5, 1, 2))
	require.NoError(t, err)
	var ids []int64
	for _, tx := range added {
		ids = append(ids, tx.ID)
	}
	require.Equal(t, []int64{1, 3, 4}, ids)

	require.ErrorIs(t, s.Add(ctx, buy(6, 1, 5), buy(7, 1, 6), buy(5, 1, 2)), inventory.ErrDuplicate)
	newest, err := s.TransactionsByType(ctx, tritanium)
	require.NoError(t, err)
	require.Len(t, newest, 5)
}

func TestStore_Reconcile(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	require.NoError(t, s.Add(ctx, buy(1, 10, 1), buy(2, 5, 2), sell(3, 12, 3)))
	reconcile(t, s)
	require.Equal(t, map[inventory.MatchKey]int64{
		{BuyID: 1, SellID: 3}: 10,
		{BuyID: 2, SellID: 3}: 2,
	}, matchesOf(t, s))

	// A purchase older than everything reverts and redoes the matches.
	require.NoError(t, s.Add(ctx, buy(4, 3, 0.5)))
	res := reconcile(t, s)
	require.True(t, res.Cutoff.Equal(at(0.5)))
	require.Equal(t, 2, res.Reverted)
	require.Equal(t, map[inventory.MatchKey]int64{
		{BuyID: 4, SellID: 3}: 3,
		{BuyID: 1, SellID: 3}: 9,
	}, matchesOf(t, s))

	again := reconcile(t, s)
	require.False(t, again.Changed())

	left, err := s.RemainingBuys(ctx, tritanium)
	require.NoError(t, err)
	require.Len(t, left, 2)
	require.Equal(t, []int64{1, 2}, []int64{left[0].ID, left[1].ID})
	require.Equal(t, int64(1), left[0].Remaining)
}

func TestStore_WriteOff(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	require.NoError(t, s.Add(ctx, sell(1, 4, 1), buy(2, 10, 2)))
	res := reconcile(t, s)
	require.Equal(t, int64(4), res.WrittenOff)

	require.NoError(t, s.Add(ctx, buy(3, 5, 0.5)))
	res = reconcile(t, s)
	require.Equal(t, int64(4), res.Restored)
	require.Equal(t, map[inventory.MatchKey]int64{{BuyID: 3, SellID: 1}: 4}, matchesOf(t, s))
}

func TestStore_Atomic(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	require.NoError(t, s.Add(ctx, buy(1, 10, 1), sell(2, 4, 2)))

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx inventory.Tx) error {
		b, err := tx.Transaction(1)
		if err != nil {
			return err
		}
		b.Remaining = 6
		if err := tx.UpdateTransaction(b); err != nil {
			return err
		}
		if err := tx.SaveMatch(inventory.Match{BuyID: 1, SellID: 2, Quantity: 4}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Empty(t, matchesOf(t, s))

	// Saving an existing match replaces its quantity.
	for _, q := range []int64{1, 3} {
		require.NoError(t, s.Atomic(ctx, func(tx inventory.Tx) error {
			return tx.SaveMatch(inventory.Match{BuyID: 1, SellID: 2, Quantity: q})
		}))
	}
	err = s.Atomic(ctx, func(tx inventory.Tx) error {
		m, err := tx.Match(1, 2)
		if err != nil {
			return err
		}
		require.Equal(t, int64(3), m.Quantity)
		return tx.DeleteMatch(1, 2)
	})
	require.NoError(t, err)

	err = s.Atomic(ctx, func(tx inventory.Tx) error { return tx.DeleteMatch(1, 2) })
	require.ErrorIs(t, err, inventory.ErrNotFound)
	err = s.Atomic(ctx, func(tx inventory.Tx) error { return tx.SaveMatch(inventory.Match{BuyID: 2, SellID: 1, Quantity: 1}) })
	require.Error(t, err)
	err = s.Atomic(ctx, func(tx inventory.Tx) error { return tx.UpdateTransaction(buy(1, 11, 1)) })
	require.ErrorIs(t, err, inventory.ErrInvalidTransaction)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = s.Atomic(cancelled, func(tx inventory.Tx) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
