package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestScheduler(t *testing.T) {
	b := NewBook()
	var id int64
	for typeID := int64(1); typeID <= 20; typeID++ {
		id++
		buy := NewBuy(id, typeID, decimal.NewFromInt(5), 10, at(1))
		id++
		sell := NewSell(id, typeID, decimal.NewFromInt(7), 4, at(2))
		if err := b.Add(buy, sell); err != nil {
			t.Fatal(err)
		}
	}

	s := NewScheduler(context.Background(), NewReconciler(b, WithLogger(quietLogger())), 4)
	defer s.Close()
	if err := s.Trigger(b.Types()...); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	results, err := s.Wait()
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if len(results) != 20 {
		t.Fatalf("Wait() = %d results, want 20", len(results))
	}
	for i, res := range results {
		if res.TypeID != int64(i+1) || res.Matched != 4 {
			t.Errorf("Wait()[%d] = type %d matched %d, want type %d matched 4", i, res.TypeID, res.Matched, i+1)
		}
	}
	if _, n := b.Len(); n != 20 {
		t.Errorf("matches = %d, want 20", n)
	}
	if err := Verify(b); err != nil {
		t.Errorf("Verify() = %v", err)
	}

	// Results are handed out once.
	if results, _ := s.Wait(); len(results) != 0 {
		t.Errorf("second Wait() = %d results, want 0", len(results))
	}
}

func TestScheduler_Coalesce(t *testing.T) {
	b := newTestBook(t, B(1, 10, 1), S(2, 4, 2))
	s := NewScheduler(context.Background(), NewReconciler(b, WithLogger(quietLogger())), 1)
	defer s.Close()

	if err := s.Trigger(tritanium, tritanium, tritanium); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	results, err := s.Wait()
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if len(results) == 0 || len(results) > 3 {
		t.Fatalf("Wait() = %d results, want between 1 and 3", len(results))
	}
	changed := 0
	for _, res := range results {
		if res.Changed() {
			changed++
		}
	}
	if changed != 1 {
		t.Errorf("%d runs changed the book, want 1", changed)
	}
	if got := matchesOf(b)[MatchKey{1, 2}]; got != 4 {
		t.Errorf("match quantity = %d, want 4", got)
	}
}

func TestScheduler_Errors(t *testing.T) {
	s := NewScheduler(context.Background(), NewReconciler(NewBook(), WithLogger(quietLogger())), 2)
	if err := s.Trigger(1, 0); !errors.Is(err, ErrInvalidType) {
		t.Errorf("Trigger(0) error = %v, want %v", err, ErrInvalidType)
	}
	s.Close()
	s.Close()
	if err := s.Trigger(1); !errors.Is(err, ErrSchedulerClosed) {
		t.Errorf("Trigger() after Close() error = %v, want %v", err, ErrSchedulerClosed)
	}
}

func TestScheduler_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewScheduler(ctx, NewReconciler(newTestBook(t, B(1, 1, 1)), WithLogger(quietLogger())), 1)
	defer s.Close()
	if err := s.Trigger(tritanium); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want %v", err, context.Canceled)
	}
}

func TestScheduler_Shard(t *testing.T) {
	s := &Scheduler{shards: make([]chan int64, 8)}
	for id := int64(1); id < 1000; id++ {
		if a, b := s.shard(id), s.shard(id); a != b || a < 0 || a >= 8 {
			t.Fatalf("shard(%d) = %d then %d, want a stable shard in [0, 8)", id, a, b)
		}
	}
}
