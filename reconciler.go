package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result summarizes one reconciliation run.
type Result struct {
	TypeID     int64
	RunID      uuid.UUID
	Cutoff     time.Time // first untrustworthy timestamp, zero if none was found
	Reverted   int       // matches deleted
	Restored   int64     // written off quantity made available again
	Matches    int       // match steps persisted
	Matched    int64     // quantity matched
	WrittenOff int64     // sold quantity without any purchase before it
	Unmatched  int64     // sold quantity left waiting for purchases
}

// Invalidated reports whether the run had to undo previous work.
func (r Result) Invalidated() bool { return !r.Cutoff.IsZero() }

// Changed reports whether the run wrote anything.
func (r Result) Changed() bool {
	return r.Reverted > 0 || r.Restored > 0 || r.Matches > 0 || r.WrittenOff > 0
}

// run is one reconciliation of a single item type.
type run struct {
	typeID int64
	store  Store
	log    *slog.Logger
	result Result
}

// Reconciler keeps the matches of a Store consistent with its transactions.
//
// Runs for different item types proceed concurrently, runs for the same item
// type are serialized.
type Reconciler struct {
	store Store
	log   *slog.Logger

	mu    sync.Mutex
	locks map[int64]*typeLock
}

type typeLock struct {
	sync.Mutex
	refs int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for runs. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.log = l }
}

// NewReconciler creates a reconciler working on store.
func NewReconciler(store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store: store,
		log:   slog.Default(),
		locks: make(map[int64]*typeLock),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reconciles one item type: it must be called after new transactions of
// that type are stored, and before its matches are used for profit.
//
// Stale matches are reverted, then the stock left is matched FIFO. Every
// reversal and every match is persisted as its own unit, so a failed run
// leaves a consistent store and can simply be run again.
func (rc *Reconciler) Run(ctx context.Context, typeID int64) (Result, error) {
	if typeID <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidType, typeID)
	}
	unlock := rc.lock(typeID)
	defer unlock()

	r := &run{
		typeID: typeID,
		store:  rc.store,
		result: Result{TypeID: typeID, RunID: uuid.New()},
	}
	r.log = rc.log.With("type", typeID, "run", r.result.RunID)

	if err := r.invalidate(ctx); err != nil {
		r.log.Error("reconciliation failed", "err", err)
		return r.result, fmt.Errorf("type %d: %w", typeID, err)
	}
	if err := r.match(ctx); err != nil {
		r.log.Error("reconciliation failed", "err", err)
		return r.result, fmt.Errorf("type %d: %w", typeID, err)
	}
	r.log.Info("reconciliation done",
		"reverted", r.result.Reverted,
		"matches", r.result.Matches,
		"matched", r.result.Matched,
		"writtenOff", r.result.WrittenOff,
		"unmatched", r.result.Unmatched)
	return r.result, nil
}

// lock acquires the lock of an item type and returns its release function.
func (rc *Reconciler) lock(typeID int64) func() {
	rc.mu.Lock()
	l, ok := rc.locks[typeID]
	if !ok {
		l = &typeLock{}
		rc.locks[typeID] = l
	}
	l.refs++
	rc.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		rc.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(rc.locks, typeID)
		}
		rc.mu.Unlock()
	}
}
