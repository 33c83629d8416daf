package inventory

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"runtime"
	"slices"
	"sync"
)

// ErrSchedulerClosed is returned when triggering a closed Scheduler.
var ErrSchedulerClosed = errors.New("scheduler closed")

// Scheduler runs reconciliations in the background.
//
// Item types are routed to a fixed set of shards, each shard being a single
// worker: all the runs of a type happen on the same goroutine, one after the
// other. A type triggered again before its run started is only run once.
type Scheduler struct {
	ctx    context.Context
	rec    *Reconciler
	shards []chan int64

	mu      sync.Mutex
	closed  bool
	pending map[int64]bool
	results []Result
	errs    error

	inflight sync.WaitGroup
	workers  sync.WaitGroup
}

// NewScheduler starts a scheduler with n shards, or one per CPU if n <= 0.
// Runs stop being started once ctx is done.
func NewScheduler(ctx context.Context, rec *Reconciler, n int) *Scheduler {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	s := &Scheduler{
		ctx:     ctx,
		rec:     rec,
		shards:  make([]chan int64, n),
		pending: make(map[int64]bool),
	}
	for i := range s.shards {
		s.shards[i] = make(chan int64, 64)
		s.workers.Add(1)
		go s.loop(s.shards[i])
	}
	return s
}

// shard returns the index of the shard owning an item type.
func (s *Scheduler) shard(typeID int64) int {
	h := fnv.New32a()
	h.Write(binary.BigEndian.AppendUint64(nil, uint64(typeID)))
	return int(h.Sum32() % uint32(len(s.shards)))
}

// Trigger asks for the reconciliation of item types, typically after an import.
func (s *Scheduler) Trigger(typeIDs ...int64) error {
	for _, id := range typeIDs {
		if id <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidType, id)
		}
	}
	for _, id := range typeIDs {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrSchedulerClosed
		}
		if s.pending[id] {
			s.mu.Unlock()
			continue
		}
		s.pending[id] = true
		s.inflight.Add(1)
		s.mu.Unlock()

		s.shards[s.shard(id)] <- id
	}
	return nil
}

func (s *Scheduler) loop(in <-chan int64) {
	defer s.workers.Done()
	for id := range in {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()

		var (
			res Result
			err error
		)
		if err = s.ctx.Err(); err == nil {
			res, err = s.rec.Run(s.ctx, id)
		}

		s.mu.Lock()
		if err != nil {
			s.errs = errors.Join(s.errs, err)
		} else {
			s.results = append(s.results, res)
		}
		s.mu.Unlock()
		s.inflight.Done()
	}
}

// Wait blocks until every triggered run is over. It returns the results and
// errors of the runs that completed since the previous call to Wait.
func (s *Scheduler) Wait() ([]Result, error) {
	s.inflight.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	results, errs := s.results, s.errs
	s.results, s.errs = nil, nil
	slices.SortFunc(results, func(a, b Result) int { return cmp.Compare(a.TypeID, b.TypeID) })
	return results, errs
}

// Close waits for the triggered runs and stops the workers.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.inflight.Wait()
	for _, c := range s.shards {
		close(c)
	}
	s.workers.Wait()
}
