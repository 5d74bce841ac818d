// Package bench runs a workload sequence under named scheduling
// configurations and records per-worker contribution tallies, wall-clock
// timings, and per-item values for cross-configuration verification.
package bench

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Tally is a read-only snapshot of per-worker contributions after a run.
// Index w holds the totals for worker w.
type Tally struct {
	// Counts holds how many items each worker completed.
	Counts []int64

	// Seconds holds the wall-clock time each worker spent inside the
	// per-item callback, summed over all its items.
	Seconds []float64
}

// Total returns the number of items completed across all workers.
func (t Tally) Total() int64 {
	var sum int64
	for _, c := range t.Counts {
		sum += c
	}
	return sum
}

// Max returns the largest per-worker count.
func (t Tally) Max() int64 {
	var m int64
	for _, c := range t.Counts {
		if c > m {
			m = c
		}
	}
	return m
}

// Min returns the smallest per-worker count, or 0 for an empty tally.
func (t Tally) Min() int64 {
	if len(t.Counts) == 0 {
		return 0
	}
	m := t.Counts[0]
	for _, c := range t.Counts[1:] {
		if c < m {
			m = c
		}
	}
	return m
}

// Per-worker slots are padded out to a cache line so two workers bumping
// their own counters never share a line.
const cacheLine = 64

type tallySlot struct {
	count atomic.Int64
	nanos atomic.Int64
	_     [cacheLine - 16]byte
}

// ConcurrentTally accumulates per-worker counts during a run. Each worker
// writes only to its own slot, so the hot path is a single uncontended
// atomic add; there is no lock anywhere.
//
// A ConcurrentTally is scoped to one run: allocate it when the run starts,
// snapshot it after the run's barrier, then discard it.
type ConcurrentTally struct {
	slots []tallySlot
}

// NewConcurrentTally allocates a tally sized for the given worker count.
// workers must be >= 1.
func NewConcurrentTally(workers int) *ConcurrentTally {
	if workers < 1 {
		panic(fmt.Sprintf("bench: tally worker count %d, must be >= 1", workers))
	}
	return &ConcurrentTally{slots: make([]tallySlot, workers)}
}

// Workers returns the number of worker slots.
func (c *ConcurrentTally) Workers() int {
	return len(c.slots)
}

// Increment records one completed item for the given worker. Calling it
// with a worker index outside [0, Workers()) is a programming error and
// panics immediately.
func (c *ConcurrentTally) Increment(worker int) {
	c.slot(worker).count.Add(1)
}

// RecordTime adds d to the given worker's accumulated wall-clock time.
// Same index contract as Increment.
func (c *ConcurrentTally) RecordTime(worker int, d time.Duration) {
	c.slot(worker).nanos.Add(int64(d))
}

// Snapshot returns a read-only copy of the tally. It must only be called
// once all workers have finished; concurrent mutation during a snapshot
// yields an undefined mixture of old and new values.
func (c *ConcurrentTally) Snapshot() Tally {
	t := Tally{
		Counts:  make([]int64, len(c.slots)),
		Seconds: make([]float64, len(c.slots)),
	}
	for i := range c.slots {
		t.Counts[i] = c.slots[i].count.Load()
		t.Seconds[i] = time.Duration(c.slots[i].nanos.Load()).Seconds()
	}
	return t
}

func (c *ConcurrentTally) slot(worker int) *tallySlot {
	if worker < 0 || worker >= len(c.slots) {
		panic(fmt.Sprintf("bench: worker index %d out of range [0, %d)", worker, len(c.slots)))
	}
	return &c.slots[worker]
}
