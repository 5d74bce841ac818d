package bench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ucoruh/loadskew/parfor"
	"github.com/ucoruh/loadskew/workload"
)

var (
	// ErrWorkerFault wraps a worker-level failure (body error or panic)
	// surfaced by the engine during a run. The run produces no completed
	// result; a partial tally is never reported.
	ErrWorkerFault = errors.New("worker fault")

	// ErrConsistency wraps a post-run invariant violation: lost tally
	// increments, an unwritten result slot, or strategies disagreeing on
	// an item's value. These indicate a bug, not a recoverable condition.
	ErrConsistency = errors.New("consistency violation")
)

// Config names one scheduling configuration to benchmark. The policy and
// chunk size are requests forwarded to the engine; the engine owns the
// actual partitioning behavior.
type Config struct {
	// Name labels the configuration in reports. When empty, Label
	// derives one from the other fields.
	Name string

	Policy    parfor.Policy
	ChunkSize int

	// Workers is the worker count for this run. Always explicit; the
	// harness never consults ambient process-wide state, so multiple
	// configurations can run in one process without cross-contamination.
	Workers int
}

// Label returns the configuration's display name.
func (c Config) Label() string {
	if c.Name != "" {
		return c.Name
	}
	if c.ChunkSize > 0 {
		return fmt.Sprintf("%s chunk=%d w=%d", c.Policy, c.ChunkSize, c.Workers)
	}
	return fmt.Sprintf("%s w=%d", c.Policy, c.Workers)
}

// Result records one completed (or failed) strategy run.
type Result struct {
	Name    string
	Workers int

	// Elapsed is the wall-clock duration of the whole run.
	Elapsed time.Duration

	// Speedup is baseline elapsed over this run's elapsed, where the
	// baseline is the suite's single-worker run. Zero until a baseline
	// is known; Suite fills it in.
	Speedup float64

	Tally Tally

	// Values holds the per-item outputs indexed by item ID, kept so runs
	// under different configurations can be checked against each other.
	Values []float64

	// Err is non-nil for a configuration that did not complete. Failed
	// results carry no timing or tally data but stay in the collection
	// so reports can show them as FAILED rather than dropping them.
	Err error
}

// Failed reports whether this configuration completed.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Run executes every item under the given configuration and returns the
// completed result. The engine's parallel-for call provides the barrier:
// by the time the timer stops, no worker is still running.
//
// The per-item callback is the only concurrent code: it evaluates the item's
// cost, writes the value into the slot owned by the item's ID, and bumps the
// executing worker's tally slot. Item slots are disjoint per the engine's
// exactly-once delivery, so no write-write race exists.
func Run(ctx context.Context, items []workload.Item, cfg Config) (*Result, error) {
	label := cfg.Label()

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty item sequence", workload.ErrInvalidParameter)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("%w: worker count %d, must be >= 1",
			workload.ErrInvalidParameter, cfg.Workers)
	}
	// IDs must be a permutation of [0, N): the ID owns the result slot, so
	// a duplicate would mean two workers writing the same slot.
	seen := make([]bool, len(items))
	for i, item := range items {
		if item.ID < 0 || item.ID >= len(items) {
			return nil, fmt.Errorf("%w: item %d has ID %d outside [0, %d)",
				workload.ErrInvalidParameter, i, item.ID, len(items))
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("%w: duplicate item ID %d",
				workload.ErrInvalidParameter, item.ID)
		}
		seen[item.ID] = true
	}

	tally := NewConcurrentTally(cfg.Workers)

	// NaN-fill so an unwritten slot is detectable after the barrier.
	values := make([]float64, len(items))
	for i := range values {
		values[i] = math.NaN()
	}

	opts := []parfor.Option{
		parfor.WithWorkers(cfg.Workers),
		parfor.WithPolicy(cfg.Policy),
	}
	if cfg.ChunkSize > 0 {
		opts = append(opts, parfor.WithChunkSize(cfg.ChunkSize))
	}

	start := time.Now()
	err := parfor.For(ctx, len(items), func(worker, i int) error {
		item := items[i]

		itemStart := time.Now()
		values[item.ID] = workload.Evaluate(item.Cost)
		tally.RecordTime(worker, time.Since(itemStart))
		tally.Increment(worker)
		return nil
	}, opts...)
	elapsed := time.Since(start)

	if err != nil {
		return nil, fmt.Errorf("strategy %q: %w: %v", label, ErrWorkerFault, err)
	}

	snap := tally.Snapshot()
	if got := snap.Total(); got != int64(len(items)) {
		return nil, fmt.Errorf("strategy %q: %w: tally total %d, want %d",
			label, ErrConsistency, got, len(items))
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("strategy %q: %w: result slot %d never written",
				label, ErrConsistency, i)
		}
	}

	return &Result{
		Name:    label,
		Workers: cfg.Workers,
		Elapsed: elapsed,
		Tally:   snap,
		Values:  values,
	}, nil
}

// Verify checks that every completed result agrees on every item's value
// within tol. The workload's cost function is pure, so any divergence means
// an item was evaluated with the wrong cost or written to the wrong slot.
func Verify(results []*Result, tol float64) error {
	var ref *Result
	for _, r := range results {
		if r.Failed() {
			continue
		}
		if ref == nil {
			ref = r
			continue
		}
		if len(r.Values) != len(ref.Values) {
			return fmt.Errorf("%w: %q has %d values, %q has %d",
				ErrConsistency, r.Name, len(r.Values), ref.Name, len(ref.Values))
		}
		for i := range r.Values {
			if math.Abs(r.Values[i]-ref.Values[i]) > tol {
				return fmt.Errorf("%w: item %d: %q=%v vs %q=%v",
					ErrConsistency, i, ref.Name, ref.Values[i], r.Name, r.Values[i])
			}
		}
	}
	return nil
}
