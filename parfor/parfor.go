// Package parfor provides a bounded parallel-for primitive with pluggable
// partitioning policies. It executes a fixed iteration space [0, n) across a
// set of worker goroutines and does not return until every iteration has
// completed, giving callers full-barrier semantics: each index is delivered
// to the body exactly once, tagged with the id of the worker running it.
package parfor

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Body is invoked once per iteration. workerID identifies the worker
// executing the call and is always in [0, workers). Returning a non-nil
// error cancels the remaining iterations and fails the whole loop.
type Body func(workerID, index int) error

// For executes body for every index in [0, n) using the configured number of
// workers and partitioning policy. It blocks until all workers have exited,
// so when it returns no body invocation can still be running.
//
// A panic inside body is recovered in the owning worker and surfaced as an
// error; the loop then fails as a whole rather than reporting partial
// completion.
//
// Example:
//
//	err := parfor.For(ctx, len(items), func(worker, i int) error {
//	    process(items[i])
//	    return nil
//	}, parfor.WithWorkers(8), parfor.WithPolicy(parfor.Dynamic))
func For(ctx context.Context, n int, body Body, opts ...Option) error {
	if n < 0 {
		return fmt.Errorf("negative iteration count %d", n)
	}
	if n == 0 {
		return nil
	}

	cfg := newConfig(opts...)

	// No point spinning up more workers than iterations; worker ids stay
	// inside the configured range either way.
	workers := min(cfg.workers, n)

	policy := cfg.policy
	chunk := cfg.chunkSize
	if policy == Auto {
		policy = Dynamic
		if chunk == 0 {
			chunk = max(1, n/(workers*8))
		}
	}

	var cursor atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for id := 0; id < workers; id++ {
		id := id
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("worker %d: panic: %v", id, r)
				}
			}()

			w := &worker{
				id:     id,
				n:      n,
				nw:     workers,
				chunk:  chunk,
				body:   body,
				cfg:    cfg,
				cursor: &cursor,
			}

			switch policy {
			case Static:
				return w.runStatic(ctx)
			case Guided:
				return w.runGuided(ctx)
			default:
				return w.runDynamic(ctx)
			}
		})
	}

	return g.Wait()
}

type worker struct {
	id     int
	n      int
	nw     int
	chunk  int
	body   Body
	cfg    *config
	cursor *atomic.Int64
}

// runStatic executes this worker's precomputed share of the iteration space.
// Without a chunk size each worker owns one contiguous block; with one,
// fixed-size chunks are dealt round-robin, so chunk k belongs to worker k%nw.
func (w *worker) runStatic(ctx context.Context) error {
	if w.chunk == 0 {
		base := w.n / w.nw
		rem := w.n % w.nw

		start := w.id*base + min(w.id, rem)
		size := base
		if w.id < rem {
			size++
		}
		return w.runRange(ctx, start, start+size)
	}

	for k := w.id; k*w.chunk < w.n; k += w.nw {
		start := k * w.chunk
		end := min(start+w.chunk, w.n)
		if err := w.runRange(ctx, start, end); err != nil {
			return err
		}
	}
	return nil
}

// runDynamic pulls fixed-size chunks off the shared cursor until the
// iteration space is exhausted.
func (w *worker) runDynamic(ctx context.Context) error {
	chunk := max(1, w.chunk)

	for {
		start := int(w.cursor.Add(int64(chunk))) - chunk
		if start >= w.n {
			return nil
		}
		end := min(start+chunk, w.n)
		if err := w.runRange(ctx, start, end); err != nil {
			return err
		}
	}
}

// runGuided pulls shrinking chunks: each grab takes remaining/nw iterations,
// never less than the configured chunk floor. Early grabs are large to keep
// per-grab overhead low; late grabs are small to even out the tail.
func (w *worker) runGuided(ctx context.Context) error {
	floor := max(1, w.chunk)

	for {
		cur := w.cursor.Load()
		remaining := w.n - int(cur)
		if remaining <= 0 {
			return nil
		}

		grab := max(remaining/w.nw, floor)
		grab = min(grab, remaining)
		if !w.cursor.CompareAndSwap(cur, cur+int64(grab)) {
			continue
		}

		if err := w.runRange(ctx, int(cur), int(cur)+grab); err != nil {
			return err
		}
	}
}

func (w *worker) runRange(ctx context.Context, start, end int) error {
	// Cancellation is observed at chunk granularity; the per-item path
	// stays free of synchronization.
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := start; i < end; i++ {
		if w.cfg.rateLimiter != nil {
			if err := w.cfg.rateLimiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := w.body(w.id, i); err != nil {
			return fmt.Errorf("worker %d: index %d: %w", w.id, i, err)
		}
	}
	return nil
}
