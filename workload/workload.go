// Package workload generates deterministic, parametrized uneven-cost work
// sequences for scheduling benchmarks. Each generated item carries an integer
// cost that controls how much CPU work Evaluate performs for it, so the same
// sequence can be replayed under different scheduling configurations and the
// per-item results compared exactly.
package workload

import (
	"errors"
	"fmt"
	"math"
	mrand "math/rand"
)

// ErrInvalidParameter reports malformed generator inputs. It is returned
// (wrapped) before any items are produced, so a caller can fix the inputs
// and retry.
var ErrInvalidParameter = errors.New("invalid parameter")

// Item is a single unit of work. Items are created once by Generate and are
// never mutated afterwards; every concurrent worker reads them without
// synchronization.
type Item struct {
	// ID is the stable 0-based index of the item within its sequence.
	ID int

	// Cost controls how much work Evaluate performs for this item.
	// Always >= 1.
	Cost int
}

// Shape selects the cost distribution of a generated sequence.
type Shape int

const (
	// Uniform gives every item the maximum cost.
	Uniform Shape = iota

	// Ascending ramps cost linearly from 1 up to the maximum.
	Ascending

	// Descending ramps cost linearly from the maximum down to 1.
	Descending

	// Hump concentrates expensive items in the middle of the sequence:
	// the middle 50% of items rise from a quarter of the maximum cost to
	// the maximum and fall back symmetrically, everything else gets a low
	// baseline. Models real workloads whose hot region sits mid-sequence.
	Hump

	// Spike gives every 10th item the maximum cost and all others a
	// minimal baseline of 1. Models rare heavy outliers.
	Spike

	// Random draws each cost uniformly from [1, max] using the seed.
	Random

	// Exponential draws costs from a truncated exponential distribution,
	// so most items are cheap and a long tail is expensive.
	Exponential
)

var shapeNames = map[Shape]string{
	Uniform:     "uniform",
	Ascending:   "ascending",
	Descending:  "descending",
	Hump:        "hump",
	Spike:       "spike",
	Random:      "random",
	Exponential: "exponential",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// ParseShape maps a name like "hump" to its Shape. Used by CLI layers;
// the harness itself only deals in the enum.
func ParseShape(name string) (Shape, error) {
	for s, n := range shapeNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown shape %q", ErrInvalidParameter, name)
}

// Shapes lists all supported shapes in declaration order.
func Shapes() []Shape {
	return []Shape{Uniform, Ascending, Descending, Hump, Spike, Random, Exponential}
}

// Generate produces a deterministic sequence of count items whose costs
// follow the given shape, with costs in [1, maxCost]. The same arguments
// always produce the same sequence: Random and Exponential draw exclusively
// from a generator seeded with seed, never from a global entropy source.
//
// count and maxCost must both be >= 1.
func Generate(shape Shape, count, maxCost int, seed int64) ([]Item, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: count %d, must be >= 1", ErrInvalidParameter, count)
	}
	if maxCost < 1 {
		return nil, fmt.Errorf("%w: maxCost %d, must be >= 1", ErrInvalidParameter, maxCost)
	}

	items := make([]Item, count)
	rng := mrand.New(mrand.NewSource(seed))

	for i := range items {
		var cost int
		switch shape {
		case Uniform:
			cost = maxCost
		case Ascending:
			cost = rampCost(i, count, maxCost)
		case Descending:
			cost = rampCost(count-1-i, count, maxCost)
		case Hump:
			cost = humpCost(i, count, maxCost)
		case Spike:
			cost = 1
			if i%10 == 0 {
				cost = maxCost
			}
		case Random:
			cost = 1 + rng.Intn(maxCost)
		case Exponential:
			cost = exponentialCost(rng, maxCost)
		default:
			return nil, fmt.Errorf("%w: unknown shape %d", ErrInvalidParameter, int(shape))
		}

		items[i] = Item{ID: i, Cost: cost}
	}

	return items, nil
}

// rampCost interpolates linearly from 1 at i=0 to maxCost at i=count-1.
func rampCost(i, count, maxCost int) int {
	if count == 1 {
		return maxCost
	}
	cost := 1 + i*(maxCost-1)/(count-1)
	return max(1, cost)
}

// humpCost puts a symmetric triangular peak over the middle 50% of the
// sequence, rising from maxCost/4 to maxCost; the flanks get a low baseline.
func humpCost(i, count, maxCost int) int {
	baseline := max(1, maxCost/8)
	low := max(1, maxCost/4)

	lo := count / 4
	hi := count - count/4 // [lo, hi) is the middle 50%
	if i < lo || i >= hi {
		return baseline
	}

	span := hi - lo
	half := span / 2
	if half == 0 {
		return maxCost
	}

	// Distance into the ramp: rising over the first half, falling after.
	pos := i - lo
	if pos >= half {
		pos = span - 1 - pos
	}

	cost := low + pos*(maxCost-low)/half
	return max(1, min(cost, maxCost))
}

// exponentialCost samples a truncated exponential with its half-life at a
// quarter of maxCost, clamped to [1, maxCost].
func exponentialCost(rng *mrand.Rand, maxCost int) int {
	lambda := math.Ln2 / math.Max(1, float64(maxCost)/4)
	u := rng.Float64()
	cost := -math.Log(1-u) / lambda

	clamped := math.Max(1, math.Min(cost, float64(maxCost)))
	return int(clamped)
}
