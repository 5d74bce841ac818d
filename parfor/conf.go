package parfor

import (
	"fmt"
	"runtime"

	"golang.org/x/time/rate"
)

// Policy selects how iterations are partitioned across workers.
type Policy int

const (
	// Static assigns iterations to workers up front. With a chunk size it
	// deals fixed-size chunks round-robin; without one each worker gets a
	// single contiguous block. The assignment is deterministic: the same
	// (n, workers, chunk) always maps an index to the same worker.
	Static Policy = iota

	// Dynamic hands out chunks from a shared cursor as workers become
	// free. Distribution is first-come-first-served and therefore not
	// deterministic, but idle workers are never left holding nothing
	// while others still have queued work.
	Dynamic

	// Guided hands out shrinking chunks: each grab takes roughly
	// remaining/workers iterations, decaying toward the chunk-size floor.
	// This is this engine's own decay rule; no parity with any other
	// runtime's guided schedule is promised.
	Guided

	// Auto lets the engine pick: currently Dynamic with a chunk size
	// derived from the iteration count and worker count.
	Auto
)

var policyNames = map[Policy]string{
	Static:  "static",
	Dynamic: "dynamic",
	Guided:  "guided",
	Auto:    "auto",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy maps a name like "guided" to its Policy.
func ParsePolicy(name string) (Policy, error) {
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown policy %q", name)
}

// Policies lists all supported policies in declaration order.
func Policies() []Policy {
	return []Policy{Static, Dynamic, Guided, Auto}
}

// Option is a functional option for configuring a parallel-for execution.
type Option func(*config)

type config struct {
	workers     int
	chunkSize   int
	policy      Policy
	rateLimiter *rate.Limiter
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		workers: runtime.GOMAXPROCS(0),
		policy:  Static,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithWorkers sets the number of concurrent workers.
// If not specified, defaults to runtime.GOMAXPROCS(0).
func WithWorkers(count int) Option {
	return func(cfg *config) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithPolicy sets the partitioning policy. Defaults to Static.
func WithPolicy(policy Policy) Option {
	return func(cfg *config) {
		cfg.policy = policy
	}
}

// WithChunkSize sets the number of consecutive iterations handed to a worker
// at a time. For Static it selects round-robin chunked assignment; for
// Dynamic it is the grab size (default 1); for Guided it is the floor the
// shrinking grab decays toward.
func WithChunkSize(size int) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.chunkSize = size
		}
	}
}

// WithRateLimit applies a token bucket limiter across all workers, capping
// how many iterations per second the loop executes. Useful to keep a
// benchmark from saturating a shared machine. If not specified, iterations
// run unthrottled.
//
// Example:
//
//	WithRateLimit(1000, 50) // at most 1000 iterations/sec, bursts of 50
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cfg *config) {
		if perSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}
