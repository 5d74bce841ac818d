package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ucoruh/loadskew/parfor"
	"github.com/ucoruh/loadskew/workload"
)

// VerifyTolerance is the per-item tolerance Suite.Run uses when comparing
// values across configurations.
const VerifyTolerance = 1e-9

// settleDelay separates consecutive runs so one configuration's GC debt
// does not get billed to the next one's timer.
const settleDelay = 25 * time.Millisecond

// Suite runs a fixed item sequence through a list of configurations and
// produces one Result per configuration, baseline speedups included.
type Suite struct {
	Items   []workload.Item
	Configs []Config

	// Warmup runs per configuration, discarded.
	Warmup int

	// Iterations per configuration; the median-by-elapsed run is kept.
	// Values below 1 mean one iteration.
	Iterations int

	// Logger receives per-configuration progress. Nil silences it.
	Logger *slog.Logger
}

// Run executes every configuration in order. A configuration that fails is
// recorded as a Result with Err set and the suite moves on; only a
// cross-configuration consistency violation fails the whole suite.
//
// Speedups are computed against a single-worker baseline. If no configured
// run uses one worker, an implicit "serial" run is prepended so the column
// is always meaningful.
//
// bar, when non-nil, is advanced once per configuration.
func (s *Suite) Run(ctx context.Context, bar *progressbar.ProgressBar) ([]*Result, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	configs := s.Configs
	if !hasSerial(configs) {
		serial := Config{Name: "serial", Policy: parfor.Static, Workers: 1}
		configs = append([]Config{serial}, configs...)
	}

	results := make([]*Result, 0, len(configs))
	for _, cfg := range configs {
		if bar != nil {
			bar.Describe(fmt.Sprintf("Testing: %s", cfg.Label()))
		}
		logger.Info("running configuration",
			slog.String("strategy", cfg.Label()),
			slog.Int("workers", cfg.Workers),
			slog.Int("items", len(s.Items)),
		)

		results = append(results, s.runOne(ctx, cfg, logger))

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if baseline := findBaseline(results); baseline != nil {
		for _, r := range results {
			if !r.Failed() {
				r.Speedup = float64(baseline.Elapsed) / float64(r.Elapsed)
			}
		}
	}

	if err := Verify(results, VerifyTolerance); err != nil {
		return results, err
	}
	return results, nil
}

// runOne executes warmups plus the measured iterations for one
// configuration and keeps the median iteration.
func (s *Suite) runOne(ctx context.Context, cfg Config, logger *slog.Logger) *Result {
	for w := 0; w < s.Warmup; w++ {
		if _, err := Run(ctx, s.Items, cfg); err != nil {
			break // the measured run will report the failure
		}
		settle()
	}

	iterations := max(1, s.Iterations)
	runs := make([]*Result, 0, iterations)
	for i := 0; i < iterations; i++ {
		res, err := Run(ctx, s.Items, cfg)
		if err != nil {
			logger.Warn("configuration failed",
				slog.String("strategy", cfg.Label()),
				slog.Any("error", err),
			)
			return &Result{Name: cfg.Label(), Workers: cfg.Workers, Err: err}
		}
		runs = append(runs, res)

		if i < iterations-1 {
			settle()
		}
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Elapsed < runs[j].Elapsed
	})
	return runs[len(runs)/2]
}

func settle() {
	runtime.GC()
	time.Sleep(settleDelay)
}

func hasSerial(configs []Config) bool {
	for _, cfg := range configs {
		if cfg.Workers == 1 {
			return true
		}
	}
	return false
}

// findBaseline picks the first completed single-worker result.
func findBaseline(results []*Result) *Result {
	for _, r := range results {
		if !r.Failed() && r.Workers == 1 {
			return r
		}
	}
	return nil
}
