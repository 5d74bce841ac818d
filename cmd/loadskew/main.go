// Package main provides the CLI entry point for loadskew, a synthetic
// load-imbalance benchmark that compares scheduling policies over
// deterministic uneven-cost workloads.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ucoruh/loadskew/bench"
	"github.com/ucoruh/loadskew/parfor"
	"github.com/ucoruh/loadskew/report"
	"github.com/ucoruh/loadskew/workload"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "loadskew",
		Short: "Scheduling-policy benchmark over synthetic uneven workloads",
		Long: `Loadskew generates a deterministic workload whose per-item cost follows a
chosen shape (uniform, hump, spike, ...), runs it under a set of scheduling
configurations, and compares wall-clock time and per-worker load imbalance.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newShapesCmd())

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		shapeName  string
		count      int
		maxCost    int
		seed       int64
		workers    []int
		policies   []string
		chunkSize  int
		warmup     int
		iterations int
		barWidth   int
		noColor    bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduling comparison benchmark",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				color.NoColor = true
			}
			return runBenchmark(cmd.Context(), logger, runConfig{
				shapeName:  shapeName,
				count:      count,
				maxCost:    maxCost,
				seed:       seed,
				workers:    workers,
				policies:   policies,
				chunkSize:  chunkSize,
				warmup:     warmup,
				iterations: iterations,
				barWidth:   barWidth,
				outputJSON: outputJSON,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&shapeName, "shape", "hump",
		"Workload shape: uniform, ascending, descending, hump, spike, random, exponential")
	flags.IntVar(&count, "count", 2000,
		"Number of work items")
	flags.IntVar(&maxCost, "max-cost", 200,
		"Maximum per-item cost")
	flags.Int64Var(&seed, "seed", 1,
		"Seed for random/exponential shapes")
	flags.IntSliceVar(&workers, "workers", nil,
		"Worker counts to test (default: NumCPU)")
	flags.StringSliceVar(&policies, "policies", []string{"static", "dynamic", "guided", "auto"},
		"Scheduling policies to test")
	flags.IntVar(&chunkSize, "chunk", 0,
		"Chunk size request (0 = policy default)")
	flags.IntVar(&warmup, "warmup", 0,
		"Warmup runs per configuration")
	flags.IntVar(&iterations, "iterations", 1,
		"Measured iterations per configuration (median kept)")
	flags.IntVar(&barWidth, "bar-width", 40,
		"Width of the per-worker bar chart")
	flags.BoolVar(&noColor, "no-color", false,
		"Disable colored output")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of a table")

	return cmd
}

func newShapesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shapes",
		Short: "List available workload shapes",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, s := range workload.Shapes() {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
		},
	}
}

type runConfig struct {
	shapeName  string
	count      int
	maxCost    int
	seed       int64
	workers    []int
	policies   []string
	chunkSize  int
	warmup     int
	iterations int
	barWidth   int
	outputJSON bool
}

func runBenchmark(ctx context.Context, logger *slog.Logger, cfg runConfig) error {
	shape, err := workload.ParseShape(cfg.shapeName)
	if err != nil {
		return err
	}

	items, err := workload.Generate(shape, cfg.count, cfg.maxCost, cfg.seed)
	if err != nil {
		return fmt.Errorf("generate workload: %w", err)
	}

	workers := cfg.workers
	if len(workers) == 0 {
		workers = []int{runtime.NumCPU()}
	}

	configs, err := buildConfigs(cfg.policies, workers, cfg.chunkSize)
	if err != nil {
		return err
	}

	logger.Info("starting benchmark",
		slog.String("shape", shape.String()),
		slog.Int("items", len(items)),
		slog.Int("max_cost", cfg.maxCost),
		slog.Int("configurations", len(configs)),
	)

	suite := &bench.Suite{
		Items:      items,
		Configs:    configs,
		Warmup:     cfg.warmup,
		Iterations: cfg.iterations,
		Logger:     logger,
	}

	total := len(configs)
	if !hasSingleWorker(configs) {
		total++ // the suite prepends an implicit serial baseline
	}

	var bar *progressbar.ProgressBar
	if !cfg.outputJSON {
		bar = makeProgressBar(total)
	}

	results, err := suite.Run(ctx, bar)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}

	if cfg.outputJSON {
		return writeJSON(os.Stdout, results)
	}

	render(os.Stdout, results, cfg.barWidth)
	return nil
}

func buildConfigs(policies []string, workers []int, chunk int) ([]bench.Config, error) {
	var configs []bench.Config
	for _, name := range policies {
		policy, err := parfor.ParsePolicy(name)
		if err != nil {
			return nil, err
		}
		for _, w := range workers {
			configs = append(configs, bench.Config{
				Policy:    policy,
				ChunkSize: chunk,
				Workers:   w,
			})
		}
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no configurations selected")
	}
	return configs, nil
}

func hasSingleWorker(configs []bench.Config) bool {
	for _, c := range configs {
		if c.Workers == 1 {
			return true
		}
	}
	return false
}

func render(w io.Writer, results []*bench.Result, barWidth int) {
	reporter := report.New()
	for _, r := range results {
		reporter.Add(r)
	}

	report.SectionHeader(w, "STRATEGY COMPARISON")
	fmt.Fprintln(w, reporter.RenderTable())

	report.SectionHeader(w, "PER-WORKER LOAD")
	for _, r := range reporter.Rank() {
		if r.Failed() {
			continue
		}
		fmt.Fprintln(w, reporter.RenderBarChart(r, barWidth))
	}

	failures := reporter.Failures()
	if len(failures) > 0 {
		report.SectionHeader(w, "FAILED CONFIGURATIONS")
		for _, r := range failures {
			report.FailureLine(w, r.Name, r.Err)
		}
		fmt.Fprintln(w)
	}

	report.SummaryLine(w, reporter.Len()-len(failures), reporter.Len())
}

type resultRow struct {
	Name             string  `json:"name"`
	ElapsedMs        float64 `json:"elapsed_ms"`
	Speedup          float64 `json:"speedup"`
	ImbalancePercent float64 `json:"imbalance_percent"`
	PerWorkerCount   []int64 `json:"per_worker_count"`
	Failed           bool    `json:"failed"`
	Error            string  `json:"error,omitempty"`
}

func writeJSON(w io.Writer, results []*bench.Result) error {
	rows := make([]resultRow, 0, len(results))
	for _, r := range results {
		row := resultRow{Name: r.Name, Failed: r.Failed()}
		if r.Failed() {
			row.Error = r.Err.Error()
		} else {
			row.ElapsedMs = float64(r.Elapsed.Microseconds()) / 1000.0
			row.Speedup = r.Speedup
			row.ImbalancePercent = report.Imbalance(r.Tally)
			row.PerWorkerCount = r.Tally.Counts
		}
		rows = append(rows, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func makeProgressBar(n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription("Testing strategies"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(os.Stderr),
	)
}
