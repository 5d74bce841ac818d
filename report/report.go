// Package report ranks completed strategy runs and renders comparison
// tables and per-worker ASCII bar charts. It performs no I/O of its own:
// rendered strings are handed to whatever sink the caller prefers.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/ucoruh/loadskew/bench"
)

// Imbalance returns the load-imbalance percentage of a tally:
// (max - min) / max * 100 over the per-worker counts. A tally whose largest
// count is zero yields 0 rather than dividing by zero.
func Imbalance(t bench.Tally) float64 {
	maxCount := t.Max()
	if maxCount == 0 {
		return 0.0
	}
	return float64(maxCount-t.Min()) / float64(maxCount) * 100.0
}

// Reporter collects strategy results and renders comparisons. Results are
// never mutated; only the collection's order changes during ranking.
type Reporter struct {
	results []*bench.Result
}

// New returns an empty Reporter.
func New() *Reporter {
	return &Reporter{}
}

// Add appends a result. Failed results are accepted too: they show up in
// the table as FAILED instead of being silently dropped.
func (r *Reporter) Add(res *bench.Result) {
	r.results = append(r.results, res)
}

// Len returns the number of collected results.
func (r *Reporter) Len() int {
	return len(r.results)
}

// Rank returns the completed results sorted ascending by elapsed time,
// followed by any failed results. The sort is stable, so ties and failures
// keep their insertion order and repeated calls render identically.
func (r *Reporter) Rank() []*bench.Result {
	ranked := make([]*bench.Result, len(r.results))
	copy(ranked, r.results)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Failed() != ranked[j].Failed() {
			return !ranked[i].Failed()
		}
		if ranked[i].Failed() {
			return false
		}
		return ranked[i].Elapsed < ranked[j].Elapsed
	})
	return ranked
}

// Failures returns the failed results in insertion order.
func (r *Reporter) Failures() []*bench.Result {
	var failed []*bench.Result
	for _, res := range r.results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// RenderTable renders the ranked comparison as a fixed-width table: one row
// per result with elapsed milliseconds, speedup versus the single-worker
// baseline, and load-imbalance percentage. Failed configurations render a
// FAILED marker in place of the timing columns.
func (r *Reporter) RenderTable() string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.Header("Rank", "Strategy", "Elapsed", "Speedup", "Imbalance")

	rank := 0
	for _, res := range r.Rank() {
		if res.Failed() {
			_ = table.Append("-", res.Name, "FAILED", "-", "-")
			continue
		}
		rank++
		_ = table.Append(
			fmt.Sprintf("%d", rank),
			res.Name,
			FormatMillis(res.Elapsed),
			fmt.Sprintf("%.2fx", res.Speedup),
			fmt.Sprintf("%.2f%%", Imbalance(res.Tally)),
		)
	}

	_ = table.Render()
	return buf.String()
}

// RenderBarChart renders one line per worker, with a '#' bar scaled against
// the busiest worker and the literal item count at the end. width is the
// length of the longest bar.
func (r *Reporter) RenderBarChart(res *bench.Result, width int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", res.Name)
	if res.Failed() {
		fmt.Fprintf(&b, "  FAILED: %v\n", res.Err)
		return b.String()
	}

	maxCount := res.Tally.Max()
	for w, count := range res.Tally.Counts {
		filled := 0
		if maxCount > 0 {
			filled = int(float64(count) / float64(maxCount) * float64(width))
		}
		fmt.Fprintf(&b, "  worker %2d |%-*s| %s\n",
			w, width, strings.Repeat("#", filled), FormatNumber(int(count)))
	}
	return b.String()
}
