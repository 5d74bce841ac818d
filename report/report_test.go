package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ucoruh/loadskew/bench"
)

func completedResult(name string, elapsed time.Duration, counts []int64) *bench.Result {
	return &bench.Result{
		Name:    name,
		Workers: len(counts),
		Elapsed: elapsed,
		Speedup: 1.0,
		Tally:   bench.Tally{Counts: counts},
	}
}

func TestImbalance_Bounds(t *testing.T) {
	cases := []struct {
		name   string
		counts []int64
		want   float64
	}{
		{"perfectly even", []int64{4, 4, 4, 4}, 0.0},
		{"one idle worker", []int64{10, 10, 10, 0}, 100.0},
		{"mild skew", []int64{10, 5, 10, 10}, 50.0},
		{"single worker", []int64{16}, 0.0},
		{"all zero", []int64{0, 0}, 0.0},
		{"empty", nil, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Imbalance(bench.Tally{Counts: tc.counts})
			if got != tc.want {
				t.Fatalf("Imbalance(%v) = %v, want %v", tc.counts, got, tc.want)
			}
			if got < 0 || got > 100 {
				t.Fatalf("imbalance %v outside [0, 100]", got)
			}
		})
	}
}

func TestImbalance_ZeroOnlyWhenEven(t *testing.T) {
	uneven := Imbalance(bench.Tally{Counts: []int64{5, 4, 5, 5}})
	if uneven == 0 {
		t.Fatal("uneven counts must not report zero imbalance")
	}
}

func TestRank_SortsByElapsedStable(t *testing.T) {
	r := New()
	r.Add(completedResult("slow", 30*time.Millisecond, []int64{5, 5}))
	r.Add(completedResult("fast-a", 10*time.Millisecond, []int64{5, 5}))
	r.Add(completedResult("fast-b", 10*time.Millisecond, []int64{5, 5}))

	ranked := r.Rank()
	wantOrder := []string{"fast-a", "fast-b", "slow"}
	for i, want := range wantOrder {
		if ranked[i].Name != want {
			t.Fatalf("rank %d = %q, want %q", i, ranked[i].Name, want)
		}
	}

	// Repeated calls must return the identical order.
	again := r.Rank()
	for i := range ranked {
		if ranked[i] != again[i] {
			t.Fatalf("ranking changed between calls at index %d", i)
		}
	}
}

func TestRank_FailedResultsLast(t *testing.T) {
	r := New()
	r.Add(&bench.Result{Name: "broken", Err: errors.New("worker fault")})
	r.Add(completedResult("ok", 5*time.Millisecond, []int64{5}))

	ranked := r.Rank()
	if ranked[0].Name != "ok" || ranked[1].Name != "broken" {
		t.Fatalf("expected completed results first, got %q then %q",
			ranked[0].Name, ranked[1].Name)
	}
}

func TestRenderTable_Columns(t *testing.T) {
	r := New()
	res := completedResult("dynamic chunk=1 w=4", 12*time.Millisecond, []int64{4, 4, 4, 4})
	res.Speedup = 3.5
	r.Add(res)

	table := r.RenderTable()
	for _, want := range []string{"dynamic chunk=1 w=4", "12.00 ms", "3.50x", "0.00%"} {
		if !strings.Contains(table, want) {
			t.Errorf("table missing %q:\n%s", want, table)
		}
	}
}

func TestRenderTable_FailedRow(t *testing.T) {
	r := New()
	r.Add(completedResult("ok", 5*time.Millisecond, []int64{5}))
	r.Add(&bench.Result{Name: "broken", Err: errors.New("worker fault")})

	table := r.RenderTable()
	if !strings.Contains(table, "FAILED") {
		t.Fatalf("failed configuration not visible in table:\n%s", table)
	}
	if !strings.Contains(table, "broken") {
		t.Fatalf("failed configuration name missing from table:\n%s", table)
	}
}

func TestRenderBarChart_Scaling(t *testing.T) {
	r := New()
	res := completedResult("static w=3", 10*time.Millisecond, []int64{10, 5, 0})

	chart := r.RenderBarChart(res, 20)
	lines := strings.Split(strings.TrimRight(chart, "\n"), "\n")
	if len(lines) != 4 { // name + one line per worker
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), chart)
	}

	if n := strings.Count(lines[1], "#"); n != 20 {
		t.Errorf("busiest worker bar has %d '#', want 20", n)
	}
	if n := strings.Count(lines[2], "#"); n != 10 {
		t.Errorf("half-loaded worker bar has %d '#', want 10", n)
	}
	if n := strings.Count(lines[3], "#"); n != 0 {
		t.Errorf("idle worker bar has %d '#', want 0", n)
	}
	if !strings.Contains(lines[1], "10") {
		t.Errorf("literal count missing from bar line: %q", lines[1])
	}
}

func TestRenderBarChart_FailedResult(t *testing.T) {
	r := New()
	chart := r.RenderBarChart(&bench.Result{Name: "broken", Err: errors.New("boom")}, 20)
	if !strings.Contains(chart, "FAILED") {
		t.Fatalf("expected FAILED marker, got:\n%s", chart)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[int]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		1234567: "1,234,567",
		-4200:   "-4,200",
	}
	for n, want := range cases {
		if got := FormatNumber(n); got != want {
			t.Errorf("FormatNumber(%d) = %q, want %q", n, got, want)
		}
	}
}
