package bench

import (
	"context"
	"errors"
	"testing"

	"github.com/ucoruh/loadskew/parfor"
	"github.com/ucoruh/loadskew/workload"
)

func mustGenerate(t *testing.T, shape workload.Shape, count, maxCost int, seed int64) []workload.Item {
	t.Helper()
	items, err := workload.Generate(shape, count, maxCost, seed)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return items
}

func TestRun_Conservation(t *testing.T) {
	items := mustGenerate(t, workload.Random, 200, 30, 7)

	for _, policy := range parfor.Policies() {
		for _, workers := range []int{1, 2, 4, 8} {
			cfg := Config{Policy: policy, Workers: workers}
			res, err := Run(context.Background(), items, cfg)
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", cfg.Label(), err)
			}

			if got := res.Tally.Total(); got != int64(len(items)) {
				t.Errorf("%s: tally total %d, want %d", cfg.Label(), got, len(items))
			}
			if len(res.Tally.Counts) != workers {
				t.Errorf("%s: tally sized %d, want %d", cfg.Label(), len(res.Tally.Counts), workers)
			}
		}
	}
}

func TestRun_CrossStrategyValuesAgree(t *testing.T) {
	items := mustGenerate(t, workload.Hump, 120, 40, 3)

	configs := []Config{
		{Policy: parfor.Static, Workers: 1},
		{Policy: parfor.Static, Workers: 4},
		{Policy: parfor.Static, ChunkSize: 2, Workers: 4},
		{Policy: parfor.Dynamic, ChunkSize: 1, Workers: 4},
		{Policy: parfor.Guided, Workers: 4},
		{Policy: parfor.Auto, Workers: 8},
	}

	results := make([]*Result, 0, len(configs))
	for _, cfg := range configs {
		res, err := Run(context.Background(), items, cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", cfg.Label(), err)
		}
		results = append(results, res)
	}

	if err := Verify(results, 1e-9); err != nil {
		t.Fatalf("cross-strategy verification failed: %v", err)
	}
}

func TestRun_SingleWorkerDegenerate(t *testing.T) {
	items := mustGenerate(t, workload.Uniform, 50, 10, 1)

	res, err := Run(context.Background(), items, Config{Policy: parfor.Static, Workers: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Tally.Counts) != 1 || res.Tally.Counts[0] != 50 {
		t.Fatalf("single-worker tally = %v, want [50]", res.Tally.Counts)
	}
}

func TestRun_UniformStaticBalanced(t *testing.T) {
	// 16 uniform items across 4 static workers must split exactly evenly.
	items := mustGenerate(t, workload.Uniform, 16, 10, 1)

	res, err := Run(context.Background(), items, Config{Policy: parfor.Static, Workers: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for w, c := range res.Tally.Counts {
		if c != 4 {
			t.Fatalf("worker %d processed %d items, want 4 (counts %v)", w, c, res.Tally.Counts)
		}
	}
}

func TestRun_DynamicConservesWithoutBalanceGuarantee(t *testing.T) {
	items := mustGenerate(t, workload.Uniform, 16, 10, 1)

	res, err := Run(context.Background(), items,
		Config{Policy: parfor.Dynamic, ChunkSize: 1, Workers: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Distribution is first-come-first-served; only conservation holds.
	if got := res.Tally.Total(); got != 16 {
		t.Fatalf("tally total %d, want 16", got)
	}
}

func TestRun_InvalidInputs(t *testing.T) {
	items := mustGenerate(t, workload.Uniform, 4, 5, 1)

	cases := []struct {
		name  string
		items []workload.Item
		cfg   Config
	}{
		{"empty items", nil, Config{Policy: parfor.Static, Workers: 2}},
		{"zero workers", items, Config{Policy: parfor.Static, Workers: 0}},
		{"bad item id", []workload.Item{{ID: 9, Cost: 1}}, Config{Policy: parfor.Static, Workers: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Run(context.Background(), tc.items, tc.cfg)
			if !errors.Is(err, workload.ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestRun_CancelledContextIsWorkerFault(t *testing.T) {
	items := mustGenerate(t, workload.Uniform, 100, 10, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, items, Config{Policy: parfor.Dynamic, Workers: 4})
	if !errors.Is(err, ErrWorkerFault) {
		t.Fatalf("expected ErrWorkerFault, got %v", err)
	}
}

func TestVerify_DetectsDivergence(t *testing.T) {
	a := &Result{Name: "a", Values: []float64{1, 2, 3}}
	b := &Result{Name: "b", Values: []float64{1, 2, 3.5}}

	if err := Verify([]*Result{a, b}, 1e-9); !errors.Is(err, ErrConsistency) {
		t.Fatalf("expected ErrConsistency, got %v", err)
	}

	// A failed result carries no values and must be skipped, not compared.
	failed := &Result{Name: "c", Err: errors.New("boom")}
	if err := Verify([]*Result{a, failed}, 1e-9); err != nil {
		t.Fatalf("failed results must not participate: %v", err)
	}
}

func TestConfig_Label(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{Name: "custom", Workers: 4}, "custom"},
		{Config{Policy: parfor.Dynamic, ChunkSize: 1, Workers: 4}, "dynamic chunk=1 w=4"},
		{Config{Policy: parfor.Static, Workers: 2}, "static w=2"},
	}

	for _, tc := range cases {
		if got := tc.cfg.Label(); got != tc.want {
			t.Errorf("Label() = %q, want %q", got, tc.want)
		}
	}
}

// Spike workloads are where dynamic scheduling earns its keep: rare heavy
// items pin one static worker while its neighbors idle. Timing and
// distribution vary by machine, so this characterizes rather than asserts.
func TestRun_SpikeCharacterization(t *testing.T) {
	items := mustGenerate(t, workload.Spike, 200, 400, 0)

	static, err := Run(context.Background(), items, Config{Policy: parfor.Static, Workers: 4})
	if err != nil {
		t.Fatalf("static: %v", err)
	}
	dynamic, err := Run(context.Background(), items,
		Config{Policy: parfor.Dynamic, ChunkSize: 1, Workers: 4})
	if err != nil {
		t.Fatalf("dynamic: %v", err)
	}

	for _, res := range []*Result{static, dynamic} {
		if got := res.Tally.Total(); got != 200 {
			t.Fatalf("%s: tally total %d, want 200", res.Name, got)
		}
	}

	t.Logf("static:  elapsed=%v counts=%v", static.Elapsed, static.Tally.Counts)
	t.Logf("dynamic: elapsed=%v counts=%v", dynamic.Elapsed, dynamic.Tally.Counts)
}
