package iterquery

import (
	"context"
	"testing"

	"github.com/plasmagraph/plasmadb/internal/expr"
	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/perr"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// fakeRunner is a stub Runner: queryFunc decides what a round returns,
// given the params that round was called with.
type fakeRunner struct {
	selfURL   string
	calls     int
	params    []map[plan.PathVar]any
	queryFunc func(params map[plan.PathVar]any) []pathtuple.PT

	deliveredTo string
	delivered   []pathtuple.PT
}

func (f *fakeRunner) QueryChannel(ctx context.Context, p *plan.Plan, params map[plan.PathVar]any) (<-chan pathtuple.PT, error) {
	f.calls++
	f.params = append(f.params, params)
	rows := f.queryFunc(params)
	ch := make(chan pathtuple.PT, len(rows))
	for _, pt := range rows {
		ch <- pt
	}
	close(ch)
	return ch, nil
}

func (f *fakeRunner) DeliverRecurResult(ctx context.Context, destURL string, rows []pathtuple.PT) error {
	f.deliveredTo = destURL
	f.delivered = rows
	return nil
}

func (f *fakeRunner) SelfURL() string { return f.selfURL }

func nodePT(id graph.NodeID) pathtuple.PT {
	return pathtuple.Extend(pathtuple.Empty(), "trav", pathtuple.NodeBinding(id))
}

func recursePT(recurse bool) pathtuple.PT {
	return pathtuple.Extend(pathtuple.Empty(), "trav", pathtuple.PropBinding(
		graph.NodeID("UUID:n"),
		map[string]graph.Value{"recurse": graph.Bool(recurse)},
	))
}

func recursePredicate() *plan.Predicate {
	tree := expr.Encode(&expr.PVarProperty{PVar: "x", Property: "recurse", PVarOp: "trav"})
	return &plan.Predicate{Tree: tree}
}

func TestRunIterN(t *testing.T) {
	p := &plan.Plan{Position: "trav", IterN: 3, HTL: 10}
	r := &fakeRunner{
		queryFunc: func(params map[plan.PathVar]any) []pathtuple.PT {
			return []pathtuple.PT{nodePT(graph.NodeID("UUID:n"))}
		},
	}

	rows, err := RunIterN(context.Background(), r, p)
	if err != nil {
		t.Fatalf("RunIterN: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("RunIterN() returned %d rows, want 1", len(rows))
	}
	if r.calls != 3 {
		t.Errorf("QueryChannel called %d times, want 3", r.calls)
	}
	if r.params[0] != nil {
		t.Errorf("first round params = %v, want nil", r.params[0])
	}
	for i := 1; i < 3; i++ {
		ids, ok := r.params[i][rootIDVar].([]graph.NodeID)
		if !ok || len(ids) != 1 || ids[0] != "UUID:n" {
			t.Errorf("round %d ROOT-ID params = %v, want [UUID:n]", i, r.params[i][rootIDVar])
		}
	}
}

func TestRunIterN_HtlExhausted(t *testing.T) {
	p := &plan.Plan{Position: "trav", IterN: 5, HTL: 2}
	r := &fakeRunner{
		queryFunc: func(params map[plan.PathVar]any) []pathtuple.PT {
			return []pathtuple.PT{nodePT(graph.NodeID("UUID:n"))}
		},
	}

	_, err := RunIterN(context.Background(), r, p)
	if !perr.Is(err, perr.HtlExhausted) {
		t.Fatalf("RunIterN() error = %v, want HtlExhausted", err)
	}
}

func TestRunRecur_StopsImmediately(t *testing.T) {
	p := &plan.Plan{Position: "trav", HTL: 3, Pred: recursePredicate()}
	r := &fakeRunner{
		selfURL: "plasma://peer-a:9100",
		queryFunc: func(params map[plan.PathVar]any) []pathtuple.PT {
			return []pathtuple.PT{recursePT(false)}
		},
	}

	rows, err := RunRecur(context.Background(), r, p)
	if err != nil {
		t.Fatalf("RunRecur: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("RunRecur() returned %d rows, want 1", len(rows))
	}
	if r.deliveredTo != "" {
		t.Errorf("DeliverRecurResult called with %q, want no delivery when SrcURL is empty", r.deliveredTo)
	}
}

func TestRunRecur_RecursesOneLevel(t *testing.T) {
	p := &plan.Plan{Position: "trav", HTL: 3, Pred: recursePredicate()}
	r := &fakeRunner{
		queryFunc: func(params map[plan.PathVar]any) []pathtuple.PT {
			if params == nil {
				return []pathtuple.PT{recursePT(true)}
			}
			return []pathtuple.PT{recursePT(false)}
		},
	}

	rows, err := RunRecur(context.Background(), r, p)
	if err != nil {
		t.Fatalf("RunRecur: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("QueryChannel called %d times, want 2 (one recursion level)", r.calls)
	}
	if len(rows) != 1 {
		t.Fatalf("RunRecur() returned %d rows, want 1", len(rows))
	}
}

func TestRunRecur_DeliversToSrcURL(t *testing.T) {
	p := &plan.Plan{Position: "trav", HTL: 3, Pred: recursePredicate(), SrcURL: "plasma://peer-a:9100"}
	r := &fakeRunner{
		selfURL: "plasma://peer-b:9100",
		queryFunc: func(params map[plan.PathVar]any) []pathtuple.PT {
			return []pathtuple.PT{recursePT(false)}
		},
	}

	rows, err := RunRecur(context.Background(), r, p)
	if err != nil {
		t.Fatalf("RunRecur: %v", err)
	}
	if rows != nil {
		t.Errorf("RunRecur() = %v, want nil once the result is delivered over the wire", rows)
	}
	if r.deliveredTo != p.SrcURL {
		t.Errorf("delivered to %q, want %q", r.deliveredTo, p.SrcURL)
	}
	if len(r.delivered) != 1 {
		t.Errorf("delivered %d rows, want 1", len(r.delivered))
	}
}

func TestRunRecur_HtlExhausted(t *testing.T) {
	p := &plan.Plan{Position: "trav", HTL: 0, Pred: recursePredicate()}
	r := &fakeRunner{
		queryFunc: func(params map[plan.PathVar]any) []pathtuple.PT {
			return []pathtuple.PT{recursePT(true)}
		},
	}

	_, err := RunRecur(context.Background(), r, p)
	if !perr.Is(err, perr.HtlExhausted) {
		t.Fatalf("RunRecur() error = %v, want HtlExhausted", err)
	}
}

func TestRunRecur_NoPredicate(t *testing.T) {
	p := &plan.Plan{Position: "trav", HTL: 3}
	r := &fakeRunner{
		queryFunc: func(params map[plan.PathVar]any) []pathtuple.PT { return nil },
	}

	_, err := RunRecur(context.Background(), r, p)
	if !perr.Is(err, perr.PlanInvalid) {
		t.Fatalf("RunRecur() error = %v, want PlanInvalid", err)
	}
	if r.calls != 0 {
		t.Errorf("QueryChannel called %d times, want 0 when the predicate fails to decode", r.calls)
	}
}
