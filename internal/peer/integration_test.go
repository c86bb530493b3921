package peer

import (
	"context"
	"testing"
	"time"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/graphstore"
	"github.com/plasmagraph/plasmadb/internal/iterquery"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/peer/inproc"
	"github.com/plasmagraph/plasmadb/internal/plan"
	"github.com/plasmagraph/plasmadb/internal/planner"
	"github.com/stretchr/testify/require"
)

func mustID(t *testing.T, body string) graph.NodeID {
	t.Helper()
	id, err := graph.NewNodeID(body)
	require.NoError(t, err)
	return id
}

// musicGraphAt builds the same fan-out (music -> synths -> four synth
// leaves) as the local-traversal scenario, but rooted wherever the
// caller wants — either a peer's own RootID, or the id a proxy node on
// another peer points at.
func musicGraphAt(t *testing.T, store *graphstore.Store, root graph.NodeID) {
	t.Helper()
	m := mustID(t, "m")
	s := mustID(t, "s")
	bass := mustID(t, "bass")
	kick := mustID(t, "kick")
	snare := mustID(t, "snare")
	hat := mustID(t, "hat")

	store.PutNode(&graph.Node{ID: root, Edges: map[graph.NodeID]graph.EdgeProps{
		m: {"label": graph.String("music")},
	}})
	store.PutNode(&graph.Node{ID: m, Edges: map[graph.NodeID]graph.EdgeProps{
		s: {"label": graph.String("synths")},
	}})
	store.PutNode(&graph.Node{ID: s, Edges: map[graph.NodeID]graph.EdgeProps{
		bass:  {"label": graph.String("synth")},
		kick:  {"label": graph.String("synth")},
		snare: {"label": graph.String("synth")},
		hat:   {"label": graph.String("synth")},
	}})
	store.PutNode(&graph.Node{ID: bass, Properties: map[string]graph.Value{"label": graph.String("bass")}})
	store.PutNode(&graph.Node{ID: kick, Properties: map[string]graph.Value{"label": graph.String("kick")}})
	store.PutNode(&graph.Node{ID: snare, Properties: map[string]graph.Value{"label": graph.String("snare")}})
	store.PutNode(&graph.Node{ID: hat, Properties: map[string]graph.Value{"label": graph.String("hat")}})
}

// resultLabels reads the "label" property projected onto pvar out of
// each row's boxed Result binding, mirroring the shape
// internal/runtime's project operator encodes (op_project.go,
// result.go): Props["result"] -> {pvar: {node, props}}.
func resultLabels(t *testing.T, rows []pathtuple.PT, pvar plan.PathVar) []string {
	t.Helper()
	var out []string
	for _, row := range rows {
		for _, key := range row.Keys() {
			b, _ := row.Get(key)
			if b.Props == nil {
				continue
			}
			result, ok := b.Props["result"]
			if !ok || result.Kind != graph.KindMap {
				continue
			}
			entry, ok := result.Map[string(pvar)]
			if !ok || entry.Kind != graph.KindMap {
				continue
			}
			props, ok := entry.Map["props"]
			if !ok || props.Kind != graph.KindMap {
				continue
			}
			label, ok := props.Map["label"]
			if !ok {
				continue
			}
			s, _ := label.AsString()
			out = append(out, s)
		}
	}
	return out
}

func TestScenarioA_LocalPing(t *testing.T) {
	net := inproc.NewNetwork()
	store := graphstore.New()
	p := New("plasma://L:1", inproc.NewFactory(net), store, nil)
	require.NoError(t, p.Listen())
	defer p.Close()

	require.Equal(t, pingMarker, p.Ping())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	marker, err := p.CallPing(ctx, "plasma://L:1")
	require.NoError(t, err)
	require.Equal(t, pingMarker, marker)
}

func TestScenarioC_ProxyCrossing(t *testing.T) {
	net := inproc.NewNetwork()

	proxyID := mustID(t, "proxynode")

	rStore := graphstore.New()
	musicGraphAt(t, rStore, proxyID)
	rPeer := New("plasma://R:1", inproc.NewFactory(net), rStore, nil)
	require.NoError(t, rPeer.Listen())
	defer rPeer.Close()

	lStore := graphstore.New()
	netNode := mustID(t, "net")
	lStore.PutNode(&graph.Node{ID: graph.RootID, Edges: map[graph.NodeID]graph.EdgeProps{
		netNode: {"label": graph.String("net")},
	}})
	lStore.PutNode(&graph.Node{ID: netNode, Edges: map[graph.NodeID]graph.EdgeProps{
		proxyID: {"label": graph.String("peer")},
	}})
	lStore.PutNode(&graph.Node{ID: proxyID, Properties: map[string]graph.Value{
		"proxy": graph.String("plasma://R:1"),
	}})
	lPeer := New("plasma://L:1", inproc.NewFactory(net), lStore, nil)
	require.NoError(t, lPeer.Listen())
	defer lPeer.Close()

	p, err := planner.Build(planner.Input{
		Path: planner.PathExpr{
			{Preds: []planner.EdgePredSpec{{Label: "net"}}},
			{Preds: []planner.EdgePredSpec{{Label: "peer"}}},
			{Preds: []planner.EdgePredSpec{{Label: "music"}}},
			{Preds: []planner.EdgePredSpec{{Label: "synths"}}},
			{PVar: "synth", Preds: []planner.EdgePredSpec{{Label: "synth"}}},
		},
		Projection: []plan.ProjectItem{{PVar: "synth", Props: []string{"label"}}},
	})
	require.NoError(t, err)
	p.HTL = 5

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := lPeer.Query(ctx, p, map[plan.PathVar]any{"ROOT-ID": graph.RootID})
	require.NoError(t, err)

	labels := resultLabels(t, rows, "synth")
	require.ElementsMatch(t, []string{"bass", "kick", "snare", "hat"}, labels)
}

func TestScenarioD_IterN(t *testing.T) {
	store := graphstore.New()
	ids := []graph.NodeID{graph.RootID}
	for i := 0; i < 3; i++ {
		ids = append(ids, mustID(t, "hop"+string(rune('0'+i))))
	}
	for i := 0; i < 3; i++ {
		store.PutNode(&graph.Node{ID: ids[i], Edges: map[graph.NodeID]graph.EdgeProps{
			ids[i+1]: {"label": graph.String("friend")},
		}})
	}
	store.PutNode(&graph.Node{ID: ids[3]})

	p, err := planner.Build(planner.Input{
		Path: planner.PathExpr{
			{PVar: "next", Preds: []planner.EdgePredSpec{{Label: "friend"}}},
		},
	})
	require.NoError(t, err)
	p.Type = plan.PlanIterNQuery
	p.IterN = 3
	p.HTL = 5
	p.Ops[p.Params["ROOT-ID"]].Args["seed"] = string(graph.RootID)

	peerInst := New("plasma://L:1", inproc.NewFactory(inproc.NewNetwork()), store, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := iterquery.RunIterN(ctx, peerInst, p)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	id, ok := rows[0].Node(p.Position)
	require.True(t, ok)
	require.Equal(t, ids[3], id)
}
