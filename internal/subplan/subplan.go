// Package subplan cuts a proxy-crossing sub-query out of a full plan:
// when a traverse operator's source node is a proxy, the ops from
// that point downward to the plan's terminal operator are shipped to
// the remote peer, re-rooted at a fresh parameter operator
// seeded with the proxy's remote node id.
package subplan

import (
	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// remoteSeedParam is the reserved path-variable name a cut sub-plan's
// injected parameter operator is bound to.
const remoteSeedParam plan.PathVar = "REMOTE-SEED"

// Extract builds the sub-plan that should run on the peer owning
// remoteSeed: every operator reachable forward from cut (cut itself
// plus everything that transitively depends on it, all the way to the
// original plan's terminal operator) survives. cut's upstream
// dependency is replaced by a new parameter operator bound to
// remoteSeed, spliced in through a join op whose inputs are that
// parameter and cut: cut's own Deps are cleared, every kept op that
// depended on cut now depends on the join, and any Args pointer (such
// as "src-key") that named a dropped op is rewritten to the new
// parameter. cut keeps its op id. The sub-plan's terminal operator is
// wrapped in a send op, marking the boundary this plan's result
// crosses back over the wire. selfURL becomes the sub-plan's SrcURL,
// so the result ships back to the peer that cut it, not further
// downstream.
func Extract(p *plan.Plan, cut plan.OpID, remoteSeed graph.NodeID, selfURL string, htl int) (*plan.Plan, error) {
	children := map[plan.OpID][]plan.OpID{}
	for id, op := range p.Ops {
		for _, d := range op.Deps {
			children[d] = append(children[d], id)
		}
	}

	keep := map[plan.OpID]bool{cut: true}
	queue := []plan.OpID{cut}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range children[id] {
			if !keep[c] {
				keep[c] = true
				queue = append(queue, c)
			}
		}
	}

	sp := plan.New()
	seedID := plan.OpID("remote-seed")
	sp.AddOp(&plan.Op{ID: seedID, Type: plan.OpParameter, Args: map[string]any{
		"name": string(remoteSeedParam),
		"seed": string(remoteSeed),
	}})
	sp.Params[remoteSeedParam] = seedID

	joinID := plan.OpID(string(cut) + "-join")

	for id := range keep {
		op := p.Ops[id]
		clone := &plan.Op{ID: op.ID, Type: op.Type, Args: cloneArgs(op.Args)}
		clone.Deps = make([]plan.OpID, len(op.Deps))
		dropped := map[string]bool{}
		for i, d := range op.Deps {
			switch {
			case d == cut && id != cut:
				// Anything that depended on cut itself now depends on
				// the join that feeds it, so the join — not the bare
				// traverse — is what the runtime actually builds.
				clone.Deps[i] = joinID
			case keep[d]:
				clone.Deps[i] = d
			default:
				// Points outside the kept set: cut's own upstream
				// Deps always land here (nothing upstream of it
				// survived the cut), same as any other op that
				// happened to depend directly on something the cut
				// left behind.
				clone.Deps[i] = seedID
				dropped[string(d)] = true
			}
		}
		// An op's Args can also name its upstream by op id (e.g.
		// "src-key", "pt-key") rather than through Deps; any such
		// pointer at a dropped dependency is rewritten the same way.
		// PT-key references to cut's own id are never dropped — cut's
		// output is still stamped under its own stable op id whether
		// the join fed it or not.
		for k, v := range clone.Args {
			if s, ok := v.(string); ok && dropped[s] {
				clone.Args[k] = string(seedID)
			}
		}
		if id == cut {
			clone.Deps = nil
		}
		sp.AddOp(clone)
	}

	sp.AddOp(&plan.Op{ID: joinID, Type: plan.OpJoin, Deps: []plan.OpID{seedID, cut}})

	root := p.Root
	if root == cut {
		root = joinID
	}
	sendID := plan.OpID(string(cut) + "-send")
	sp.AddOp(&plan.Op{ID: sendID, Type: plan.OpSend, Deps: []plan.OpID{root}})

	for pvar, opID := range p.PBind {
		if keep[opID] {
			sp.PBind[pvar] = opID
		}
	}

	sp.Root = sendID
	sp.Filters = filterKept(p.Filters, keep)
	sp.Projection = append([]plan.ProjectItem(nil), p.Projection...)
	sp.SrcURL = selfURL
	sp.HTL = htl

	if err := sp.Validate(); err != nil {
		return nil, err
	}
	return sp, nil
}

// RemoteSeed builds the params map a caller running sp locally (no
// wire hop in between) would pass to runtime.Run; Extract already
// bakes the same value into sp itself, so this is only needed when a
// sub-plan runs in-process without ever being marshaled.
func RemoteSeed(id graph.NodeID) map[plan.PathVar]any {
	return map[plan.PathVar]any{remoteSeedParam: id}
}

func filterKept(ids []plan.OpID, keep map[plan.OpID]bool) []plan.OpID {
	var out []plan.OpID
	for _, id := range ids {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out
}

func cloneArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}
