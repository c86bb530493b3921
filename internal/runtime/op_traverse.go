package runtime

import (
	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/perr"
	"github.com/plasmagraph/plasmadb/internal/plan"
	"github.com/plasmagraph/plasmadb/internal/planner"
	"github.com/plasmagraph/plasmadb/internal/subplan"
)

// buildTraverse follows every edge out of pt[src-key] matching the
// operator's edge predicate, emitting one extended PT per distinct
// target this operator has not already emitted. The dedup set tracks
// targets this operator itself has produced, not source nodes, so two
// different sources that happen to reach the same target only ever
// contribute it once.
//
// When pt[src-key] is a proxy node, the local edge set is unknown: the
// operator instead cuts a sub-plan rooted here, ships it to the proxy's
// peer, and forwards the resulting stream — merged with the inbound
// PT — onto the shared receive meta-channel.
func buildTraverse(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	out := make(chan PT, ec.bufSize)
	srcKey := pathtuple.OpID(argString(op.Args, "src-key"))
	predArgs, _ := op.Args["edge-predicate"].(map[string]any)
	pred := planner.DecodePred(predArgs)

	in := ins[0]
	ec.traverseWG.Add(1)
	ec.group.Go(func() error {
		defer ec.traverseWG.Done()
		defer close(out)

		visited := make(map[graph.NodeID]bool)
		emitted, dropped, proxies := 0, 0, 0

		for pt := range in {
			src, ok := pt.Node(srcKey)
			if !ok {
				ec.dropPT(op.ID, perr.New(perr.TypeMismatch, "traverse: src-key not bound in PT"))
				dropped++
				continue
			}

			node, ok := ec.graph.FindNode(src)
			if !ok {
				ec.dropPT(op.ID, perr.New(perr.GraphMissing, "traverse: node not found: "+string(src)))
				dropped++
				continue
			}

			if node.IsProxy() {
				if ec.openProxyCrossing(op.ID, node, pt) {
					proxies++
				} else {
					dropped++
				}
				continue
			}

			edges, err := ec.graph.Edges(src, pred)
			if err != nil {
				ec.dropPT(op.ID, err)
				dropped++
				continue
			}
			for target := range edges {
				if visited[target] {
					continue
				}
				visited[target] = true
				next := pathtuple.Extend(pt, op.ID, pathtuple.NodeBinding(target))
				if !send(ec.ctx, out, next) {
					ec.events.OnOperatorDone(OpCompletedEvent{OpID: op.ID, OpType: op.Type, Emitted: emitted, Dropped: dropped, Proxies: proxies})
					return nil
				}
				emitted++
			}
		}
		ec.events.OnOperatorDone(OpCompletedEvent{OpID: op.ID, OpType: op.Type, Emitted: emitted, Dropped: dropped, Proxies: proxies})
		return nil
	})

	return out
}

// openProxyCrossing cuts a sub-plan rooted at cut, dispatches it to the
// proxy's peer, and registers the resulting merged stream with the
// shared receive meta-channel. The proxy node's own id doubles as the
// remote node id on the far side — a proxy is a local stand-in for a
// node that is, on its owning peer, an ordinary node with that same id.
func (ec *ExecContext) openProxyCrossing(cut plan.OpID, node *graph.Node, pt PT) bool {
	if ec.plan.HTL <= 0 {
		ec.dropPT(cut, perr.New(perr.HtlExhausted, "traverse: hops-to-live exhausted at proxy crossing"))
		return false
	}

	url, _ := node.Proxy()
	sp, err := subplan.Extract(ec.plan, cut, node.ID, ec.selfURL, ec.plan.HTL-1)
	if err != nil {
		ec.dropPT(cut, err)
		return false
	}

	stream, err := ec.opener.OpenSubQuery(ec.ctx, url, sp)
	if err != nil {
		ec.dropPT(cut, err)
		return false
	}

	merged := make(chan PT, ec.bufSize)
	ec.group.Go(func() error {
		defer close(merged)
		for r := range stream {
			next := pathtuple.Merge(pt, r)
			if !send(ec.ctx, merged, next) {
				return nil
			}
		}
		return nil
	})

	select {
	case ec.remotes <- merged:
		return true
	case <-ec.ctx.Done():
		return false
	}
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
