package runtime

import (
	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/perr"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// buildProperty ensures the listed properties of pt[pt-key] are loaded
// onto that binding, merging into whatever is already attached there —
// it never mints a new binding keyed by its own operator id, and is a
// no-op if the properties are already present.
func buildProperty(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	out := make(chan PT, ec.bufSize)
	ptKey := pathtuple.OpID(argString(op.Args, "pt-key"))
	props := stringSlice(op.Args["props"])

	in := ins[0]
	ec.group.Go(func() error {
		defer close(out)
		emitted, dropped := 0, 0
		for pt := range in {
			b, ok := pt.Get(ptKey)
			if !ok {
				ec.dropPT(op.ID, perr.New(perr.TypeMismatch, "property: pt-key not bound in PT"))
				dropped++
				continue
			}
			missing := false
			for _, name := range props {
				if _, have := b.Props[name]; !have {
					missing = true
					break
				}
			}
			if !missing {
				if !send(ec.ctx, out, pt) {
					break
				}
				emitted++
				continue
			}
			node, ok := ec.graph.FindNode(b.Node)
			if !ok {
				ec.dropPT(op.ID, perr.New(perr.GraphMissing, "property: node not found: "+string(b.Node)))
				dropped++
				continue
			}

			merged := b.Props
			needsCopy := true
			for _, name := range props {
				if merged != nil {
					if _, have := merged[name]; have {
						continue
					}
				}
				v, ok := node.GetProperty(name)
				if !ok {
					continue
				}
				if needsCopy {
					merged = copyProps(merged)
					needsCopy = false
				}
				merged[name] = v
			}

			next := pt
			if !needsCopy {
				next = pathtuple.Extend(pt, ptKey, pathtuple.Binding{Node: b.Node, Props: merged})
			}
			if !send(ec.ctx, out, next) {
				break
			}
			emitted++
		}
		ec.events.OnOperatorDone(OpCompletedEvent{OpID: op.ID, OpType: op.Type, Emitted: emitted, Dropped: dropped})
		return nil
	})

	return out
}

func copyProps(props map[string]graph.Value) map[string]graph.Value {
	out := make(map[string]graph.Value, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	return out
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}
