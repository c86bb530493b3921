package planner

import (
	"fmt"
	"regexp"

	"github.com/plasmagraph/plasmadb/internal/expr"
	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// idGen hands out stable, deterministic operator ids within one Build
// call — deterministic so two peers that independently plan the
// "same" query for debugging purposes get comparable plans, and so
// tests can assert on ids.
type idGen struct {
	n int
}

func (g *idGen) next(prefix string) plan.OpID {
	id := plan.OpID(fmt.Sprintf("%s-%d", prefix, g.n))
	g.n++
	return id
}

// Build lowers in into a plan DAG in a fixed sequence of steps: path
// segments, receive splice, where-clause lowering, projection, then
// tail. Every appended operator depends solely on the current root,
// then becomes the new root — the plan is a single linear chain, and an
// expression sub-tree travels inside its operator's Args rather than as
// separate operators.
func Build(in Input) (*plan.Plan, error) {
	p := plan.New()
	g := &idGen{}

	// Step 1: seed with a parameter op bound to ROOT-ID.
	root := g.next("param")
	p.AddOp(&plan.Op{ID: root, Type: plan.OpParameter, Args: map[string]any{"name": "ROOT-ID"}})
	p.Params["ROOT-ID"] = root
	p.Root = root

	// Step 2: append traverse ops per path segment.
	for _, seg := range in.Path {
		if len(seg.Preds) == 0 {
			t := g.next("traverse")
			p.AddOp(&plan.Op{ID: t, Type: plan.OpTraverse, Deps: []plan.OpID{p.Root}, Args: map[string]any{
				"src-key": string(p.Root),
			}})
			p.Root = t
		}
		for _, pred := range seg.Preds {
			t := g.next("traverse")
			p.AddOp(&plan.Op{ID: t, Type: plan.OpTraverse, Deps: []plan.OpID{p.Root}, Args: map[string]any{
				"src-key":        string(p.Root),
				"edge-predicate": encodePred(pred),
			}})
			p.Root = t
		}
		if seg.PVar != "" {
			p.PBind[seg.PVar] = p.Root
		}
	}

	// Record the traversal endpoint before receive/filter/projection
	// splice further operators in front of Root.
	p.Position = p.Root

	// Step 3: insert a receive op at the front — everything built so
	// far becomes receive's sole upstream dependency, and receive
	// becomes the new root, so any remote sub-query results merge in
	// before downstream operators see the stream.
	recv := g.next("receive")
	p.AddOp(&plan.Op{ID: recv, Type: plan.OpReceive, Deps: []plan.OpID{p.Root}, Args: map[string]any{
		"left": string(p.Root),
	}})
	p.Root = recv

	// Step 4: lower the where clause, depth-first: pvar-properties to
	// property ops, the boolean tree to expression ops, terminating in
	// a select.
	if in.Where != nil {
		selectKey, err := lowerWhere(p, g, in.Where)
		if err != nil {
			return nil, err
		}
		p.Filters = append(p.Filters, selectKey)
	}

	// Step 5: projection.
	if len(in.Projection) > 0 {
		for _, item := range in.Projection {
			if len(item.Props) == 0 {
				continue
			}
			pvarOp, ok := p.PBind[item.PVar]
			if !ok {
				return nil, fmt.Errorf("planner: projection references unbound path variable %q", item.PVar)
			}
			propOp := g.next("property")
			p.AddOp(&plan.Op{ID: propOp, Type: plan.OpProperty, Deps: []plan.OpID{p.Root}, Args: map[string]any{
				"pt-key": string(pvarOp),
				"props":  item.Props,
			}})
			p.Root = propOp
		}
		proj := g.next("project")
		p.AddOp(&plan.Op{ID: proj, Type: plan.OpProject, Deps: []plan.OpID{p.Root}, Args: map[string]any{
			"items": in.Projection,
		}})
		p.Root = proj
		p.Projection = in.Projection
	}

	// Step 6: trailing aggregate/sort/limit/choose.
	if in.Tail != nil && in.Tail.Op != "" {
		id := g.next(string(in.Tail.Op))
		args := map[string]any{}
		switch in.Tail.Op {
		case plan.OpSort:
			args["sort-key"] = string(in.Tail.SortKey)
			args["sort-prop"] = in.Tail.SortProp
			args["order"] = string(in.Tail.Order)
		case plan.OpLimit, plan.OpChoose:
			args["n"] = in.Tail.N
		}
		p.AddOp(&plan.Op{ID: id, Type: in.Tail.Op, Deps: []plan.OpID{p.Root}, Args: args})
		p.Root = id
	}

	// Step 7.
	// p.Root already holds the terminal operator id.
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func encodePred(pred EdgePredSpec) map[string]any {
	m := map[string]any{}
	if pred.Label != "" {
		m["label"] = pred.Label
	}
	if pred.Pattern != "" {
		m["pattern"] = pred.Pattern
	}
	return m
}

// DecodePred rehydrates an EdgePredSpec's wire map back into a
// graph.EdgePredicate. Shared by the runtime's traverse operator. An
// invalid pattern is dropped rather than returned as an error — a
// malformed regex on the wire degrades to "match everything" instead
// of failing the whole traversal.
func DecodePred(m map[string]any) graph.EdgePredicate {
	var pred graph.EdgePredicate
	if label, ok := m["label"].(string); ok && label != "" {
		pred.Label = label
	}
	if pat, ok := m["pattern"].(string); ok && pat != "" {
		if re, err := regexp.Compile(pat); err == nil {
			pred.Pattern = re
		}
	}
	return pred
}

// lowerWhere walks e depth-first, emitting property ops for every
// pvar-property it finds and an expression/select op for the boolean
// result. It returns the id of the final select operator.
func lowerWhere(p *plan.Plan, g *idGen, e expr.Expr) (plan.OpID, error) {
	// First, ensure every property the expression touches is loaded.
	for _, pv := range expr.CollectPVarProperties(e) {
		pvarOp, ok := p.PBind[plan.PathVar(pv.PVar)]
		if !ok {
			return "", fmt.Errorf("planner: where clause references unbound path variable %q", pv.PVar)
		}
		propOp := g.next("property")
		p.AddOp(&plan.Op{ID: propOp, Type: plan.OpProperty, Deps: []plan.OpID{p.Root}, Args: map[string]any{
			"pt-key": string(pvarOp),
			"props":  []string{pv.Property},
		}})
		p.Root = propOp
		// The property operator augments pt[pvarOp] in place, so the
		// expression reads from pvarOp's own slot, not a new one.
		pv.PVarOp = pvarOp
	}

	exprOp := g.next("expression")
	p.AddOp(&plan.Op{ID: exprOp, Type: plan.OpExpression, Deps: []plan.OpID{p.Root}, Args: map[string]any{
		"expr": expr.Encode(e),
	}})
	p.Root = exprOp

	selOp := g.next("select")
	p.AddOp(&plan.Op{ID: selOp, Type: plan.OpSelect, Deps: []plan.OpID{p.Root}, Args: map[string]any{
		"select-key": string(exprOp),
	}})
	p.Root = selOp
	return selOp, nil
}
