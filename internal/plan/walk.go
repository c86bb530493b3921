package plan

// Walk visits every operator reachable from start by following Deps
// edges (start included), calling visit at most once per operator. The
// order is unspecified — callers that need a particular order use
// WalkPostOrder.
func (p *Plan) Walk(start OpID, visit func(*Op)) {
	seen := make(map[OpID]bool)
	var rec func(id OpID)
	rec = func(id OpID) {
		if seen[id] {
			return
		}
		seen[id] = true
		op, ok := p.Ops[id]
		if !ok {
			return
		}
		visit(op)
		for _, dep := range op.Deps {
			rec(dep)
		}
	}
	rec(start)
}

// Reachable returns the set of operator ids reachable from start
// (start included), following Deps edges.
func (p *Plan) Reachable(start OpID) map[OpID]bool {
	set := make(map[OpID]bool)
	p.Walk(start, func(op *Op) { set[op.ID] = true })
	return set
}

// Clone returns a copy of p whose op map, ops, Deps, Args maps and
// plan-level maps and slices can be mutated independently of p. Pred
// and the values stored inside Args are shared with p, not copied.
func (p *Plan) Clone() *Plan {
	out := New()
	out.Root = p.Root
	out.Filters = append([]OpID(nil), p.Filters...)
	out.Projection = append([]ProjectItem(nil), p.Projection...)
	out.SrcURL = p.SrcURL
	out.HTL = p.HTL
	out.Position = p.Position
	out.Type = p.Type
	out.IterN = p.IterN
	out.Pred = p.Pred

	for id, op := range p.Ops {
		cp := &Op{ID: op.ID, Type: op.Type, Deps: append([]OpID(nil), op.Deps...)}
		if op.Args != nil {
			cp.Args = make(map[string]any, len(op.Args))
			for k, v := range op.Args {
				cp.Args[k] = v
			}
		}
		out.Ops[id] = cp
	}
	for k, v := range p.Params {
		out.Params[k] = v
	}
	for k, v := range p.PBind {
		out.PBind[k] = v
	}
	if p.IterParams != nil {
		out.IterParams = make(map[PathVar]OpID, len(p.IterParams))
		for k, v := range p.IterParams {
			out.IterParams[k] = v
		}
	}
	return out
}
