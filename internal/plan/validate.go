package plan

import (
	"fmt"

	"github.com/plasmagraph/plasmadb/internal/perr"
)

var validOpTypes = map[OpType]bool{
	OpParameter: true, OpTraverse: true, OpJoin: true, OpProperty: true,
	OpSelect: true, OpExpression: true, OpProject: true, OpAggregate: true,
	OpSort: true, OpMin: true, OpMax: true, OpAverage: true, OpCount: true,
	OpChoose: true, OpLimit: true, OpSend: true, OpReceive: true,
}

// Validate checks the conditions that make a plan PlanInvalid: a
// missing root, a nil operator, a broken dependency, an unknown
// operator type, or a dependency cycle. This
// is the only error kind that is fatal and surfaced immediately to the
// caller rather than handled per-PT.
func (p *Plan) Validate() error {
	if p.Root == "" {
		return perr.New(perr.PlanInvalid, "plan has no root operator")
	}
	if _, ok := p.Ops[p.Root]; !ok {
		return perr.New(perr.PlanInvalid, fmt.Sprintf("root operator %q not found in ops", p.Root))
	}

	for id, op := range p.Ops {
		if op == nil {
			return perr.New(perr.PlanInvalid, fmt.Sprintf("operator %q is nil", id))
		}
		if !validOpTypes[op.Type] {
			return perr.New(perr.PlanInvalid, fmt.Sprintf("operator %q has unknown type %q", id, op.Type))
		}
		for _, dep := range op.Deps {
			if _, ok := p.Ops[dep]; !ok {
				return perr.New(perr.PlanInvalid, fmt.Sprintf("operator %q depends on missing operator %q", id, dep))
			}
		}
	}

	if cyc := p.findCycle(); cyc != "" {
		return perr.New(perr.PlanInvalid, fmt.Sprintf("plan has a dependency cycle through %q", cyc))
	}

	return nil
}

// findCycle returns the id of an operator participating in a dependency
// cycle, or "" if the DAG is acyclic.
func (p *Plan) findCycle() OpID {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[OpID]int, len(p.Ops))

	var visit func(id OpID) OpID
	visit = func(id OpID) OpID {
		color[id] = gray
		op := p.Ops[id]
		for _, dep := range op.Deps {
			switch color[dep] {
			case gray:
				return dep
			case white:
				if c := visit(dep); c != "" {
					return c
				}
			}
		}
		color[id] = black
		return ""
	}

	for id := range p.Ops {
		if color[id] == white {
			if c := visit(id); c != "" {
				return c
			}
		}
	}
	return ""
}
