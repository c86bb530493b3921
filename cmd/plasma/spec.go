//go:build nng

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/plasmagraph/plasmadb/internal/expr"
	"github.com/plasmagraph/plasmadb/internal/plan"
	"github.com/plasmagraph/plasmadb/internal/planner"
)

// querySpec is the on-disk JSON shape a query file takes: a plain
// data description of a planner.Input plus the plan-level fields
// (type, iter_n, predicate) planner.Build itself does not set.
type querySpec struct {
	Path       []segmentSpec      `json:"path"`
	Where      json.RawMessage    `json:"where,omitempty"`
	Projection []plan.ProjectItem `json:"projection,omitempty"`
	Tail       *tailSpec          `json:"tail,omitempty"`
	Type       string             `json:"type,omitempty"`
	IterN      int                `json:"iter_n,omitempty"`
	Predicate  json.RawMessage    `json:"predicate,omitempty"`
}

type segmentSpec struct {
	PVar  string     `json:"pvar"`
	Preds []predSpec `json:"preds,omitempty"`
}

type predSpec struct {
	Label   string `json:"label,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

type tailSpec struct {
	Op       string `json:"op"`
	SortKey  string `json:"sort_key,omitempty"`
	SortProp string `json:"sort_prop,omitempty"`
	Order    string `json:"order,omitempty"`
	N        int    `json:"n,omitempty"`
}

func loadQuerySpec(path string) (*querySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec querySpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode query spec: %w", err)
	}
	return &spec, nil
}

func (s *querySpec) toInput() planner.Input {
	in := planner.Input{
		Projection: s.Projection,
	}
	for _, seg := range s.Path {
		ps := planner.PathSegment{PVar: plan.PathVar(seg.PVar)}
		for _, pr := range seg.Preds {
			ps.Preds = append(ps.Preds, planner.EdgePredSpec{Label: pr.Label, Pattern: pr.Pattern})
		}
		in.Path = append(in.Path, ps)
	}
	if len(s.Where) > 0 {
		var tree any
		if err := json.Unmarshal(s.Where, &tree); err == nil {
			if e, err := expr.Decode(tree); err == nil {
				in.Where = e
			}
		}
	}
	if s.Tail != nil {
		in.Tail = &planner.Tail{
			Op:       plan.OpType(s.Tail.Op),
			SortKey:  plan.PathVar(s.Tail.SortKey),
			SortProp: s.Tail.SortProp,
			Order:    planner.Order(s.Tail.Order),
			N:        s.Tail.N,
		}
	}
	return in
}

func (s *querySpec) planType() plan.PlanType {
	switch s.Type {
	case string(plan.PlanIterNQuery):
		return plan.PlanIterNQuery
	case string(plan.PlanRecurQuery):
		return plan.PlanRecurQuery
	default:
		return plan.PlanSimple
	}
}

// predicate decodes the recur-query continuation predicate, if any.
func (s *querySpec) predicate() (*plan.Predicate, error) {
	if len(s.Predicate) == 0 {
		return nil, nil
	}
	var tree any
	if err := json.Unmarshal(s.Predicate, &tree); err != nil {
		return nil, fmt.Errorf("decode predicate: %w", err)
	}
	return &plan.Predicate{Tree: tree}, nil
}
