//go:build nng

// Command plasma runs one query against a plasma peer network and
// prints the resulting path-tuples as JSON. It builds its own local
// peer (optionally seeded with a graph dump) purely to act as the
// query's origin: traversal, proxy crossing, and result assembly all
// happen the same way they would inside a long-running plasmad.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/graphstore"
	"github.com/plasmagraph/plasmadb/internal/iterquery"
	"github.com/plasmagraph/plasmadb/internal/logging"
	"github.com/plasmagraph/plasmadb/internal/peer"
	"github.com/plasmagraph/plasmadb/internal/peer/mangos"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/plan"
	"github.com/plasmagraph/plasmadb/internal/planner"
)

func main() {
	selfURL := flag.String("self", "", "this client's own plasma://host:port, used for sub-query reply sockets")
	graphPath := flag.String("graph", "", "path to a graph dump JSON file for the local portion of the query")
	queryPath := flag.String("query", "", "path to a query spec JSON file")
	htl := flag.Int("htl", 16, "hops-to-live budget for this query")
	rootID := flag.String("root", string(graph.RootID), "starting node id (UUID:-prefixed)")
	flag.Parse()

	if *selfURL == "" || *queryPath == "" {
		log.Fatal("plasma: -self and -query are required")
	}

	spec, err := loadQuerySpec(*queryPath)
	if err != nil {
		log.Fatalf("plasma: load query: %v", err)
	}

	store := graphstore.New()
	if *graphPath != "" {
		loaded, err := graphstore.LoadDump(*graphPath)
		if err != nil {
			log.Fatalf("plasma: load graph: %v", err)
		}
		store = loaded
	}

	p, err := planner.Build(spec.toInput())
	if err != nil {
		log.Fatalf("plasma: build plan: %v", err)
	}
	p.HTL = *htl
	p.Type = spec.planType()
	p.IterN = spec.IterN
	if p.Type == plan.PlanRecurQuery {
		pred, err := spec.predicate()
		if err != nil {
			log.Fatalf("plasma: %v", err)
		}
		p.Pred = pred
	}

	root := graph.NodeID(*rootID)
	if !root.Valid() {
		log.Fatalf("plasma: bad -root: %q is not a UUID:-prefixed id", *rootID)
	}

	pr := peer.New(*selfURL, mangos.NewFactory(), store, logging.NewDefaultLogger())
	ctx := context.Background()

	var rows []pathtuple.PT
	switch p.Type {
	case plan.PlanIterNQuery, plan.PlanRecurQuery:
		// iterquery's driver re-seeds every round after the first from
		// the previous round's own results (see iterquery.rootIDs), so
		// only the very first round's seed has to come from outside —
		// baked into the parameter op the same way internal/subplan
		// bakes a proxy crossing's remote seed.
		seedOp := p.Ops[p.Params["ROOT-ID"]]
		seedOp.Args["seed"] = string(root)
		if p.Type == plan.PlanIterNQuery {
			rows, err = iterquery.RunIterN(ctx, pr, p)
		} else {
			rows, err = iterquery.RunRecur(ctx, pr, p)
		}
		if err != nil {
			log.Fatalf("plasma: %s: %v", p.Type, err)
		}
	default:
		rows, err = pr.Query(ctx, p, map[plan.PathVar]any{"ROOT-ID": root})
		if err != nil {
			log.Fatalf("plasma: query: %v", err)
		}
	}

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		log.Fatalf("plasma: encode results: %v", err)
	}
	fmt.Println(string(out))
}

