//go:build postgres

// Package pgstore is an optional Postgres-backed graph.Adapter: a
// pgxpool.Pool behind a narrow struct, connection settings tuned up
// front, schema assumed present on construction. It is read-only over
// two tables (nodes, edges), matching graph.Adapter's read-only
// contract — writes to a Postgres-backed graph happen out of band, the
// same way the in-memory graphstore.Store expects PutNode to be called
// by something outside the query engine.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plasmagraph/plasmadb/internal/graph"
)

// Store is a Postgres-backed graph.Adapter over two tables:
//
//	nodes(id text primary key, properties jsonb not null)
//	edges(src text, dst text, properties jsonb not null)
type Store struct {
	pool *pgxpool.Pool
}

// New opens a connection pool against databaseURL and verifies
// connectivity. It does not create the schema — a graph's schema is
// expected to be provisioned by whatever process populates it, not by
// the query engine that only ever reads it.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse database url: %w", err)
	}
	cfg.MaxConns = 25
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: database unreachable: %w", err)
	}
	return &Store{pool: pool}, nil
}

// FindNode implements graph.Adapter.
func (s *Store) FindNode(id graph.NodeID) (*graph.Node, bool) {
	ctx := context.Background()
	var propsJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT properties FROM nodes WHERE id = $1`, string(id)).Scan(&propsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	props, err := decodeProps(propsJSON)
	if err != nil {
		return nil, false
	}

	edges, err := s.loadEdges(ctx, id)
	if err != nil {
		return nil, false
	}
	return &graph.Node{ID: id, Properties: props, Edges: edges}, true
}

// Edges implements graph.Adapter.
func (s *Store) Edges(id graph.NodeID, pred graph.EdgePredicate) (map[graph.NodeID]graph.EdgeProps, error) {
	all, err := s.loadEdges(context.Background(), id)
	if err != nil {
		return nil, err
	}
	out := make(map[graph.NodeID]graph.EdgeProps, len(all))
	for target, props := range all {
		if pred.Matches(props) {
			out[target] = props
		}
	}
	return out, nil
}

// IsProxy implements graph.Adapter.
func (s *Store) IsProxy(id graph.NodeID) bool {
	n, ok := s.FindNode(id)
	return ok && n.IsProxy()
}

// Close implements graph.Adapter.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) loadEdges(ctx context.Context, id graph.NodeID) (map[graph.NodeID]graph.EdgeProps, error) {
	rows, err := s.pool.Query(ctx, `SELECT dst, properties FROM edges WHERE src = $1`, string(id))
	if err != nil {
		return nil, fmt.Errorf("pgstore: query edges: %w", err)
	}
	defer rows.Close()

	out := make(map[graph.NodeID]graph.EdgeProps)
	for rows.Next() {
		var dst string
		var propsJSON []byte
		if err := rows.Scan(&dst, &propsJSON); err != nil {
			return nil, fmt.Errorf("pgstore: scan edge: %w", err)
		}
		props, err := decodeProps(propsJSON)
		if err != nil {
			return nil, err
		}
		edgeProps := make(graph.EdgeProps, len(props))
		for k, v := range props {
			edgeProps[k] = v
		}
		out[graph.NodeID(dst)] = edgeProps
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: iterate edges: %w", err)
	}
	return out, nil
}

func decodeProps(raw []byte) (map[string]graph.Value, error) {
	if len(raw) == 0 {
		return map[string]graph.Value{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("pgstore: decode properties: %w", err)
	}
	out := make(map[string]graph.Value, len(m))
	for k, v := range m {
		out[k] = graph.FromAny(v)
	}
	return out, nil
}

var _ graph.Adapter = (*Store)(nil)
