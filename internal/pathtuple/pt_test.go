package pathtuple

import (
	"testing"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/stretchr/testify/require"
)

func TestExtendDoesNotMutateOriginal(t *testing.T) {
	base := Empty()
	extended := Extend(base, "t1", NodeBinding(graph.RootID))

	_, ok := base.Get("t1")
	require.False(t, ok, "base PT must be unaffected by Extend")

	node, ok := extended.Get("t1")
	require.True(t, ok)
	require.Equal(t, graph.RootID, node.Node)
}

func TestMergeRightWins(t *testing.T) {
	left := Extend(Empty(), "t1", NodeBinding(graph.RootID))
	right := Extend(Empty(), "t1", NodeBinding(graph.MetaID))

	merged := Merge(left, right)
	node, ok := merged.Get("t1")
	require.True(t, ok)
	require.Equal(t, graph.MetaID, node.Node, "right-hand binding should win on conflict")
}

func TestMergeUnion(t *testing.T) {
	left := Extend(Empty(), "t1", NodeBinding(graph.RootID))
	right := Extend(Empty(), "t2", NodeBinding(graph.MetaID))

	merged := Merge(left, right)
	require.Len(t, merged.Keys(), 2)
}
