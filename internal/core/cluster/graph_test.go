package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraph(t *testing.T, names ...string) *Graph {
	t.Helper()
	g := New()
	for _, n := range names {
		require.NoError(t, g.Insert(n))
	}
	return g
}

// assertPartition checks that every node is in exactly one class.
func assertPartition(t *testing.T, g *Graph) {
	t.Helper()
	seen := make(map[string]int)
	for _, class := range g.Partition() {
		assert.NotEmpty(t, class)
		for _, n := range class {
			seen[n]++
		}
	}
	assert.Len(t, seen, g.Len())
	for n, count := range seen {
		assert.Equal(t, 1, count, "node %s appears in %d classes", n, count)
	}
	assert.Equal(t, len(g.Partition()), g.NumClasses())
}

func TestInsert_Duplicate(t *testing.T) {
	g := newGraph(t, "a")
	err := g.Insert("a")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
	assert.Equal(t, 1, g.Len())
}

func TestMerge_Symmetric(t *testing.T) {
	g1 := newGraph(t, "a", "b", "c", "d")
	g2 := newGraph(t, "a", "b", "c", "d")

	require.NoError(t, g1.Merge("a", "b"))
	require.NoError(t, g1.Merge("c", "a"))
	require.NoError(t, g2.Merge("b", "a"))
	require.NoError(t, g2.Merge("a", "c"))

	assert.Equal(t, g1.Partition(), g2.Partition())
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d"}}, g1.Partition())
	assertPartition(t, g1)
}

func TestMerge_Idempotent(t *testing.T) {
	g := newGraph(t, "a", "b")
	require.NoError(t, g.Merge("a", "b"))
	require.NoError(t, g.Merge("a", "b"))
	require.NoError(t, g.Merge("b", "b"))

	assert.Equal(t, [][]string{{"a", "b"}}, g.Partition())
	assert.Equal(t, 1, g.NumClasses())
}

func TestMerge_Unknown(t *testing.T) {
	g := newGraph(t, "a")
	assert.ErrorIs(t, g.Merge("a", "zz"), ErrUnknownNode)
	assert.ErrorIs(t, g.Merge("zz", "a"), ErrUnknownNode)
}

func TestMerge_LargeClasses(t *testing.T) {
	g := newGraph(t, "a1", "a2", "a3", "b1", "b2")
	require.NoError(t, g.Merge("a1", "a2"))
	require.NoError(t, g.Merge("a2", "a3"))
	require.NoError(t, g.Merge("b1", "b2"))
	require.NoError(t, g.Merge("b2", "a3"))

	for _, n := range []string{"a1", "a2", "a3", "b1", "b2"} {
		assert.Equal(t, 5, g.ClassSize(n))
	}
	assert.True(t, g.Connected("a1", "b1"))
	assertPartition(t, g)
}

func TestIsolate(t *testing.T) {
	g := newGraph(t, "a", "b", "c", "d")
	require.NoError(t, g.Merge("a", "b"))
	require.NoError(t, g.Merge("a", "c"))

	require.NoError(t, g.Isolate("b"))

	assert.Equal(t, [][]string{{"a", "c"}, {"b"}, {"d"}}, g.Partition())
	assert.True(t, g.Connected("a", "c"))
	assert.False(t, g.Connected("a", "b"))

	n, err := g.NeighborsOf("b")
	require.NoError(t, err)
	assert.Empty(t, n)
	assertPartition(t, g)
}

func TestIsolate_Singleton(t *testing.T) {
	g := newGraph(t, "a", "b")
	before := g.NumClasses()
	require.NoError(t, g.Isolate("a"))
	assert.Equal(t, before, g.NumClasses())
	assert.Equal(t, [][]string{{"a"}, {"b"}}, g.Partition())
}

func TestIsolate_ThenMergeReusesHandles(t *testing.T) {
	g := newGraph(t, "a", "b", "c")
	require.NoError(t, g.Merge("a", "b"))
	require.NoError(t, g.Merge("a", "c"))
	require.NoError(t, g.Isolate("a"))
	require.NoError(t, g.Isolate("b"))
	require.NoError(t, g.Merge("a", "b"))

	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, g.Partition())
	assertPartition(t, g)
}

func TestNeighborsOf(t *testing.T) {
	g := newGraph(t, "a", "b", "c")
	require.NoError(t, g.Merge("c", "a"))
	require.NoError(t, g.Merge("b", "a"))

	n, err := g.NeighborsOf("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, n)

	_, err = g.NeighborsOf("zz")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestFromPartition(t *testing.T) {
	g, err := FromPartition([][]string{{"x", "y"}, {"z"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x", "y"}, {"z"}}, g.Partition())

	_, err = FromPartition([][]string{{"x"}, {"x"}})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}
