package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/clustercheck/internal/core/cluster"
	"github.com/agenthands/clustercheck/internal/core/model"
)

// newTracker builds a tracker over groups; cluster i is groups[i] provided the
// groups are listed in order of their first member.
func newTracker(t *testing.T, groups ...[]string) (*Tracker, *cluster.Graph) {
	t.Helper()
	g, err := cluster.FromPartition(groups)
	require.NoError(t, err)
	tr := New(g)
	require.NoError(t, tr.Validate())
	return tr, g
}

func singletons(n int) [][]string {
	groups := make([][]string, n)
	for i := range groups {
		groups[i] = []string{string(rune('a' + i))}
	}
	return groups
}

func ids(v ...int) []model.ClusterID {
	out := make([]model.ClusterID, len(v))
	for i, x := range v {
		out[i] = model.ClusterID(x)
	}
	return out
}

func TestNew_InitialRecords(t *testing.T) {
	tr, _ := newTracker(t, []string{"a1", "a2"}, []string{"b1"}, []string{"c1", "c2", "c3"})

	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, ids(0, 1, 2), tr.IDs())
	assert.Equal(t, 6, tr.Potency())

	rel, err := tr.Relations(1)
	require.NoError(t, err)
	assert.Equal(t, ids(1), rel.IsSame)
	assert.Equal(t, ids(0, 2), rel.CanBe)
	assert.Empty(t, rel.CantBe)

	members, err := tr.Members(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, members)
}

func TestDeclareSame_Transitive(t *testing.T) {
	tr, _ := newTracker(t, singletons(4)...)

	require.NoError(t, tr.DeclareSame(0, 1))
	require.NoError(t, tr.DeclareSame(1, 2))
	require.NoError(t, tr.Validate())

	for _, id := range ids(0, 1, 2) {
		rel, err := tr.Relations(id)
		require.NoError(t, err)
		assert.Equal(t, ids(0, 1, 2), rel.IsSame, "cluster %d", id)
		assert.Equal(t, ids(3), rel.CanBe, "cluster %d", id)
	}
	rel, err := tr.Relations(3)
	require.NoError(t, err)
	assert.Equal(t, ids(0, 1, 2), rel.CanBe)
}

func TestDeclareSame_Symmetric(t *testing.T) {
	a, _ := newTracker(t, singletons(3)...)
	b, _ := newTracker(t, singletons(3)...)

	require.NoError(t, a.DeclareSame(0, 2))
	require.NoError(t, b.DeclareSame(2, 0))

	for _, id := range a.IDs() {
		ra, _ := a.Relations(id)
		rb, _ := b.Relations(id)
		assert.Equal(t, ra, rb)
	}
}

func TestDeclareSame_InheritsExclusions(t *testing.T) {
	tr, _ := newTracker(t, singletons(4)...)

	require.NoError(t, tr.DeclareDifferent(0, 3))
	require.NoError(t, tr.DeclareSame(0, 1))
	require.NoError(t, tr.Validate())

	rel, err := tr.Relations(1)
	require.NoError(t, err)
	assert.Equal(t, ids(3), rel.CantBe)

	// 3 must also learn it differs from 1.
	rel, err = tr.Relations(3)
	require.NoError(t, err)
	assert.Equal(t, ids(0, 1), rel.CantBe)
	assert.Equal(t, ids(2), rel.CanBe)
}

func TestDeclareDifferent_PropagatesAcrossGroups(t *testing.T) {
	tr, _ := newTracker(t, singletons(5)...)

	require.NoError(t, tr.DeclareSame(0, 1))
	require.NoError(t, tr.DeclareSame(2, 3))
	require.NoError(t, tr.DeclareDifferent(1, 3))
	require.NoError(t, tr.Validate())

	for _, id := range ids(0, 1) {
		rel, _ := tr.Relations(id)
		assert.Equal(t, ids(2, 3), rel.CantBe)
		assert.Equal(t, ids(4), rel.CanBe)
	}
	for _, id := range ids(2, 3) {
		rel, _ := tr.Relations(id)
		assert.Equal(t, ids(0, 1), rel.CantBe)
	}
}

func TestDeclare_Contradictions(t *testing.T) {
	tr, _ := newTracker(t, singletons(3)...)

	require.NoError(t, tr.DeclareSame(0, 1))
	assert.ErrorIs(t, tr.DeclareDifferent(1, 0), ErrContradiction)
	assert.ErrorIs(t, tr.DeclareDifferent(2, 2), ErrContradiction)

	require.NoError(t, tr.DeclareDifferent(0, 2))
	assert.ErrorIs(t, tr.DeclareSame(2, 1), ErrContradiction)
	require.NoError(t, tr.Validate())
}

func TestDeclare_UnknownCluster(t *testing.T) {
	tr, _ := newTracker(t, singletons(2)...)
	assert.ErrorIs(t, tr.DeclareSame(0, 9), ErrUnknownCluster)
	assert.ErrorIs(t, tr.DeclareDifferent(9, 0), ErrUnknownCluster)
	_, err := tr.SplitCluster(9, "a", "a")
	assert.ErrorIs(t, err, ErrUnknownCluster)
}

func TestPotency_NonIncreasingUnderDeclarations(t *testing.T) {
	tr, _ := newTracker(t, singletons(6)...)
	steps := []struct {
		same bool
		i, j model.ClusterID
	}{
		{true, 0, 1}, {false, 1, 2}, {true, 2, 3}, {false, 4, 5}, {true, 0, 4}, {false, 3, 5},
	}

	prev := tr.Potency()
	for _, s := range steps {
		if s.same {
			require.NoError(t, tr.DeclareSame(s.i, s.j))
		} else {
			require.NoError(t, tr.DeclareDifferent(s.i, s.j))
		}
		require.NoError(t, tr.Validate())
		assert.LessOrEqual(t, tr.Potency(), prev)
		prev = tr.Potency()
	}
}

func TestResolveEverything(t *testing.T) {
	tr, _ := newTracker(t, singletons(3)...)
	require.NoError(t, tr.DeclareSame(0, 1))
	require.NoError(t, tr.DeclareDifferent(0, 2))

	assert.Equal(t, 0, tr.Potency())
	assert.Empty(t, tr.Unresolved())
	for _, id := range tr.IDs() {
		assert.False(t, tr.StillUnresolved(id))
	}
	assert.Equal(t, [][]model.ClusterID{ids(0, 1), ids(2)}, tr.Groups())
}

func TestSplitCluster_Singleton(t *testing.T) {
	tr, g := newTracker(t, []string{"a"}, []string{"b", "c"})

	created, err := tr.SplitCluster(0, "a", "a")
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}}, g.Partition())
}

func TestSplitCluster_TwoNodes(t *testing.T) {
	tr, g := newTracker(t, []string{"a"}, []string{"b", "c", "d"}, []string{"e"})
	require.NoError(t, tr.DeclareDifferent(0, 2))
	before := map[model.ClusterID]int{}
	for _, id := range tr.IDs() {
		rel, _ := tr.Relations(id)
		before[id] = len(rel.CanBe)
	}
	potency := tr.Potency()

	created, err := tr.SplitCluster(1, "b", "d")
	require.NoError(t, err)
	assert.Equal(t, ids(3, 4), created)
	assert.Empty(t, tr.Cleanup())
	require.NoError(t, tr.Validate())

	// Every surviving record gained one candidate slot per new id.
	for id, n := range before {
		rel, _ := tr.Relations(id)
		assert.Len(t, rel.CanBe, n+2, "cluster %d", id)
	}
	assert.Greater(t, tr.Potency(), potency)

	members, _ := tr.Members(1)
	assert.Equal(t, []string{"c"}, members)
	members, _ = tr.Members(3)
	assert.Equal(t, []string{"b"}, members)

	rel, _ := tr.Relations(4)
	assert.Equal(t, ids(4), rel.IsSame)
	assert.Equal(t, ids(0, 1, 2, 3), rel.CanBe)

	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}, g.Partition())
}

func TestSplitCluster_SameImageTwice(t *testing.T) {
	tr, g := newTracker(t, []string{"a", "b", "c"})

	created, err := tr.SplitCluster(0, "b", "b")
	require.NoError(t, err)
	assert.Equal(t, ids(1), created)
	assert.Equal(t, [][]string{{"a", "c"}, {"b"}}, g.Partition())
	require.NoError(t, tr.Validate())
}

func TestSplitCluster_EmptiesClusterThenCleanup(t *testing.T) {
	tr, g := newTracker(t, []string{"a", "b"}, []string{"c"})
	require.NoError(t, tr.DeclareDifferent(0, 1))

	created, err := tr.SplitCluster(0, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, ids(2, 3), created)

	assert.Equal(t, ids(0), tr.Cleanup())
	require.NoError(t, tr.Validate())
	assert.Equal(t, ids(1, 2, 3), tr.IDs())

	rel, _ := tr.Relations(1)
	assert.Empty(t, rel.CantBe)
	assert.Equal(t, ids(2, 3), rel.CanBe)

	_, err = tr.Members(0)
	assert.ErrorIs(t, err, ErrUnknownCluster)
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, g.Partition())

	// New ids are never reused.
	created, err = tr.SplitCluster(1, "c", "c")
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestSplitCluster_NotMember(t *testing.T) {
	tr, _ := newTracker(t, []string{"a", "b"}, []string{"c"})
	_, err := tr.SplitCluster(0, "a", "c")
	assert.ErrorIs(t, err, ErrNotMember)
	members, _ := tr.Members(0)
	assert.Equal(t, []string{"a", "b"}, members)
}

func TestSplit_ReopensExhaustedTracker(t *testing.T) {
	tr, _ := newTracker(t, []string{"a", "b"}, []string{"c"})
	require.NoError(t, tr.DeclareDifferent(0, 1))
	assert.Empty(t, tr.Unresolved())

	_, err := tr.SplitCluster(0, "a", "a")
	require.NoError(t, err)
	tr.Cleanup()

	assert.Equal(t, ids(0, 1, 2), tr.Unresolved())
	require.NoError(t, tr.Validate())
}

func TestCheck_MatchesDeclarationsWithoutChangingState(t *testing.T) {
	tr, g := newTracker(t, []string{"a", "b"}, []string{"c"}, []string{"d"})
	require.NoError(t, tr.DeclareSame(0, 1))
	require.NoError(t, tr.DeclareDifferent(1, 2))
	before := map[model.ClusterID]Relations{}
	for _, id := range tr.IDs() {
		before[id], _ = tr.Relations(id)
	}

	assert.ErrorIs(t, tr.CheckSame(0, 2), ErrContradiction)
	assert.ErrorIs(t, tr.CheckSame(2, 0), ErrContradiction)
	assert.ErrorIs(t, tr.CheckDifferent(1, 0), ErrContradiction)
	assert.ErrorIs(t, tr.CheckSame(0, 9), ErrUnknownCluster)
	assert.ErrorIs(t, tr.CheckSplit(0, "a", "c"), ErrNotMember)
	assert.ErrorIs(t, tr.CheckSplit(9, "a", "a"), ErrUnknownCluster)
	assert.NoError(t, tr.CheckSame(2, 2))
	assert.NoError(t, tr.CheckDifferent(0, 2))
	assert.NoError(t, tr.CheckSplit(0, "a", "b"))
	// Singletons cannot be split, so any pair is accepted as a no-op.
	assert.NoError(t, tr.CheckSplit(1, "x", "y"))

	for id, want := range before {
		got, err := tr.Relations(id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}, {"d"}}, g.Partition())
}
