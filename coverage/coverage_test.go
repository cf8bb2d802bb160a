package coverage

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/linecover/algorithm/graph"
)

func randomEdges(r *rand.Rand, n int) []graph.Edge {
	edges := make([]graph.Edge, 0, n-1)
	for i := 1; i < n; i++ {
		edges = append(edges, graph.Edge{U: r.IntN(i), V: i})
	}
	return edges
}

func chainEdges(n int) []graph.Edge {
	edges := make([]graph.Edge, 0, n-1)
	for i := 1; i < n; i++ {
		edges = append(edges, graph.Edge{U: i - 1, V: i})
	}
	return edges
}

func newHLD(t *testing.T, n int, edges []graph.Edge) *graph.HeavyLight {
	t.Helper()
	tree, err := graph.NewTree(n, edges)
	require.NoError(t, err)
	idx, err := graph.NewTreeIndex(tree, 0)
	require.NoError(t, err)
	return graph.NewHeavyLight(idx)
}

// edgeCounter 按子节点记录每条边的覆盖次数，逐边上跳更新。
type edgeCounter struct {
	idx   *graph.TreeIndex
	count []int64
}

func (e *edgeCounter) update(u, v int, delta int64) {
	w := e.idx.LCA(u, v)
	for x := u; x != w; x = e.idx.Parent(x) {
		e.count[x] += delta
	}
	for x := v; x != w; x = e.idx.Parent(x) {
		e.count[x] += delta
	}
}

func (e *edgeCounter) pathMin(u, v int) int64 {
	w := e.idx.LCA(u, v)
	res := Inf
	for x := u; x != w; x = e.idx.Parent(x) {
		res = min(res, e.count[x])
	}
	for x := v; x != w; x = e.idx.Parent(x) {
		res = min(res, e.count[x])
	}
	return res
}

func TestPathCoverage_MatchesEdgeCounter(t *testing.T) {
	r := rand.New(rand.NewPCG(41, 43))
	const n = 150
	hl := newHLD(t, n, randomEdges(r, n))
	cov := NewPathCoverage(hl)
	oracle := &edgeCounter{idx: hl.Index(), count: make([]int64, n)}

	for step := range 3000 {
		u, v := r.IntN(n), r.IntN(n)
		if r.IntN(3) > 0 {
			delta := int64(1)
			if r.IntN(2) == 0 {
				delta = -1
			}
			cov.PathUpdate(u, v, delta)
			oracle.update(u, v, delta)
			continue
		}
		require.Equal(t, oracle.pathMin(u, v), cov.PathMin(u, v), "step %d path %d-%d", step, u, v)
	}
	for c := 1; c < n; c++ {
		assert.Equal(t, oracle.count[c], cov.EdgeCoverage(c), "edge above %d", c)
	}
	assert.Zero(t, cov.EdgeCoverage(0))
}

func TestPathCoverage_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 8))
	const n = 60
	hl := newHLD(t, n, randomEdges(r, n))
	cov := NewPathCoverage(hl)

	cov.PathUpdate(3, 47, 1)
	cov.PathUpdate(3, 47, -1)
	for c := range n {
		assert.Zero(t, cov.EdgeCoverage(c))
	}
}

func TestPathCoverage_RepeatedAdds(t *testing.T) {
	const n = 10
	hl := newHLD(t, n, chainEdges(n))
	cov := NewPathCoverage(hl)

	const k = 4
	for range k {
		cov.PathUpdate(1, 8, 1)
	}
	assert.Equal(t, int64(k), cov.PathMin(1, 8))
	assert.Equal(t, int64(k), cov.PathMin(8, 1))

	// 只把边 (4,5) 减一。
	cov.PathUpdate(4, 5, -1)
	assert.Equal(t, int64(k-1), cov.PathMin(1, 8))
	assert.Equal(t, int64(k), cov.PathMin(5, 8))
	assert.Equal(t, int64(0), cov.PathMin(0, 8))
}

func TestPathCoverage_EmptyPath(t *testing.T) {
	hl := newHLD(t, 3, chainEdges(3))
	cov := NewPathCoverage(hl)
	cov.PathUpdate(2, 2, 1)
	assert.Equal(t, Inf, cov.PathMin(1, 1))
	assert.Zero(t, cov.PathMin(0, 2))
}
