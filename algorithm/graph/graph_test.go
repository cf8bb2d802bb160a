package graph

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/linecover/xerrors"
)

// randomEdges 生成一棵随机树：节点 i 的父节点在 [0, i) 中均匀选取。
func randomEdges(r *rand.Rand, n int) []Edge {
	edges := make([]Edge, 0, n-1)
	for i := 1; i < n; i++ {
		p := r.IntN(i)
		if r.IntN(2) == 0 {
			edges = append(edges, Edge{U: p, V: i})
		} else {
			edges = append(edges, Edge{U: i, V: p})
		}
	}
	return edges
}

func chainEdges(n int) []Edge {
	edges := make([]Edge, 0, n-1)
	for i := 1; i < n; i++ {
		edges = append(edges, Edge{U: i - 1, V: i})
	}
	return edges
}

func mustIndex(t *testing.T, n int, edges []Edge) (*TreeIndex, *HeavyLight) {
	t.Helper()
	tree, err := NewTree(n, edges)
	require.NoError(t, err)
	idx, err := NewTreeIndex(tree, 0)
	require.NoError(t, err)
	return idx, NewHeavyLight(idx)
}

// naiveLCA 逐步上跳到同一深度再同步上跳。
func naiveLCA(idx *TreeIndex, u, v int) int {
	for idx.Depth(u) > idx.Depth(v) {
		u = idx.Parent(u)
	}
	for idx.Depth(v) > idx.Depth(u) {
		v = idx.Parent(v)
	}
	for u != v {
		u, v = idx.Parent(u), idx.Parent(v)
	}
	return u
}

func TestNewTree_Errors(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		edges []Edge
		want  *xerrors.Error
	}{
		{"no nodes", 0, nil, xerrors.ErrInvalidTree},
		{"too few edges", 3, []Edge{{0, 1}}, xerrors.ErrInvalidTree},
		{"too many edges", 2, []Edge{{0, 1}, {1, 0}}, xerrors.ErrInvalidTree},
		{"out of range", 3, []Edge{{0, 1}, {1, 3}}, xerrors.ErrNodeOutOfRange},
		{"negative", 2, []Edge{{-1, 0}}, xerrors.ErrNodeOutOfRange},
		{"self loop", 3, []Edge{{0, 1}, {2, 2}}, xerrors.ErrInvalidTree},
		{"parallel edges", 3, []Edge{{0, 1}, {1, 0}}, xerrors.ErrInvalidTree},
		{"cycle", 4, []Edge{{0, 1}, {1, 2}, {2, 0}}, xerrors.ErrInvalidTree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTree(tt.n, tt.edges)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNewTree_SingleNode(t *testing.T) {
	idx, hl := mustIndex(t, 1, nil)
	assert.Equal(t, 0, idx.LCA(0, 0))
	assert.Equal(t, 0, idx.Distance(0, 0))
	assert.Equal(t, -1, idx.Parent(0))
	assert.Equal(t, 0, hl.Pos(0))

	calls := 0
	hl.EdgeRanges(0, 0, func(l, r int) { calls++ })
	assert.Zero(t, calls)
}

func TestTreeIndex_MatchesNaive(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for _, n := range []int{2, 3, 10, 64, 257} {
		idx, _ := mustIndex(t, n, randomEdges(r, n))
		for range 500 {
			u, v := r.IntN(n), r.IntN(n)
			w := idx.LCA(u, v)
			require.Equal(t, naiveLCA(idx, u, v), w, "n=%d lca(%d,%d)", n, u, v)
			assert.Equal(t, w, idx.LCA(v, u))
			d := idx.Distance(u, v)
			assert.Equal(t, d, idx.Distance(v, u))
			assert.Equal(t, idx.Depth(u)+idx.Depth(v)-2*idx.Depth(w), d)
		}
		for v := range n {
			assert.Zero(t, idx.Distance(v, v))
			assert.Equal(t, 0, idx.KthAncestor(v, idx.Depth(v)))
			assert.Equal(t, -1, idx.KthAncestor(v, idx.Depth(v)+1))
		}
	}
}

func TestTreeIndex_DeepChain(t *testing.T) {
	const n = 100_000
	idx, hl := mustIndex(t, n, chainEdges(n))
	assert.Equal(t, n-1, idx.Depth(n-1))
	assert.Equal(t, 12_345, idx.LCA(12_345, n-1))
	assert.Equal(t, n-1, idx.Distance(0, n-1))
	// 链上只有一条重链。
	assert.Equal(t, 0, hl.Head(n-1))

	ranges := 0
	hl.EdgeRanges(0, n-1, func(l, r int) {
		ranges++
		assert.Equal(t, 1, l)
		assert.Equal(t, n-1, r)
	})
	assert.Equal(t, 1, ranges)
}

func TestHeavyLight_Layout(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	const n = 300
	idx, hl := mustIndex(t, n, randomEdges(r, n))

	seen := make([]bool, n)
	for v := range n {
		p := hl.Pos(v)
		require.False(t, seen[p], "position %d used twice", p)
		seen[p] = true
		assert.Equal(t, v, hl.NodeAt(p))

		if h := hl.Heavy(v); h >= 0 {
			assert.Equal(t, hl.Pos(v)+1, hl.Pos(h), "heavy child follows parent")
			assert.Equal(t, hl.Head(v), hl.Head(h))
			for _, c := range idx.Children(v) {
				assert.LessOrEqual(t, hl.Size(c), hl.Size(h))
			}
		}
		if par := idx.Parent(v); par >= 0 && hl.Heavy(par) != v {
			assert.Equal(t, v, hl.Head(v), "light child starts a chain")
		}
	}
	assert.Equal(t, 0, hl.Pos(0))
	assert.Equal(t, n, hl.Size(0))
}

func TestHeavyLight_EdgeRangesCoverPath(t *testing.T) {
	r := rand.New(rand.NewPCG(17, 19))
	const n = 200
	idx, hl := mustIndex(t, n, randomEdges(r, n))

	for range 300 {
		u, v := r.IntN(n), r.IntN(n)
		w := idx.LCA(u, v)

		var want []int
		for x := u; x != w; x = idx.Parent(x) {
			want = append(want, hl.Pos(x))
		}
		for x := v; x != w; x = idx.Parent(x) {
			want = append(want, hl.Pos(x))
		}

		var got []int
		hl.EdgeRanges(u, v, func(l, r int) {
			require.LessOrEqual(t, l, r)
			for p := l; p <= r; p++ {
				got = append(got, p)
			}
		})
		slices.Sort(want)
		slices.Sort(got)
		require.Equal(t, want, got, "path %d-%d", u, v)
	}
}

func TestHeavyLight_IsAncestor(t *testing.T) {
	idx, hl := mustIndex(t, 6, []Edge{{0, 1}, {1, 2}, {1, 3}, {0, 4}, {4, 5}})
	assert.True(t, hl.IsAncestor(0, 5))
	assert.True(t, hl.IsAncestor(1, 3))
	assert.True(t, hl.IsAncestor(2, 2))
	assert.False(t, hl.IsAncestor(2, 3))
	assert.False(t, hl.IsAncestor(4, 1))
	assert.Equal(t, 1, idx.LCA(2, 3))
}

func TestDetectPath(t *testing.T) {
	// 0-1-2-3-4 为主链，3 上挂 5，1 上挂 6。
	_, hl := mustIndex(t, 7, []Edge{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {3, 5}, {1, 6}})

	tests := []struct {
		name     string
		nodes    []int
		wantPath bool
		ends     [2]int
	}{
		{"single node", []int{4}, true, [2]int{4, 4}},
		{"duplicated node", []int{2, 2, 2}, true, [2]int{2, 2}},
		{"single pair", []int{4, 0}, true, [2]int{0, 4}},
		{"pair through lca", []int{6, 4, 1}, true, [2]int{4, 6}},
		{"nested segments", []int{1, 3, 2, 4}, true, [2]int{1, 4}},
		{"disjoint segments joined", []int{0, 1, 3, 4}, true, [2]int{0, 4}},
		{"branch at 3", []int{0, 4, 5}, false, [2]int{}},
		{"branch at 1", []int{0, 2, 6}, false, [2]int{}},
		{"fork below lca", []int{4, 5}, true, [2]int{4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, ok := hl.DetectPath(tt.nodes)
			require.Equal(t, tt.wantPath, ok)
			if !ok {
				return
			}
			got := []int{shape.From, shape.To}
			slices.Sort(got)
			assert.Equal(t, tt.ends[:], got)
			assert.LessOrEqual(t, hl.Pos(shape.From), hl.Pos(shape.To))
		})
	}

	_, ok := hl.DetectPath(nil)
	assert.False(t, ok)
}

func TestDetectPath_Star(t *testing.T) {
	_, hl := mustIndex(t, 4, []Edge{{0, 1}, {0, 2}, {0, 3}})
	_, ok := hl.DetectPath([]int{1, 2, 1, 3})
	assert.False(t, ok)

	shape, ok := hl.DetectPath([]int{2, 3})
	require.True(t, ok)
	assert.ElementsMatch(t, []int{2, 3}, []int{shape.From, shape.To})
}

// steinerShape 用剥叶子的方法求最小连通子树，再按度数判断是否为路径。
func steinerShape(n int, edges []Edge, keys []int) (ends []int, ok bool) {
	adj := make([]map[int]bool, n)
	for i := range adj {
		adj[i] = map[int]bool{}
	}
	for _, e := range edges {
		adj[e.U][e.V] = true
		adj[e.V][e.U] = true
	}
	isKey := make([]bool, n)
	for _, k := range keys {
		isKey[k] = true
	}
	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}
	for changed := true; changed; {
		changed = false
		for v := range n {
			if alive[v] && !isKey[v] && len(adj[v]) <= 1 {
				for u := range adj[v] {
					delete(adj[u], v)
				}
				adj[v] = map[int]bool{}
				alive[v] = false
				changed = true
			}
		}
	}
	count := 0
	for v := range n {
		if !alive[v] {
			continue
		}
		count++
		switch len(adj[v]) {
		case 0, 1:
			ends = append(ends, v)
		case 2:
		default:
			return nil, false
		}
	}
	if count == 1 {
		return []int{ends[0], ends[0]}, true
	}
	return ends, len(ends) == 2
}

func TestDetectPath_MatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewPCG(23, 29))
	for round := range 200 {
		n := 1 + r.IntN(25)
		edges := randomEdges(r, n)
		_, hl := mustIndex(t, n, edges)

		keys := make([]int, 1+r.IntN(5))
		for i := range keys {
			keys[i] = r.IntN(n)
		}

		wantEnds, wantOK := steinerShape(n, edges, keys)
		shape, ok := hl.DetectPath(keys)
		require.Equal(t, wantOK, ok, "round %d keys %v edges %v", round, keys, edges)
		if ok {
			assert.ElementsMatch(t, wantEnds, []int{shape.From, shape.To}, "round %d", round)
		}
	}
}
