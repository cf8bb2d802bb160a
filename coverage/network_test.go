package coverage

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/linecover/algorithm/graph"
	"github.com/wyfcoding/linecover/xerrors"
)

type fakeRecorder struct {
	mu     sync.Mutex
	ops    map[string]int
	failed map[string]int
	paths  int
	other  int
	active int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{ops: map[string]int{}, failed: map[string]int{}}
}

func (f *fakeRecorder) ObserveOp(op string, err error, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops[op]++
	if err != nil {
		f.failed[op]++
	}
}

func (f *fakeRecorder) ObserveCheck(isPath bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if isPath {
		f.paths++
	} else {
		f.other++
	}
}

func (f *fakeRecorder) SetActiveLines(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = n
}

func TestNetwork_ChainScenarios(t *testing.T) {
	ctx := context.Background()
	// 1-2-3-4-5，0 起始即 0..4。
	nw, err := NewNetwork(5, chainEdges(5))
	require.NoError(t, err)
	require.NoError(t, nw.AddLine(ctx, 0, 4))

	res, err := nw.CheckPaths(ctx, []Pair{{1, 3}})
	require.NoError(t, err)
	assert.True(t, res.IsPath)
	assert.Equal(t, int64(1), res.MinCoverage)
	assert.Equal(t, 1, res.From)
	assert.Equal(t, 3, res.To)

	res, err = nw.CheckPaths(ctx, []Pair{{0, 2}, {2, 4}})
	require.NoError(t, err)
	assert.True(t, res.IsPath)
	assert.Equal(t, int64(1), res.MinCoverage)

	require.NoError(t, nw.RemoveLine(ctx, 4, 0))
	res, err = nw.CheckPaths(ctx, []Pair{{1, 3}})
	require.NoError(t, err)
	assert.Zero(t, res.MinCoverage)
	assert.Empty(t, nw.ActiveLines())
}

func TestNetwork_StarIsNotPath(t *testing.T) {
	ctx := context.Background()
	rec := newFakeRecorder()
	nw, err := NewNetwork(4, []graph.Edge{{U: 0, V: 1}, {U: 0, V: 2}, {U: 0, V: 3}}, WithRecorder(rec))
	require.NoError(t, err)
	require.NoError(t, nw.AddLine(ctx, 1, 2))
	require.NoError(t, nw.AddLine(ctx, 1, 3))

	res, err := nw.CheckPaths(ctx, []Pair{{1, 2}, {1, 3}})
	require.NoError(t, err)
	assert.False(t, res.IsPath)
	assert.Zero(t, res.MinCoverage)
	assert.Equal(t, -1, res.From)

	assert.Equal(t, 1, rec.other)
	assert.Equal(t, 2, rec.active)
	assert.Equal(t, 2, rec.ops[OpAddLine])
}

func TestNetwork_SingleNodeCheck(t *testing.T) {
	nw, err := NewNetwork(3, chainEdges(3))
	require.NoError(t, err)
	res, err := nw.CheckPaths(context.Background(), []Pair{{2, 2}})
	require.NoError(t, err)
	assert.True(t, res.IsPath)
	assert.Equal(t, 2, res.From)
	assert.Equal(t, 2, res.To)
	assert.Zero(t, res.MinCoverage)
}

func TestNetwork_Errors(t *testing.T) {
	ctx := context.Background()
	rec := newFakeRecorder()
	nw, err := NewNetwork(4, chainEdges(4), WithRecorder(rec), WithMaxPairs(2))
	require.NoError(t, err)

	err = nw.AddLine(ctx, 0, 4)
	assert.True(t, errors.Is(err, xerrors.ErrNodeOutOfRange))

	require.NoError(t, nw.AddLine(ctx, 0, 3))
	err = nw.AddLine(ctx, 3, 0)
	assert.True(t, errors.Is(err, xerrors.ErrLineExists))

	err = nw.RemoveLine(ctx, 1, 2)
	assert.True(t, errors.Is(err, xerrors.ErrLineNotActive))

	_, err = nw.CheckPaths(ctx, nil)
	assert.True(t, errors.Is(err, xerrors.ErrEmptyQuery))

	_, err = nw.CheckPaths(ctx, []Pair{{0, 1}, {1, 2}, {2, 3}})
	xe, ok := xerrors.FromError(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.ErrLimitExceeded, xe.Type)

	_, err = nw.PathMin(ctx, -1, 2)
	assert.True(t, errors.Is(err, xerrors.ErrNodeOutOfRange))

	assert.Equal(t, 2, rec.failed[OpAddLine])
	assert.Equal(t, 1, rec.failed[OpRemoveLine])
	assert.Equal(t, 1, rec.active)
}

func TestNetwork_QueryHelpers(t *testing.T) {
	ctx := context.Background()
	nw, err := NewNetwork(6, []graph.Edge{{U: 0, V: 1}, {U: 1, V: 2}, {U: 1, V: 3}, {U: 0, V: 4}, {U: 4, V: 5}})
	require.NoError(t, err)
	assert.Equal(t, 6, nw.NodeCount())
	assert.Equal(t, 6, nw.Tree().Len())

	lca, err := nw.LCA(2, 5)
	require.NoError(t, err)
	assert.Zero(t, lca)

	d, err := nw.Distance(2, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, d)

	require.NoError(t, nw.AddLine(ctx, 2, 5))
	require.NoError(t, nw.AddLine(ctx, 3, 4))
	c, err := nw.EdgeCoverage(4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c)

	m, err := nw.PathMin(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m)

	m, err = nw.PathMin(ctx, 3, 3)
	require.NoError(t, err)
	assert.Zero(t, m)

	assert.Equal(t, []Line{{2, 5}, {3, 4}}, nw.ActiveLines())
}

// bruteCheck 用逐边计数和剥叶子的最小子树计算期望结果。
func bruteCheck(n int, edges []graph.Edge, counter *edgeCounter, pairs []Pair) (bool, int64) {
	adj := make([]map[int]bool, n)
	for i := range adj {
		adj[i] = map[int]bool{}
	}
	for _, e := range edges {
		adj[e.U][e.V] = true
		adj[e.V][e.U] = true
	}
	keep := make([]bool, n)
	for _, p := range pairs {
		keep[p.U], keep[p.V] = true, true
	}
	for changed := true; changed; {
		changed = false
		for v := range n {
			if !keep[v] && len(adj[v]) == 1 {
				for u := range adj[v] {
					delete(adj[u], v)
				}
				adj[v] = map[int]bool{}
				changed = true
			}
		}
	}
	var ends []int
	alive := 0
	for v := range n {
		if len(adj[v]) == 0 && !keep[v] {
			continue
		}
		alive++
		switch len(adj[v]) {
		case 0, 1:
			ends = append(ends, v)
		case 2:
		default:
			return false, 0
		}
	}
	if alive == 1 {
		return true, 0
	}
	if len(ends) != 2 {
		return false, 0
	}
	m := counter.pathMin(ends[0], ends[1])
	if m == Inf {
		m = 0
	}
	return true, m
}

func TestNetwork_MatchesBruteForce(t *testing.T) {
	ctx := context.Background()
	r := rand.New(rand.NewPCG(97, 101))

	for round := range 30 {
		n := 2 + r.IntN(30)
		edges := randomEdges(r, n)
		nw, err := NewNetwork(n, edges)
		require.NoError(t, err)

		idx, err := graph.NewTreeIndex(nw.Tree(), 0)
		require.NoError(t, err)
		counter := &edgeCounter{idx: idx, count: make([]int64, n)}
		var active []Line

		for step := range 200 {
			switch op := r.IntN(4); {
			case op == 0 && len(active) > 0:
				i := r.IntN(len(active))
				l := active[i]
				require.NoError(t, nw.RemoveLine(ctx, l.V, l.U))
				counter.update(l.U, l.V, -1)
				active = append(active[:i], active[i+1:]...)
			case op <= 1:
				l := NewLine(r.IntN(n), r.IntN(n))
				err := nw.AddLine(ctx, l.U, l.V)
				if errors.Is(err, xerrors.ErrLineExists) {
					continue
				}
				require.NoError(t, err)
				counter.update(l.U, l.V, 1)
				active = append(active, l)
			default:
				pairs := make([]Pair, 1+r.IntN(3))
				for i := range pairs {
					pairs[i] = Pair{U: r.IntN(n), V: r.IntN(n)}
				}
				wantPath, wantMin := bruteCheck(n, edges, counter, pairs)
				res, err := nw.CheckPaths(ctx, pairs)
				require.NoError(t, err)
				require.Equal(t, wantPath, res.IsPath, "round %d step %d pairs %v", round, step, pairs)
				require.Equal(t, wantMin, res.MinCoverage, "round %d step %d pairs %v", round, step, pairs)
			}
		}
	}
}

func TestNetwork_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	const n = 64
	nw, err := NewNetwork(n, chainEdges(n))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				u := (w*50 + i) % (n - 1)
				if err := nw.AddLine(ctx, u, u+1); err == nil {
					_ = nw.RemoveLine(ctx, u, u+1)
				}
				_, _ = nw.CheckPaths(ctx, []Pair{{0, n - 1}})
			}
		}()
	}
	wg.Wait()

	m, err := nw.PathMin(ctx, 0, n-1)
	require.NoError(t, err)
	assert.Zero(t, m)
	assert.Empty(t, nw.ActiveLines())
}
