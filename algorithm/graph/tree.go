// Package graph 提供了面向静态树的路径算法：倍增 LCA、重链剖分与最小斯坦纳子树判定。
package graph

import (
	"github.com/wyfcoding/linecover/xerrors"
)

// Edge 表示一条无向树边，端点为 0 起始的节点编号。
type Edge struct {
	U, V int
}

// Tree 是构造完成后不可变的无向树。
// 邻接表保留边的输入顺序，后续所有遍历的子节点顺序都以此为准。
type Tree struct {
	adj   [][]int
	edges []Edge
}

// NewTree 校验并构造一棵 n 个节点的树。
// 要求恰好 n-1 条边、端点在 [0, n) 内、无自环且整体连通。
func NewTree(n int, edges []Edge) (*Tree, error) {
	if n <= 0 {
		return nil, xerrors.ErrInvalidTree.Derive().WithDetail("node count must be positive, got %d", n)
	}
	if len(edges) != n-1 {
		return nil, xerrors.ErrInvalidTree.Derive().
			WithDetail("expect %d edges, got %d", n-1, len(edges))
	}

	adj := make([][]int, n)
	for i, e := range edges {
		if e.U < 0 || e.U >= n || e.V < 0 || e.V >= n {
			return nil, xerrors.ErrNodeOutOfRange.Derive().
				WithDetail("edge %d (%d, %d) outside [0, %d)", i, e.U, e.V, n).
				WithContext("edge", i)
		}
		if e.U == e.V {
			return nil, xerrors.ErrInvalidTree.Derive().
				WithDetail("edge %d is a self loop on node %d", i, e.U).
				WithContext("edge", i)
		}
		adj[e.U] = append(adj[e.U], e.V)
		adj[e.V] = append(adj[e.V], e.U)
	}

	t := &Tree{adj: adj, edges: append([]Edge(nil), edges...)}
	if reached := t.reachable(0); reached != n {
		// n-1 条边却不连通，说明存在重边或环。
		return nil, xerrors.ErrInvalidTree.Derive().
			WithDetail("graph is not connected: %d of %d nodes reachable from 0", reached, n)
	}
	return t, nil
}

// reachable 统计从 start 出发可达的节点数。
func (t *Tree) reachable(start int) int {
	seen := make([]bool, len(t.adj))
	seen[start] = true
	stack := []int{start}
	count := 1
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, u := range t.adj[v] {
			if !seen[u] {
				seen[u] = true
				count++
				stack = append(stack, u)
			}
		}
	}
	return count
}

// Len 返回节点数。
func (t *Tree) Len() int {
	return len(t.adj)
}

// Neighbors 返回 v 的相邻节点（只读）。
func (t *Tree) Neighbors(v int) []int {
	return t.adj[v]
}

// Edges 返回构造时传入的边的副本。
func (t *Tree) Edges() []Edge {
	return append([]Edge(nil), t.edges...)
}
