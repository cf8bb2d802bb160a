package graph

import (
	"math/bits"

	"github.com/wyfcoding/linecover/xerrors"
)

// TreeIndex 实现了基于倍增（Binary Lifting）算法的最近公共祖先查询。
// 预处理复杂度 O(N log N)，单次查询复杂度 O(log N)。构造完成后只读，可并发查询。
type TreeIndex struct {
	tree     *Tree
	root     int
	up       []int // 扁平化数组: up[v*logN+k] 表示节点 v 的第 2^k 个祖先，-1 表示不存在。
	depth    []int
	children [][]int
	order    []int // 遍历顺序，父节点总是先于子节点出现。
	logN     int
}

// NewTreeIndex 以 root 为根构建深度表与倍增表。
func NewTreeIndex(t *Tree, root int) (*TreeIndex, error) {
	if t == nil {
		return nil, xerrors.ErrInvalidTree.Derive().WithDetail("tree is nil")
	}
	n := t.Len()
	if root < 0 || root >= n {
		return nil, xerrors.ErrNodeOutOfRange.Derive().WithDetail("root %d outside [0, %d)", root, n)
	}

	// 深度最多为 n-1，bits.Len(n-1) 位足以表示任意深度差。
	logN := max(1, bits.Len(uint(n-1)))

	idx := &TreeIndex{
		tree:     t,
		root:     root,
		up:       make([]int, n*logN),
		depth:    make([]int, n),
		children: make([][]int, n),
		order:    make([]int, 0, n),
		logN:     logN,
	}
	for i := range idx.up {
		idx.up[i] = -1
	}

	idx.iterativeDFS()

	// 自底向上逐层填充倍增表，缺失的祖先沿用 -1。
	for k := 1; k < logN; k++ {
		for v := range n {
			mid := idx.up[v*logN+k-1]
			if mid != -1 {
				idx.up[v*logN+k] = idx.up[mid*logN+k-1]
			}
		}
	}

	return idx, nil
}

type stackItem struct {
	v, p, d int
}

// iterativeDFS 使用显式栈遍历，避免深度退化的树导致栈溢出。
func (idx *TreeIndex) iterativeDFS() {
	stack := []stackItem{{v: idx.root, p: -1, d: 0}}

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		v, p, d := curr.v, curr.p, curr.d
		idx.depth[v] = d
		idx.up[v*idx.logN] = p
		idx.order = append(idx.order, v)

		for _, u := range idx.tree.adj[v] {
			if u == p {
				continue
			}
			idx.children[v] = append(idx.children[v], u)
			stack = append(stack, stackItem{v: u, p: v, d: d + 1})
		}
	}
}

// LCA 查询两个节点的最近公共祖先。
func (idx *TreeIndex) LCA(u, v int) int {
	if idx.depth[u] < idx.depth[v] {
		u, v = v, u
	}

	// 1. 将 u 提升到与 v 同一深度。
	u = idx.lift(u, idx.depth[u]-idx.depth[v])

	if u == v {
		return u
	}

	// 2. 从最高层向下，同时提升 u 和 v，直到它们的父节点相同。
	for k := idx.logN - 1; k >= 0; k-- {
		upU := idx.up[u*idx.logN+k]
		upV := idx.up[v*idx.logN+k]
		if upU != upV {
			u, v = upU, upV
		}
	}

	return idx.up[u*idx.logN]
}

// lift 将 v 向上提升 steps 层，steps 不得超过 depth[v]。
func (idx *TreeIndex) lift(v, steps int) int {
	for k := 0; steps > 0 && v != -1; k++ {
		if steps&1 == 1 {
			v = idx.up[v*idx.logN+k]
		}
		steps >>= 1
	}
	return v
}

// KthAncestor 返回 v 的第 k 个祖先，越过根时返回 -1。
func (idx *TreeIndex) KthAncestor(v, k int) int {
	if k < 0 || k > idx.depth[v] {
		return -1
	}
	return idx.lift(v, k)
}

// Distance 计算两个节点之间的距离（边数）。
func (idx *TreeIndex) Distance(u, v int) int {
	w := idx.LCA(u, v)
	return idx.depth[u] + idx.depth[v] - 2*idx.depth[w]
}

// Parent 返回 v 的父节点，根返回 -1。
func (idx *TreeIndex) Parent(v int) int {
	return idx.up[v*idx.logN]
}

// Depth 返回 v 的深度，根为 0。
func (idx *TreeIndex) Depth(v int) int {
	return idx.depth[v]
}

// Children 返回 v 的子节点，顺序与邻接表一致（只读）。
func (idx *TreeIndex) Children(v int) []int {
	return idx.children[v]
}

func (idx *TreeIndex) Root() int { return idx.root }

func (idx *TreeIndex) Len() int { return len(idx.depth) }

// Levels 返回倍增表的层数。
func (idx *TreeIndex) Levels() int { return idx.logN }

// Contains 判断 v 是否是合法节点编号。
func (idx *TreeIndex) Contains(v int) bool {
	return v >= 0 && v < len(idx.depth)
}
