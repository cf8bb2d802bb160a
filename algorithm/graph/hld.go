package graph

// HeavyLight 实现了重链剖分（Heavy-Light Decomposition）。
// 任意树上路径都可以被拆成 O(log N) 段连续的 pos 区间，便于交给线段树做区间操作。
type HeavyLight struct {
	idx    *TreeIndex
	size   []int // 子树节点数。
	heavy  []int // 重儿子，叶子为 -1。
	head   []int // 所在重链的链顶。
	pos    []int // 先序位置，重儿子优先访问。
	nodeAt []int // pos 的逆映射。
}

// NewHeavyLight 基于已构建的 TreeIndex 计算子树大小、重儿子、链顶与先序位置。
func NewHeavyLight(idx *TreeIndex) *HeavyLight {
	n := idx.Len()
	hl := &HeavyLight{
		idx:    idx,
		size:   make([]int, n),
		heavy:  make([]int, n),
		head:   make([]int, n),
		pos:    make([]int, n),
		nodeAt: make([]int, n),
	}
	hl.computeSizes()
	hl.decompose()
	return hl
}

// computeSizes 按遍历顺序的逆序（子节点先于父节点）累计子树大小。
// 重儿子取子树最大者，大小相同时保留邻接顺序中第一个出现的孩子。
func (hl *HeavyLight) computeSizes() {
	order := hl.idx.order
	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		hl.size[v] = 1
		hl.heavy[v] = -1
		best := 0
		for _, c := range hl.idx.children[v] {
			hl.size[v] += hl.size[c]
			if hl.size[c] > best {
				best = hl.size[c]
				hl.heavy[v] = c
			}
		}
	}
}

type chainItem struct {
	v, head int
}

// decompose 显式栈先序遍历：先沿重儿子延续当前链，再按邻接顺序为每个轻儿子开启新链。
func (hl *HeavyLight) decompose() {
	root := hl.idx.root
	stack := []chainItem{{v: root, head: root}}
	cur := 0

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		v := item.v
		hl.head[v] = item.head
		hl.pos[v] = cur
		hl.nodeAt[cur] = v
		cur++

		// 轻儿子逆序入栈，保证出栈顺序与邻接顺序一致；重儿子最后入栈，最先出栈。
		children := hl.idx.children[v]
		for i := len(children) - 1; i >= 0; i-- {
			if c := children[i]; c != hl.heavy[v] {
				stack = append(stack, chainItem{v: c, head: c})
			}
		}
		if h := hl.heavy[v]; h != -1 {
			stack = append(stack, chainItem{v: h, head: item.head})
		}
	}
}

// EdgeRanges 将 u-v 路径上的边拆分为若干连续的 pos 闭区间并依次回调 fn。
// 边 (parent(c), c) 记在子节点 c 的位置上，因此 LCA 自身的位置永远不会出现在区间里。
// u == v 时路径没有边，fn 不会被调用。
func (hl *HeavyLight) EdgeRanges(u, v int, fn func(l, r int)) {
	for hl.head[u] != hl.head[v] {
		if hl.idx.depth[hl.head[u]] < hl.idx.depth[hl.head[v]] {
			u, v = v, u
		}
		fn(hl.pos[hl.head[u]], hl.pos[u])
		u = hl.idx.Parent(hl.head[u])
	}
	if hl.idx.depth[u] > hl.idx.depth[v] {
		u, v = v, u
	}
	if u != v {
		fn(hl.pos[u]+1, hl.pos[v])
	}
}

// IsAncestor 判断 a 是否是 v 的祖先（含 a == v）。
func (hl *HeavyLight) IsAncestor(a, v int) bool {
	return hl.pos[a] <= hl.pos[v] && hl.pos[v] < hl.pos[a]+hl.size[a]
}

// Index 返回底层的祖先索引。
func (hl *HeavyLight) Index() *TreeIndex { return hl.idx }

func (hl *HeavyLight) Pos(v int) int { return hl.pos[v] }

func (hl *HeavyLight) Head(v int) int { return hl.head[v] }

func (hl *HeavyLight) Heavy(v int) int { return hl.heavy[v] }

func (hl *HeavyLight) Size(v int) int { return hl.size[v] }

// NodeAt 返回位于先序位置 p 的节点。
func (hl *HeavyLight) NodeAt(p int) int { return hl.nodeAt[p] }
