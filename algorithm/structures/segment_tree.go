package structures

// Inf 是区间最小值查询在空区间上返回的哨兵值。
const Inf int64 = 1_000_000_000

// LazySegmentTree 是支持区间加、区间最小值的懒标记线段树。
// 底层为完全二叉树数组，叶子数为不小于 n 的最小 2 的幂，节点 1 为根。
// 更新和查询的时间复杂度均为 O(log N)。
// 非并发安全：调用方需自行串行化写操作。
type LazySegmentTree struct {
	minv    []int64 // 子树最小值，已包含本节点及祖先已下推的增量。
	pending []int64 // 尚未下推给子节点的增量。
	size    int     // 叶子数量（2 的幂）。
	n       int     // 逻辑长度。
}

// NewLazySegmentTree 创建一个长度为 n、所有槽位为 0 的线段树。
func NewLazySegmentTree(n int) *LazySegmentTree {
	size := 1
	for size < n {
		size <<= 1
	}
	return &LazySegmentTree{
		minv:    make([]int64, 2*size),
		pending: make([]int64, 2*size),
		size:    size,
		n:       n,
	}
}

// Len 返回逻辑长度。
func (st *LazySegmentTree) Len() int { return st.n }

// RangeAdd 为闭区间 [l, r] 内的每个槽位加上 delta。空区间不做任何事。
func (st *LazySegmentTree) RangeAdd(l, r int, delta int64) {
	if l > r || r < 0 || l >= st.size || delta == 0 {
		return
	}
	st.add(1, 0, st.size-1, l, r, delta)
}

func (st *LazySegmentTree) add(node, lo, hi, l, r int, delta int64) {
	if r < lo || hi < l {
		return
	}
	if l <= lo && hi <= r {
		st.apply(node, delta)
		return
	}
	st.pushDown(node)
	mid := (lo + hi) / 2
	st.add(2*node, lo, mid, l, r, delta)
	st.add(2*node+1, mid+1, hi, l, r, delta)
	st.minv[node] = min(st.minv[2*node], st.minv[2*node+1])
}

// RangeMin 返回闭区间 [l, r] 的最小值；区间为空或完全越界时返回 Inf。
func (st *LazySegmentTree) RangeMin(l, r int) int64 {
	if l > r || r < 0 || l >= st.size {
		return Inf
	}
	return st.query(1, 0, st.size-1, l, r)
}

func (st *LazySegmentTree) query(node, lo, hi, l, r int) int64 {
	if r < lo || hi < l {
		return Inf
	}
	if l <= lo && hi <= r {
		return st.minv[node]
	}
	st.pushDown(node)
	mid := (lo + hi) / 2
	return min(st.query(2*node, lo, mid, l, r), st.query(2*node+1, mid+1, hi, l, r))
}

// Point 返回单个槽位的当前值。
func (st *LazySegmentTree) Point(i int) int64 {
	return st.RangeMin(i, i)
}

// apply 把增量作用到整个节点：最小值立即生效，子节点的部分记入 pending。
func (st *LazySegmentTree) apply(node int, delta int64) {
	st.minv[node] += delta
	if node < st.size {
		st.pending[node] += delta
	}
}

// pushDown 在读取或修改子节点之前把 pending 下推，之后父节点不再持有增量。
// 叶子节点永远不会持有 pending。
func (st *LazySegmentTree) pushDown(node int) {
	d := st.pending[node]
	if d == 0 {
		return
	}
	st.apply(2*node, d)
	st.apply(2*node+1, d)
	st.pending[node] = 0
}
