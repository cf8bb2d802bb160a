package coverage

import (
	"github.com/wyfcoding/linecover/algorithm/graph"
	"github.com/wyfcoding/linecover/algorithm/structures"
)

// Inf 表示路径上没有任何边时的最小覆盖哨兵值。
const Inf = structures.Inf

// PathCoverage 在重链剖分之上维护每条边的覆盖次数。
// 边 (parent(c), c) 的覆盖次数存放在子节点 c 的先序位置上，根的位置不对应任何边，恒为 0。
// 非并发安全，由 Network 负责串行化。
type PathCoverage struct {
	hld *graph.HeavyLight
	seg *structures.LazySegmentTree
}

// NewPathCoverage 创建一个所有边覆盖次数为 0 的覆盖引擎。
func NewPathCoverage(hld *graph.HeavyLight) *PathCoverage {
	return &PathCoverage{
		hld: hld,
		seg: structures.NewLazySegmentTree(hld.Index().Len()),
	}
}

// PathUpdate 为 u-v 路径上的每条边加上 delta。u == v 时路径没有边，不做任何修改。
func (c *PathCoverage) PathUpdate(u, v int, delta int64) {
	c.hld.EdgeRanges(u, v, func(l, r int) {
		c.seg.RangeAdd(l, r, delta)
	})
}

// PathMin 返回 u-v 路径上各边覆盖次数的最小值；路径没有边时返回 Inf。
func (c *PathCoverage) PathMin(u, v int) int64 {
	res := Inf
	c.hld.EdgeRanges(u, v, func(l, r int) {
		res = min(res, c.seg.RangeMin(l, r))
	})
	return res
}

// EdgeCoverage 返回边 (parent(child), child) 的覆盖次数，child 为根时返回 0。
func (c *PathCoverage) EdgeCoverage(child int) int64 {
	if child == c.hld.Index().Root() {
		return 0
	}
	return c.seg.Point(c.hld.Pos(child))
}
