package graph

import (
	"slices"
)

// PathShape 描述一个以简单路径形式存在的最小子树。
type PathShape struct {
	From  int // 先序位置较小的端点。
	To    int
	Nodes int // 参与判定的关键点数量（含补入的 LCA）。
}

// DetectPath 判断覆盖 nodes 的最小连通子树（斯坦纳树）是否是一条简单路径。
// 是则返回两个端点；单个节点视为长度为 0 的路径，两端点相同。
//
// 做法：按先序位置排序并补入相邻点的 LCA，得到对 LCA 封闭的关键点集合；
// 再用单调栈重建虚树，只在关键点上统计度数。虚树中的一条边对应原树的一段链，
// 链内部节点度数恒为 2，所以关键点的度数足以判定整棵子树的形状。
func (hl *HeavyLight) DetectPath(nodes []int) (PathShape, bool) {
	if len(nodes) == 0 {
		return PathShape{}, false
	}

	keys := hl.sortByPos(nodes)
	for i, n := 0, len(keys); i+1 < n; i++ {
		keys = append(keys, hl.idx.LCA(keys[i], keys[i+1]))
	}
	keys = hl.sortByPos(keys)

	if len(keys) == 1 {
		return PathShape{From: keys[0], To: keys[0], Nodes: 1}, true
	}

	deg := make(map[int]int, len(keys))
	seen := make([]int, 0, len(keys))
	link := func(a, b int) {
		for _, x := range [2]int{a, b} {
			if deg[x] == 0 {
				seen = append(seen, x)
			}
			deg[x]++
		}
	}

	depth := hl.idx.depth
	stack := []int{keys[0]}
	for _, x := range keys[1:] {
		w := hl.idx.LCA(stack[len(stack)-1], x)
		for len(stack) >= 2 && depth[stack[len(stack)-2]] >= depth[w] {
			link(stack[len(stack)-2], stack[len(stack)-1])
			stack = stack[:len(stack)-1]
		}
		if top := stack[len(stack)-1]; top != w {
			// w 位于栈顶与其下方元素之间，用 w 替换栈顶。
			link(w, top)
			stack[len(stack)-1] = w
		}
		stack = append(stack, x)
	}
	for len(stack) >= 2 {
		link(stack[len(stack)-2], stack[len(stack)-1])
		stack = stack[:len(stack)-1]
	}

	var ends []int
	for _, v := range seen {
		switch deg[v] {
		case 1:
			ends = append(ends, v)
		case 2:
		default:
			return PathShape{}, false
		}
	}
	// 多于一个节点的树至少有两个叶子；少于两个只可能来自簿记错误，按非路径处理而不是补齐端点。
	if len(ends) != 2 {
		return PathShape{}, false
	}
	if hl.pos[ends[0]] > hl.pos[ends[1]] {
		ends[0], ends[1] = ends[1], ends[0]
	}
	return PathShape{From: ends[0], To: ends[1], Nodes: len(seen)}, true
}

// sortByPos 去重并按先序位置排序，返回新切片。
func (hl *HeavyLight) sortByPos(nodes []int) []int {
	out := slices.Clone(nodes)
	slices.SortFunc(out, func(a, b int) int { return hl.pos[a] - hl.pos[b] })
	return slices.Compact(out)
}
