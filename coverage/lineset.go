package coverage

import (
	"cmp"
	"slices"

	"github.com/wyfcoding/linecover/xerrors"
)

// Line 是一条无向线路，构造时规范化为 U <= V，因此 (u, v) 与 (v, u) 是同一条线路。
type Line struct {
	U, V int
}

// NewLine 创建规范化后的线路。
func NewLine(u, v int) Line {
	if u > v {
		u, v = v, u
	}
	return Line{U: u, V: v}
}

// LineSet 记录当前激活的线路。同一条线路在删除前不能重复添加。
type LineSet struct {
	lines map[Line]struct{}
}

func NewLineSet() *LineSet {
	return &LineSet{lines: make(map[Line]struct{})}
}

// Add 激活一条线路，已激活时返回 ErrLineExists。
func (s *LineSet) Add(l Line) error {
	if _, ok := s.lines[l]; ok {
		return xerrors.ErrLineExists.Derive().
			WithContext("u", l.U).
			WithContext("v", l.V)
	}
	s.lines[l] = struct{}{}
	return nil
}

// Remove 删除一条激活的线路，未激活时返回 ErrLineNotActive。
func (s *LineSet) Remove(l Line) error {
	if _, ok := s.lines[l]; !ok {
		return xerrors.ErrLineNotActive.Derive().
			WithContext("u", l.U).
			WithContext("v", l.V)
	}
	delete(s.lines, l)
	return nil
}

func (s *LineSet) Contains(l Line) bool {
	_, ok := s.lines[l]
	return ok
}

func (s *LineSet) Len() int {
	return len(s.lines)
}

// Lines 返回按 (U, V) 排序的快照。
func (s *LineSet) Lines() []Line {
	out := make([]Line, 0, len(s.lines))
	for l := range s.lines {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b Line) int {
		return cmp.Or(cmp.Compare(a.U, b.U), cmp.Compare(a.V, b.V))
	})
	return out
}
