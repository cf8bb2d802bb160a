// Package coverage 在一棵固定的树上维护动态线路集合，并回答"多条路径的并是否构成一条简单路径，
// 以及该路径上的最小覆盖次数"这一类查询。
package coverage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wyfcoding/linecover/algorithm/graph"
	"github.com/wyfcoding/linecover/logging"
	"github.com/wyfcoding/linecover/tracing"
	"github.com/wyfcoding/linecover/xerrors"
)

// 操作名，同时用作 Span 名称后缀与指标标签。
const (
	OpAddLine    = "add_line"
	OpRemoveLine = "remove_line"
	OpCheckPaths = "check_paths"
	OpPathMin    = "path_min"
)

// Pair 是路径检查请求中的一条路径，端点为 0 起始的节点编号。
type Pair struct {
	U, V int
}

// CheckResult 是一次路径检查的结果。IsPath 为 false 时 MinCoverage 为 0，端点为 -1。
type CheckResult struct {
	IsPath      bool
	From, To    int
	MinCoverage int64
}

// Recorder 接收操作级别的观测数据，metrics.Metrics 实现了该接口。
type Recorder interface {
	ObserveOp(op string, err error, d time.Duration)
	ObserveCheck(isPath bool)
	SetActiveLines(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOp(string, error, time.Duration) {}
func (nopRecorder) ObserveCheck(bool)                      {}
func (nopRecorder) SetActiveLines(int)                     {}

// Option 配置 Network。
type Option func(*Network)

// WithLogger 注入日志记录器。
func WithLogger(l *slog.Logger) Option {
	return func(nw *Network) {
		if l != nil {
			nw.logger = l
		}
	}
}

// WithRecorder 注入指标记录器。
func WithRecorder(r Recorder) Option {
	return func(nw *Network) {
		if r != nil {
			nw.recorder = r
		}
	}
}

// WithMaxPairs 限制单次路径检查的路径数，0 表示不限制。
func WithMaxPairs(n int) Option {
	return func(nw *Network) {
		nw.maxPairs = n
	}
}

// Network 聚合了祖先索引、重链剖分、覆盖引擎与激活线路集合，以节点 0 为根。
// 拓扑在构造后不可变；覆盖状态由一把互斥锁保护（线段树查询同样会下推懒标记）。
type Network struct {
	mu    sync.Mutex
	tree  *graph.Tree
	idx   *graph.TreeIndex
	hld   *graph.HeavyLight
	cov   *PathCoverage
	lines *LineSet

	logger   *slog.Logger
	recorder Recorder
	maxPairs int
}

// NewNetwork 校验树并完成全部预处理。
func NewNetwork(n int, edges []graph.Edge, opts ...Option) (*Network, error) {
	tree, err := graph.NewTree(n, edges)
	if err != nil {
		return nil, err
	}
	idx, err := graph.NewTreeIndex(tree, 0)
	if err != nil {
		return nil, err
	}
	hld := graph.NewHeavyLight(idx)

	nw := &Network{
		tree:     tree,
		idx:      idx,
		hld:      hld,
		cov:      NewPathCoverage(hld),
		lines:    NewLineSet(),
		logger:   logging.Discard(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(nw)
	}

	nw.logger.Debug("network initialized", "nodes", n, "levels", idx.Levels())
	return nw, nil
}

// NodeCount 返回节点数。
func (nw *Network) NodeCount() int {
	return nw.idx.Len()
}

// Tree 返回底层树。
func (nw *Network) Tree() *graph.Tree {
	return nw.tree
}

// AddLine 激活线路 u-v 并为路径上每条边的覆盖次数加一。
func (nw *Network) AddLine(ctx context.Context, u, v int) (err error) {
	ctx, done := nw.observe(ctx, OpAddLine, &err)
	defer done()

	if err = nw.checkNodes(u, v); err != nil {
		return err
	}

	nw.mu.Lock()
	defer nw.mu.Unlock()

	if err = nw.lines.Add(NewLine(u, v)); err != nil {
		return err
	}
	nw.cov.PathUpdate(u, v, 1)
	nw.recorder.SetActiveLines(nw.lines.Len())
	nw.logger.DebugContext(ctx, "line added", "u", u, "v", v, "active", nw.lines.Len())
	return nil
}

// RemoveLine 删除激活的线路 u-v 并为路径上每条边的覆盖次数减一。
func (nw *Network) RemoveLine(ctx context.Context, u, v int) (err error) {
	ctx, done := nw.observe(ctx, OpRemoveLine, &err)
	defer done()

	if err = nw.checkNodes(u, v); err != nil {
		return err
	}

	nw.mu.Lock()
	defer nw.mu.Unlock()

	if err = nw.lines.Remove(NewLine(u, v)); err != nil {
		return err
	}
	nw.cov.PathUpdate(u, v, -1)
	nw.recorder.SetActiveLines(nw.lines.Len())
	nw.logger.DebugContext(ctx, "line removed", "u", u, "v", v, "active", nw.lines.Len())
	return nil
}

// CheckPaths 判断 pairs 对应路径的最小连通子树是否是一条简单路径，是则返回该路径上的最小覆盖次数。
// 不是路径属于正常结果而非错误；路径没有边时最小覆盖为 0。
func (nw *Network) CheckPaths(ctx context.Context, pairs []Pair) (res CheckResult, err error) {
	ctx, done := nw.observe(ctx, OpCheckPaths, &err)
	defer done()

	if len(pairs) == 0 {
		return CheckResult{}, xerrors.ErrEmptyQuery.Derive()
	}
	if nw.maxPairs > 0 && len(pairs) > nw.maxPairs {
		return CheckResult{}, xerrors.New(xerrors.ErrLimitExceeded, 429101, "too many pairs", "", nil).
			WithDetail("%d pairs exceed the limit of %d", len(pairs), nw.maxPairs)
	}

	nodes := make([]int, 0, 3*len(pairs))
	for _, p := range pairs {
		if err = nw.checkNodes(p.U, p.V); err != nil {
			return CheckResult{}, err
		}
		nodes = append(nodes, p.U, p.V, nw.idx.LCA(p.U, p.V))
	}
	tracing.AddTag(ctx, "pairs", len(pairs))

	shape, ok := nw.hld.DetectPath(nodes)
	nw.recorder.ObserveCheck(ok)
	if !ok {
		nw.logger.DebugContext(ctx, "minimal subtree is not a path", "pairs", len(pairs))
		return CheckResult{From: -1, To: -1}, nil
	}

	nw.mu.Lock()
	m := nw.cov.PathMin(shape.From, shape.To)
	nw.mu.Unlock()

	if m == Inf {
		m = 0
	}
	nw.logger.DebugContext(ctx, "path checked", "from", shape.From, "to", shape.To, "min", m)
	return CheckResult{IsPath: true, From: shape.From, To: shape.To, MinCoverage: m}, nil
}

// PathMin 返回 u-v 路径上的最小覆盖次数，路径没有边时为 0。
func (nw *Network) PathMin(ctx context.Context, u, v int) (m int64, err error) {
	_, done := nw.observe(ctx, OpPathMin, &err)
	defer done()

	if err = nw.checkNodes(u, v); err != nil {
		return 0, err
	}

	nw.mu.Lock()
	m = nw.cov.PathMin(u, v)
	nw.mu.Unlock()

	if m == Inf {
		return 0, nil
	}
	return m, nil
}

// EdgeCoverage 返回边 (parent(child), child) 的覆盖次数。
func (nw *Network) EdgeCoverage(child int) (int64, error) {
	if err := nw.checkNodes(child); err != nil {
		return 0, err
	}
	nw.mu.Lock()
	defer nw.mu.Unlock()
	return nw.cov.EdgeCoverage(child), nil
}

// LCA 返回以节点 0 为根时 u 与 v 的最近公共祖先。
func (nw *Network) LCA(u, v int) (int, error) {
	if err := nw.checkNodes(u, v); err != nil {
		return 0, err
	}
	return nw.idx.LCA(u, v), nil
}

// Distance 返回 u 与 v 之间的边数。
func (nw *Network) Distance(u, v int) (int, error) {
	if err := nw.checkNodes(u, v); err != nil {
		return 0, err
	}
	return nw.idx.Distance(u, v), nil
}

// ActiveLines 返回当前激活线路的有序快照。
func (nw *Network) ActiveLines() []Line {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	return nw.lines.Lines()
}

func (nw *Network) checkNodes(nodes ...int) error {
	for _, v := range nodes {
		if !nw.idx.Contains(v) {
			return xerrors.ErrNodeOutOfRange.Derive().
				WithDetail("node %d outside [0, %d)", v, nw.idx.Len()).
				WithContext("node", v)
		}
	}
	return nil
}

// observe 为一次操作开启 Span，返回的 done 负责记录耗时、错误与指标。
func (nw *Network) observe(ctx context.Context, op string, errp *error) (context.Context, func()) {
	ctx, span := tracing.StartSpan(ctx, "linecover."+op)
	start := time.Now()
	return ctx, func() {
		err := *errp
		if err != nil {
			tracing.SetError(ctx, err)
			nw.logger.DebugContext(ctx, "operation failed", "op", op, "error", err)
		}
		nw.recorder.ObserveOp(op, err, time.Since(start))
		span.End()
	}
}
