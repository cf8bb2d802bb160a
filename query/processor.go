package query

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/wyfcoding/linecover/contextx"
	"github.com/wyfcoding/linecover/coverage"
	"github.com/wyfcoding/linecover/idgen"
	"github.com/wyfcoding/linecover/logging"
	"github.com/wyfcoding/linecover/tracing"
	"github.com/wyfcoding/linecover/xerrors"
)

// cancelCheckInterval 每执行这么多条查询检查一次 ctx 是否已取消。
const cancelCheckInterval = 1024

// Recorder 在 coverage.Recorder 之上增加批处理级别的观测。
type Recorder interface {
	coverage.Recorder
	ObserveBatch(err error)
}

// Summary 汇总一次批处理运行。
type Summary struct {
	RunID    string
	Nodes    int
	Queries  int
	Adds     int
	Removes  int
	Checks   int
	Paths    int // 判定为简单路径的检查数
	Duration time.Duration
}

// Processor 顺序执行文本协议中的查询。每次 Run 都会构建一个新的 Network。
type Processor struct {
	logger   *slog.Logger
	recorder Recorder
	ids      idgen.Generator
	nwOpts   []coverage.Option
}

// ProcessorOption 配置 Processor。
type ProcessorOption func(*Processor)

func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithRecorder(r Recorder) ProcessorOption {
	return func(p *Processor) { p.recorder = r }
}

// WithIDGenerator 指定运行 ID 的生成器，默认使用 idgen.Default()。
func WithIDGenerator(g idgen.Generator) ProcessorOption {
	return func(p *Processor) {
		if g != nil {
			p.ids = g
		}
	}
}

// WithNetworkOptions 追加构建 Network 时使用的选项，例如 coverage.WithMaxPairs。
func WithNetworkOptions(opts ...coverage.Option) ProcessorOption {
	return func(p *Processor) { p.nwOpts = append(p.nwOpts, opts...) }
}

// NewProcessor 创建一个新的 Processor。
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{logger: logging.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	if p.ids == nil {
		p.ids = idgen.Default()
	}
	return p
}

// Run 读取完整输入，为每条路径检查向 w 写出一行整数。遇到格式错误或前置条件错误立即停止，
// 已产生的输出仍会被刷新。
func (p *Processor) Run(ctx context.Context, r io.Reader, w io.Writer) (sum Summary, err error) {
	sum.RunID = strconv.FormatInt(p.ids.Generate(), 10)
	ctx = contextx.WithRunID(ctx, sum.RunID)
	ctx, span := tracing.StartSpan(ctx, "query.Run")
	start := time.Now()
	defer func() {
		sum.Duration = time.Since(start)
		if err != nil {
			tracing.SetError(ctx, err)
			p.logger.ErrorContext(ctx, "batch run failed", "error", err)
		} else {
			p.logger.InfoContext(ctx, "batch run finished",
				"nodes", sum.Nodes, "queries", sum.Queries, "adds", sum.Adds,
				"removes", sum.Removes, "checks", sum.Checks, "paths", sum.Paths,
				"duration", sum.Duration)
		}
		if p.recorder != nil {
			p.recorder.ObserveBatch(err)
		}
		span.End()
	}()

	rd := NewReader(r)
	nw, header, err := p.load(ctx, rd)
	if err != nil {
		return sum, err
	}
	sum.Nodes = header.Nodes

	bw := bufio.NewWriter(w)
	replayErr := p.replay(ctx, nw, rd, header.Queries, bw, &sum)
	if flushErr := bw.Flush(); flushErr != nil && replayErr == nil {
		return sum, xerrors.WrapInternal(flushErr, "flush output")
	}
	return sum, replayErr
}

// LoadNetwork 读取头部与树边并构建 Network，随后重放输入中的全部查询（检查结果被丢弃）。
// 用于 HTTP 服务启动时装载初始状态。
func (p *Processor) LoadNetwork(ctx context.Context, r io.Reader) (*coverage.Network, Summary, error) {
	var sum Summary
	rd := NewReader(r)
	nw, header, err := p.load(ctx, rd)
	if err != nil {
		return nil, sum, err
	}
	sum.Nodes = header.Nodes
	if err := p.replay(ctx, nw, rd, header.Queries, io.Discard, &sum); err != nil {
		return nil, sum, err
	}
	return nw, sum, nil
}

func (p *Processor) load(ctx context.Context, rd *Reader) (*coverage.Network, Header, error) {
	header, err := rd.ReadHeader()
	if err != nil {
		return nil, Header{}, err
	}
	edges, err := rd.ReadEdges()
	if err != nil {
		return nil, Header{}, err
	}

	opts := []coverage.Option{coverage.WithLogger(p.logger)}
	if p.recorder != nil {
		opts = append(opts, coverage.WithRecorder(p.recorder))
	}
	opts = append(opts, p.nwOpts...)
	nw, err := coverage.NewNetwork(header.Nodes, edges, opts...)
	if err != nil {
		return nil, Header{}, err
	}
	p.logger.DebugContext(ctx, "tree loaded", "nodes", header.Nodes, "queries", header.Queries)
	return nw, header, nil
}

func (p *Processor) replay(ctx context.Context, nw *coverage.Network, rd *Reader, n int, w io.Writer, sum *Summary) error {
	var buf []byte
	for i := range n {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		q, err := rd.ReadQuery()
		if err != nil {
			return queryError(err, i)
		}
		sum.Queries++

		switch q.Kind {
		case KindAdd:
			err = nw.AddLine(ctx, q.U, q.V)
			sum.Adds++
		case KindRemove:
			err = nw.RemoveLine(ctx, q.U, q.V)
			sum.Removes++
		case KindCheck:
			var res coverage.CheckResult
			res, err = nw.CheckPaths(ctx, q.Pairs)
			if err == nil {
				sum.Checks++
				if res.IsPath {
					sum.Paths++
				}
				buf = strconv.AppendInt(buf[:0], res.MinCoverage, 10)
				buf = append(buf, '\n')
				if _, werr := w.Write(buf); werr != nil {
					return xerrors.WrapInternal(werr, "write output")
				}
			}
		}
		if err != nil {
			return queryError(err, i)
		}
	}
	return nil
}

// queryError 为错误附加 1 起始的查询序号。
func queryError(err error, i int) error {
	return xerrors.Wrap(err, xerrors.ErrInvalidArg, fmt.Sprintf("query %d failed", i+1)).
		WithContext("query", i+1)
}
