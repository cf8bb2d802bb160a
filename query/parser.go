// Package query 实现了线路覆盖的文本协议：读取树与查询序列，逐条执行并输出路径检查结果。
//
// 输入格式（以空白分隔，节点编号从 1 开始）：
//
//	n q
//	u v            （共 n-1 行树边）
//	1 u v          添加线路
//	2 u v          删除线路
//	3 k            路径检查，后跟 k 行 u v
package query

import (
	"bufio"
	"io"
	"strconv"

	"github.com/wyfcoding/linecover/algorithm/graph"
	"github.com/wyfcoding/linecover/coverage"
	"github.com/wyfcoding/linecover/xerrors"
)

// Kind 是查询类型，取值与协议中的类型号一致。
type Kind int

const (
	KindAdd    Kind = 1
	KindRemove Kind = 2
	KindCheck  Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindRemove:
		return "remove"
	case KindCheck:
		return "check"
	default:
		return "unknown"
	}
}

// Query 是解析后的一条查询，节点编号已转换为 0 起始。
type Query struct {
	Kind  Kind
	U, V  int             // KindAdd / KindRemove
	Pairs []coverage.Pair // KindCheck
}

// Header 是输入的第一行。
type Header struct {
	Nodes   int
	Queries int
}

const maxTokenSize = 1 << 20

// Reader 以流式方式解析文本协议，任何格式错误都会立即失败并携带出错的 token 序号。
type Reader struct {
	sc    *bufio.Scanner
	token int // 已读取的 token 数
	nodes int
}

// NewReader 创建一个新的 Reader。
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxTokenSize)
	sc.Split(bufio.ScanWords)
	return &Reader{sc: sc}
}

// ReadHeader 读取 "n q"。
func (r *Reader) ReadHeader() (Header, error) {
	n, err := r.nextInt("node count")
	if err != nil {
		return Header{}, err
	}
	if n <= 0 {
		return Header{}, r.parseError("node count must be positive, got %d", n)
	}
	q, err := r.nextInt("query count")
	if err != nil {
		return Header{}, err
	}
	if q < 0 {
		return Header{}, r.parseError("query count must be non-negative, got %d", q)
	}
	r.nodes = n
	return Header{Nodes: n, Queries: q}, nil
}

// ReadEdges 读取 n-1 条树边，必须在 ReadHeader 之后调用。
func (r *Reader) ReadEdges() ([]graph.Edge, error) {
	edges := make([]graph.Edge, 0, r.nodes-1)
	for i := 0; i < r.nodes-1; i++ {
		u, v, err := r.nextPair("edge")
		if err != nil {
			return nil, err
		}
		edges = append(edges, graph.Edge{U: u, V: v})
	}
	return edges, nil
}

// ReadQuery 读取下一条查询。
func (r *Reader) ReadQuery() (Query, error) {
	t, err := r.nextInt("query type")
	if err != nil {
		return Query{}, err
	}

	switch kind := Kind(t); kind {
	case KindAdd, KindRemove:
		u, v, err := r.nextPair(kind.String())
		if err != nil {
			return Query{}, err
		}
		return Query{Kind: kind, U: u, V: v}, nil
	case KindCheck:
		k, err := r.nextInt("pair count")
		if err != nil {
			return Query{}, err
		}
		if k <= 0 {
			return Query{}, r.parseError("pair count must be positive, got %d", k)
		}
		pairs := make([]coverage.Pair, 0, min(k, 1024))
		for range k {
			u, v, err := r.nextPair("pair")
			if err != nil {
				return Query{}, err
			}
			pairs = append(pairs, coverage.Pair{U: u, V: v})
		}
		return Query{Kind: KindCheck, Pairs: pairs}, nil
	default:
		return Query{}, r.parseError("unknown query type %d", t)
	}
}

// nextPair 读取两个 1 起始的节点编号并转换为 0 起始。
func (r *Reader) nextPair(what string) (int, int, error) {
	u, err := r.nextNode(what)
	if err != nil {
		return 0, 0, err
	}
	v, err := r.nextNode(what)
	if err != nil {
		return 0, 0, err
	}
	return u, v, nil
}

func (r *Reader) nextNode(what string) (int, error) {
	x, err := r.nextInt(what + " endpoint")
	if err != nil {
		return 0, err
	}
	if x < 1 || x > r.nodes {
		return 0, r.parseError("%s endpoint %d outside [1, %d]", what, x, r.nodes)
	}
	return x - 1, nil
}

func (r *Reader) nextInt(what string) (int, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return 0, xerrors.ErrParse.Derive().
				WithDetail("reading %s at token %d", what, r.token+1).
				WithCause(err)
		}
		return 0, r.parseError("unexpected end of input, expected %s", what)
	}
	r.token++
	tok := r.sc.Text()
	x, err := strconv.Atoi(tok)
	if err != nil {
		return 0, r.parseError("expected %s, got %q", what, tok)
	}
	return x, nil
}

func (r *Reader) parseError(format string, args ...any) error {
	return xerrors.ErrParse.Derive().
		WithDetail(format, args...).
		WithContext("token", r.token)
}
