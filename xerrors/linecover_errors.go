package xerrors

// 线路覆盖领域的错误目录。这些值只用于 errors.Is 比较与 Derive，不要直接修改。
var (
	// ErrInvalidTree 树的结构不合法（边数、自环、不连通）。
	ErrInvalidTree = New(ErrInvalidArg, 400101, "invalid tree", "expect n-1 edges forming a connected tree", nil)
	// ErrNodeOutOfRange 节点编号越界。
	ErrNodeOutOfRange = New(ErrOutOfRange, 400102, "node out of range", "node id must be within [0, n)", nil)
	// ErrEmptyQuery 路径检查请求没有携带任何路径。
	ErrEmptyQuery = New(ErrInvalidArg, 400103, "empty path query", "at least one pair is required", nil)
	// ErrParse 文本输入格式错误。
	ErrParse = New(ErrInvalidArg, 400104, "malformed input", "", nil)
	// ErrLineExists 重复添加同一条线路。
	ErrLineExists = New(ErrAlreadyExists, 409101, "line already active", "remove it before adding again", nil)
	// ErrLineNotActive 删除一条未激活的线路。
	ErrLineNotActive = New(ErrFailedPrecondition, 409102, "line not active", "only active lines can be removed", nil)
)
