package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/linecover/coverage"
	"github.com/wyfcoding/linecover/health"
	"github.com/wyfcoding/linecover/response"
	"github.com/wyfcoding/linecover/xerrors"
)

// LineRequest 使用 1 起始的节点编号，与文本协议一致。
type LineRequest struct {
	U *int `json:"u" binding:"required"`
	V *int `json:"v" binding:"required"`
}

type LineResponse struct {
	U int `json:"u"`
	V int `json:"v"`
}

type CheckRequest struct {
	Pairs [][2]int `json:"pairs" binding:"required"`
}

type CheckResponse struct {
	IsPath      bool  `json:"is_path"`
	From        int   `json:"from"` // 非路径时为 0
	To          int   `json:"to"`
	MinCoverage int64 `json:"min_coverage"`
}

// Handler 把 HTTP 请求翻译成对 Network 的调用。Network 自身是并发安全的。
type Handler struct {
	nw       *coverage.Network
	logger   *slog.Logger
	checkers map[string]health.Checker
}

func NewHandler(nw *coverage.Network, logger *slog.Logger) *Handler {
	return &Handler{nw: nw, logger: logger}
}

// Register 在 r 上挂载 /api/v1 路由、/healthz 与 /readyz。
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)

	v1 := r.Group("/api/v1")
	v1.GET("/lines", h.listLines)
	v1.POST("/lines", h.addLine)
	v1.DELETE("/lines", h.removeLine)
	v1.POST("/paths/check", h.checkPaths)
	v1.GET("/paths/min", h.pathMin)
}

func (h *Handler) health(c *gin.Context) {
	response.SuccessWithRawData(c, gin.H{"status": "ok", "nodes": h.nw.NodeCount()})
}

func (h *Handler) ready(c *gin.Context) {
	report := health.Run(c.Request.Context(), h.checkers, 0)
	if !report.Healthy() {
		h.logger.WarnContext(c.Request.Context(), "readiness check failed", "checks", report.Checks)
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}
	response.SuccessWithRawData(c, report)
}

func (h *Handler) listLines(c *gin.Context) {
	lines := h.nw.ActiveLines()
	out := make([]LineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineResponse{U: l.U + 1, V: l.V + 1})
	}
	response.Success(c, out)
}

func (h *Handler) addLine(c *gin.Context) {
	req, ok := h.bindLine(c)
	if !ok {
		return
	}
	if err := h.nw.AddLine(c.Request.Context(), *req.U-1, *req.V-1); err != nil {
		h.fail(c, err)
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, LineResponse{U: *req.U, V: *req.V})
}

func (h *Handler) removeLine(c *gin.Context) {
	req, ok := h.bindLine(c)
	if !ok {
		return
	}
	if err := h.nw.RemoveLine(c.Request.Context(), *req.U-1, *req.V-1); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, LineResponse{U: *req.U, V: *req.V})
}

func (h *Handler) checkPaths(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, xerrors.ErrParse.Derive().WithDetail("%v", err))
		return
	}

	pairs := make([]coverage.Pair, len(req.Pairs))
	for i, p := range req.Pairs {
		pairs[i] = coverage.Pair{U: p[0] - 1, V: p[1] - 1}
	}
	res, err := h.nw.CheckPaths(c.Request.Context(), pairs)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, CheckResponse{
		IsPath:      res.IsPath,
		From:        res.From + 1,
		To:          res.To + 1,
		MinCoverage: res.MinCoverage,
	})
}

func (h *Handler) pathMin(c *gin.Context) {
	u, err1 := strconv.Atoi(c.Query("u"))
	v, err2 := strconv.Atoi(c.Query("v"))
	if err1 != nil || err2 != nil {
		h.fail(c, xerrors.ErrParse.Derive().WithDetail("u and v must be integers"))
		return
	}
	m, err := h.nw.PathMin(c.Request.Context(), u-1, v-1)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"u": u, "v": v, "min_coverage": m})
}

func (h *Handler) bindLine(c *gin.Context) (LineRequest, bool) {
	var req LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, xerrors.ErrParse.Derive().WithDetail("%v", err))
		return req, false
	}
	return req, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	h.logger.WarnContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	response.Error(c, err)
}
