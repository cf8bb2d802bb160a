// Package metrics 封装了基于 Prometheus 的指标注册表以及线路覆盖服务的标准指标。
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linecover"

// Metrics 封装了独立的 Prometheus 注册中心及预定义指标。
type Metrics struct {
	registry *prometheus.Registry // 内部独立的 Prometheus 注册中心

	OpsTotal       *prometheus.CounterVec   // 操作总量 (维度: op, result)
	OpDuration     *prometheus.HistogramVec // 操作耗时分布 (维度: op)
	ChecksTotal    *prometheus.CounterVec   // 路径检查结果 (维度: outcome)
	ActiveLines    prometheus.Gauge         // 当前激活的线路数
	BatchRunsTotal *prometheus.CounterVec   // 批处理运行次数 (维度: result)

	HTTPRequestsTotal     *prometheus.CounterVec   // HTTP 请求总量 (维度: method, path, status)
	HTTPRequestDuration   *prometheus.HistogramVec // HTTP 请求耗时分布
	HTTPInFlight          *prometheus.GaugeVec     // 处理中的 HTTP 请求
	HTTPSlowRequestsTotal *prometheus.CounterVec   // 慢请求计数

	BuildInfo *prometheus.GaugeVec
}

// NewMetrics 初始化并返回一个新的指标采集器，自动注册 Go 运行时与进程指标。
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.OpsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of line and path operations",
	}, []string{"op", "result"})

	m.OpDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Latency of line and path operations in seconds",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
	}, []string{"op"})

	m.ChecksTotal = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "path_checks_total",
		Help:      "Path checks grouped by whether the union formed a simple path",
	}, []string{"outcome"})

	m.ActiveLines = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_lines",
		Help:      "Number of currently active lines",
	})
	m.registry.MustRegister(m.ActiveLines)

	m.BatchRunsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_runs_total",
		Help:      "Batch runs of the text protocol",
	}, []string{"result"})

	m.HTTPRequestsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "http_server_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_server_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	m.HTTPInFlight = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_server_in_flight_requests",
		Help: "HTTP requests currently being served",
	}, []string{"method", "path"})

	m.HTTPSlowRequestsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "http_server_slow_requests_total",
		Help: "HTTP requests slower than the configured threshold",
	}, []string{"method", "path"})

	slog.Debug("unified metrics registry initialized", "service", serviceName)
	return m
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Registry 返回内部注册中心，主要用于测试断言。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOp 记录一次操作的结果与耗时。
func (m *Metrics) ObserveOp(op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OpsTotal.WithLabelValues(op, result).Inc()
	m.OpDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveCheck 记录一次路径检查的判定结果。
func (m *Metrics) ObserveCheck(isPath bool) {
	if m == nil {
		return
	}
	outcome := "not_path"
	if isPath {
		outcome = "path"
	}
	m.ChecksTotal.WithLabelValues(outcome).Inc()
}

// SetActiveLines 更新当前激活线路数。
func (m *Metrics) SetActiveLines(n int) {
	if m == nil {
		return
	}
	m.ActiveLines.Set(float64(n))
}

// ObserveBatch 记录一次批处理运行。
func (m *Metrics) ObserveBatch(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.BatchRunsTotal.WithLabelValues(result).Inc()
}

// Handler 返回用于暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve 在 addr 上启动独立的指标 HTTP 服务器，阻塞直到 ctx 取消后优雅关闭。
func (m *Metrics) Serve(ctx context.Context, addr, path string) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown metrics server", "error", err)
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}
