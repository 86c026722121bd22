// Package metrics 提供监控指标功能.
// 支持 Prometheus 标准，收集 HTTP、领域操作与运行时指标.
//
// Example:
//
//	import "github.com/yeisme/employeeman/pkg/metrics"
//
//	metrics.Init(config.Metrics)
//	metrics.Register(engine, config.Metrics)
//
//	// 记录指标
//	metrics.EmployeeWrites.WithLabelValues("create", "ok").Inc()
package metrics

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/employeeman/pkg/configs"
)

const namespace = "employeeman"

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// EmployeeWrites 员工写操作次数，按操作与结果区分.
	EmployeeWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "employee_writes_total",
			Help:      "Employee write operations by op and result",
		},
		[]string{"op", "result"},
	)

	// MediaOps 媒体登记操作次数.
	MediaOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_operations_total",
			Help:      "Media registry operations by op and result",
		},
		[]string{"op", "result"},
	)

	// CompensationFailures 回滚后删除暂存文件失败的次数.
	CompensationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensation_failures_total",
			Help:      "Staged files that could not be removed after a rollback",
		},
	)

	// ImportRows CSV 导入行数，按结果区分.
	ImportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Rows processed by CSV imports by result",
		},
		[]string{"result"},
	)

	// ReconcileFindings 对账发现的问题数量.
	ReconcileFindings = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconcile_findings",
			Help:      "Findings of the last media reconciliation sweep",
		},
		[]string{"kind"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	runtimeOnce sync.Once
)

func init() {
	registry.MustRegister(
		RequestCounter, RequestDuration,
		EmployeeWrites, MediaOps, CompensationFailures,
		ImportRows, ReconcileFindings,
	)
}

// Init 按配置注册运行时收集器，多次调用只生效一次.
func Init(config configs.MetricsConfig) {
	if !config.Enabled || !config.RuntimeMetrics {
		return
	}

	runtimeOnce.Do(func() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// Register 在引擎上挂载指标端点.
func Register(engine *gin.Engine, config configs.MetricsConfig) {
	if !config.Enabled {
		return
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Result 把错误转换为 ok / error 标签值.
func Result(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
