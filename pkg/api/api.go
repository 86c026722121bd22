// Package api 组装 HTTP 引擎：全局中间件链、/api/v1 业务路由、健康检查与指标端点.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/internal/router"
	"github.com/yeisme/employeeman/pkg/internal/service"
	"github.com/yeisme/employeeman/pkg/internal/storage"
	"github.com/yeisme/employeeman/pkg/metrics"
	"github.com/yeisme/employeeman/pkg/middleware"
)

// Prefix 业务接口的路由前缀.
const Prefix = "/api/v1"

// NewEngine 创建挂好全部中间件与路由的 gin 引擎. manager 可为 nil（测试中只注入服务）.
func NewEngine(cfg *configs.AppConfig, manager *storage.Manager, svc *service.Services) *gin.Engine {
	e := gin.New()
	e.MaxMultipartMemory = 8 << 20

	e.Use(
		gin.Recovery(),
		middleware.TracingMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Server),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
		middleware.StorageMiddleware(manager, svc),
	)

	return RegisterGroup(e, cfg)
}

// RegisterGroup 注册业务路由组、健康检查与指标端点.
func RegisterGroup(e *gin.Engine, cfg *configs.AppConfig) *gin.Engine {
	v1 := e.Group(Prefix)
	router.RegisterEmployeeRoutes(v1, cfg)
	router.RegisterMediaRoutes(v1, cfg)

	router.RegisterHealthCheckRoute(e)
	metrics.Register(e, cfg.Metrics)

	return e
}
