package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/disk"

	ctxPkg "github.com/yeisme/employeeman/pkg/context"
)

const timeout = 2 * time.Second

// usageReporter 能报告所在磁盘容量的文件存储（本地后端）.
type usageReporter interface {
	Usage(ctx context.Context) (*disk.UsageStat, error)
}

func unhealthy(c *gin.Context, component, msg string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": msg})
}

// Health 进程存活检查.
//
//	@Summary	健康检查
//	@Tags		健康
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil {
		unhealthy(c, "db", "db client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := dbc.HealthCheck(ctx); err != nil {
		unhealthy(c, "db", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "db", "status": "ok"})
}

// HealthStorage 文件存储健康检查，本地后端附带磁盘用量.
func HealthStorage(c *gin.Context) {
	files := ctxPkg.GetFileStore(c.Request.Context())
	if files == nil {
		unhealthy(c, "storage", "file store not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := files.HealthCheck(ctx); err != nil {
		unhealthy(c, "storage", err.Error())
		return
	}

	body := gin.H{"component": "storage", "status": "ok", "disk": files.Disk()}

	if ur, ok := files.(usageReporter); ok {
		if u, err := ur.Usage(ctx); err == nil && u != nil {
			body["usage"] = gin.H{
				"path":         u.Path,
				"total":        u.Total,
				"free":         u.Free,
				"used_percent": u.UsedPercent,
			}
		}
	}

	c.JSON(http.StatusOK, body)
}

// HealthMQ 消息队列健康检查.
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())

	if err := mqc.HealthCheck(c.Request.Context()); err != nil {
		unhealthy(c, "mq", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "ok", "type": mqc.Type()})
}
