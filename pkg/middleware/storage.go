package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/employeeman/pkg/context"
	"github.com/yeisme/employeeman/pkg/internal/service"
	"github.com/yeisme/employeeman/pkg/internal/storage"
)

// StorageMiddleware 把存储管理器与业务服务注入请求上下文，任一参数可为 nil.
func StorageMiddleware(manager *storage.Manager, svc *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if manager != nil {
			ctx = context.WithStorageManager(ctx, manager)
		}

		if svc != nil {
			ctx = context.WithServices(ctx, svc)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
