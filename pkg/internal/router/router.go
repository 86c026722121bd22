// Package router 把请求处理器绑定到 gin 路由，只负责路径、方法与路由级中间件.
package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/internal/handle"
	"github.com/yeisme/employeeman/pkg/middleware"
)

// multipartSlack 为 multipart 边界与普通表单字段预留的请求体余量.
const multipartSlack = 1 << 20

// RegisterEmployeeRoutes 注册员工路由.
//
//	POST   /employees                     创建（multipart 或 JSON）
//	GET    /employees                     列表
//	GET    /employees/departments/search  部门搜索
//	GET    /employees/export/csv          CSV 导出
//	POST   /employees/import/csv          CSV 导入
//	GET    /employees/import/:id          导入报告
//	GET    /employees/:id                 详情
//	PATCH  /employees/:id                 部分更新
//	DELETE /employees/:id                 删除
func RegisterEmployeeRoutes(g *gin.RouterGroup, cfg *configs.AppConfig) {
	uploadLimit := middleware.BodyLimit(cfg.Storage.MaxUploadBytes() + multipartSlack)

	employees := g.Group("/employees")
	{
		employees.POST("", uploadLimit, handle.CreateEmployee)
		employees.GET("", handle.ListEmployees)

		employees.GET("/departments/search", handle.SearchDepartments)
		employees.GET("/export/csv", gzip.Gzip(gzip.DefaultCompression), handle.ExportEmployees)
		employees.POST("/import/csv", middleware.BodyLimit(cfg.Import.MaxFileBytes()+multipartSlack), handle.ImportEmployees)
		employees.GET("/import/:id", handle.GetImportReport)

		single := employees.Group("/:id")
		{
			single.GET("", handle.GetEmployee)
			single.PATCH("", uploadLimit, handle.UpdateEmployee)
			single.DELETE("", handle.DeleteEmployee)
		}
	}
}

// RegisterMediaRoutes 注册媒体路由.
func RegisterMediaRoutes(g *gin.RouterGroup, cfg *configs.AppConfig) {
	media := g.Group("/media")
	{
		media.POST("/upload", middleware.BodyLimit(cfg.Storage.MaxUploadBytes()+multipartSlack), handle.UploadMedia)
		media.DELETE("/delete", handle.DeleteMedia)
		media.GET("/file/:filename", handle.GetMediaFile)
	}
}
