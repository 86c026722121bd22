// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/employeeman/pkg/cmd"
)

//	@title			EmployeeMan API
//	@version		1.0
//	@description	员工档案服务，提供员工增删改查、照片与媒体登记、CSV 导入导出。
//	@BasePath		/

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
