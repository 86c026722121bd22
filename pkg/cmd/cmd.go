// Package cmd contains the command line applications for the project.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yeisme/employeeman/pkg/app"
	"github.com/yeisme/employeeman/pkg/configs"
)

var (
	// configPath 配置文件路径或所在目录.
	configPath string
	// debug 输出额外的调试信息.
	debug bool

	rootCmd = &cobra.Command{
		Use:          "employeeman",
		Short:        "Employee records and media management service",
		Version:      configs.AppVersion,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print debug output")

	registerServeCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerEmployeesCommands()
	registerMediaCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// withApp 初始化完整应用后执行 fn，结束时释放资源.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()

	a, err := app.NewApp(ctx, configPath)
	if err != nil {
		return err
	}

	defer func() { _ = a.Close() }()

	return fn(ctx, a)
}
