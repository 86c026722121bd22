package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/employeeman/pkg/app"
	"github.com/yeisme/employeeman/pkg/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the HTTP server, scheduled jobs and event consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(cmd, func(_ context.Context, a *app.App) error {
			err := a.Run(ctx)

			log.Logger().Info().Err(err).Msg("server stopped")

			return err
		})
	},
}

// registerServeCommands 注册 serve 命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
