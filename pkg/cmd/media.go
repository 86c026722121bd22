package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/yeisme/employeeman/pkg/app"
)

var (
	sweepPurge bool

	mediaCmd = &cobra.Command{
		Use:   "media",
		Short: "Media registry commands",
	}

	mediaSweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "compare the media registry with stored files once",
		Long: "Reports registry rows whose file is missing and stored files without a registry row. " +
			"Unregistered files are deleted only with --purge (defaults to reconcile.purge).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				purge := a.Services.Reconciler.Purge()
				if cmd.Flags().Changed("purge") {
					purge = sweepPurge
				}

				report, err := a.Services.Reconciler.Sweep(ctx, purge)
				if err != nil {
					return err
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")

				return enc.Encode(report)
			})
		},
	}
)

// registerMediaCommands 注册媒体相关命令.
func registerMediaCommands() {
	mediaSweepCmd.Flags().BoolVar(&sweepPurge, "purge", false, "delete unregistered files past the grace period")

	mediaCmd.AddCommand(mediaSweepCmd)
	rootCmd.AddCommand(mediaCmd)
}
