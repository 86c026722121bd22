package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mq "github.com/yeisme/employeeman/pkg/internal/storage/mq"
	"github.com/yeisme/employeeman/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Message queue (domain events) related commands",
		Aliases: []string{"messagequeue"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered mq types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered mq types:")
			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}
)

var mqTopicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "list the domain event topics published by the service",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range queue.AllTopics {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
	},
}

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd)
	mqCmd.AddCommand(mqTopicsCmd)
}
