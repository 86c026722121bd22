package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yeisme/employeeman/pkg/app"
)

var (
	exportOut  string
	importFile string

	employeesCmd = &cobra.Command{
		Use:     "employees",
		Short:   "Employee records commands",
		Aliases: []string{"emp"},
	}

	employeesExportCmd = &cobra.Command{
		Use:   "export",
		Short: "export all employees as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var w io.Writer = cmd.OutOrStdout()

				if exportOut != "" && exportOut != "-" {
					f, err := os.Create(exportOut)
					if err != nil {
						return err
					}
					defer f.Close()

					w = f
				}

				n, err := a.Services.Transfer.Export(ctx, w)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d employees\n", n)

				return nil
			})
		},
	}

	employeesImportCmd = &cobra.Command{
		Use:   "import",
		Short: "import employees from a CSV file, all rows or none",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(importFile)
			if err != nil {
				return err
			}
			defer f.Close()

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, importErr := a.Services.Transfer.Import(ctx, f)

				if report != nil {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")

					if err := enc.Encode(report); err != nil {
						return err
					}
				}

				return importErr
			})
		},
	}
)

// registerEmployeesCommands 注册员工相关命令.
func registerEmployeesCommands() {
	employeesExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, stdout when empty")
	employeesImportCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file to import")
	_ = employeesImportCmd.MarkFlagRequired("file")

	employeesCmd.AddCommand(employeesExportCmd)
	employeesCmd.AddCommand(employeesImportCmd)

	rootCmd.AddCommand(employeesCmd)
}
