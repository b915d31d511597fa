package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/templui/taskpilot/cmd/admin/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "admin",
		Short:        "Operator tools for taskpilot",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.PremiumCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
