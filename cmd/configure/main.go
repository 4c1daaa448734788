package main

import (
	"fmt"
	"os"

	"github.com/7flash/argilla/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "argilla-configure",
		Short:         "Operations tool for the Argilla server",
		Long:          "CLI tool for managing users and workspaces and migrating the database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewWorkspacesCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
