package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coursetrack",
		Short: "Course completion and progress tracking backend",
		Long: `coursetrack records which lessons a user has completed, rolls completion
up through the course tree, keeps the derived "done" marks in sync and
serves it all over an HTTP API.

Configuration is read from the environment (DB_DRIVER, POSTGRES_*,
JWT_SECRET_KEY, REDIS_ADDR, ...).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reconcile worker",
		Args:  cobra.NoArgs,
		RunE:  RunServe,
	}
	serveCmd.Flags().Bool("migrate", true, "Run auto-migrations before serving")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE:  RunMigrate,
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute derived done marks from completion marks",
		Args:  cobra.NoArgs,
		RunE:  RunReconcile,
	}
	reconcileCmd.Flags().String("user", "", "Reconcile a single user (UUID); default is every user")
	reconcileCmd.Flags().Bool("dry-run", false, "Report drift without repairing it")
	reconcileCmd.Flags().Bool("json", false, "Print machine-readable result")

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE:  RunToken,
	}
	tokenCmd.Flags().String("user", "", "User id (UUID) to put in the subject claim")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (default 1h)")
	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(serveCmd, migrateCmd, reconcileCmd, tokenCmd)
	return rootCmd
}
