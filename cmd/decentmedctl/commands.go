package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/samsalgado/DECENTMED-SERVER/internal/database"
	"github.com/samsalgado/DECENTMED-SERVER/internal/repository"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
	"github.com/spf13/cobra"
)

// opener returns an open, migrated gateway.
type opener func(ctx context.Context) (*database.Gateway, error)

func openFromEnv(ctx context.Context) (*database.Gateway, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	gw := database.NewGateway(database.Postgres(dsn), database.DefaultOptions())
	if _, err := gw.Open(ctx); err != nil {
		return nil, err
	}
	return gw, nil
}

func newRootCmd(open opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "decentmedctl",
		Short:         "Operator tasks for the DecentMed booking server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd(open))
	rootCmd.AddCommand(grantRoleCmd(open))
	rootCmd.AddCommand(usersCmd(open))
	return rootCmd
}

func migrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer gw.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func grantRoleCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:     "grant-role [email] [role]",
		Short:   "Set the role of an existing user (user, provider, admin)",
		Example: "  decentmedctl grant-role ops@themerlingroupworld.com admin",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer gw.Close()

			db, err := gw.DB()
			if err != nil {
				return err
			}
			users := repository.NewUserRepository(db, database.DefaultOptions().PingTimeout)
			if err := service.GrantRole(cmd.Context(), users, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", args[1], args[0])
			return nil
		},
	}
}

func usersCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer gw.Close()

			db, err := gw.DB()
			if err != nil {
				return err
			}
			list, err := repository.NewUserRepository(db, database.DefaultOptions().PingTimeout).List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tROLE\tPROVIDER\tCREATED")
			for _, u := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Email, u.Role, u.AuthProvider, u.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}
