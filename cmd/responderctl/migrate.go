package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wolfman30/hijama-dm-responder/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run the embedded Postgres migrations against DATABASE_URL",
	}

	withMigrator := func(run func(cmd *cobra.Command, m *migrations.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			m, err := migrations.Open(cmd.Context(), os.Getenv("DATABASE_URL"))
			if err != nil {
				return err
			}
			defer m.Close()
			return run(cmd, m)
		}
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *migrations.Migrator) error {
			return m.Down(steps)
		}),
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *migrations.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations complete")
				return nil
			}),
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *migrations.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
				return nil
			}),
		},
	)
	return cmd
}
