package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/learnify/learnify-hub/config"
	"github.com/learnify/learnify-hub/internal/infrastructure/persistence/postgres"
)

func newMigrateCmd(envFile *string) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: withMigrator(envFile, func(ctx context.Context, m *postgres.Migrator, out io.Writer) error {
			if err := m.Migrate(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, "schema is up to date")
			return nil
		}),
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last applied migration",
		RunE: withMigrator(envFile, func(ctx context.Context, m *postgres.Migrator, out io.Writer) error {
			if err := m.Rollback(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, "rolled back one migration")
			return nil
		}),
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: withMigrator(envFile, func(ctx context.Context, m *postgres.Migrator, out io.Writer) error {
			migrations, err := m.Status(ctx)
			if err != nil {
				return err
			}
			return printMigrations(out, migrations)
		}),
	})

	return migrate
}

// withMigrator connects to the configured database and runs fn.
func withMigrator(envFile *string, fn func(ctx context.Context, m *postgres.Migrator, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(*envFile)
		if err != nil {
			return err
		}
		if cfg.Store.Driver != config.DriverPostgres {
			return fmt.Errorf("migrations apply to STORE_DRIVER=postgres, got %q", cfg.Store.Driver)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		conn, err := connectPostgres(ctx, cfg, slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)))
		if err != nil {
			return err
		}
		defer conn.Close()

		return fn(ctx, postgres.NewMigrator(conn), cmd.OutOrStdout())
	}
}

func printMigrations(out io.Writer, migrations []postgres.Migration) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
	for _, m := range migrations {
		applied := "pending"
		if m.IsApplied {
			applied = m.AppliedAt.UTC().Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Version, m.Name, applied)
	}
	return tw.Flush()
}
