package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func (a *app) migrateCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage goose schema migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", migrate.DefaultDir, "goose migrations directory")

	goose := func(use, short, command string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := a.database(cmd.Context())
				if err != nil {
					return err
				}
				sqlDB, err := client.DB().DB()
				if err != nil {
					return fmt.Errorf("sql handle: %w", err)
				}
				ctx := a.logger().WithFields(cmd.Context(), map[string]any{"cmd": command, "dir": dir})
				a.logger().Info(ctx, "migrate ready")
				return migrate.Run(ctx, sqlDB, dir, command)
			},
		}
	}

	versionCmd := &cobra.Command{
		Use:   "version <YYYYMMDDHHMMSS>",
		Short: "Migrate up or down to an exact version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.database(cmd.Context())
			if err != nil {
				return err
			}
			sqlDB, err := client.DB().DB()
			if err != nil {
				return fmt.Errorf("sql handle: %w", err)
			}
			return migrate.MigrateToVersion(cmd.Context(), sqlDB, dir, args[0])
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(dir, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created migration:", path)
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check migration filenames and goose markers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := migrate.ValidateDir(dir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
			return nil
		},
	}

	cmd.AddCommand(
		goose("up", "Apply all pending migrations", "up"),
		goose("down", "Roll back the latest migration", "down"),
		goose("status", "Print migration status", "status"),
		versionCmd,
		createCmd,
		validateCmd,
	)
	return cmd
}
