package commands

import (
	"fmt"

	"motico-catalog/cmd/catalogctl/output"
	"motico-catalog/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the postgres storage schema",
	Long: `Apply or inspect the embedded migrations of the postgres backend.
Connection settings come from the DB_* variables.

Subcommands:
  up      - Apply pending migrations
  status  - Show migration status`,
}

// migrateUpCmd applies pending migrations
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(db *database.Service, log *zap.Logger) error {
			if err := database.RunMigrations(cmd.Context(), db.DB().DB, log); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Success("Migrations applied")
			return nil
		})
	},
}

// migrateStatusCmd lists every embedded migration
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(db *database.Service, _ *zap.Logger) error {
			migrations, err := database.MigrationStatus(cmd.Context(), db.DB().DB)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, migrations)
			}

			out := output.New(cmd.OutOrStdout())
			out.Section("Migrations")
			rows := make([][]string, 0, len(migrations))
			pending := 0
			for _, m := range migrations {
				state, appliedAt := "applied", m.AppliedAt.Format("2006-01-02 15:04:05")
				if !m.Applied {
					state, appliedAt = "pending", ""
					pending++
				}
				rows = append(rows, []string{output.StatusIcon(state), fmt.Sprint(m.Version), m.Name, appliedAt})
			}
			out.Table([]string{"", "Version", "File", "Applied at"}, rows)
			if pending > 0 {
				out.Warning("%d pending migration(s), run: catalogctl migrate up", pending)
			}
			return nil
		})
	},
}

func withDatabase(cmd *cobra.Command, fn func(db *database.Service, log *zap.Logger) error) error {
	cfg := loadConfig()
	log := newLogger(cmd, cfg)
	defer log.Sync()

	db, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DB().Ping(); err != nil {
		return fmt.Errorf("database unreachable at %s:%s: %w", cfg.Database.Host, cfg.Database.Port, err)
	}
	return fn(db, log)
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
