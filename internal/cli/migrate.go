package cli

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/AI2HU/askdb/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage training store migrations",
	Long:  `Run the migrations of the local engine's SQLite training store.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all pending migrations",
	RunE:  runMigrateUp,
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current migration version",
	RunE:  runMigrateVersion,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func openTrainingDB() (*sqlx.DB, error) {
	path := cfg.Vanna.TrainingDBPath
	conn, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open training database at path '%s': %w", path, err)
	}
	return conn, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	fmt.Println("Running training store migrations...")

	conn, err := openTrainingDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.RunMigrations(conn.DB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println(FormatSuccess("Migrations completed successfully!"))
	return runMigrateVersion(cmd, args)
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	conn, err := openTrainingDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	version, dirty, err := db.MigrationVersion(conn.DB)
	if err != nil {
		return err
	}

	state := "clean"
	if dirty {
		state = FormatWarning("dirty")
	}
	fmt.Printf("%s %d (%s)\n", FormatLabel("Current migration version:"), version, state)
	return nil
}
