package cmd

import (
	"database/sql"
	"io"
	"os"

	"github.com/code-sleuth/eduverse-go/pkg/db"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var migratePostgres bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations to set up the schema in your Turso database.
With --postgres, also applies the pgvector schema to the optional Postgres index.`,
	Run: func(_ *cobra.Command, _ []string) {
		logger := util.NewLogger(zerolog.ErrorLevel)

		database, err := db.NewConnection()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer func(database *db.DB) {
			if err := database.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close database connection")
			}
		}(database)

		runMigrationFile(logger, database.DB, "pkg/migrations/init_schema.sql")

		if migratePostgres {
			pg, err := db.ConnectPostgres()
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to connect to postgres")
			}
			defer pg.Close()
			runMigrationFile(logger, pg, "pkg/migrations/pgvector_schema.sql")
		}

		logger.Info().Msg("Database migration completed successfully!")
	},
}

func runMigrationFile(logger zerolog.Logger, database *sql.DB, migrationFile string) {
	content, err := os.Open(migrationFile) // #nosec G304 -- migration paths are hardcoded above
	if err != nil {
		logger.Fatal().Err(err).Str("migration_file", migrationFile).Msg("Failed to open migration file")
	}
	defer func(content *os.File) {
		if err := content.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close migration file")
		}
	}(content)

	sqlBytes, err := io.ReadAll(content)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to read migration file")
	}

	if _, err := database.Exec(string(sqlBytes)); err != nil {
		logger.Fatal().Err(err).Str("migration_file", migrationFile).Msg("Failed to execute migration")
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migratePostgres, "postgres", false, "Also apply the pgvector schema")
}
