package cmd

import (
	"github.com/code-sleuth/eduverse-go/pkg/util"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eduverse",
	Short: "A CLI for indexing course materials and asking questions about them",
	Long: `eduverse indexes study materials (PDFs, web pages) into a per-tenant
knowledge base and answers questions over it with cited sources.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger := util.NewLogger(zerolog.ErrorLevel)
		logger.Fatal().Err(err).Msg("command failed")
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// The .env file is a convenience for local runs; deployed environments
	// set real variables.
	if err := godotenv.Load(); err != nil {
		logger := util.NewLogger(zerolog.WarnLevel)
		logger.Warn().Msg("No .env file found, using environment as-is")
	}
}
