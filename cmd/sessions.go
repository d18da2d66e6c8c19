package cmd

import (
	"context"
	"fmt"

	"github.com/code-sleuth/eduverse-go/internal/tutor/sessions"
	"github.com/code-sleuth/eduverse-go/pkg/db"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	sessionsTenantID  string
	sessionsSessionID string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage conversation sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a tenant's sessions, newest activity first",
	Run:   runSessionsList,
}

var sessionsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Print every turn of a session",
	Run:   runSessionsHistory,
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all turns of a session",
	Run:   runSessionsClear,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsHistoryCmd, sessionsClearCmd)

	sessionsListCmd.Flags().StringVarP(&sessionsTenantID, "tenant", "t", "", "Tenant id (required)")
	if err := sessionsListCmd.MarkFlagRequired("tenant"); err != nil {
		return
	}

	sessionsHistoryCmd.Flags().StringVarP(&sessionsSessionID, "session", "s", "", "Session id (required)")
	if err := sessionsHistoryCmd.MarkFlagRequired("session"); err != nil {
		return
	}

	sessionsClearCmd.Flags().StringVarP(&sessionsSessionID, "session", "s", "", "Session id (required)")
	sessionsClearCmd.Flags().StringVarP(&sessionsTenantID, "tenant", "t", "", "Tenant id that owns the session (required)")
	if err := sessionsClearCmd.MarkFlagRequired("session"); err != nil {
		return
	}
	if err := sessionsClearCmd.MarkFlagRequired("tenant"); err != nil {
		return
	}
}

func sessionsSetup(logger zerolog.Logger) (*sessions.Store, func()) {
	database, err := db.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	return sessions.NewStore(database), func() { _ = database.Close() }
}

func runSessionsList(_ *cobra.Command, _ []string) {
	logger := util.NewLogger(zerolog.InfoLevel)
	store, cleanup := sessionsSetup(logger)
	defer cleanup()

	ids, err := store.ListSessions(context.Background(), sessionsTenantID)
	if err != nil {
		logger.Fatal().Err(err).Str("tenant_id", sessionsTenantID).Msg("Failed to list sessions")
	}
	if len(ids) == 0 {
		logger.Info().Str("tenant_id", sessionsTenantID).Msg("No sessions found")
		return
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func runSessionsHistory(_ *cobra.Command, _ []string) {
	logger := util.NewLogger(zerolog.InfoLevel)
	store, cleanup := sessionsSetup(logger)
	defer cleanup()

	messages, err := store.History(context.Background(), sessionsSessionID)
	if err != nil {
		logger.Fatal().Err(err).Str("session_id", sessionsSessionID).Msg("Failed to load session history")
	}
	if len(messages) == 0 {
		logger.Info().Str("session_id", sessionsSessionID).Msg("Session has no messages")
		return
	}
	for _, msg := range messages {
		fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format("2006-01-02 15:04:05"), msg.Role, msg.Content)
	}
}

func runSessionsClear(_ *cobra.Command, _ []string) {
	logger := util.NewLogger(zerolog.InfoLevel)

	if !sessions.OwnedBy(sessionsSessionID, sessionsTenantID) {
		logger.Fatal().
			Str("session_id", sessionsSessionID).
			Str("tenant_id", sessionsTenantID).
			Msg("Session does not belong to this tenant")
	}

	store, cleanup := sessionsSetup(logger)
	defer cleanup()

	cleared, err := store.Clear(context.Background(), sessionsSessionID)
	if err != nil {
		logger.Fatal().Err(err).Str("session_id", sessionsSessionID).Msg("Failed to clear session")
	}
	if !cleared {
		logger.Info().Str("session_id", sessionsSessionID).Msg("Session not found or already empty")
		return
	}
	logger.Info().Str("session_id", sessionsSessionID).Msg("Session cleared")
}
