package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/code-sleuth/eduverse-go/internal/tutor/agent"
	"github.com/code-sleuth/eduverse-go/pkg/db"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	askQuestion  string
	askTenantID  string
	askSessionID string
	askCourseID  string
	askStream    bool
	askTimeout   time.Duration
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about your indexed course materials",
	Long: `Ask a question. The answer cites the indexed materials it drew from.

Examples:
  # Start a new conversation
  eduverse ask --tenant user-42 --question "What is entropy?"

  # Continue an existing session
  eduverse ask --tenant user-42 --session user-42_a1b2c3d4e5f6 --question "Give an example"

  # Stream progress events while the agent works
  eduverse ask --tenant user-42 --question "Summarize chapter 3" --stream`,
	Run: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "The question to ask (required)")
	askCmd.Flags().StringVarP(&askTenantID, "tenant", "t", "", "Tenant id (required)")
	askCmd.Flags().StringVarP(&askSessionID, "session", "s", "", "Session id to continue (empty starts a new session)")
	askCmd.Flags().StringVarP(&askCourseID, "course", "c", "", "Restrict retrieval to one course")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "Print tool events as they happen")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 3*time.Minute, "Timeout for the whole ask")

	if err := askCmd.MarkFlagRequired("question"); err != nil {
		return
	}
	if err := askCmd.MarkFlagRequired("tenant"); err != nil {
		return
	}
}

func runAsk(_ *cobra.Command, _ []string) {
	logger := util.NewLogger(zerolog.InfoLevel)

	database, err := db.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	embedder, err := buildEmbedder()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build embedder")
	}
	knowledgeIndex, closeIndex, err := buildIndex(database, embedder)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build knowledge index")
	}
	defer closeIndex()

	tutor, err := buildAgent(database, knowledgeIndex)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build agent")
	}

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	question := agent.Question{
		TenantID:  askTenantID,
		SessionID: askSessionID,
		Text:      askQuestion,
	}
	if askCourseID != "" {
		question.CourseID = &askCourseID
	}

	var answer *agent.Answer
	if askStream {
		answer, err = tutor.AskStream(ctx, question, printEvent)
	} else {
		answer, err = tutor.Ask(ctx, question)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Ask failed")
	}

	if !askStream {
		fmt.Println(answer.Text)
		fmt.Println()
	}
	for _, citation := range answer.Citations {
		location := citation.FileName
		if citation.PageNumber != nil {
			location = fmt.Sprintf("%s, page %d", location, *citation.PageNumber)
		}
		fmt.Printf("[%d] %s\n", citation.Number, location)
	}
	fmt.Printf("\nsession: %s  sources used: %d\n", answer.SessionID, answer.SourcesUsed)
}

func printEvent(e agent.Event) {
	switch e.Type {
	case agent.EventToolCall:
		fmt.Printf(">> %s %s\n", e.Name, e.Content)
	case agent.EventToolResult:
		fmt.Printf("<< %s (%d bytes)\n", e.Name, len(e.Content))
	case agent.EventAnswer:
		fmt.Println(e.Content)
	case agent.EventDone:
		// Marker only; the summary footer follows.
	default:
		out, _ := json.Marshal(e)
		fmt.Println(string(out))
	}
}
