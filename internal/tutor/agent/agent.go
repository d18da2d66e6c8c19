// Package agent orchestrates the conversational tutor: session handling,
// the tool-calling loop against the LLM, and citation mapping on the final
// answer.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/code-sleuth/eduverse-go/internal/tutor/citations"
	"github.com/code-sleuth/eduverse-go/internal/tutor/interfaces"
	"github.com/code-sleuth/eduverse-go/internal/tutor/llm"
	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/internal/tutor/retriever"
	"github.com/code-sleuth/eduverse-go/internal/tutor/retry"
	"github.com/code-sleuth/eduverse-go/internal/tutor/sessions"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
)

var (
	ErrEmptyQuestion   = errors.New("question cannot be empty")
	ErrSessionNotOwned = sessions.ErrNotOwned
	ErrTooManyTurns    = errors.New("model did not produce an answer within the iteration budget")
)

const (
	// maxIterations bounds the tool-calling loop for one question.
	maxIterations = 6
	// maxRetries bounds retries of one transient completion failure.
	maxRetries = 3
)

// Question is one ask from a student. An empty SessionID starts a new
// session; a populated one must carry the tenant's prefix.
type Question struct {
	TenantID  string
	SessionID string
	CourseID  *string
	Text      string
}

// Answer is the full result of one ask: the generated text together with
// its resolved citations. There is no side channel; callers get everything
// from this one value.
type Answer struct {
	SessionID   string            `json:"session_id"`
	Text        string            `json:"text"`
	Citations   []models.Citation `json:"citations"`
	SourcesUsed int               `json:"sources_used"`
}

// Agent runs the tutoring loop. All collaborators are injected.
type Agent struct {
	client    llm.Client
	retriever interfaces.Retriever
	sessions  interfaces.SessionStore
	web       WebSearcher
	logger    zerolog.Logger
}

// New creates an agent. web may be nil to disable the search_web tool.
func New(
	client llm.Client,
	ret interfaces.Retriever,
	store interfaces.SessionStore,
	web WebSearcher,
) *Agent {
	return &Agent{
		client:    client,
		retriever: ret,
		sessions:  store,
		web:       web,
		logger:    util.NewLogger(util.LogLevelFromEnv("AGENT_LOG_LEVEL")),
	}
}

// Ask answers one question, blocking until the full answer is ready.
func (a *Agent) Ask(ctx context.Context, q Question) (*Answer, error) {
	return a.run(ctx, q, nil)
}

// AskStream answers one question while emitting progress events. The
// emitted sequence for a given conversation state is identical to what Ask
// computes; streaming never changes the outcome.
func (a *Agent) AskStream(ctx context.Context, q Question, emit EmitFunc) (*Answer, error) {
	return a.run(ctx, q, emit)
}

func (a *Agent) run(ctx context.Context, q Question, emit EmitFunc) (*Answer, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	if q.Text == "" {
		return nil, ErrEmptyQuestion
	}

	sessionID := q.SessionID
	if sessionID == "" {
		var err error
		sessionID, err = sessions.NewSessionID(q.TenantID)
		if err != nil {
			return nil, err
		}
	} else if !sessions.OwnedBy(sessionID, q.TenantID) {
		return nil, ErrSessionNotOwned
	}

	messages, err := a.buildMessages(ctx, sessionID, q.Text)
	if err != nil {
		return nil, err
	}

	tools := a.toolset()
	state := newToolState()

	var answerText string
	answered := false
	for i := 0; i < maxIterations; i++ {
		completion, err := a.complete(ctx, messages, tools)
		if err != nil {
			return nil, err
		}

		if len(completion.ToolCalls) == 0 {
			answerText = completion.Content
			answered = true
			break
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		for _, call := range completion.ToolCalls {
			emit(Event{Type: EventToolCall, Name: call.Name, Content: call.Arguments})

			result, err := a.executeTool(ctx, call, q.TenantID, q.CourseID, state)
			if errors.Is(err, retriever.ErrEmptyCorpus) {
				return a.finish(ctx, sessionID, q.Text, emptyCorpusFallback, newToolState(), emit)
			}
			if err != nil {
				a.logger.Warn().Err(err).Str("tool", call.Name).Msg("Tool execution failed")
				result = "Tool error: " + err.Error()
			}

			emit(Event{Type: EventToolResult, Name: call.Name, Content: result})
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	if !answered {
		return nil, ErrTooManyTurns
	}

	return a.finish(ctx, sessionID, q.Text, answerText, state, emit)
}

// finish resolves citations, persists both turns, and emits the terminal
// events. The answer and its citations are computed together before
// anything is returned.
func (a *Agent) finish(
	ctx context.Context,
	sessionID, question, answerText string,
	state *toolState,
	emit EmitFunc,
) (*Answer, error) {
	answer := &Answer{
		SessionID:   sessionID,
		Text:        answerText,
		Citations:   citations.Extract(answerText, state.retrieved),
		SourcesUsed: len(state.sources),
	}

	if err := a.sessions.Append(ctx, sessionID, models.RoleHuman, question); err != nil {
		return nil, fmt.Errorf("failed to persist question: %w", err)
	}
	if err := a.sessions.Append(ctx, sessionID, models.RoleAssistant, answerText); err != nil {
		return nil, fmt.Errorf("failed to persist answer: %w", err)
	}

	emit(Event{Type: EventAnswer, Content: answerText})
	emit(Event{Type: EventDone})

	a.logger.Info().
		Str("session_id", sessionID).
		Int("citations", len(answer.Citations)).
		Int("sources_used", answer.SourcesUsed).
		Msg("Answered question")

	return answer, nil
}

// buildMessages assembles the system prompt, prior session turns, and the
// new question into provider wire format.
func (a *Agent) buildMessages(ctx context.Context, sessionID, question string) ([]llm.Message, error) {
	history, err := a.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, turn := range history {
		role := llm.RoleUser
		if turn.Role == models.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	return messages, nil
}

// complete calls the LLM with bounded retries on transient generation
// failures. Permanent failures surface immediately.
func (a *Agent) complete(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Completion, error) {
	var completion *llm.Completion
	err := retry.Do(ctx, maxRetries, func() error {
		var err error
		completion, err = a.client.Complete(ctx, messages, tools)
		if err != nil && !errors.Is(err, llm.ErrTransientGeneration) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return completion, nil
}
