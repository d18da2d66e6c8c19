package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
)

const (
	groqTimeout     = 60 * time.Second
	groqDefaultURL  = "https://api.groq.com/openai/v1/chat/completions"
	chatModelEnvKey = "EDUVERSE_CHAT_MODEL"
	defaultModel    = "llama-3.3-70b-versatile"
)

// GroqClient talks to Groq's OpenAI-compatible chat completions endpoint.
// Constructed explicitly and injected into the agent; no singleton.
type GroqClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	apiURL     string
	logger     zerolog.Logger
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []wireMessage `json:"messages"`
	Tools      []wireTool    `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewGroqClient creates a Groq chat client using GROQ_API_KEY and the model
// from EDUVERSE_CHAT_MODEL.
func NewGroqClient() (*GroqClient, error) {
	return NewGroqClientWithClient(nil, "")
}

// NewGroqClientWithClient creates a Groq client with a custom HTTP client
// and API URL for tests.
func NewGroqClientWithClient(httpClient *http.Client, apiURL string) (*GroqClient, error) {
	logger := util.NewLogger(util.LogLevelFromEnv("LLM_LOG_LEVEL"))

	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		logger.Error().Msg("GROQ_API_KEY env variable not set")
		return nil, ErrAPIKeyNotSet
	}

	model := os.Getenv(chatModelEnvKey)
	if model == "" {
		model = defaultModel
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: groqTimeout}
	}
	if apiURL == "" {
		apiURL = groqDefaultURL
	}

	return &GroqClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
		apiURL:     apiURL,
		logger:     logger,
	}, nil
}

// Complete sends one chat completion request.
func (g *GroqClient) Complete(ctx context.Context, messages []Message, tools []Tool) (*Completion, error) {
	request := chatRequest{
		Model:    g.model,
		Messages: toWireMessages(messages),
		Tools:    toWireTools(tools),
	}
	if len(tools) > 0 {
		request.ToolChoice = "auto"
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		g.logger.Err(err).Msg("failed to marshal chat request")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewBuffer(requestBody))
	if err != nil {
		g.logger.Err(err).Msg("failed to create request")
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.apiKey))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Err(err).Msg("failed to make request")
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			g.logger.Error().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.Error().Int("status_code", resp.StatusCode).Str("body", string(body)).Msg("Chat API request failed")
		return nil, classifyAPIError(resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		g.logger.Err(err).Msg("failed to decode chat response")
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := response.Choices[0]
	g.logger.Debug().
		Str("model", g.model).
		Str("finish_reason", choice.FinishReason).
		Int("tokens_used", response.Usage.TotalTokens).
		Msg("Chat completion received")

	return &Completion{
		Content:      choice.Message.Content,
		ToolCalls:    fromWireToolCalls(choice.Message.ToolCalls),
		FinishReason: choice.FinishReason,
	}, nil
}

// classifyAPIError separates retryable provider failures from permanent
// ones. Malformed tool calls and failed generations come back as 400s with
// a distinctive error code.
func classifyAPIError(statusCode int, body string) error {
	if strings.Contains(body, "tool_use_failed") || strings.Contains(body, "failed_generation") {
		return fmt.Errorf("%w: %s", ErrTransientGeneration, body)
	}
	if statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrTransientGeneration, statusCode)
	}
	return fmt.Errorf("%w: status %d", ErrAPIRequestFailed, statusCode)
}

func toWireMessages(messages []Message) []wireMessage {
	out := make([]wireMessage, len(messages))
	for i, msg := range messages {
		wire := wireMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
		}
		for _, call := range msg.ToolCalls {
			wireCall := wireToolCall{ID: call.ID, Type: "function"}
			wireCall.Function.Name = call.Name
			wireCall.Function.Arguments = call.Arguments
			wire.ToolCalls = append(wire.ToolCalls, wireCall)
		}
		out[i] = wire
	}
	return out
}

func toWireTools(tools []Tool) []wireTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]wireTool, len(tools))
	for i, tool := range tools {
		wire := wireTool{Type: "function"}
		wire.Function.Name = tool.Name
		wire.Function.Description = tool.Description
		wire.Function.Parameters = tool.Parameters
		out[i] = wire
	}
	return out
}

func fromWireToolCalls(calls []wireToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ToolCall, len(calls))
	for i, call := range calls {
		out[i] = ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}
	return out
}
