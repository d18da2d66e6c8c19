package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/code-sleuth/eduverse-go/internal/tutor/llm"
	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

// Tool names the model can call.
const (
	toolSearchMaterials    = "search_course_materials"
	toolSearchWeb          = "search_web"
	toolGenerateFlashcards = "generate_flashcards"
	toolSummarizeTopic     = "summarize_topic"
)

var ErrUnknownTool = errors.New("unknown tool")

const (
	defaultFlashcardCount = 5
	maxFlashcardCount     = 20
)

// toolset builds the tool declarations offered to the model. search_web is
// omitted when no web searcher is configured.
func (a *Agent) toolset() []llm.Tool {
	queryParams := json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "The search query"}
		},
		"required": ["query"]
	}`)

	tools := []llm.Tool{
		{
			Name: toolSearchMaterials,
			Description: "Search the student's indexed course materials. " +
				"Returns numbered excerpts; cite them with their bracketed numbers.",
			Parameters: queryParams,
		},
		{
			Name:        toolGenerateFlashcards,
			Description: "Generate study flashcards about a topic from the course materials.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"topic": {"type": "string", "description": "The topic to make flashcards for"},
					"count": {"type": "integer", "description": "How many flashcards, default 5"}
				},
				"required": ["topic"]
			}`),
		},
		{
			Name:        toolSummarizeTopic,
			Description: "Summarize a topic across the student's course materials, naming the source files.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"topic": {"type": "string", "description": "The topic to summarize"}
				},
				"required": ["topic"]
			}`),
		},
	}

	if a.web != nil {
		tools = append(tools, llm.Tool{
			Name: toolSearchWeb,
			Description: "Search the web. Only for current events or topics " +
				"clearly outside the course materials.",
			Parameters: queryParams,
		})
	}

	return tools
}

// toolState accumulates retrieval results across the tool calls of one ask.
// The retrieved set from the most recent material search is the citation
// basis for the final answer; sources tracks every distinct file consulted.
type toolState struct {
	retrieved []*models.ScoredChunk
	sources   map[string]bool
}

func newToolState() *toolState {
	return &toolState{sources: map[string]bool{}}
}

func (s *toolState) track(results []*models.ScoredChunk) {
	s.retrieved = results
	for _, result := range results {
		s.sources[result.Chunk.SourceID] = true
	}
}

// executeTool dispatches one tool call. Errors other than ErrEmptyCorpus
// are rendered into the tool result so the model can adjust; ErrEmptyCorpus
// propagates so the run can short-circuit to the fixed fallback.
func (a *Agent) executeTool(
	ctx context.Context,
	call llm.ToolCall,
	tenantID string,
	courseID *string,
	state *toolState,
) (string, error) {
	switch call.Name {
	case toolSearchMaterials:
		return a.runMaterialSearch(ctx, call.Arguments, tenantID, courseID, state)
	case toolSearchWeb:
		return a.runWebSearch(ctx, call.Arguments)
	case toolGenerateFlashcards:
		return a.runFlashcards(ctx, call.Arguments, tenantID, courseID, state)
	case toolSummarizeTopic:
		return a.runSummary(ctx, call.Arguments, tenantID, courseID, state)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
}

func (a *Agent) runMaterialSearch(
	ctx context.Context,
	arguments, tenantID string,
	courseID *string,
	state *toolState,
) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid search arguments: %w", err)
	}

	results, err := a.retriever.Retrieve(ctx, tenantID, args.Query, courseID)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No relevant course material found for: " + args.Query, nil
	}

	state.track(results)
	return formatRetrieved(results), nil
}

// formatRetrieved renders the retrieved set as numbered context blocks. The
// block numbers are the citation numbers the model must use.
func formatRetrieved(results []*models.ScoredChunk) string {
	var sb strings.Builder
	for i, result := range results {
		meta := result.Chunk.Metadata
		sb.WriteString(fmt.Sprintf("[%d] %s", i+1, meta.FileName))
		if meta.PageNumber != nil {
			sb.WriteString(fmt.Sprintf(", page %d", *meta.PageNumber))
		}
		if meta.StartTime != nil {
			sb.WriteString(fmt.Sprintf(", %.0fs", *meta.StartTime))
		}
		sb.WriteString("\n")
		sb.WriteString(result.Chunk.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (a *Agent) runWebSearch(ctx context.Context, arguments string) (string, error) {
	if a.web == nil {
		return "", errors.New("web search is not configured")
	}

	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid search arguments: %w", err)
	}

	return a.web.Search(ctx, args.Query)
}

func (a *Agent) runFlashcards(
	ctx context.Context,
	arguments, tenantID string,
	courseID *string,
	state *toolState,
) (string, error) {
	var args struct {
		Topic string `json:"topic"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid flashcard arguments: %w", err)
	}
	if args.Count <= 0 {
		args.Count = defaultFlashcardCount
	}
	if args.Count > maxFlashcardCount {
		args.Count = maxFlashcardCount
	}

	results, err := a.retriever.Retrieve(ctx, tenantID, args.Topic, courseID)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No course material found to make flashcards about: " + args.Topic, nil
	}
	state.track(results)

	prompt := fmt.Sprintf(flashcardPrompt, args.Count, args.Topic, joinContents(results))
	completion, err := a.complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return "", err
	}

	cards, err := parseFlashcards(completion.Content)
	if err != nil {
		return "", err
	}

	encoded, err := json.Marshal(cards)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// parseFlashcards decodes the strict-JSON flashcard response, tolerating
// surrounding prose by extracting the outermost array.
func parseFlashcards(content string) ([]models.Flashcard, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("flashcard response is not a JSON array")
	}

	var cards []models.Flashcard
	if err := json.Unmarshal([]byte(content[start:end+1]), &cards); err != nil {
		return nil, fmt.Errorf("failed to parse flashcards: %w", err)
	}

	valid := cards[:0]
	for _, card := range cards {
		if card.Front != "" && card.Back != "" {
			valid = append(valid, card)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("flashcard response contained no usable cards")
	}
	return valid, nil
}

func (a *Agent) runSummary(
	ctx context.Context,
	arguments, tenantID string,
	courseID *string,
	state *toolState,
) (string, error) {
	var args struct {
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid summary arguments: %w", err)
	}

	results, err := a.retriever.Retrieve(ctx, tenantID, args.Topic, courseID)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No course material found about: " + args.Topic, nil
	}
	state.track(results)

	prompt := fmt.Sprintf(summaryPrompt, args.Topic, formatWithSources(results))
	completion, err := a.complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return "", err
	}

	return completion.Content + "\n\nSources: " + strings.Join(sourceNames(results), ", "), nil
}

func joinContents(results []*models.ScoredChunk) string {
	var sb strings.Builder
	for _, result := range results {
		sb.WriteString(result.Chunk.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatWithSources(results []*models.ScoredChunk) string {
	var sb strings.Builder
	for _, result := range results {
		sb.WriteString("From " + result.Chunk.Metadata.FileName + ":\n")
		sb.WriteString(result.Chunk.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func sourceNames(results []*models.ScoredChunk) []string {
	seen := map[string]bool{}
	var names []string
	for _, result := range results {
		name := result.Chunk.Metadata.FileName
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
