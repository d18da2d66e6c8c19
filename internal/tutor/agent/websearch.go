package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
)

const webSearchTimeout = 15 * time.Second

// WebSearcher answers a free-text query with a short textual summary of web
// results. The agent treats it as optional; a nil searcher disables the
// search_web tool.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// DuckDuckGoSearcher queries the DuckDuckGo instant-answer API. Keyless and
// rate-limited, which is acceptable for the occasional out-of-corpus
// question.
type DuckDuckGoSearcher struct {
	httpClient *http.Client
	apiURL     string
	logger     zerolog.Logger
}

type duckDuckGoResponse struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// NewDuckDuckGoSearcher creates the default web searcher.
func NewDuckDuckGoSearcher() *DuckDuckGoSearcher {
	return NewDuckDuckGoSearcherWithClient(nil, "")
}

// NewDuckDuckGoSearcherWithClient creates a searcher with a custom HTTP
// client and API URL for tests.
func NewDuckDuckGoSearcherWithClient(httpClient *http.Client, apiURL string) *DuckDuckGoSearcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: webSearchTimeout}
	}
	if apiURL == "" {
		apiURL = "https://api.duckduckgo.com/"
	}
	return &DuckDuckGoSearcher{
		httpClient: httpClient,
		apiURL:     apiURL,
		logger:     util.NewLogger(util.LogLevelFromEnv("AGENT_LOG_LEVEL")),
	}
}

// Search returns a plain-text digest of the instant answer for the query.
func (d *DuckDuckGoSearcher) Search(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf("%s?q=%s&format=json&no_html=1", d.apiURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Err(err).Str("query", query).Msg("web search request failed")
		return "", err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			d.logger.Error().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("web search failed with status %d", resp.StatusCode)
	}

	var result duckDuckGoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	var parts []string
	if result.Answer != "" {
		parts = append(parts, result.Answer)
	}
	if result.AbstractText != "" {
		abstract := result.AbstractText
		if result.AbstractURL != "" {
			abstract += " (" + result.AbstractURL + ")"
		}
		parts = append(parts, abstract)
	}
	const maxRelated = 3
	for i, topic := range result.RelatedTopics {
		if i >= maxRelated {
			break
		}
		if topic.Text != "" {
			parts = append(parts, "- "+topic.Text)
		}
	}

	if len(parts) == 0 {
		return "No web results found for: " + query, nil
	}
	return strings.Join(parts, "\n"), nil
}
