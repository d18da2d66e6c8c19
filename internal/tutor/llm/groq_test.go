package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		transient  bool
	}{
		{"malformed tool call", 400, `{"error":{"code":"tool_use_failed"}}`, true},
		{"failed generation", 400, `{"error":{"code":"failed_generation"}}`, true},
		{"rate limited", 429, `{"error":"too many requests"}`, true},
		{"server error", 503, "", true},
		{"bad request", 400, `{"error":"invalid model"}`, false},
		{"unauthorized", 401, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyAPIError(tt.statusCode, tt.body)
			if got := errors.Is(err, ErrTransientGeneration); got != tt.transient {
				t.Errorf("transient = %v, want %v (err: %v)", got, tt.transient, err)
			}
		})
	}
}

func TestGroqClientComplete(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")

	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		response := map[string]interface{}{
			"choices": []map[string]interface{}{
				{
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": "",
						"tool_calls": []map[string]interface{}{
							{
								"id":   "call-1",
								"type": "function",
								"function": map[string]interface{}{
									"name":      "search_course_materials",
									"arguments": `{"query":"entropy"}`,
								},
							},
						},
					},
					"finish_reason": "tool_calls",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	client, err := NewGroqClientWithClient(server.Client(), server.URL)
	if err != nil {
		t.Fatalf("NewGroqClientWithClient() error = %v", err)
	}

	tools := []Tool{{
		Name:        "search_course_materials",
		Description: "Search indexed course content",
		Parameters:  json.RawMessage(`{"type":"object"}`),
	}}
	completion, err := client.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are a tutor."},
		{Role: RoleUser, Content: "What is entropy?"},
	}, tools)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if len(completion.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(completion.ToolCalls))
	}
	if completion.ToolCalls[0].Name != "search_course_materials" {
		t.Errorf("tool call name = %s", completion.ToolCalls[0].Name)
	}
	if completion.FinishReason != "tool_calls" {
		t.Errorf("finish reason = %s", completion.FinishReason)
	}

	if captured.ToolChoice != "auto" {
		t.Errorf("tool_choice = %q, want auto", captured.ToolChoice)
	}
	if len(captured.Tools) != 1 || captured.Tools[0].Function.Name != "search_course_materials" {
		t.Error("tools not sent on the wire")
	}
}

func TestGroqClientTransientFailure(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"tool_use_failed","message":"bad arguments"}}`))
	}))
	defer server.Close()

	client, err := NewGroqClientWithClient(server.Client(), server.URL)
	if err != nil {
		t.Fatalf("NewGroqClientWithClient() error = %v", err)
	}

	_, err = client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if !errors.Is(err, ErrTransientGeneration) {
		t.Errorf("expected ErrTransientGeneration, got %v", err)
	}
}

func TestNewGroqClientMissingKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	_, err := NewGroqClient()
	if !errors.Is(err, ErrAPIKeyNotSet) {
		t.Errorf("expected ErrAPIKeyNotSet, got %v", err)
	}
}
