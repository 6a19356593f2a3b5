// internal/llm/claude/claude_test.go
package claude

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/llm"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model")
	if err == nil {
		t.Fatal("expected error for empty API key")
	}
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing, got %v", err)
	}
}

const testSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {"title": {"type": "string"}},
	"required": ["title"]
}`

func TestChat_ForcesSchemaTool(t *testing.T) {
	var body map[string]any
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "tool_use", "id": "toolu_1", "name": "insight", "input": {"title": "Apple slips"}}],
			"stop_reason": "tool_use",
			"stop_sequence": null,
			"usage": {"input_tokens": 200, "output_tokens": 40}
		}`))
	}))
	defer srv.Close()

	p, err := New("test-key", "", option.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		SystemPrompt: "be concise",
		Messages:     []llm.Message{{Role: "user", Content: "facts"}},
		Schema:       &llm.OutputSchema{Name: "insight", Description: "story", JSON: json.RawMessage(testSchema)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(resp.Content), &out); err != nil {
		t.Fatalf("tool input should be returned as JSON text, got %q", resp.Content)
	}
	if out["title"] != "Apple slips" {
		t.Errorf("unexpected content %v", out)
	}
	if resp.FinishReason != "tool_use" {
		t.Errorf("unexpected finish reason %s", resp.FinishReason)
	}

	tools := body["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("expected one tool, got %d", len(tools))
	}
	tool := tools[0].(map[string]any)
	if tool["name"] != "insight" {
		t.Errorf("unexpected tool name %v", tool["name"])
	}
	input := tool["input_schema"].(map[string]any)
	if input["additionalProperties"] != false {
		t.Errorf("additionalProperties not forwarded: %v", input)
	}
	choice := body["tool_choice"].(map[string]any)
	if choice["type"] != "tool" || choice["name"] != "insight" {
		t.Errorf("expected forced tool choice, got %v", choice)
	}
	if calls != 1 {
		t.Errorf("expected exactly one call, got %d", calls)
	}
}

func TestChat_DoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	}))
	defer srv.Close()

	p, _ := New("test-key", "", option.WithBaseURL(srv.URL))
	_, err := p.Chat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestSchemaTool_InvalidSchema(t *testing.T) {
	_, err := schemaTool(&llm.OutputSchema{Name: "x", JSON: json.RawMessage(`not json`)})
	if err == nil {
		t.Error("expected error for invalid schema")
	}
}
