// internal/llm/ollama/ollama_test.go
package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/insight/internal/llm"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_DefaultEndpoint(t *testing.T) {
	p, err := New("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.endpoint != "http://localhost:11434" {
		t.Errorf("expected default endpoint http://localhost:11434, got %s", p.endpoint)
	}
	if p.model != "llama3.1:8b" {
		t.Errorf("expected default model llama3.1:8b, got %s", p.model)
	}
}

func TestChat_SendsSchemaAsFormat(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.Write([]byte(`{"model":"llama3.1:8b","message":{"role":"assistant","content":"{\"title\":\"t\"}"},"done":true,"done_reason":"stop","prompt_eval_count":50,"eval_count":10}`))
	}))
	defer srv.Close()

	p, _ := New(srv.URL, "")
	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		SystemPrompt: "sys",
		Messages:     []llm.Message{{Role: "user", Content: "facts"}},
		Schema:       &llm.OutputSchema{Name: "insight", JSON: json.RawMessage(`{"type":"object"}`)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != `{"title":"t"}` {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Usage.InputTokens != 50 || resp.Usage.OutputTokens != 10 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}

	format, ok := body["format"].(map[string]any)
	if !ok || format["type"] != "object" {
		t.Errorf("expected schema object in format, got %v", body["format"])
	}
	if body["stream"] != false {
		t.Error("expected non-streaming request")
	}
	messages := body["messages"].([]any)
	if messages[0].(map[string]any)["role"] != "system" {
		t.Errorf("expected system message first, got %v", messages[0])
	}
}

func TestChat_NoSchemaOmitsFormat(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.Write([]byte(`{"message":{"role":"assistant","content":"hello"},"done":true}`))
	}))
	defer srv.Close()

	p, _ := New(srv.URL, "")
	if _, err := p.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{{Role: "user", Content: "hi"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := body["format"]; ok {
		t.Error("format should be omitted without a schema")
	}
}

func TestChat_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"nope\" not found"}`))
	}))
	defer srv.Close()

	p, _ := New(srv.URL, "nope")
	_, err := p.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{{Role: "user", Content: "hi"}}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNew_TrimsEndpointAndAcceptsClient(t *testing.T) {
	client := &http.Client{}
	p, err := New("http://ollama:11434/", "qwen2.5", WithHTTPClient(client))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.endpoint != "http://ollama:11434" {
		t.Errorf("expected trailing slash trimmed, got %s", p.endpoint)
	}
	if p.client != client {
		t.Error("expected injected client")
	}
}
