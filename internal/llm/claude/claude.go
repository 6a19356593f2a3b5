// internal/llm/claude/claude.go
package claude

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/llm"
)

// Provider implements the LLM interface for Claude/Anthropic.
//
// Structured output is obtained by declaring a single tool whose input schema
// is the requested schema and forcing the model to call it.
type Provider struct {
	client anthropic.Client
	model  string
}

// New creates a new Claude provider. Extra request options (base URL, HTTP
// client) are passed through to the SDK.
func New(apiKey, model string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("claude API key required"))
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	// Generation failures are surfaced, not retried.
	all := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := anthropic.NewClient(all...)
	return &Provider{client: client, model: model}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "claude"
}

// Chat sends a chat request to the Claude API.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	messages := make([]anthropic.MessageParam, len(req.Messages))
	for i, m := range req.Messages {
		if m.Role == "user" {
			messages[i] = anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content))
		} else {
			messages[i] = anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	if req.Schema != nil {
		tool, err := schemaTool(req.Schema)
		if err != nil {
			return nil, err
		}
		params.Tools = []anthropic.ToolUnionParam{{OfTool: tool}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.Schema.Name},
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude API error: %w", err)
	}

	content := ""
	for _, block := range resp.Content {
		if req.Schema != nil && block.Type == "tool_use" && block.Name == req.Schema.Name {
			content = string(block.Input)
			break
		}
		if block.Type == "text" && content == "" {
			content = block.Text
		}
	}

	return &llm.ChatResponse{
		Content: content,
		Usage: llm.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
		FinishReason: string(resp.StopReason),
	}, nil
}

// schemaTool turns an object schema into a tool definition.
func schemaTool(s *llm.OutputSchema) (*anthropic.ToolParam, error) {
	var doc struct {
		Properties           map[string]any `json:"properties"`
		Required             []string       `json:"required"`
		AdditionalProperties *bool          `json:"additionalProperties"`
	}
	if err := json.Unmarshal(s.JSON, &doc); err != nil {
		return nil, fmt.Errorf("decoding output schema: %w", err)
	}

	input := anthropic.ToolInputSchemaParam{
		Properties: doc.Properties,
		Required:   doc.Required,
	}
	if doc.AdditionalProperties != nil {
		input.ExtraFields = map[string]any{"additionalProperties": *doc.AdditionalProperties}
	}

	tool := &anthropic.ToolParam{
		Name:        s.Name,
		InputSchema: input,
	}
	if s.Description != "" {
		tool.Description = anthropic.String(s.Description)
	}
	return tool, nil
}
