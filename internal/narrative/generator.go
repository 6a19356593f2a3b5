package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/llm"
	"go.uber.org/zap"
)

const systemPrompt = "You write concise, finance-style market narratives. Follow the rules exactly. Never give investment advice."

const goal = "Generate a short 'Insight' story that explains why the stock is moving today."

var rules = []string{
	"Use ONLY the provided facts. DO NOT invent events, numbers, deals, or dates.",
	"If facts are insufficient to explain the move, say 'No clear single driver' and focus on what IS known (e.g., earnings, guidance, analyst changes, macro).",
	"Short punchy writing. No more than 2 sentences per section.",
	"Headings should be short (2-6 words).",
	"When you mention a headline, include it in citations with its URL.",
	"Sources listed with ok=false were unavailable; do not speculate about their contents.",
	"updatedLabel describes the facts' asOf time, e.g. 'Updated Oct 19, 2:30 PM UTC'.",
}

// envelope is the user message sent to the model.
type envelope struct {
	Goal  string           `json:"goal"`
	Rules []string         `json:"rules"`
	Facts *core.FactBundle `json:"facts"`
}

// Generator turns a fact bundle into raw schema-constrained model output.
type Generator struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

// GeneratorOption configures a Generator
type GeneratorOption func(*Generator)

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GeneratorOption {
	return func(g *Generator) { g.temperature = t }
}

// WithTimeout bounds a single model call. Zero leaves only the caller's deadline.
func WithTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a generator backed by provider.
func NewGenerator(provider llm.Provider, opts ...GeneratorOption) *Generator {
	g := &Generator{
		provider:    provider,
		maxTokens:   1200,
		temperature: 0.3,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Provider returns the backing provider's name.
func (g *Generator) Provider() string {
	return g.provider.Name()
}

// Generate asks the model for a narrative over bundle, constrained by schema.
// The returned text is unvalidated; pass it to Validate.
func (g *Generator) Generate(ctx context.Context, bundle *core.FactBundle, schema *Schema) (string, error) {
	prompt, err := BuildPrompt(bundle)
	if err != nil {
		return "", core.WrapError(core.ErrGeneration, err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Schema: &llm.OutputSchema{
			Name:        schema.Name,
			Description: schema.Description,
			JSON:        schema.JSON,
		},
	})
	if err != nil {
		return "", core.WrapError(core.ErrGeneration, fmt.Errorf("%s: %w", g.provider.Name(), err))
	}

	g.logger.Debug("narrative generated",
		zap.String("provider", g.provider.Name()),
		zap.String("symbol", bundle.Symbol),
		zap.String("schema", schema.Version),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.String("finish_reason", resp.FinishReason),
		zap.Duration("duration", time.Since(start)),
	)

	if strings.EqualFold(resp.FinishReason, "length") || resp.FinishReason == "max_tokens" {
		g.logger.Warn("narrative truncated by token limit",
			zap.String("symbol", bundle.Symbol),
			zap.Int("max_tokens", g.maxTokens),
		)
	}

	return resp.Content, nil
}

// BuildPrompt renders the user message for bundle.
func BuildPrompt(bundle *core.FactBundle) (string, error) {
	b, err := json.Marshal(envelope{Goal: goal, Rules: rules, Facts: bundle})
	if err != nil {
		return "", fmt.Errorf("encoding prompt: %w", err)
	}
	return string(b), nil
}
