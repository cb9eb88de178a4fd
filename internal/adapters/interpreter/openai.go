// Package interpreter adapts chat-completion models to the
// usecases.Interpreter port: natural language in, graph delta out.
package interpreter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/delta"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/dot"
)

const (
	defaultModel       = openai.GPT4oMini
	defaultMaxTokens   = 512
	defaultTemperature = 0.2
	defaultTimeout     = 30 * time.Second
)

const systemPrompt = `You are an expert at turning spoken flowchart instructions into an edit delta.
You will be given the current flowchart in Graphviz DOT and the user's next instruction.
Respond with a single JSON object of this shape and nothing else:
{"new_steps": [{"label": "Check Stock", "kind": "decision", "branch_label": ""}], "attach_to": ""}

Rules:
1. kind is one of "start", "process", "decision", "end".
2. Set branch_label only on a step that hangs off a decision, for example "Yes" or "No".
3. When the user refers to an existing step, reuse its exact label instead of inventing a synonym.
4. Set attach_to to an existing node id or label only when the user says where to attach.
5. Return ONLY the JSON object. No explanations, no code fences.`

// Config holds the OpenAI interpreter settings. Zero values fall back
// to the package defaults; BaseURL is mainly for tests and proxies.
type Config struct {
	APIKey         string
	Model          string
	MaxTokens      int
	Temperature    float32
	RequestTimeout time.Duration
	BaseURL        string
}

// OpenAI implements usecases.Interpreter on the chat completions API.
type OpenAI struct {
	client         *openai.Client
	model          string
	maxTokens      int
	temperature    float32
	requestTimeout time.Duration
}

// NewOpenAI creates an interpreter from the given configuration.
func NewOpenAI(cfg Config) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client:         openai.NewClientWithConfig(clientCfg),
		model:          cfg.Model,
		maxTokens:      cfg.MaxTokens,
		temperature:    cfg.Temperature,
		requestTimeout: cfg.RequestTimeout,
	}
}

// Interpret asks the model for the delta matching the instruction.
func (o *OpenAI) Interpret(ctx context.Context, instruction string, current *flow.Graph) (*delta.Delta, error) {
	ctx, cancel := context.WithTimeout(ctx, o.requestTimeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(instruction, current)},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from API")
	}

	return parseDelta(resp.Choices[0].Message.Content)
}

// userPrompt renders the current graph and the instruction the way the
// system prompt announces them.
func userPrompt(instruction string, current *flow.Graph) string {
	var b strings.Builder

	if current == nil || current.Len() == 0 {
		b.WriteString("The flowchart is currently empty.\n")
	} else {
		b.WriteString("Current flowchart:\n")
		b.WriteString(dot.Serialize(current))
		b.WriteString("\nAttachable nodes:")
		for _, id := range current.Frontier() {
			if n, ok := current.NodeByID(id); ok {
				fmt.Fprintf(&b, " %q (%s)", n.Label, n.ID)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nUser's next instruction: %q\n", instruction)
	return b.String()
}

// parseDelta decodes the model output, shedding any code fences the
// model wrapped it in despite instructions.
func parseDelta(content string) (*delta.Delta, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	d, err := delta.Parse([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("model returned unusable delta: %w", err)
	}
	return d, nil
}
