package modal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/tomascufaro/whatsup-assistant/internal/memory"
)

// openAIClient speaks the OpenAI chat completions API through the official
// SDK; a custom base URL points it at any compatible host.
type openAIClient struct {
	client openai.Client
	model  string
}

func newOpenAIClient(cfg Config) *openAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.EndpointURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.EndpointURL))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "meta-llama/Meta-Llama-3.1-8B-Instruct"
	}
	return &openAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *openAIClient) Generate(ctx context.Context, req Request) (Response, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case memory.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case memory.RoleUser:
			msgs = append(msgs, openai.UserMessage(m.Content))
		case memory.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			return Response{}, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    c.model,
	}
	if req.Temperature != 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Response{}, errors.New("chat completion returned no choices")
	}
	return Response{Text: strings.TrimSpace(completion.Choices[0].Message.Content)}, nil
}
