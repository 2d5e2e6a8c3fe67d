package modal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomascufaro/whatsup-assistant/internal/memory"
)

// Request is a normalized completion request: the system prompt plus replayed
// history plus the new user message, already in order.
type Request struct {
	Messages    []memory.Message
	MaxTokens   int
	Temperature float64
}

// Response is the model's final text.
type Response struct {
	Text string
}

// Client generates assistant replies from a hosted model endpoint.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Config controls client construction.
type Config struct {
	Mode        string
	EndpointURL string
	APIKey      string
	Model       string
}

// NewClient builds a model client for the configured mode.
func NewClient(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return newOpenAIClient(cfg), nil
		}
		if strings.TrimSpace(cfg.EndpointURL) != "" {
			return newHTTPClient(cfg.EndpointURL), nil
		}
		return NewMockClient(), nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("model API key is required for openai mode")
		}
		return newOpenAIClient(cfg), nil
	case "http":
		if strings.TrimSpace(cfg.EndpointURL) == "" {
			return nil, errors.New("model endpoint url is required for http mode")
		}
		return newHTTPClient(cfg.EndpointURL), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported model client mode %q", cfg.Mode)
	}
}
