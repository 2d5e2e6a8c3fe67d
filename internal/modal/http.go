package modal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tomascufaro/whatsup-assistant/internal/memory"
	"github.com/tomascufaro/whatsup-assistant/internal/reliability"
)

// httpClient posts OpenAI-wire JSON directly to a completion endpoint, for
// hosts that speak the format without the SDK's auth requirements.
type httpClient struct {
	url         string
	client      *http.Client
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
}

func newHTTPClient(url string) *httpClient {
	return &httpClient{
		url: strings.TrimSpace(url),
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		maxAttempts: 3,
		retryBase:   500 * time.Millisecond,
		retryCap:    5 * time.Second,
	}
}

type wireRequest struct {
	Messages    []memory.Message `json:"messages"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *httpClient) Generate(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(wireRequest{
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := reliability.ExponentialBackoff(attempt-1, c.retryBase, c.retryCap)
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		res, err := c.post(ctx, payload)
		if err != nil {
			var perm *permanentError
			if errors.As(err, &perm) {
				return Response{}, perm.err
			}
			lastErr = err
			continue
		}
		return res, nil
	}
	return Response{}, lastErr
}

func (c *httpClient) post(ctx context.Context, payload []byte) (Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		err := fmt.Errorf("model endpoint status %d: %s", res.StatusCode, string(detail))
		if !reliability.IsRetryableHTTPStatus(res.StatusCode) {
			return Response{}, &permanentError{err: err}
		}
		return Response{}, err
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if len(wire.Choices) == 0 {
		return Response{}, errors.New("model endpoint returned no choices")
	}
	return Response{Text: strings.TrimSpace(wire.Choices[0].Message.Content)}, nil
}

// permanentError stops the retry loop early.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }
