package modal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomascufaro/whatsup-assistant/internal/memory"
)

func completionBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": text}, "index": 0, "finish_reason": "stop"},
		},
		"model": "meta-llama/Meta-Llama-3.1-8B-Instruct",
	})
	return string(b)
}

func fastRetries(c *httpClient) *httpClient {
	c.retryBase = time.Millisecond
	c.retryCap = 2 * time.Millisecond
	return c
}

func TestHTTPClientGenerate(t *testing.T) {
	var gotReq wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("¡hola Carlos!")))
	}))
	defer srv.Close()

	c := newHTTPClient(srv.URL)
	res, err := c.Generate(context.Background(), Request{
		Messages: []memory.Message{
			{Role: memory.RoleSystem, Content: "sos un asistente"},
			{Role: memory.RoleUser, Content: "hola"},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Text != "¡hola Carlos!" {
		t.Fatalf("Generate() text = %q", res.Text)
	}
	if len(gotReq.Messages) != 2 || gotReq.MaxTokens != 500 {
		t.Fatalf("unexpected wire request: %+v", gotReq)
	}
}

func TestHTTPClientRetriesRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "cold start", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody("listo")))
	}))
	defer srv.Close()

	c := fastRetries(newHTTPClient(srv.URL))
	res, err := c.Generate(context.Background(), Request{Messages: []memory.Message{{Role: memory.RoleUser, Content: "hola"}}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Text != "listo" {
		t.Fatalf("Generate() text = %q", res.Text)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("endpoint called %d times, want 2", got)
	}
}

func TestHTTPClientStopsOnPermanentStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := fastRetries(newHTTPClient(srv.URL))
	if _, err := c.Generate(context.Background(), Request{Messages: []memory.Message{{Role: memory.RoleUser, Content: "hola"}}}); err == nil {
		t.Fatalf("Generate() should fail on 400")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("endpoint called %d times, want 1 (no retry on 400)", got)
	}
}

func TestHTTPClientNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := fastRetries(newHTTPClient(srv.URL))
	if _, err := c.Generate(context.Background(), Request{Messages: []memory.Message{{Role: memory.RoleUser, Content: "hola"}}}); err == nil {
		t.Fatalf("Generate() should fail when no choices are returned")
	}
}

func TestNewClientModes(t *testing.T) {
	if _, err := NewClient(Config{Mode: "http"}); err == nil {
		t.Fatalf("http mode without endpoint should fail")
	}
	if _, err := NewClient(Config{Mode: "openai"}); err == nil {
		t.Fatalf("openai mode without api key should fail")
	}
	if _, err := NewClient(Config{Mode: "banana"}); err == nil {
		t.Fatalf("unknown mode should fail")
	}

	c, err := NewClient(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("auto mode error = %v", err)
	}
	if _, ok := c.(*MockClient); !ok {
		t.Fatalf("auto mode without config should yield the mock client, got %T", c)
	}

	c, err = NewClient(Config{Mode: "auto", EndpointURL: "http://localhost:9"})
	if err != nil {
		t.Fatalf("auto mode error = %v", err)
	}
	if _, ok := c.(*httpClient); !ok {
		t.Fatalf("auto mode with endpoint should yield the http client, got %T", c)
	}
}

func TestMockClientRemembersContext(t *testing.T) {
	c := NewMockClient()
	res, err := c.Generate(context.Background(), Request{Messages: []memory.Message{
		{Role: memory.RoleUser, Content: "mi nombre es Carlos"},
		{Role: memory.RoleAssistant, Content: "mucho gusto"},
		{Role: memory.RoleUser, Content: "¿cómo me llamo?"},
	}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Text == "" || res.Text == "Estoy escuchando." {
		t.Fatalf("unexpected mock reply: %q", res.Text)
	}
}
