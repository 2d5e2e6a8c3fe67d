package modal

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomascufaro/whatsup-assistant/internal/memory"
)

// MockClient provides deterministic local replies when no model endpoint is
// configured.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Generate(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}
	return Response{Text: buildMockReply(req.Messages)}, nil
}

func buildMockReply(messages []memory.Message) string {
	var latest, previous string
	for _, m := range messages {
		if m.Role != memory.RoleUser {
			continue
		}
		previous = latest
		latest = strings.TrimSpace(m.Content)
	}

	if latest == "" {
		return "Estoy escuchando."
	}
	if previous == "" {
		return fmt.Sprintf("Recibido: %s", latest)
	}
	return fmt.Sprintf("Recibido: %s\nTambién recuerdo: %s", latest, previous)
}
