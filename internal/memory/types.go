package memory

import "time"

// Role values stored in conversation history. System instructions are never
// stored as turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// RoleSystem is used only when assembling model prompts; it never appears in
// stored history.
const RoleSystem = "system"

// Turn is a single user or assistant message within a conversation.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is the role/content projection handed to the model client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Mode reports whether conversation histories survive a process restart.
type Mode string

const (
	ModeDurable   Mode = "durable"
	ModeCacheOnly Mode = "cache-only"
)
