package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ErrCorruptRecord marks a durable record that exists but cannot be decoded.
// Readers treat it as an empty history; diagnostics count it separately.
var ErrCorruptRecord = errors.New("corrupt memory record")

// record is the on-disk representation of one conversation history.
type record struct {
	ConversationID string `json:"conversation_id"`
	Turns          []Turn `json:"turns"`
}

// backend abstracts the durable layer so tests can inject write failures.
type backend interface {
	load(conversationID string) ([]Turn, error)
	save(conversationID string, turns []Turn) error
	remove(conversationID string) error
}

// fileBackend stores one JSON record per sanitized conversation id.
type fileBackend struct {
	dir string
}

func newFileBackend(dir string) (*fileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	return &fileBackend{dir: dir}, nil
}

func (b *fileBackend) path(conversationID string) string {
	return filepath.Join(b.dir, SanitizeID(conversationID)+".json")
}

func (b *fileBackend) load(conversationID string) ([]Turn, error) {
	data, err := os.ReadFile(b.path(conversationID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read memory record: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return rec.Turns, nil
}

func (b *fileBackend) save(conversationID string, turns []Turn) error {
	data, err := json.Marshal(record{ConversationID: conversationID, Turns: turns})
	if err != nil {
		return fmt.Errorf("encode memory record: %w", err)
	}

	// Write to a temp file and promote with a rename so a crash mid-write
	// leaves the last-good record intact.
	tmp, err := os.CreateTemp(b.dir, ".memory-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write memory record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close memory record: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path(conversationID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("promote memory record: %w", err)
	}
	return nil
}

func (b *fileBackend) remove(conversationID string) error {
	if err := os.Remove(b.path(conversationID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove memory record: %w", err)
	}
	return nil
}

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

const maxSanitizedPrefix = 64

// SanitizeID derives a stable filesystem-safe name for a conversation id.
// The hash suffix keeps ids distinct even when they differ only in characters
// the replacement collapses (e.g. "whatsapp:+549..." vs "whatsapp +549...").
func SanitizeID(conversationID string) string {
	safe := unsafeIDChars.ReplaceAllString(conversationID, "_")
	if len(safe) > maxSanitizedPrefix {
		safe = safe[:maxSanitizedPrefix]
	}
	sum := sha256.Sum256([]byte(conversationID))
	return safe + "-" + hex.EncodeToString(sum[:4])
}
