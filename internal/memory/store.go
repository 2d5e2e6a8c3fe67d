package memory

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxTurns bounds a conversation history when no explicit limit is
// configured. Each recorded exchange contributes two turns.
const DefaultMaxTurns = 20

// Store maintains a bounded history of turns per conversation. Histories are
// created lazily on first access, mirrored in an in-process cache, and (in
// durable mode) persisted as one file per conversation so they survive
// restarts. The store exclusively owns all histories; callers interact only
// through Get, RecordTurn, Clear and BuildContext.
type Store struct {
	maxTurns int
	backend  backend
	logger   zerolog.Logger
	now      func() time.Time

	onCorrupt func()

	mu     sync.RWMutex
	cache  map[string][]Turn
	loaded map[string]bool

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// Option tweaks store construction.
type Option func(*Store)

// WithClock overrides the timestamp source for recorded turns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCorruptRecordHook registers a callback invoked whenever a durable
// record exists but cannot be decoded.
func WithCorruptRecordHook(hook func()) Option {
	return func(s *Store) { s.onCorrupt = hook }
}

// NewStore opens a store rooted at dir. An empty dir, or a dir that cannot be
// created, yields cache-only mode: identical behavior except history does not
// survive a restart.
func NewStore(dir string, maxTurns int, logger zerolog.Logger, opts ...Option) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	s := &Store{
		maxTurns: maxTurns,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		cache:    make(map[string][]Turn),
		loaded:   make(map[string]bool),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}

	if strings.TrimSpace(dir) != "" {
		fb, err := newFileBackend(dir)
		if err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("memory dir unavailable, running cache-only")
		} else {
			s.backend = fb
		}
	}
	return s
}

// Mode reports whether histories are currently durable.
func (s *Store) Mode() Mode {
	if s.backend != nil {
		return ModeDurable
	}
	return ModeCacheOnly
}

// MaxTurns returns the configured history bound.
func (s *Store) MaxTurns() int { return s.maxTurns }

// Get returns the conversation history, oldest first. Unknown conversations
// yield an empty history and never an error.
func (s *Store) Get(conversationID string) []Turn {
	s.mu.RLock()
	if s.loaded[conversationID] {
		turns := cloneTurns(s.cache[conversationID])
		s.mu.RUnlock()
		return turns
	}
	s.mu.RUnlock()

	lock := s.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()
	return cloneTurns(s.ensureLoaded(conversationID))
}

// BuildContext projects the history into role/content messages in order,
// suitable for a model prompt.
func (s *Store) BuildContext(conversationID string) []Message {
	turns := s.Get(conversationID)
	msgs := make([]Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, Message{Role: t.Role, Content: t.Content})
	}
	return msgs
}

// RecordTurn appends one user turn and one assistant turn, then trims the
// oldest entries beyond the configured bound. The cache is only updated after
// the durable write succeeds, so a failed write leaves readers on the last
// committed history and surfaces the error to the caller.
func (s *Store) RecordTurn(conversationID, userText, assistantText string) error {
	lock := s.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	current := s.ensureLoaded(conversationID)

	ts := s.now()
	if n := len(current); n > 0 && ts.Before(current[n-1].Timestamp) {
		// Keep timestamps non-decreasing within a conversation even if the
		// clock steps backwards.
		ts = current[n-1].Timestamp
	}

	updated := make([]Turn, 0, len(current)+2)
	updated = append(updated, current...)
	updated = append(updated,
		Turn{Role: RoleUser, Content: userText, Timestamp: ts},
		Turn{Role: RoleAssistant, Content: assistantText, Timestamp: ts},
	)
	if len(updated) > s.maxTurns {
		updated = updated[len(updated)-s.maxTurns:]
	}

	if s.backend != nil {
		if err := s.backend.save(conversationID, updated); err != nil {
			return fmt.Errorf("persist turn: %w", err)
		}
	}

	s.mu.Lock()
	s.cache[conversationID] = updated
	s.loaded[conversationID] = true
	s.mu.Unlock()
	return nil
}

// Clear removes all history for the conversation from cache and durable
// storage. Clearing an unknown or already-empty conversation succeeds.
func (s *Store) Clear(conversationID string) error {
	lock := s.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	if s.backend != nil {
		if err := s.backend.remove(conversationID); err != nil {
			return fmt.Errorf("clear conversation: %w", err)
		}
	}

	s.mu.Lock()
	delete(s.cache, conversationID)
	s.loaded[conversationID] = true
	s.mu.Unlock()
	return nil
}

// ensureLoaded returns the current history, populating the cache from durable
// storage on first access. Must be called with the conversation lock held.
func (s *Store) ensureLoaded(conversationID string) []Turn {
	s.mu.RLock()
	if s.loaded[conversationID] {
		turns := s.cache[conversationID]
		s.mu.RUnlock()
		return turns
	}
	s.mu.RUnlock()

	var turns []Turn
	if s.backend != nil {
		loaded, err := s.backend.load(conversationID)
		switch {
		case err == nil:
			turns = loaded
		case errors.Is(err, ErrCorruptRecord):
			// Fail open: serve an empty history rather than dropping the
			// request, but keep the event visible in diagnostics.
			s.logger.Warn().Err(err).Str("conversation", SanitizeID(conversationID)).Msg("corrupt memory record, starting empty")
			if s.onCorrupt != nil {
				s.onCorrupt()
			}
		default:
			s.logger.Warn().Err(err).Str("conversation", SanitizeID(conversationID)).Msg("memory record unreadable, starting empty")
		}
	}

	s.mu.Lock()
	s.cache[conversationID] = turns
	s.loaded[conversationID] = true
	s.mu.Unlock()
	return turns
}

// conversationLock serializes writers (and first loads) for a single
// conversation; different conversations proceed independently.
func (s *Store) conversationLock(conversationID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[conversationID] = lock
	}
	return lock
}

func cloneTurns(turns []Turn) []Turn {
	if len(turns) == 0 {
		return nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
