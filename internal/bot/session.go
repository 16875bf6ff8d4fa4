package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// State is the conversational position of a chat session. Transitions are
// explicit in Engine.HandleMessage; there is no ambient per-chat state.
type State int

const (
	StateIdle State = iota
	StateAwaitingUsername
	StateAwaitingPassword
	StateAwaitingTitle
	StateAwaitingContent
	StateAwaitingTags
	StateAwaitingSearchTag
)

// NoteDraft accumulates the note fields collected one message at a time.
type NoteDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Session is the full record for one chat, keyed by chat id and persisted
// with a TTL. Token is the bearer token obtained from POST /token.
type Session struct {
	ChatID   string    `json:"chat_id"`
	State    State     `json:"state"`
	Username string    `json:"username,omitempty"`
	Token    string    `json:"token,omitempty"`
	Draft    NoteDraft `json:"draft"`
}

// SessionStore persists chat sessions between messages.
type SessionStore interface {
	// Load returns (nil, nil) when the session is absent or expired.
	Load(ctx context.Context, chatID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context, chatID string) error
}

const sessionKeyPrefix = "chat:session:"

// RedisSessionStore keeps sessions in redis with a TTL, JSON-encoded.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

var _ SessionStore = (*RedisSessionStore)(nil)

func (s *RedisSessionStore) Load(ctx context.Context, chatID string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKeyPrefix+chatID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session %q: %w", chatID, err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", chatID, err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", sess.ChatID, err)
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+sess.ChatID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %q: %w", sess.ChatID, err)
	}
	return nil
}

func (s *RedisSessionStore) Clear(ctx context.Context, chatID string) error {
	if err := s.rdb.Del(ctx, sessionKeyPrefix+chatID).Err(); err != nil {
		return fmt.Errorf("clear session %q: %w", chatID, err)
	}
	return nil
}

// MemorySessionStore is a process-local fallback used when redis is not
// configured, and in tests. No TTL: sessions live as long as the process.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

var _ SessionStore = (*MemorySessionStore)(nil)

func (s *MemorySessionStore) Load(_ context.Context, chatID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		return nil, nil
	}
	out := sess
	return &out, nil
}

func (s *MemorySessionStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ChatID] = *sess
	return nil
}

func (s *MemorySessionStore) Clear(_ context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	return nil
}
