package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var ErrStateNotFound = errors.New("session state not found")

const (
	defaultMemoryCapacity = 10000
	defaultMemoryTTL      = 24 * time.Hour
)

// Store is the persistence contract behind the session manager. Sessions are
// in-memory per process unless an external store (Upstash) is plugged in.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, st *Session) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryConfig bounds the in-process store. TTL doubles as the session
// eviction policy: a stale session (and any pending action it carries)
// silently expires.
type MemoryConfig struct {
	Capacity int           `envconfig:"CAPACITY" split_words:"true" default:"10000"`
	TTL      time.Duration `envconfig:"TTL" split_words:"true" default:"24h"`
}

// MemoryStore keeps sessions in an expirable LRU. Values are stored as JSON
// so that loads hand out copies, never aliases into the cache.
type MemoryStore struct {
	cache *expirable.LRU[string, []byte]
}

func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	return &MemoryStore{
		cache: expirable.NewLRU[string, []byte](capacity, nil, ttl),
	}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	raw, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, ErrStateNotFound
	}
	var st Session
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &st, nil
}

func (s *MemoryStore) Save(ctx context.Context, st *Session) error {
	if st == nil {
		return ErrNilSession
	}
	if st.SessionID == "" {
		return ErrInvalidSession
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	s.cache.Add(st.SessionID, raw)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSession
	}
	s.cache.Remove(sessionID)
	return nil
}
