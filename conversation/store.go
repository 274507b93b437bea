package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/voicegate/types"
)

// Store is the append-only conversation history contract. There is
// deliberately no update or delete: immutability of appended items is
// an invariant, not an implementation detail.
type Store interface {
	// Register makes a session known to the store. Appending to an
	// unregistered session fails with UNKNOWN_SESSION.
	Register(ctx context.Context, sessionID string) error
	// Append assigns the item a monotonic position and creation time,
	// then appends it. Atomic per session.
	Append(ctx context.Context, sessionID string, item types.ConversationItem) (types.ConversationItem, error)
	// List returns the session's items in append order. The returned
	// slice is a snapshot: callers may keep iterating it while new
	// appends land.
	List(ctx context.Context, sessionID string) ([]types.ConversationItem, error)
}

// MemoryStore is the default in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionLog
	now      func() time.Time
}

type sessionLog struct {
	mu    sync.Mutex
	items []types.ConversationItem
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*sessionLog),
		now:      time.Now,
	}
}

// Register makes the session known. Registering twice is a no-op and
// never drops existing history.
func (s *MemoryStore) Register(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.sessions[sessionID] = &sessionLog{}
	}
	return nil
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, sessionID string, item types.ConversationItem) (types.ConversationItem, error) {
	s.mu.RLock()
	log, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return types.ConversationItem{}, types.NewUnknownSessionError(sessionID)
	}

	stored := item.Clone()
	stored.SessionID = sessionID
	if stored.ID == "" {
		stored.ID = "item_" + uuid.NewString()
	}
	log.mu.Lock()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	stored.Position = int64(len(log.items)) + 1
	log.items = append(log.items, stored)
	log.mu.Unlock()

	return stored.Clone(), nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, sessionID string) ([]types.ConversationItem, error) {
	s.mu.RLock()
	log, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, types.NewUnknownSessionError(sessionID)
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	out := make([]types.ConversationItem, len(log.items))
	for i, it := range log.items {
		out[i] = it.Clone()
	}
	return out, nil
}
