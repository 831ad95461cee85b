// Package state defines the per-user conversation marker store.
package state

import (
	"context"
	"sync"
	"time"
)

// Store maps a user id to the identifier of the conversation currently
// handling that user's non-command messages. It provides read-your-writes
// consistency for a single user's sequential turns; concurrent updates
// for the same user are not serialized.
type Store interface {
	// CurrentConversation returns the user's marker and whether one is set.
	CurrentConversation(ctx context.Context, userID int64) (string, bool, error)
	// SetCurrentConversation sets the marker. An empty id clears it.
	SetCurrentConversation(ctx context.Context, userID int64, id string) error
	// ClearCurrentConversation removes the marker, if any.
	ClearCurrentConversation(ctx context.Context, userID int64) error
}

type marker struct {
	id        string
	updatedAt time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	markers map[int64]marker
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{markers: make(map[int64]marker), now: time.Now}
}

func (s *MemoryStore) CurrentConversation(_ context.Context, userID int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markers[userID]
	return m.id, ok, nil
}

func (s *MemoryStore) SetCurrentConversation(ctx context.Context, userID int64, id string) error {
	if id == "" {
		return s.ClearCurrentConversation(ctx, userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[userID] = marker{id: id, updatedAt: s.now()}
	return nil
}

func (s *MemoryStore) ClearCurrentConversation(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, userID)
	return nil
}

// ExpireConversations clears every marker last set before olderThan and
// returns how many were cleared.
func (s *MemoryStore) ExpireConversations(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for userID, m := range s.markers {
		if m.updatedAt.Before(olderThan) {
			delete(s.markers, userID)
			n++
		}
	}
	return n, nil
}
