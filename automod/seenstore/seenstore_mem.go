package seenstore

import (
	"context"
	"sync"
	"time"
)

type MemSeenStore struct {
	lk   sync.RWMutex
	data map[string]time.Time
}

var _ SeenStore = (*MemSeenStore)(nil)

func NewMemSeenStore() *MemSeenStore {
	return &MemSeenStore{
		data: make(map[string]time.Time),
	}
}

func (s *MemSeenStore) Has(ctx context.Context, postID string) (bool, error) {
	s.lk.RLock()
	defer s.lk.RUnlock()
	_, ok := s.data[postID]
	return ok, nil
}

func (s *MemSeenStore) Record(ctx context.Context, postID string) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	if _, ok := s.data[postID]; !ok {
		s.data[postID] = time.Now()
	}
	return nil
}

// Time the post was first recorded, if it was.
func (s *MemSeenStore) RecordedAt(postID string) (time.Time, bool) {
	s.lk.RLock()
	defer s.lk.RUnlock()
	t, ok := s.data[postID]
	return t, ok
}
