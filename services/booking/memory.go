package booking

import (
	"context"
	"sync"
	"time"

	"lumident/models"
)

// MemoryDraftStore is the zero-infrastructure DraftStore: a mutex-guarded
// map. Drafts are copied on the way in and out so callers never share
// mutable state with the store.
type MemoryDraftStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	drafts map[string]*models.BookingDraft
}

func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	return &MemoryDraftStore{
		ttl:    ttl,
		drafts: make(map[string]*models.BookingDraft),
	}
}

func (s *MemoryDraftStore) Put(_ context.Context, draft *models.BookingDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.drafts[draft.Token]; exists {
		return ErrDuplicateToken
	}
	cp := *draft
	s.drafts[draft.Token] = &cp
	return nil
}

func (s *MemoryDraftStore) Get(_ context.Context, token string) (*models.BookingDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.drafts[token]
	if !ok || draft.Expired(s.ttl, time.Now()) {
		return nil, ErrNotFound
	}
	cp := *draft
	return &cp, nil
}

func (s *MemoryDraftStore) Update(_ context.Context, draft *models.BookingDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[draft.Token]; !ok {
		return ErrNotFound
	}
	cp := *draft
	s.drafts[draft.Token] = &cp
	return nil
}

func (s *MemoryDraftStore) Remove(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, token)
	return nil
}

func (s *MemoryDraftStore) ExpiredTokens(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var tokens []string
	for token, draft := range s.drafts {
		if draft.Expired(s.ttl, now) {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

func (s *MemoryDraftStore) TakeExpired(_ context.Context, token string) (*models.BookingDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.drafts[token]
	if !ok || !draft.Expired(s.ttl, time.Now()) {
		return nil, ErrNotFound
	}
	delete(s.drafts, token)
	cp := *draft
	return &cp, nil
}
