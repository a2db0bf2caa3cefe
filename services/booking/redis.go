package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lumident/models"

	"github.com/go-redis/redis/v8"
)

const (
	draftKeyPrefix   = "draft:"
	draftDeadlineSet = "draft:deadlines"
	// Keys outlive the logical TTL by a grace window so the sweep can still
	// read a draft for its expiry notification before Redis evicts it.
	draftTTLGrace = 10 * time.Minute
)

// RedisDraftStore keeps drafts as JSON values with a native TTL, plus a
// sorted set scored by expiry deadline for sweep discovery. Intended for
// multi-process deployments where the in-memory store would split state.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl}
}

func draftKey(token string) string { return draftKeyPrefix + token }

func (s *RedisDraftStore) Put(ctx context.Context, draft *models.BookingDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal booking draft: %w", err)
	}

	ok, err := s.client.SetNX(ctx, draftKey(draft.Token), data, s.ttl+draftTTLGrace).Result()
	if err != nil {
		return fmt.Errorf("failed to store booking draft: %w", err)
	}
	if !ok {
		return ErrDuplicateToken
	}

	deadline := draft.CreatedAt.Add(s.ttl)
	if err := s.client.ZAdd(ctx, draftDeadlineSet, &redis.Z{
		Score:  float64(deadline.Unix()),
		Member: draft.Token,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index draft deadline: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Get(ctx context.Context, token string) (*models.BookingDraft, error) {
	draft, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if draft.Expired(s.ttl, time.Now()) {
		return nil, ErrNotFound
	}
	return draft, nil
}

func (s *RedisDraftStore) Update(ctx context.Context, draft *models.BookingDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal booking draft: %w", err)
	}

	// XX: only overwrite an existing key, keep the original TTL.
	set, err := s.client.SetXX(ctx, draftKey(draft.Token), data, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to update booking draft: %w", err)
	}
	if !set {
		return ErrNotFound
	}
	return nil
}

func (s *RedisDraftStore) Remove(ctx context.Context, token string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, draftKey(token))
	pipe.ZRem(ctx, draftDeadlineSet, token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove booking draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) ExpiredTokens(ctx context.Context) ([]string, error) {
	max := fmt.Sprintf("%d", time.Now().Unix())
	tokens, err := s.client.ZRangeByScore(ctx, draftDeadlineSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list expired drafts: %w", err)
	}
	return tokens, nil
}

func (s *RedisDraftStore) TakeExpired(ctx context.Context, token string) (*models.BookingDraft, error) {
	draft, err := s.load(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Redis evicted the key past the grace window; drop the index
			// entry so the sweep does not revisit it.
			s.client.ZRem(ctx, draftDeadlineSet, token)
		}
		return nil, err
	}
	if !draft.Expired(s.ttl, time.Now()) {
		return nil, ErrNotFound
	}
	if err := s.Remove(ctx, token); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *RedisDraftStore) load(ctx context.Context, token string) (*models.BookingDraft, error) {
	data, err := s.client.Get(ctx, draftKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking draft: %w", err)
	}

	var draft models.BookingDraft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse booking draft: %w", err)
	}
	return &draft, nil
}
