package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopadmin/catalog/internal/selector"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

var ErrDraftNotFound = errors.New("draft not found")

// Draft is one open product form: the category selector state plus the
// product it edits, if any.
type Draft struct {
	ID           string         `json:"id"`
	ProductID    string         `json:"product_id,omitempty"`
	Selection    selector.State `json:"selection"`
	TagIDs       []string       `json:"tag_ids,omitempty"`
	Missing      []string       `json:"missing,omitempty"`       // assigned ids no longer in the tree
	SubmissionID string         `json:"submission_id,omitempty"` // latest queued submission
	UpdatedAt    time.Time      `json:"updated_at"`
}

type DraftStore interface {
	GetDraft(ctx context.Context, id string) (*Draft, error)
	SaveDraft(ctx context.Context, draft *Draft) error
	DeleteDraft(ctx context.Context, id string) error
}

type redisDraftStore struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

func NewRedisDraftStore(redisClient *redis.Client, ttl time.Duration) DraftStore {
	return &redisDraftStore{
		redisClient: redisClient,
		keyPrefix:   "shopadmin:draft:",
		ttl:         ttl,
	}
}

func (s *redisDraftStore) GetDraft(ctx context.Context, id string) (*Draft, error) {
	val, err := s.redisClient.Get(ctx, s.keyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
		}
		return nil, fmt.Errorf("failed to get draft %s: %w", id, err)
	}

	var draft Draft
	if err := json.Unmarshal(val, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", id, err)
	}
	return &draft, nil
}

// SaveDraft stores the draft and restarts its expiry
func (s *redisDraftStore) SaveDraft(ctx context.Context, draft *Draft) error {
	draft.UpdatedAt = time.Now().UTC()
	val, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", draft.ID, err)
	}

	if err := s.redisClient.Set(ctx, s.keyPrefix+draft.ID, val, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft %s: %w", draft.ID, err)
	}
	return nil
}

func (s *redisDraftStore) DeleteDraft(ctx context.Context, id string) error {
	if err := s.redisClient.Del(ctx, s.keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	return nil
}
