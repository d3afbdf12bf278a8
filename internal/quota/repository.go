// AngelaMos | 2026
// repository.go

package quota

import (
	"context"
	"fmt"

	"github.com/angelamos/chefbot-api/internal/store"
)

const rateLimitsTable = "rate_limits"

// RateLimitStore persists the hourly counters.
type RateLimitStore interface {
	Get(ctx context.Context, userID, bucket string) (*RateLimitRecord, error)
	Create(ctx context.Context, rec *RateLimitRecord) error
	SetCount(ctx context.Context, userID, bucket string, count int) error
}

type rateLimitStore struct {
	client *store.Client
}

func NewRateLimitStore(client *store.Client) RateLimitStore {
	return &rateLimitStore{client: client}
}

func (s *rateLimitStore) Get(
	ctx context.Context,
	userID, bucket string,
) (*RateLimitRecord, error) {
	var records []RateLimitRecord
	filters := store.NewFilters().
		Eq("user_id", userID).
		Eq("bucket", bucket)

	if err := s.client.Select(ctx, rateLimitsTable, filters, &records); err != nil {
		return nil, fmt.Errorf("get rate limit record: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	return &records[0], nil
}

func (s *rateLimitStore) Create(
	ctx context.Context,
	rec *RateLimitRecord,
) error {
	if err := s.client.Insert(ctx, rateLimitsTable, rec, "", nil); err != nil {
		return fmt.Errorf("create rate limit record: %w", err)
	}
	return nil
}

func (s *rateLimitStore) SetCount(
	ctx context.Context,
	userID, bucket string,
	count int,
) error {
	filters := store.NewFilters().
		Eq("user_id", userID).
		Eq("bucket", bucket)

	err := s.client.Update(ctx, rateLimitsTable, filters, map[string]any{
		"count": count,
	})
	if err != nil {
		return fmt.Errorf("update rate limit record: %w", err)
	}
	return nil
}
