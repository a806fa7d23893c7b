package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SaveLink caches a resolved link under key
func (s *Store) SaveLink(ctx context.Context, key string, link *domain.AppLink, ttl time.Duration) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}
	if err := s.client.Set(ctx, LinkKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache link: %w", err)
	}
	return nil
}

// GetLink retrieves a cached link. A miss is (nil, false, nil).
func (s *Store) GetLink(ctx context.Context, key string) (*domain.AppLink, bool, error) {
	data, err := s.client.Get(ctx, LinkKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached link: %w", err)
	}

	var link domain.AppLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal link: %w", err)
	}
	return &link, true, nil
}

// InvalidateLink removes a cached link
func (s *Store) InvalidateLink(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, LinkKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate link: %w", err)
	}
	return nil
}

// FlushLinks removes all cached links
func (s *Store) FlushLinks(ctx context.Context) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixLink+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("failed to delete link key: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to flush links: %w", err)
	}
	return removed, nil
}
