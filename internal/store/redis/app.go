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

const (
	// DefaultAppTTL is the default TTL for app registry entries (48 hours)
	DefaultAppTTL = 48 * time.Hour
)

// Store handles Redis operations for the app registry and the link cache
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SaveApp stores an app in Redis
func (s *Store) SaveApp(ctx context.Context, app *domain.App) error {
	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal app: %w", err)
	}

	if err := s.client.Set(ctx, AppKey(app.Scheme), data, DefaultAppTTL).Err(); err != nil {
		return fmt.Errorf("failed to save app: %w", err)
	}

	if err := s.client.SAdd(ctx, AllAppsKey(), app.Scheme).Err(); err != nil {
		return fmt.Errorf("failed to add app to set: %w", err)
	}

	return nil
}

// GetApp retrieves an app from Redis by scheme
func (s *Store) GetApp(ctx context.Context, scheme string) (*domain.App, error) {
	data, err := s.client.Get(ctx, AppKey(scheme)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("app not found: %s", scheme)
		}
		return nil, fmt.Errorf("failed to get app: %w", err)
	}

	var app domain.App
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("failed to unmarshal app: %w", err)
	}

	return &app, nil
}

// GetAllApps retrieves all apps from Redis
func (s *Store) GetAllApps(ctx context.Context) ([]*domain.App, error) {
	schemes, err := s.client.SMembers(ctx, AllAppsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get app schemes: %w", err)
	}

	if len(schemes) == 0 {
		return []*domain.App{}, nil
	}

	apps := make([]*domain.App, 0, len(schemes))
	for _, scheme := range schemes {
		app, err := s.GetApp(ctx, scheme)
		if err != nil {
			// Expired entries stay in the set until the next delete
			continue
		}
		apps = append(apps, app)
	}

	return apps, nil
}

// DeleteApp removes an app from Redis
func (s *Store) DeleteApp(ctx context.Context, scheme string) error {
	if err := s.client.Del(ctx, AppKey(scheme)).Err(); err != nil {
		return fmt.Errorf("failed to delete app: %w", err)
	}

	if err := s.client.SRem(ctx, AllAppsKey(), scheme).Err(); err != nil {
		return fmt.Errorf("failed to remove app from set: %w", err)
	}

	return nil
}

// SaveAppsMany stores multiple apps in Redis (bulk operation)
func (s *Store) SaveAppsMany(ctx context.Context, apps []*domain.App) error {
	pipe := s.client.Pipeline()

	for _, app := range apps {
		data, err := json.Marshal(app)
		if err != nil {
			return fmt.Errorf("failed to marshal app %s: %w", app.Scheme, err)
		}

		pipe.Set(ctx, AppKey(app.Scheme), data, DefaultAppTTL)
		pipe.SAdd(ctx, AllAppsKey(), app.Scheme)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save apps: %w", err)
	}

	return nil
}
