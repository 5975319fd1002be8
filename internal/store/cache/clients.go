package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"healthtick/backend/internal/domain"
	"healthtick/backend/internal/store"
)

const (
	clientsKey        = "healthtick:clients"
	defaultClientsTTL = time.Minute
)

// CachedStore serves the client directory from Redis and passes every other
// call straight to the wrapped store. Bookings are never cached.
type CachedStore struct {
	store.BookingStore

	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewCachedStore(next store.BookingStore, client *redis.Client, ttl time.Duration, log *slog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = defaultClientsTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachedStore{
		BookingStore: next,
		client:       client,
		ttl:          ttl,
		log:          log.With(slog.String("component", "store.cache")),
	}
}

// ListClients reads through the cache. Redis failures are logged and the
// wrapped store is used instead.
func (s *CachedStore) ListClients(ctx context.Context) ([]domain.Client, error) {
	data, err := s.client.Get(ctx, clientsKey).Bytes()
	switch {
	case err == nil:
		var clients []domain.Client
		if err := json.Unmarshal(data, &clients); err == nil {
			return clients, nil
		}
		s.log.Warn("discarding unreadable cached clients")
	case errors.Is(err, redis.Nil):
	default:
		s.log.Warn("client cache read failed", slog.Any("err", err))
	}

	clients, err := s.BookingStore.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(clients)
	if err != nil {
		return clients, nil
	}
	if err := s.client.Set(ctx, clientsKey, data, s.ttl).Err(); err != nil {
		s.log.Warn("client cache write failed", slog.Any("err", err))
	}
	return clients, nil
}

func (s *CachedStore) Invalidate(ctx context.Context) error {
	return s.client.Del(ctx, clientsKey).Err()
}
